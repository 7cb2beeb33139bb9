package web

import (
	"time"

	"cybercase/internal/access"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "cybercase"

type JWTClaims struct {
	UserID             uint   `json:"user_id"`
	Username           string `json:"username"`
	FullName           string `json:"full_name"`
	Role               string `json:"role"`
	MustChangePassword bool   `json:"must_change_password,omitempty"`
	jwt.RegisteredClaims
}

// Principal rebuilds the authenticated user carried by the token.
func (c *JWTClaims) Principal() access.Principal {
	return access.Principal{
		ID:                 c.UserID,
		Username:           c.Username,
		FullName:           c.FullName,
		Role:               c.Role,
		MustChangePassword: c.MustChangePassword,
	}
}

func GenerateJWT(p access.Principal, secret string, expire time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(expire)
	claims := JWTClaims{
		UserID:             p.ID,
		Username:           p.Username,
		FullName:           p.FullName,
		Role:               p.Role,
		MustChangePassword: p.MustChangePassword,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(secret))
	return tokenStr, expiresAt, err
}

func ValidateJWT(tokenStr, secret string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
