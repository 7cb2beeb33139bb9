package handlers

import (
	"errors"
	"net/http"
	"time"

	"cybercase/internal/access"
	"cybercase/internal/database"
	"cybercase/internal/logger"
	"cybercase/internal/metrics"
	"cybercase/internal/security"
	"cybercase/internal/web"
	"cybercase/internal/webconfig"
)

type AuthHandler struct {
	auth *access.Service
	cfg  *webconfig.Config
}

func NewAuthHandler(cfg *webconfig.Config) *AuthHandler {
	return &AuthHandler{
		auth: access.NewService(),
		cfg:  cfg,
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Token       string           `json:"token"`
	ExpiresAt   string           `json:"expires_at"`
	User        access.Principal `json:"user"`
	Permissions []string         `json:"permissions"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := web.DecodeJSONBody(r, &req); err != nil {
		web.FailBody(w, r, err, web.ErrEmptyCredentials)
		return
	}

	p, err := h.auth.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, access.ErrInvalidCredentials) {
		metrics.ObserveLogin("failure")
		logger.Auth.Warn().Str("username", req.Username).Str("ip", web.ClientIP(r)).Msg("login failed")
		web.FailErr(w, r, web.ErrInvalidCredentials)
		return
	}
	if err != nil {
		metrics.ObserveLogin("error")
		logger.Auth.Error().Err(err).Str("username", req.Username).Msg("login lookup failed")
		web.FailStore(w, r, err, web.ErrLoginFailed)
		return
	}

	metrics.ObserveLogin("success")
	logger.Auth.Info().Str("username", p.Username).Str("ip", web.ClientIP(r)).Msg("user logged in")
	h.issueSession(w, r, *p)
}

// issueSession signs a token for p, sets the session cookie and writes the
// session body.
func (h *AuthHandler) issueSession(w http.ResponseWriter, r *http.Request, p access.Principal) {
	token, expiresAt, err := web.GenerateJWT(p, h.cfg.Auth.JWTSecret, h.cfg.JWTExpireDuration())
	if err != nil {
		logger.Auth.Error().Err(err).Msg("JWT generation failed")
		web.FailErr(w, r, web.ErrLoginFailed)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     web.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	web.OK(w, r, sessionResponse{
		Token:       token,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
		User:        p,
		Permissions: access.Permissions(p.Role),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	p := web.GetPrincipal(r)
	h.auth.Logout(r.Context(), p.Username)
	logger.Auth.Info().Str("username", p.Username).Msg("user logged out")

	http.SetCookie(w, &http.Cookie{
		Name:     web.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	web.OK(w, r, map[string]string{"message": "logged out"})
}

type meResponse struct {
	access.Principal
	Permissions []string `json:"permissions"`
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p := web.GetPrincipal(r)
	web.OK(w, r, meResponse{Principal: p, Permissions: access.Permissions(p.Role)})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// ChangePassword replaces the caller's password and issues a fresh token
// without the forced-change flag.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := web.DecodeJSONBody(r, &req); err != nil {
		web.FailBody(w, r, err, web.ErrEmptyCredentials)
		return
	}
	if len(req.NewPassword) < security.MinPasswordLength {
		web.FailErr(w, r, web.ErrPasswordTooShort)
		return
	}

	p := web.GetPrincipal(r)
	err := h.auth.ChangePassword(r.Context(), p.ID, req.OldPassword, req.NewPassword)
	if errors.Is(err, access.ErrWrongPassword) {
		logger.Auth.Warn().Str("username", p.Username).Msg("password change rejected: wrong current password")
		web.FailErr(w, r, web.ErrOldPasswordWrong)
		return
	}
	if errors.Is(err, database.ErrUserNotFound) {
		web.FailErr(w, r, web.ErrUserNotFound)
		return
	}
	if err != nil {
		logger.Auth.Error().Err(err).Str("username", p.Username).Msg("password change failed")
		web.FailStore(w, r, err, web.ErrDBQuery)
		return
	}

	logger.Auth.Info().Str("username", p.Username).Msg("password changed")
	p.MustChangePassword = false
	h.issueSession(w, r, p)
}
