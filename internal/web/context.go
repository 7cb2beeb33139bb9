package web

import (
	"context"
	"net/http"

	"cybercase/internal/access"

	"github.com/google/uuid"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	principalKey contextKey = "principal"
)

func SetRequestID(r *http.Request, id string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), requestIDKey, id))
}

func GetRequestID(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

func SetPrincipal(r *http.Request, p access.Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), principalKey, p))
}

// GetPrincipal returns the authenticated user, or the zero value.
func GetPrincipal(r *http.Request) access.Principal {
	if v, ok := r.Context().Value(principalKey).(access.Principal); ok {
		return v
	}
	return access.Principal{}
}

func GetUserID(r *http.Request) uint {
	return GetPrincipal(r).ID
}

func GetUsername(r *http.Request) string {
	return GetPrincipal(r).Username
}

func GetRole(r *http.Request) string {
	return GetPrincipal(r).Role
}

func GenerateRequestID() string {
	return "req_" + uuid.NewString()
}
