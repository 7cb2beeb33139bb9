package web

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"cybercase/internal/access"
	"cybercase/internal/logger"
)

// TokenCookie carries the session token for browser clients.
const TokenCookie = "cybercase_token"

// StatusWriter records the status code written through it.
type StatusWriter struct {
	http.ResponseWriter
	status int
}

func (w *StatusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *StatusWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *StatusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not support hijacking")
}

// NewStatusWriter wraps w so the written status can be read back.
func NewStatusWriter(w http.ResponseWriter) *StatusWriter {
	return &StatusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *StatusWriter) Status() int { return w.status }

func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.HTTP.Error().
					Str("request_id", GetRequestID(r)).
					Interface("panic", err).
					Str("stack", string(debug.Stack())).
					Msg("PANIC RECOVERED")
				FailErr(w, r, ErrInternalError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := GenerateRequestID()
		r = SetRequestID(r, id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

// ClientIP extracts the IP address from RemoteAddr, handling IPv6 correctly.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SanitizePath redacts sensitive query parameters (e.g. token) for logging.
func SanitizePath(r *http.Request) string {
	if r.URL.RawQuery == "" {
		return r.URL.Path
	}
	q := r.URL.Query()
	if q.Get("token") != "" {
		q.Set("token", "[REDACTED]")
		return r.URL.Path + "?" + q.Encode()
	}
	return r.URL.RequestURI()
}

func RequestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := NewStatusWriter(w)
		next.ServeHTTP(sw, r)
		logger.HTTP.Info().
			Str("request_id", GetRequestID(r)).
			Str("method", r.Method).
			Str("path", SanitizePath(r)).
			Str("ip", ClientIP(r)).
			Int("status", sw.status).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	})
}

func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool)
	for _, o := range origins {
		allowed[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			// empty list = same-origin only
			if origin != "" && len(allowed) > 0 && allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.Header().Set("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersMiddleware adds security response headers.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; connect-src 'self' ws: wss:")
		next.ServeHTTP(w, r)
	})
}

// TimeoutMiddleware bounds the request context, and with it every storage
// call made while serving the request.
func TimeoutMiddleware(d time.Duration, skipPaths []string) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d <= 0 || skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimiter is a fixed-window limiter keyed by client.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rateBucket
	rate    int           // max requests per window
	window  time.Duration // window duration
}

type rateBucket struct {
	count   int
	resetAt time.Time
}

func NewRateLimiter(ctx context.Context, rate int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*rateBucket),
		rate:    rate,
		window:  window,
	}
	// periodically clean expired entries; stop when ctx is cancelled
	go func() {
		ticker := time.NewTicker(window * 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.mu.Lock()
				now := time.Now()
				for k, b := range rl.clients {
					if now.After(b.resetAt) {
						delete(rl.clients, k)
					}
				}
				rl.mu.Unlock()
			}
		}
	}()
	return rl
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, exists := rl.clients[key]
	if !exists || now.After(b.resetAt) {
		rl.clients[key] = &rateBucket{count: 1, resetAt: now.Add(rl.window)}
		return true
	}
	if b.count >= rl.rate {
		return false
	}
	b.count++
	return true
}

// RateLimitMiddleware rate-limits specific paths.
func RateLimitMiddleware(limiter *RateLimiter, paths []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range paths {
				if r.URL.Path == p {
					ip := ClientIP(r)
					if !limiter.Allow(ip + ":" + p) {
						logger.HTTP.Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("request rate limited")
						FailErr(w, r, ErrRateLimited)
						return
					}
					break
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuditFunc records access-control events raised by middleware.
type AuditFunc func(ctx context.Context, username, action, detail string)

var authAuditFn AuditFunc

// SetAuthAuditFunc registers the audit callback used by auth middleware.
func SetAuthAuditFunc(fn AuditFunc) { authAuditFn = fn }

func audit(r *http.Request, username, action, detail string) {
	if authAuditFn != nil {
		authAuditFn(r.Context(), username, action, detail)
	}
}

// SessionResolver reloads the live principal behind a token's claims.
// It returns access.ErrSessionRevoked when the account may no longer act.
type SessionResolver func(ctx context.Context, claimed access.Principal) (*access.Principal, error)

var sessionResolver SessionResolver

// SetSessionResolver registers the lookup run on every authenticated request.
// Without one the token claims are trusted as issued.
func SetSessionResolver(fn SessionResolver) { sessionResolver = fn }

// sessionFromToken validates tokenStr and returns the principal allowed to act.
func sessionFromToken(r *http.Request, tokenStr, jwtSecret string) (access.Principal, *AppError) {
	claims, err := ValidateJWT(tokenStr, jwtSecret)
	if err != nil {
		return access.Principal{}, ErrTokenExpired
	}
	p := claims.Principal()
	if sessionResolver == nil {
		return p, nil
	}
	live, err := sessionResolver(r.Context(), p)
	switch {
	case errors.Is(err, access.ErrSessionRevoked):
		return access.Principal{}, ErrSessionRevoked
	case errors.Is(err, context.DeadlineExceeded):
		return access.Principal{}, ErrTimeout
	case err != nil:
		logger.Auth.Error().Err(err).Str("username", p.Username).Msg("session lookup failed")
		return access.Principal{}, ErrDBQuery
	}
	return *live, nil
}

// TokenFromRequest reads a Bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if cookie, err := r.Cookie(TokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// AuthMiddleware validates the session token on /api/ paths not in skipPaths.
// While the token demands a password change, only resetPaths are reachable.
func AuthMiddleware(jwtSecret string, skipPaths, resetPaths []string) func(http.Handler) http.Handler {
	skipSet := make(map[string]bool, len(skipPaths))
	for _, sp := range skipPaths {
		skipSet[sp] = true
	}
	resetSet := make(map[string]bool, len(resetPaths))
	for _, rp := range resetPaths {
		resetSet[rp] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if skipSet[path] || !strings.HasPrefix(path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}

			tokenStr := TokenFromRequest(r)
			if tokenStr == "" {
				audit(r, "", "AUTH_FAILED", "no token: "+path)
				FailErr(w, r, ErrUnauthorized)
				return
			}

			p, appErr := sessionFromToken(r, tokenStr, jwtSecret)
			if appErr != nil {
				if appErr.HTTPStatus == http.StatusUnauthorized {
					audit(r, "", "AUTH_FAILED", appErr.Message+": "+path)
				}
				FailErr(w, r, appErr)
				return
			}

			if p.MustChangePassword && !resetSet[path] {
				FailErr(w, r, ErrPasswordChangeRequired)
				return
			}

			next.ServeHTTP(w, SetPrincipal(r, p))
		})
	}
}

// RequirePermission rejects callers whose role lacks action.
func RequirePermission(action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r)
		if !access.CheckPermission(p.Role, action) {
			audit(r, p.Username, "FORBIDDEN", action+" required: "+r.Method+" "+r.URL.Path)
			logger.Auth.Warn().Str("username", p.Username).Str("role", p.Role).Str("action", action).Msg("permission denied")
			FailErr(w, r, ErrForbidden)
			return
		}
		next(w, r)
	}
}

// MaxBodySizeMiddleware limits request body size to prevent OOM from oversized payloads.
func MaxBodySizeMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.ContentLength != 0 {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// InputSanitizeMiddleware rejects query parameters carrying script injection.
func InputSanitizeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for key, values := range r.URL.Query() {
			for _, v := range values {
				if containsDangerousInput(v) {
					logger.HTTP.Warn().Str("param", key).Msg("suspicious input detected")
					FailErr(w, r, ErrInvalidInput)
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

func containsDangerousInput(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range []string{"<script", "javascript:", "onerror=", "onload="} {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
