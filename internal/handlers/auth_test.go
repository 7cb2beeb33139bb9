package handlers

import (
	"net/http"
	"testing"

	"cybercase/internal/access"
	"cybercase/internal/constants"
	"cybercase/internal/testutil"
	"cybercase/internal/web"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func login(t *testing.T, h *AuthHandler, username, password string) (*sessionResponse, envelope, int) {
	t.Helper()
	rec := serve(t, h.Login, request{
		method: http.MethodPost,
		target: "/api/v1/auth/login",
		body:   map[string]string{"username": username, "password": password},
	})
	env := decode(t, rec)
	if rec.Code != http.StatusOK {
		return nil, env, rec.Code
	}
	var resp sessionResponse
	decodeData(t, rec, &resp)
	return &resp, env, rec.Code
}

func TestLogin_BootstrapAdmin(t *testing.T) {
	cleanup := testutil.SetupTestDB(t)
	defer cleanup()
	cfg := testutil.TestConfig()
	h := NewAuthHandler(cfg)

	rec := serve(t, h.Login, request{
		method: http.MethodPost,
		target: "/api/v1/auth/login",
		body:   map[string]string{"username": testutil.AdminUsername, "password": testutil.AdminPassword},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp sessionResponse
	decodeData(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "admin", resp.User.Username)
	assert.Equal(t, constants.RoleAdmin, resp.User.Role)
	assert.True(t, resp.User.MustChangePassword)
	assert.Contains(t, resp.Permissions, constants.PermManageUsers)

	claims, err := web.ValidateJWT(resp.Token, cfg.Auth.JWTSecret)
	require.NoError(t, err)
	assert.True(t, claims.MustChangePassword)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, web.TokenCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	cleanup := testutil.SetupTestDB(t)
	defer cleanup()
	h := NewAuthHandler(testutil.TestConfig())

	_, wrongPw, code := login(t, h, "admin", "nope")
	assert.Equal(t, http.StatusUnauthorized, code)

	_, unknown, code := login(t, h, "ghost", "admin123")
	assert.Equal(t, http.StatusUnauthorized, code)

	_, wrongCase, code := login(t, h, "Admin", "admin123")
	assert.Equal(t, http.StatusUnauthorized, code)

	assert.Equal(t, web.ErrInvalidCredentials.Code, wrongPw.ErrorCode)
	assert.Equal(t, wrongPw.ErrorCode, unknown.ErrorCode)
	assert.Equal(t, wrongPw.Message, unknown.Message)
	assert.Equal(t, wrongPw.Message, wrongCase.Message)
}

func TestLogin_EmptyAndMalformed(t *testing.T) {
	cleanup := testutil.SetupTestDB(t)
	defer cleanup()
	h := NewAuthHandler(testutil.TestConfig())

	_, env, code := login(t, h, "", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, web.ErrEmptyCredentials.Code, env.ErrorCode)

	rec := serve(t, h.Login, request{method: http.MethodPost, target: "/api/v1/auth/login", body: `{"username":"admin"`})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, web.ErrInvalidBody.Code, decode(t, rec).ErrorCode)

	rec = serve(t, h.Login, request{
		method: http.MethodPost,
		target: "/api/v1/auth/login",
		body:   map[string]string{"username": "admin", "password": "admin123", "remember": "yes"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout_RecordsActivityAndClearsCookie(t *testing.T) {
	cleanup := testutil.SetupTestDB(t)
	defer cleanup()
	h := NewAuthHandler(testutil.TestConfig())

	rec := serve(t, h.Logout, request{method: http.MethodPost, target: "/api/v1/auth/logout", principal: &adminPrincipal})
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Less(t, cookies[0].MaxAge, 0)

	entries := activityFor(t, "admin")
	require.NotEmpty(t, entries)
	assert.Equal(t, constants.ActionLogout, entries[0].Action)
}

func TestMe(t *testing.T) {
	p := access.Principal{ID: 7, Username: "viewer1", FullName: "View Only", Role: constants.RoleViewer}
	h := NewAuthHandler(testutil.TestConfig())

	rec := serve(t, h.Me, request{method: http.MethodGet, target: "/api/v1/auth/me", principal: &p})
	require.Equal(t, http.StatusOK, rec.Code)

	var me meResponse
	decodeData(t, rec, &me)
	assert.Equal(t, "viewer1", me.Username)
	assert.Equal(t, []string{constants.PermView}, me.Permissions)
}

func TestChangePassword(t *testing.T) {
	cleanup := testutil.SetupTestDB(t)
	defer cleanup()
	cfg := testutil.TestConfig()
	h := NewAuthHandler(cfg)

	session, _, code := login(t, h, "admin", "admin123")
	require.Equal(t, http.StatusOK, code)
	p := session.User

	change := func(old, next string) (int, envelope) {
		rec := serve(t, h.ChangePassword, request{
			method:    http.MethodPut,
			target:    "/api/v1/auth/password",
			body:      map[string]string{"old_password": old, "new_password": next},
			principal: &p,
		})
		return rec.Code, decode(t, rec)
	}

	code, env := change("wrong", "s3cure-pass")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, web.ErrOldPasswordWrong.Code, env.ErrorCode)

	code, env = change("admin123", "abc")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, web.ErrPasswordTooShort.Code, env.ErrorCode)

	code, env = change("admin123", "s3cure-pass")
	require.Equal(t, http.StatusOK, code)
	var fresh sessionResponse
	require.NoError(t, jsonUnmarshal(env.Data, &fresh))
	assert.False(t, fresh.User.MustChangePassword)
	claims, err := web.ValidateJWT(fresh.Token, cfg.Auth.JWTSecret)
	require.NoError(t, err)
	assert.False(t, claims.MustChangePassword)

	_, _, code = login(t, h, "admin", "admin123")
	assert.Equal(t, http.StatusUnauthorized, code)
	again, _, code := login(t, h, "admin", "s3cure-pass")
	require.Equal(t, http.StatusOK, code)
	assert.False(t, again.User.MustChangePassword)
}
