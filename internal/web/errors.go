package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// AppError represents a structured API error with a machine-readable code.
// Message is an English fallback; clients key their own text off Code.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(code, message string, httpStatus int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, Err: err}
}

// FailErr writes a structured error response from an AppError.
// Optional detail is appended to the message (e.g. err.Error()).
func FailErr(w http.ResponseWriter, r *http.Request, e *AppError, detail ...string) {
	msg := e.Message
	if len(detail) > 0 && detail[0] != "" {
		msg = msg + ": " + detail[0]
	}
	Fail(w, r, e.Code, msg, e.HTTPStatus)
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

var (
	ErrUnauthorized           = &AppError{"AUTH_UNAUTHORIZED", "not logged in or session expired", 401, nil}
	ErrForbidden              = &AppError{"AUTH_FORBIDDEN", "permission denied", 403, nil}
	ErrInvalidCredentials     = &AppError{"AUTH_INVALID_CREDENTIALS", "invalid username or password", 401, nil}
	ErrTokenExpired           = &AppError{"AUTH_TOKEN_EXPIRED", "session expired, please login again", 401, nil}
	ErrSessionRevoked         = &AppError{"AUTH_SESSION_REVOKED", "account is no longer active", 401, nil}
	ErrEmptyCredentials       = &AppError{"AUTH_EMPTY_CREDENTIALS", "username and password required", 400, nil}
	ErrPasswordTooShort       = &AppError{"AUTH_PASSWORD_TOO_SHORT", "password must be at least 6 characters", 400, nil}
	ErrOldPasswordWrong       = &AppError{"AUTH_OLD_PASSWORD_WRONG", "old password incorrect", 401, nil}
	ErrPasswordChangeRequired = &AppError{"AUTH_PASSWORD_CHANGE_REQUIRED", "password must be changed before continuing", 403, nil}
	ErrLoginFailed            = &AppError{"AUTH_LOGIN_FAILED", "login failed", 500, nil}
)

// ---------------------------------------------------------------------------
// System / generic
// ---------------------------------------------------------------------------

var (
	ErrNotFound         = &AppError{"NOT_FOUND", "resource not found", 404, nil}
	ErrMethodNotAllowed = &AppError{"SYSTEM_METHOD_NOT_ALLOWED", "method not allowed", 405, nil}
	ErrInvalidParam     = &AppError{"INVALID_PARAM", "invalid request parameter", 400, nil}
	ErrInvalidBody      = &AppError{"INVALID_BODY", "invalid request body", 400, nil}
	ErrValidation       = &AppError{"VALIDATION_FAILED", "validation failed", 400, nil}
	ErrInternalError    = &AppError{"INTERNAL_ERROR", "internal server error", 500, nil}
	ErrRateLimited      = &AppError{"RATE_LIMITED", "too many requests, please try later", 429, nil}
	ErrInvalidInput     = &AppError{"INVALID_INPUT", "input contains illegal characters", 400, nil}
	ErrDBQuery          = &AppError{"DB_QUERY_FAILED", "database query failed", 500, nil}
	ErrTimeout          = &AppError{"REQUEST_TIMEOUT", "storage did not respond in time", 503, nil}
)

// ---------------------------------------------------------------------------
// Cases
// ---------------------------------------------------------------------------

var (
	ErrCaseNotFound     = &AppError{"CASE_NOT_FOUND", "case not found", 404, nil}
	ErrCaseFieldsMissed = &AppError{"CASE_REQUIRED_FIELDS", "Please fill in all required fields (Title, Crime Type, Incident Date)", 400, nil}
	ErrCaseCreateFail   = &AppError{"CASE_CREATE_FAILED", "case creation failed", 500, nil}
	ErrCaseUpdateFail   = &AppError{"CASE_UPDATE_FAILED", "case update failed", 500, nil}
	ErrCaseEmptyUpdate  = &AppError{"CASE_EMPTY_UPDATE", "no fields to update", 400, nil}
)

// ---------------------------------------------------------------------------
// User management
// ---------------------------------------------------------------------------

var (
	ErrUserFieldsMissed = &AppError{"USER_REQUIRED_FIELDS", "Please fill in all fields", 400, nil}
	ErrUserNotFound     = &AppError{"USER_NOT_FOUND", "user not found", 404, nil}
	ErrUserExists       = &AppError{"USER_EXISTS", "username already exists", 409, nil}
	ErrUserCreateFail   = &AppError{"USER_CREATE_FAILED", "user creation failed", 500, nil}
	ErrUserQueryFail    = &AppError{"USER_QUERY_FAILED", "user query failed", 500, nil}
	ErrUserSelfDelete   = &AppError{"USER_SELF_DEACTIVATE", "cannot deactivate current user", 403, nil}
)

// ---------------------------------------------------------------------------
// Reports / Activity / Export
// ---------------------------------------------------------------------------

var (
	ErrReportType     = &AppError{"REPORT_TYPE_INVALID", "unknown report type", 400, nil}
	ErrReportFailed   = &AppError{"REPORT_FAILED", "report generation failed", 500, nil}
	ErrInvalidDate    = &AppError{"INVALID_DATE", "dates must be YYYY-MM-DD", 400, nil}
	ErrActivityQuery  = &AppError{"ACTIVITY_QUERY_FAILED", "activity query failed", 500, nil}
	ErrExportFailed   = &AppError{"EXPORT_FAILED", "export failed", 500, nil}
	ErrExportFormat   = &AppError{"EXPORT_FORMAT_INVALID", "format must be csv or json", 400, nil}
	ErrDashboardQuery = &AppError{"DASHBOARD_QUERY_FAILED", "dashboard query failed", 500, nil}
)

// FailStore reports a storage error, using ErrTimeout when the request
// deadline expired and fallback otherwise.
func FailStore(w http.ResponseWriter, r *http.Request, err error, fallback *AppError) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(r.Context().Err(), context.DeadlineExceeded) {
		FailErr(w, r, ErrTimeout)
		return
	}
	FailErr(w, r, fallback)
}
