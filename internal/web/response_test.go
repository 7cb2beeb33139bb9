package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestOK(t *testing.T) {
	req := SetRequestID(httptest.NewRequest(http.MethodGet, "/test", nil), "req_abc")
	w := httptest.NewRecorder()

	OK(w, req, map[string]string{"message": "hello"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "req_abc", resp.RequestID)
	_, err := time.Parse(time.RFC3339, resp.Timestamp)
	assert.NoError(t, err)
}

func TestCreated(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	w := httptest.NewRecorder()

	Created(w, req, map[string]string{"case_id": "CYB-2024-0001"}, "Case registered")

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "Case registered", resp.Message)
}

func TestOKPage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	OKPage(w, req, []string{"item1", "item2", "item3"}, 100, 1, 10)

	resp := decodeResponse(t, w)
	dataMap, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, dataMap["list"], 3)
	assert.Equal(t, float64(100), dataMap["total"])
	assert.Equal(t, float64(1), dataMap["page"])
	assert.Equal(t, float64(10), dataMap["page_size"])
	assert.Equal(t, float64(10), dataMap["total_pages"])
}

func TestOKRows(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test?page=2", nil)
	w := httptest.NewRecorder()

	OKRows(w, req, []int{1, 2, 3, 4, 5}, PageQuery{Page: 2, PageSize: 2})

	resp := decodeResponse(t, w)
	dataMap, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{float64(3), float64(4)}, dataMap["list"])
	assert.Equal(t, float64(5), dataMap["total"])
	assert.Equal(t, float64(3), dataMap["total_pages"])
}

func TestFailErr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	w := httptest.NewRecorder()
	FailErr(w, req, ErrCaseNotFound)
	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "CASE_NOT_FOUND", resp.ErrorCode)
	assert.Nil(t, resp.Data)

	w = httptest.NewRecorder()
	FailErr(w, req, ErrInvalidParam, "unknown status")
	assert.Equal(t, "invalid request parameter: unknown status", decodeResponse(t, w).Message)
}

func TestFailErr_StatusCodes(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrValidation, http.StatusBadRequest},
		{ErrUserExists, http.StatusConflict},
		{ErrRateLimited, http.StatusTooManyRequests},
		{ErrDBQuery, http.StatusInternalServerError},
		{ErrTimeout, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			w := httptest.NewRecorder()
			FailErr(w, httptest.NewRequest(http.MethodGet, "/test", nil), tt.err)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestFailStore(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)

	w := httptest.NewRecorder()
	FailStore(w, req, errors.New("disk I/O error"), ErrDBQuery)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, ErrDBQuery.Code, decodeResponse(t, w).ErrorCode)

	w = httptest.NewRecorder()
	FailStore(w, req, context.DeadlineExceeded, ErrDBQuery)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()
	w = httptest.NewRecorder()
	FailStore(w, req.WithContext(ctx), errors.New("interrupted"), ErrDBQuery)
	assert.Equal(t, ErrTimeout.Code, decodeResponse(t, w).ErrorCode)
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewAppError("X", "failed", 500, cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed: boom", err.Error())
	assert.Equal(t, "database query failed", ErrDBQuery.Error())
}
