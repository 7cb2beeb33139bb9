package web

import (
	"encoding/json"
	"net/http"
	"time"

	"cybercase/internal/logger"
)

// Response is the envelope every /api/v1 endpoint answers with.
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	ErrorCode string      `json:"error_code,omitempty"`
	Timestamp string      `json:"timestamp"`
	RequestID string      `json:"request_id"`
}

type PageData struct {
	List       interface{} `json:"list"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

func envelope(r *http.Request, success bool) Response {
	return Response{
		Success:   success,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: GetRequestID(r),
	}
}

func OK(w http.ResponseWriter, r *http.Request, data interface{}) {
	resp := envelope(r, true)
	resp.Data = data
	writeJSON(w, http.StatusOK, resp)
}

// Created answers 201 with the stored record and a confirmation notice.
func Created(w http.ResponseWriter, r *http.Request, data interface{}, message string) {
	resp := envelope(r, true)
	resp.Data = data
	resp.Message = message
	writeJSON(w, http.StatusCreated, resp)
}

func OKPage(w http.ResponseWriter, r *http.Request, list interface{}, total int64, page, pageSize int) {
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	OK(w, r, PageData{
		List:       list,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pages,
	})
}

// OKRows pages rows in memory and writes the page.
func OKRows[T any](w http.ResponseWriter, r *http.Request, rows []T, q PageQuery) {
	OKPage(w, r, PageSlice(rows, q), int64(len(rows)), q.Page, q.PageSize)
}

func Fail(w http.ResponseWriter, r *http.Request, code string, message string, httpStatus int) {
	resp := envelope(r, false)
	resp.ErrorCode = code
	resp.Message = message
	writeJSON(w, httpStatus, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.HTTP.Warn().Err(err).Int("status", status).Msg("response write failed")
	}
}
