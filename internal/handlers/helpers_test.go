package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"cybercase/internal/access"
	"cybercase/internal/constants"
	"cybercase/internal/database"
	"cybercase/internal/web"

	"github.com/stretchr/testify/require"
)

var adminPrincipal = access.Principal{ID: 1, Username: "admin", FullName: "System Administrator", Role: constants.RoleAdmin}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"error_code"`
}

type request struct {
	method     string
	target     string
	body       any
	principal  *access.Principal
	pathValues map[string]string
}

// serve runs h against req and returns the recorder.
func serve(t *testing.T, h http.HandlerFunc, req request) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := req.body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	r := httptest.NewRequest(req.method, req.target, &buf)
	r.Header.Set("Content-Type", "application/json")
	for k, v := range req.pathValues {
		r.SetPathValue(k, v)
	}
	if req.principal != nil {
		r = web.SetPrincipal(r, *req.principal)
	}
	rec := httptest.NewRecorder()
	h(rec, r)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	env := decode(t, rec)
	require.True(t, env.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

type pageOf[T any] struct {
	List     []T   `json:"list"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

type pushed struct {
	channel string
	msgType string
	data    interface{}
}

type fakeHub struct {
	mu   sync.Mutex
	msgs []pushed
}

func (f *fakeHub) Broadcast(channel, msgType string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, pushed{channel, msgType, data})
}

func (f *fakeHub) all() []pushed {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pushed(nil), f.msgs...)
}

func seedCase(t *testing.T, in database.NewCase) *database.Case {
	t.Helper()
	if in.Title == "" {
		in.Title = "Credential phishing"
	}
	if in.CrimeType == "" {
		in.CrimeType = constants.CrimePhishing
	}
	if in.IncidentDate == "" {
		in.IncidentDate = "2024-02-10"
	}
	c, err := database.NewCaseRepo().Create(context.Background(), in)
	require.NoError(t, err)
	return c
}

func countCases(t *testing.T) int64 {
	t.Helper()
	n, err := database.NewCaseRepo().Count(context.Background())
	require.NoError(t, err)
	return n
}

func activityFor(t *testing.T, username string) []database.ActivityLog {
	t.Helper()
	entries, err := database.NewActivityRepo().List(context.Background(), database.ActivityFilter{Username: username})
	require.NoError(t, err)
	return entries
}

func jsonUnmarshal(raw json.RawMessage, dest any) error {
	return json.Unmarshal(raw, dest)
}
