package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cybercase/internal/constants"
	"cybercase/internal/database"
	"cybercase/internal/logger"
	"cybercase/internal/testutil"
	"cybercase/internal/web"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCases_CSV(t *testing.T) {
	cleanup := testutil.SetupTestDB(t)
	defer cleanup()
	seedCase(t, database.NewCase{Title: "Phish, with comma"})
	seedCase(t, database.NewCase{Title: "Ransom", CrimeType: constants.CrimeRansomware})
	h := NewExportHandler()

	rec := serve(t, h.ExportCases, request{method: http.MethodGet, target: "/api/v1/export/cases", principal: &adminPrincipal})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")

	rows, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, caseCSVHeader, rows[0])
	assert.Equal(t, "Ransom", rows[1][1])
	assert.Equal(t, "Phish, with comma", rows[2][1])

	rec = serve(t, h.ExportCases, request{method: http.MethodGet, target: "/api/v1/export/cases?crime_type=Ransomware", principal: &adminPrincipal})
	rows, err = csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestExportCases_JSON(t *testing.T) {
	cleanup := testutil.SetupTestDB(t)
	defer cleanup()
	h := NewExportHandler()

	rec := serve(t, h.ExportCases, request{method: http.MethodGet, target: "/api/v1/export/cases?format=json", principal: &adminPrincipal})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	seedCase(t, database.NewCase{})
	rec = serve(t, h.ExportCases, request{method: http.MethodGet, target: "/api/v1/export/cases?format=json", principal: &adminPrincipal})
	var cases []database.Case
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cases))
	assert.Len(t, cases, 1)
}

func TestExportCases_BadParams(t *testing.T) {
	cleanup := testutil.SetupTestDB(t)
	defer cleanup()
	h := NewExportHandler()

	rec := serve(t, h.ExportCases, request{method: http.MethodGet, target: "/api/v1/export/cases?format=xml", principal: &adminPrincipal})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, web.ErrExportFormat.Code, decode(t, rec).ErrorCode)

	rec = serve(t, h.ExportCases, request{method: http.MethodGet, target: "/api/v1/export/cases?start_date=tomorrow", principal: &adminPrincipal})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	rec := serve(t, NewHealthHandler().Get, request{method: http.MethodGet, target: "/api/v1/health"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp healthResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Database)
}

type brokenWriter struct {
	header http.Header
	status int
}

func (b *brokenWriter) Header() http.Header {
	if b.header == nil {
		b.header = http.Header{}
	}
	return b.header
}

func (b *brokenWriter) WriteHeader(status int) { b.status = status }

func (b *brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestExportCases_WriteFailureIsLogged(t *testing.T) {
	cleanup := testutil.SetupTestDB(t)
	defer cleanup()
	seedCase(t, database.NewCase{Title: "Phish"})

	var buf bytes.Buffer
	prev := logger.Cases
	logger.Cases = zerolog.New(&buf)
	defer func() { logger.Cases = prev }()

	h := NewExportHandler()
	for _, format := range []string{"csv", "json"} {
		buf.Reset()
		r := web.SetPrincipal(httptest.NewRequest(http.MethodGet, "/api/v1/export/cases?format="+format, nil), adminPrincipal)
		h.ExportCases(&brokenWriter{}, r)

		assert.Contains(t, buf.String(), "case export write failed", format)
		assert.Contains(t, buf.String(), "connection reset", format)
	}
}

func TestWriteCasesCSV_ReportsFlushError(t *testing.T) {
	err := writeCasesCSV(&brokenWriter{}, []database.Case{{CaseID: "CYB-2026-0001", Title: "Phish"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flush csv")

	err = writeCasesJSON(&brokenWriter{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode json")
}
