package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cybercase/internal/database"
	"cybercase/internal/logger"
	"cybercase/internal/web"
)

// ExportHandler streams case data as CSV or JSON.
type ExportHandler struct {
	caseRepo *database.CaseRepo
}

func NewExportHandler() *ExportHandler {
	return &ExportHandler{caseRepo: database.NewCaseRepo()}
}

var caseCSVHeader = []string{
	"Case ID", "Title", "Crime Type", "Incident Date", "Location", "Victim Name",
	"Victim Contact", "Suspect Name", "Suspect Details", "Description", "Evidence",
	"Priority", "Status", "Created By", "Created At", "Updated At",
}

// ExportCases writes every case matching the search filters. ?format is csv
// (default) or json.
func (h *ExportHandler) ExportCases(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "json" {
		web.FailErr(w, r, web.ErrExportFormat)
		return
	}
	s, err := searchParams(r)
	if err != nil {
		web.FailErr(w, r, web.ErrInvalidDate)
		return
	}

	cases, err := h.caseRepo.Search(r.Context(), s)
	if err != nil {
		logger.Cases.Error().Err(err).Msg("case export failed")
		web.FailStore(w, r, err, web.ErrExportFailed)
		return
	}

	logger.Cases.Info().Str("format", format).Int("rows", len(cases)).Str("username", web.GetUsername(r)).Msg("cases exported")
	filename := fmt.Sprintf("cases_%s", time.Now().UTC().Format("20060102_150405"))

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename="+filename+".csv")
		err = writeCasesCSV(w, cases)
	default:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", "attachment; filename="+filename+".json")
		err = writeCasesJSON(w, cases)
	}
	if err != nil {
		// headers are already sent; the client sees a truncated file
		logger.Cases.Warn().Err(err).Str("format", format).Str("username", web.GetUsername(r)).Msg("case export write failed")
	}
}

func writeCasesCSV(w io.Writer, cases []database.Case) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(caseCSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, c := range cases {
		err := writer.Write([]string{
			c.CaseID,
			c.Title,
			c.CrimeType,
			c.IncidentDate,
			c.Location,
			c.VictimName,
			c.VictimContact,
			c.SuspectName,
			c.SuspectDetails,
			c.Description,
			c.Evidence,
			c.Priority,
			c.Status,
			c.CreatedBy,
			c.CreatedAt.Format(time.RFC3339),
			c.UpdatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return fmt.Errorf("write csv row %s: %w", c.CaseID, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeCasesJSON(w io.Writer, cases []database.Case) error {
	if cases == nil {
		cases = []database.Case{}
	}
	if err := json.NewEncoder(w).Encode(cases); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
