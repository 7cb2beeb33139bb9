package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"cybercase/internal/constants"
	"cybercase/internal/dashboard"
	"cybercase/internal/database"
	"cybercase/internal/logger"
	"cybercase/internal/metrics"
	"cybercase/internal/notify"
	"cybercase/internal/views"
	"cybercase/internal/web"
)

// Push message types on the cases channel.
const (
	MsgCaseCreated = "case_created"
	MsgCaseUpdated = "case_updated"
)

type CaseHandler struct {
	caseRepo *database.CaseRepo
	hub      dashboard.Broadcaster
	notifier *notify.Manager
}

// NewCaseHandler builds the case handler. hub and notifier may be nil.
func NewCaseHandler(hub dashboard.Broadcaster, notifier *notify.Manager) *CaseHandler {
	return &CaseHandler{
		caseRepo: database.NewCaseRepo(),
		hub:      hub,
		notifier: notifier,
	}
}

type createCaseRequest struct {
	Title          string `json:"title" validate:"notblank"`
	CrimeType      string `json:"crime_type" validate:"notblank,crime_type"`
	IncidentDate   string `json:"incident_date" validate:"notblank,isodate"`
	Location       string `json:"location"`
	VictimName     string `json:"victim_name"`
	VictimContact  string `json:"victim_contact"`
	SuspectName    string `json:"suspect_name"`
	SuspectDetails string `json:"suspect_details"`
	Description    string `json:"description"`
	Evidence       string `json:"evidence"`
	Priority       string `json:"priority" validate:"omitempty,case_priority"`
	Status         string `json:"status" validate:"omitempty,case_status"`
}

// Create registers a case. Required fields are checked before any store call.
func (h *CaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCaseRequest
	if err := web.DecodeJSONBody(r, &req); err != nil {
		web.FailBody(w, r, err, web.ErrCaseFieldsMissed)
		return
	}

	username := web.GetUsername(r)
	c, err := h.caseRepo.Create(r.Context(), database.NewCase{
		Title:          strings.TrimSpace(req.Title),
		CrimeType:      req.CrimeType,
		IncidentDate:   req.IncidentDate,
		Location:       req.Location,
		VictimName:     req.VictimName,
		VictimContact:  req.VictimContact,
		SuspectName:    req.SuspectName,
		SuspectDetails: req.SuspectDetails,
		Description:    req.Description,
		Evidence:       req.Evidence,
		Priority:       req.Priority,
		Status:         req.Status,
		CreatedBy:      username,
	})
	if err != nil {
		logger.Cases.Error().Err(err).Str("username", username).Msg("case creation failed")
		web.FailStore(w, r, err, web.ErrCaseCreateFail)
		return
	}

	logger.Cases.Info().Str("case_id", c.CaseID).Str("priority", c.Priority).Str("username", username).Msg("case created")
	metrics.ObserveCaseCreated(c.Priority)
	h.publish(MsgCaseCreated, c)
	if h.notifier != nil && h.notifier.ShouldNotify(c.Priority) {
		go h.notifier.NotifyCase(context.Background(), c)
	}

	web.Created(w, r, c, "Case registered successfully! Case ID: "+c.CaseID)
}

func (h *CaseHandler) publish(msgType string, c *database.Case) {
	if h.hub == nil {
		return
	}
	h.hub.Broadcast(constants.ChannelCases, msgType, views.Recent([]database.Case{*c})[0])
}

// List returns cases filtered by ?status and a free-text ?q over every
// stored column, paginated.
func (h *CaseHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && status != constants.FilterAll && !slices.Contains(constants.AllStatuses, status) {
		web.FailErr(w, r, web.ErrInvalidParam, "unknown status")
		return
	}

	cases, err := h.caseRepo.List(r.Context(), status)
	if err != nil {
		logger.Cases.Error().Err(err).Msg("case list failed")
		web.FailStore(w, r, err, web.ErrDBQuery)
		return
	}

	rows := views.List(filterCases(cases, r.URL.Query().Get("q")))
	pq := web.ParsePageQuery(r, constants.PageSizeList, false)
	web.OKRows(w, r, rows, pq)
}

const rowTimeLayout = "2006-01-02 15:04:05"

// filterCases keeps cases where any column of the full row contains q,
// ignoring case.
func filterCases(cases []database.Case, q string) []database.Case {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return cases
	}
	out := make([]database.Case, 0, len(cases))
	for _, c := range cases {
		for _, v := range caseColumns(c) {
			if strings.Contains(strings.ToLower(v), q) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func caseColumns(c database.Case) []string {
	return []string{
		strconv.FormatUint(uint64(c.ID), 10),
		c.CaseID,
		c.UUID,
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
		c.CreatedAt.UTC().Format(rowTimeLayout),
		c.UpdatedAt.UTC().Format(rowTimeLayout),
	}
}

func (h *CaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.caseRepo.Get(r.Context(), r.PathValue("case_id"))
	if errors.Is(err, database.ErrCaseNotFound) {
		web.FailErr(w, r, web.ErrCaseNotFound)
		return
	}
	if err != nil {
		logger.Cases.Error().Err(err).Msg("case lookup failed")
		web.FailStore(w, r, err, web.ErrDBQuery)
		return
	}
	web.OK(w, r, c)
}

type updateCaseRequest struct {
	Title          *string `json:"title" validate:"omitempty,notblank"`
	CrimeType      *string `json:"crime_type" validate:"omitempty,crime_type"`
	IncidentDate   *string `json:"incident_date" validate:"omitempty,isodate"`
	Location       *string `json:"location"`
	VictimName     *string `json:"victim_name"`
	VictimContact  *string `json:"victim_contact"`
	SuspectName    *string `json:"suspect_name"`
	SuspectDetails *string `json:"suspect_details"`
	Description    *string `json:"description"`
	Evidence       *string `json:"evidence"`
	Priority       *string `json:"priority" validate:"omitempty,case_priority"`
	Status         *string `json:"status" validate:"omitempty,case_status"`
}

func (req updateCaseRequest) toUpdate() database.CaseUpdate {
	return database.CaseUpdate{
		Title:          req.Title,
		CrimeType:      req.CrimeType,
		IncidentDate:   req.IncidentDate,
		Location:       req.Location,
		VictimName:     req.VictimName,
		VictimContact:  req.VictimContact,
		SuspectName:    req.SuspectName,
		SuspectDetails: req.SuspectDetails,
		Description:    req.Description,
		Evidence:       req.Evidence,
		Priority:       req.Priority,
		Status:         req.Status,
	}
}

// Update applies the fields present in the body to one case.
func (h *CaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateCaseRequest
	if err := web.DecodeJSONBody(r, &req); err != nil {
		web.FailBody(w, r, err, nil)
		return
	}

	caseID := r.PathValue("case_id")
	username := web.GetUsername(r)
	c, err := h.caseRepo.Update(r.Context(), caseID, req.toUpdate(), username)
	switch {
	case errors.Is(err, database.ErrEmptyUpdate):
		web.FailErr(w, r, web.ErrCaseEmptyUpdate)
		return
	case errors.Is(err, database.ErrCaseNotFound), errors.Is(err, database.ErrMissingCaseID):
		web.FailErr(w, r, web.ErrCaseNotFound)
		return
	case err != nil:
		logger.Cases.Error().Err(err).Str("case_id", caseID).Msg("case update failed")
		web.FailStore(w, r, err, web.ErrCaseUpdateFail)
		return
	}

	logger.Cases.Info().Str("case_id", c.CaseID).Str("username", username).Msg("case updated")
	h.publish(MsgCaseUpdated, c)
	web.OK(w, r, c)
}

// searchParams reads the shared search filters used by search and export.
func searchParams(r *http.Request) (database.CaseSearch, error) {
	start, end, err := web.ParseDateRange(r)
	if err != nil {
		return database.CaseSearch{}, err
	}
	return database.CaseSearch{
		Text:      strings.TrimSpace(r.URL.Query().Get("q")),
		CrimeType: r.URL.Query().Get("crime_type"),
		StartDate: start,
		EndDate:   end,
	}, nil
}

func (h *CaseHandler) Search(w http.ResponseWriter, r *http.Request) {
	s, err := searchParams(r)
	if err != nil {
		web.FailErr(w, r, web.ErrInvalidDate)
		return
	}

	cases, err := h.caseRepo.Search(r.Context(), s)
	if err != nil {
		logger.Cases.Error().Err(err).Msg("case search failed")
		web.FailStore(w, r, err, web.ErrDBQuery)
		return
	}

	rows := views.Search(cases)
	pq := web.ParsePageQuery(r, constants.PageSizeSearch, false)
	web.OKRows(w, r, rows, pq)
}
