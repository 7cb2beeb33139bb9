package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"cybercase/internal/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dateLayout = "2006-01-02"

// CaseRepo reads and writes cases.
type CaseRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCaseRepo() *CaseRepo {
	return &CaseRepo{db: DB, now: utcNow}
}

func utcNow() time.Time { return time.Now().UTC() }

// NewCase carries the fields supplied at intake. Empty Priority, Status and
// CreatedBy fall back to Medium, Pending and "system".
type NewCase struct {
	Title          string
	CrimeType      string
	IncidentDate   string
	Location       string
	VictimName     string
	VictimContact  string
	SuspectName    string
	SuspectDetails string
	Description    string
	Evidence       string
	Priority       string
	Status         string
	CreatedBy      string
}

// CaseUpdate lists every column a caller may change. Nil fields are left alone.
type CaseUpdate struct {
	Title          *string `json:"title"`
	CrimeType      *string `json:"crime_type"`
	IncidentDate   *string `json:"incident_date"`
	Location       *string `json:"location"`
	VictimName     *string `json:"victim_name"`
	VictimContact  *string `json:"victim_contact"`
	SuspectName    *string `json:"suspect_name"`
	SuspectDetails *string `json:"suspect_details"`
	Description    *string `json:"description"`
	Evidence       *string `json:"evidence"`
	Priority       *string `json:"priority"`
	Status         *string `json:"status"`
}

func (u CaseUpdate) columns() map[string]interface{} {
	cols := make(map[string]interface{})
	set := func(name string, v *string) {
		if v != nil {
			cols[name] = *v
		}
	}
	set("title", u.Title)
	set("crime_type", u.CrimeType)
	set("incident_date", u.IncidentDate)
	set("location", u.Location)
	set("victim_name", u.VictimName)
	set("victim_contact", u.VictimContact)
	set("suspect_name", u.SuspectName)
	set("suspect_details", u.SuspectDetails)
	set("description", u.Description)
	set("evidence", u.Evidence)
	set("priority", u.Priority)
	set("status", u.Status)
	return cols
}

// IsEmpty reports whether no field is set.
func (u CaseUpdate) IsEmpty() bool {
	return len(u.columns()) == 0
}

// CaseSearch is a conjunction of optional filters.
type CaseSearch struct {
	// Text matches case_id, title, victim_name or suspect_name, case-insensitively.
	Text      string
	CrimeType string
	StartDate *time.Time
	EndDate   *time.Time
}

// GenerateCaseID allocates the next identifier for the current year.
// Each call consumes a number, so unused results leave gaps.
func (r *CaseRepo) GenerateCaseID(ctx context.Context) (string, error) {
	var id string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		id, err = r.nextCaseID(tx, r.now().Year())
		return err
	})
	return id, err
}

func (r *CaseRepo) nextCaseID(tx *gorm.DB, year int) (string, error) {
	var seq CaseSequence
	err := tx.Where("year = ?", year).Take(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seed, err := highestCaseNumber(tx, year)
		if err != nil {
			return "", err
		}
		err = tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&CaseSequence{Year: year, LastValue: seed}).Error
		if err != nil {
			return "", fmt.Errorf("seed case sequence: %w", err)
		}
	} else if err != nil {
		return "", fmt.Errorf("read case sequence: %w", err)
	}

	err = tx.Model(&CaseSequence{}).Where("year = ?", year).
		Update("last_value", gorm.Expr("last_value + 1")).Error
	if err != nil {
		return "", fmt.Errorf("advance case sequence: %w", err)
	}
	if err := tx.Where("year = ?", year).Take(&seq).Error; err != nil {
		return "", fmt.Errorf("read case sequence: %w", err)
	}
	return formatCaseID(year, seq.LastValue), nil
}

// highestCaseNumber returns the largest NNNN among existing CYB-<year>-NNNN ids.
func highestCaseNumber(tx *gorm.DB, year int) (int, error) {
	prefix := fmt.Sprintf("CYB-%d-", year)
	var ids []string
	err := tx.Model(&Case{}).Where("case_id LIKE ?", prefix+"%").Pluck("case_id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("scan existing case ids: %w", err)
	}
	highest := 0
	for _, id := range ids {
		n, err := strconv.Atoi(strings.TrimPrefix(id, prefix))
		if err == nil && n > highest {
			highest = n
		}
	}
	return highest, nil
}

func formatCaseID(year, n int) string {
	return fmt.Sprintf("CYB-%d-%04d", year, n)
}

// Create inserts a case with a fresh identifier and records CREATE_CASE in
// the same transaction. It does not validate fields.
func (r *CaseRepo) Create(ctx context.Context, in NewCase) (*Case, error) {
	now := r.now()
	c := &Case{
		UUID:           uuid.NewString(),
		Title:          in.Title,
		CrimeType:      in.CrimeType,
		IncidentDate:   in.IncidentDate,
		Location:       in.Location,
		VictimName:     in.VictimName,
		VictimContact:  in.VictimContact,
		SuspectName:    in.SuspectName,
		SuspectDetails: in.SuspectDetails,
		Description:    in.Description,
		Evidence:       in.Evidence,
		Priority:       defaultString(in.Priority, constants.PriorityMedium),
		Status:         defaultString(in.Status, constants.StatusPending),
		CreatedBy:      defaultString(in.CreatedBy, constants.SystemUser),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := r.nextCaseID(tx, now.Year())
		if err != nil {
			return err
		}
		c.CaseID = id
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("insert case: %w", err)
		}
		return tx.Create(&ActivityLog{
			Username:  c.CreatedBy,
			Action:    constants.ActionCreateCase,
			Details:   "Created case " + c.CaseID,
			Timestamp: now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns cases newest first. An empty or "all" status disables the filter.
func (r *CaseRepo) List(ctx context.Context, status string) ([]Case, error) {
	q := r.db.WithContext(ctx).Model(&Case{})
	if !isAll(status) {
		q = q.Where("status = ?", status)
	}
	var cases []Case
	err := q.Order("created_at DESC").Order("id DESC").Find(&cases).Error
	return cases, err
}

func (r *CaseRepo) Get(ctx context.Context, caseID string) (*Case, error) {
	var c Case
	err := r.db.WithContext(ctx).Where("case_id = ?", caseID).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Update writes the set fields of upd plus updated_at, records UPDATE_CASE
// as by, and returns the stored case.
func (r *CaseRepo) Update(ctx context.Context, caseID string, upd CaseUpdate, by string) (*Case, error) {
	if strings.TrimSpace(caseID) == "" {
		return nil, ErrMissingCaseID
	}
	cols := upd.columns()
	if len(cols) == 0 {
		return nil, ErrEmptyUpdate
	}
	now := r.now()
	cols["updated_at"] = now

	var updated Case
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Case{}).Where("case_id = ?", caseID).Updates(cols)
		if res.Error != nil {
			return fmt.Errorf("update case: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrCaseNotFound
		}
		if err := tx.Where("case_id = ?", caseID).Take(&updated).Error; err != nil {
			return err
		}
		return tx.Create(&ActivityLog{
			Username:  defaultString(by, constants.SystemUser),
			Action:    constants.ActionUpdateCase,
			Details:   fmt.Sprintf("Updated case %s (%s)", caseID, strings.Join(sortedKeys(cols), ", ")),
			Timestamp: now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Search returns the cases matching every supplied filter, newest first.
// SQLite's LOWER only folds ASCII, so text with other letters is matched in
// Go after the remaining filters run in SQL.
func (r *CaseRepo) Search(ctx context.Context, s CaseSearch) ([]Case, error) {
	q := r.db.WithContext(ctx).Model(&Case{})
	text := strings.TrimSpace(s.Text)
	foldInGo := text != "" && !isASCII(text)
	if text != "" && !foldInGo {
		pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
		q = q.Where(
			`LOWER(case_id) LIKE ? ESCAPE '\' OR LOWER(title) LIKE ? ESCAPE '\' OR LOWER(victim_name) LIKE ? ESCAPE '\' OR LOWER(suspect_name) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern, pattern,
		)
	}
	if !isAll(s.CrimeType) {
		q = q.Where("crime_type = ?", s.CrimeType)
	}
	if s.StartDate != nil {
		q = q.Where("incident_date >= ?", s.StartDate.Format(dateLayout))
	}
	if s.EndDate != nil {
		q = q.Where("incident_date <= ?", s.EndDate.Format(dateLayout))
	}
	var cases []Case
	if err := q.Order("created_at DESC").Order("id DESC").Find(&cases).Error; err != nil {
		return nil, err
	}
	if foldInGo {
		cases = matchText(cases, text)
	}
	return cases, nil
}

func matchText(cases []Case, text string) []Case {
	needle := strings.ToLower(text)
	out := cases[:0]
	for _, c := range cases {
		for _, v := range []string{c.CaseID, c.Title, c.VictimName, c.SuspectName} {
			if strings.Contains(strings.ToLower(v), needle) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Recent returns the newest limit cases.
func (r *CaseRepo) Recent(ctx context.Context, limit int) ([]Case, error) {
	if limit <= 0 {
		limit = constants.PageSizeRecent
	}
	var cases []Case
	err := r.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&cases).Error
	return cases, err
}

func (r *CaseRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Case{}).Count(&count).Error
	return count, err
}

func isAll(v string) bool {
	return v == "" || strings.EqualFold(v, constants.FilterAll)
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func sortedKeys(cols map[string]interface{}) []string {
	keys := make([]string, 0, len(cols))
	for k := range cols {
		if k != "updated_at" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
