package database

import (
	"context"
	"time"

	"cybercase/internal/constants"

	"gorm.io/gorm"
)

// StatsRepo answers the aggregate queries behind the dashboard and reports.
// All methods are read-only.
type StatsRepo struct {
	db *gorm.DB
}

func NewStatsRepo() *StatsRepo {
	return &StatsRepo{db: DB}
}

func (r *StatsRepo) Statistics(ctx context.Context) (*Statistics, error) {
	db := r.db.WithContext(ctx)
	var s Statistics
	if err := db.Model(&Case{}).Count(&s.TotalCases).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Case{}).Where("status = ?", constants.StatusPending).Count(&s.PendingCases).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&Case{}).Where("status = ?", constants.StatusResolved).Count(&s.ResolvedCases).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&User{}).Where("is_active = ?", true).Count(&s.ActiveUsers).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// CasesByType groups cases by crime type, largest group first, ties by name.
func (r *StatsRepo) CasesByType(ctx context.Context) ([]CategoryCount, error) {
	return r.countBy(ctx, "crime_type")
}

// CasesByStatus groups cases by status, largest group first, ties by name.
func (r *StatsRepo) CasesByStatus(ctx context.Context) ([]CategoryCount, error) {
	return r.countBy(ctx, "status")
}

// countBy only ever receives the fixed column names above.
func (r *StatsRepo) countBy(ctx context.Context, column string) ([]CategoryCount, error) {
	type result struct {
		Name  string
		Total int64
	}
	var results []result
	err := r.db.WithContext(ctx).Model(&Case{}).
		Select(column + " AS name, COUNT(*) AS total").
		Group(column).
		Order("total DESC").Order("name ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	counts := make([]CategoryCount, 0, len(results))
	for _, res := range results {
		counts = append(counts, CategoryCount{Name: res.Name, Count: res.Total})
	}
	return counts, nil
}

// Trend counts cases per UTC creation day between start and end inclusive.
// Either bound may be nil. Days without cases are omitted.
func (r *StatsRepo) Trend(ctx context.Context, start, end *time.Time) ([]TrendPoint, error) {
	q := r.db.WithContext(ctx).Model(&Case{})
	if start != nil {
		q = q.Where("created_at >= ?", startOfDay(*start))
	}
	if end != nil {
		q = q.Where("created_at < ?", startOfDay(*end).AddDate(0, 0, 1))
	}
	var stamps []time.Time
	if err := q.Order("created_at ASC").Pluck("created_at", &stamps).Error; err != nil {
		return nil, err
	}

	points := make([]TrendPoint, 0)
	for _, ts := range stamps {
		day := ts.UTC().Format(dateLayout)
		if n := len(points); n > 0 && points[n-1].Date == day {
			points[n-1].Count++
			continue
		}
		points = append(points, TrendPoint{Date: day, Count: 1})
	}
	return points, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
