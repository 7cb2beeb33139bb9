package dashboard

import (
	"context"
	"fmt"
	"time"

	"cybercase/internal/database"
	"cybercase/internal/views"
	"cybercase/internal/webconfig"

	"golang.org/x/sync/errgroup"
)

// Snapshot is everything the dashboard page shows at one point in time.
type Snapshot struct {
	Statistics  database.Statistics      `json:"statistics"`
	RecentCases []views.RecentCase       `json:"recent_cases"`
	ByType      []database.CategoryCount `json:"by_type"`
	ByStatus    []database.CategoryCount `json:"by_status"`
	Trend       []database.TrendPoint    `json:"trend"`
	TrendStart  string                   `json:"trend_start"`
	TrendEnd    string                   `json:"trend_end"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// Builder runs the dashboard queries.
type Builder struct {
	cases       *database.CaseRepo
	stats       *database.StatsRepo
	trendDays   int
	recentLimit int
	now         func() time.Time
}

func NewBuilder(cfg webconfig.DashboardConfig) *Builder {
	b := &Builder{
		cases:       database.NewCaseRepo(),
		stats:       database.NewStatsRepo(),
		trendDays:   cfg.TrendDays,
		recentLimit: cfg.RecentLimit,
		now:         func() time.Time { return time.Now().UTC() },
	}
	if b.trendDays <= 0 {
		b.trendDays = 30
	}
	if b.recentLimit <= 0 {
		b.recentLimit = 10
	}
	return b
}

// Build runs the five dashboard reads concurrently. Any failure fails the
// whole snapshot.
func (b *Builder) Build(ctx context.Context) (*Snapshot, error) {
	now := b.now()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -(b.trendDays - 1))

	snap := &Snapshot{
		TrendStart:  start.Format("2006-01-02"),
		TrendEnd:    end.Format("2006-01-02"),
		GeneratedAt: now,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st, err := b.stats.Statistics(gctx)
		if err != nil {
			return fmt.Errorf("statistics: %w", err)
		}
		snap.Statistics = *st
		return nil
	})
	g.Go(func() error {
		recent, err := b.cases.Recent(gctx, b.recentLimit)
		if err != nil {
			return fmt.Errorf("recent cases: %w", err)
		}
		snap.RecentCases = views.Recent(recent)
		return nil
	})
	g.Go(func() error {
		byType, err := b.stats.CasesByType(gctx)
		if err != nil {
			return fmt.Errorf("cases by type: %w", err)
		}
		snap.ByType = byType
		return nil
	})
	g.Go(func() error {
		byStatus, err := b.stats.CasesByStatus(gctx)
		if err != nil {
			return fmt.Errorf("cases by status: %w", err)
		}
		snap.ByStatus = byStatus
		return nil
	})
	g.Go(func() error {
		trend, err := b.stats.Trend(gctx, &start, &end)
		if err != nil {
			return fmt.Errorf("trend: %w", err)
		}
		snap.Trend = trend
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}
