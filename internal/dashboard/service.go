package dashboard

import (
	"context"
	"sync"
	"time"

	"cybercase/internal/constants"
	"cybercase/internal/logger"
	"cybercase/internal/metrics"
)

// MsgSnapshot is the push message type carrying a Snapshot.
const MsgSnapshot = "dashboard_snapshot"

// Broadcaster pushes a message to subscribers of a channel.
type Broadcaster interface {
	Broadcast(channel, msgType string, data interface{})
}

// Service rebuilds the dashboard snapshot on a fixed interval and pushes it
// to subscribers of the dashboard channel.
type Service struct {
	builder  *Builder
	hub      Broadcaster
	interval time.Duration
	timeout  time.Duration

	mu   sync.RWMutex
	last *Snapshot
}

func NewService(builder *Builder, hub Broadcaster, interval, timeout time.Duration) *Service {
	return &Service{
		builder:  builder,
		hub:      hub,
		interval: interval,
		timeout:  timeout,
	}
}

// Run refreshes immediately and then every interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	logger.Dashboard.Info().Dur("interval", s.interval).Msg("dashboard refresh started")
	s.refreshLogged(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.refreshLogged(ctx)
		case <-ctx.Done():
			logger.Dashboard.Info().Msg("dashboard refresh stopped")
			return
		}
	}
}

func (s *Service) refreshLogged(ctx context.Context) {
	if _, err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
		logger.Dashboard.Error().Err(err).Msg("dashboard refresh failed")
	}
}

// Refresh builds a snapshot, updates the status gauges and pushes it.
func (s *Service) Refresh(ctx context.Context) (*Snapshot, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	snap, err := s.builder.Build(ctx)
	metrics.ObserveDashboardRefresh(time.Since(start))
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(snap.ByStatus))
	for _, c := range snap.ByStatus {
		counts[c.Name] = c.Count
	}
	metrics.SetCasesByStatus(counts)

	s.mu.Lock()
	s.last = snap
	s.mu.Unlock()

	if s.hub != nil {
		s.hub.Broadcast(constants.ChannelDashboard, MsgSnapshot, snap)
	}
	return snap, nil
}

// Last returns the most recent snapshot, or nil before the first refresh.
func (s *Service) Last() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
