package database

import (
	"context"
	"time"

	"cybercase/internal/logger"

	"gorm.io/gorm"
)

const defaultActivityLimit = 100

// ActivityRepo is the append-only audit trail of user actions.
type ActivityRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewActivityRepo() *ActivityRepo {
	return &ActivityRepo{db: DB, now: utcNow}
}

// Log appends one entry. Failures are logged and never returned, so a broken
// audit write cannot fail the caller's request.
func (r *ActivityRepo) Log(ctx context.Context, username, action, details string) {
	entry := &ActivityLog{
		Username:  username,
		Action:    action,
		Details:   details,
		Timestamp: r.now(),
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.Audit.Error().Err(err).
			Str("username", username).
			Str("action", action).
			Msg("activity log write failed")
	}
}

type ActivityFilter struct {
	Username string
	Action   string
	Limit    int
}

// List returns the newest entries first. Limit defaults to 100.
func (r *ActivityRepo) List(ctx context.Context, filter ActivityFilter) ([]ActivityLog, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	q := r.db.WithContext(ctx).Model(&ActivityLog{})
	if filter.Username != "" {
		q = q.Where("username = ?", filter.Username)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	var entries []ActivityLog
	err := q.Order("timestamp DESC").Order("id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
