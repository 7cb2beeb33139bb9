package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"cybercase/internal/constants"
	"cybercase/internal/database"
	"cybercase/internal/logger"
	"cybercase/internal/webconfig"

	nfy "github.com/nikoksr/notify"
	nfyhttp "github.com/nikoksr/notify/service/http"
	nfyslack "github.com/nikoksr/notify/service/slack"
	nfytg "github.com/nikoksr/notify/service/telegram"
)

const subject = "Cybercase"

// ErrNoChannels is returned by Send when nothing is configured.
var ErrNoChannels = errors.New("no notification channels configured")

// Manager wraps nikoksr/notify.Notify and decides which cases raise alerts.
type Manager struct {
	mu           sync.RWMutex
	notifier     *nfy.Notify
	channelNames []string
	enabled      bool
	minRank      int
}

// NewManager creates a manager with no channels.
func NewManager() *Manager {
	return &Manager{
		notifier: nfy.New(),
		minRank:  constants.PriorityRank(constants.PriorityCritical),
	}
}

// Configure rebuilds the channel set from cfg.
func (m *Manager) Configure(cfg webconfig.AlertConfig) {
	n := nfy.New()
	var names []string

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		tgSvc, err := nfytg.New(cfg.TelegramBotToken)
		if err == nil {
			if id, err := strconv.ParseInt(strings.TrimSpace(cfg.TelegramChatID), 10, 64); err == nil {
				tgSvc.AddReceivers(id)
				n.UseServices(tgSvc)
				names = append(names, "telegram")
			} else {
				logger.Alert.Warn().Str("chat_id", cfg.TelegramChatID).Msg("invalid Telegram chat ID")
			}
		} else {
			logger.Alert.Warn().Err(err).Msg("Telegram service init failed")
		}
	}

	if cfg.SlackToken != "" && cfg.SlackChannel != "" {
		slackSvc := nfyslack.New(cfg.SlackToken)
		slackSvc.AddReceivers(strings.TrimSpace(cfg.SlackChannel))
		n.UseServices(slackSvc)
		names = append(names, "slack")
	}

	if cfg.WebhookURL != "" {
		httpSvc := nfyhttp.New()
		httpSvc.AddReceivers(&nfyhttp.Webhook{
			URL:         cfg.WebhookURL,
			Header:      http.Header{"Content-Type": []string{"application/json; charset=utf-8"}},
			ContentType: "application/json; charset=utf-8",
			Method:      http.MethodPost,
			BuildPayload: func(subject, message string) (payload any) {
				return map[string]string{"subject": subject, "text": message}
			},
		})
		n.UseServices(httpSvc)
		names = append(names, "webhook")
	}

	rank := constants.PriorityRank(cfg.MinPriority)
	if rank < 0 {
		rank = constants.PriorityRank(constants.PriorityCritical)
	}

	m.mu.Lock()
	m.notifier = n
	m.channelNames = names
	m.enabled = cfg.Enabled
	m.minRank = rank
	m.mu.Unlock()

	logger.Alert.Info().Bool("enabled", cfg.Enabled).Strs("channels", names).Msg("notification channels configured")
}

// Send dispatches text to all configured channels.
func (m *Manager) Send(ctx context.Context, text string) error {
	m.mu.RLock()
	n, count := m.notifier, len(m.channelNames)
	m.mu.RUnlock()

	if count == 0 {
		return ErrNoChannels
	}
	if err := n.Send(ctx, subject, text); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

// ShouldNotify reports whether a case with the given priority raises an alert.
func (m *Manager) ShouldNotify(priority string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled && len(m.channelNames) > 0 && constants.PriorityRank(priority) >= m.minRank
}

// NotifyCase alerts on a newly created case when its priority is at or above
// the configured threshold. Failures are logged, not returned.
func (m *Manager) NotifyCase(ctx context.Context, c *database.Case) bool {
	if c == nil || !m.ShouldNotify(c.Priority) {
		return false
	}
	if err := m.Send(ctx, FormatCase(c)); err != nil {
		logger.Alert.Warn().Err(err).Str("case_id", c.CaseID).Msg("case notification failed")
		return false
	}
	return true
}

// FormatCase renders the alert text for c.
func FormatCase(c *database.Case) string {
	emoji := "⚠️"
	switch c.Priority {
	case constants.PriorityCritical:
		emoji = "\U0001f6a8"
	case constants.PriorityHigh:
		emoji = "\U0001f534"
	case constants.PriorityMedium:
		emoji = "\U0001f7e1"
	case constants.PriorityLow:
		emoji = "\U0001f7e2"
	}
	text := fmt.Sprintf("%s [%s] New case %s: %s\nCrime type: %s | Incident date: %s | Reported by: %s",
		emoji, c.Priority, c.CaseID, c.Title, c.CrimeType, c.IncidentDate, c.CreatedBy)
	if c.Description != "" && len(c.Description) < 200 {
		text += "\n" + c.Description
	}
	return text
}

// ChannelNames returns the names of all configured channels.
func (m *Manager) ChannelNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]string, len(m.channelNames))
	copy(result, m.channelNames)
	return result
}
