package webconfig

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type ServerConfig struct {
	Port        int      `json:"port" envconfig:"CYBERCASE_SERVER_PORT"`
	Bind        string   `json:"bind" envconfig:"CYBERCASE_SERVER_BIND"`
	CORSOrigins []string `json:"cors_origins" envconfig:"CYBERCASE_SERVER_CORS_ORIGINS"`
}

type AuthConfig struct {
	JWTSecret string `json:"jwt_secret" envconfig:"CYBERCASE_AUTH_JWT_SECRET"`
	JWTExpire string `json:"jwt_expire" envconfig:"CYBERCASE_AUTH_JWT_EXPIRE"`
	// Bootstrap administrator seeded on first start.
	AdminUsername string `json:"admin_username" envconfig:"CYBERCASE_AUTH_ADMIN_USERNAME"`
	AdminPassword string `json:"admin_password" envconfig:"CYBERCASE_AUTH_ADMIN_PASSWORD"`
	AdminFullName string `json:"admin_full_name" envconfig:"CYBERCASE_AUTH_ADMIN_FULL_NAME"`
	LoginRateMax  int    `json:"login_rate_max" envconfig:"CYBERCASE_AUTH_LOGIN_RATE_MAX"`
}

type DatabaseConfig struct {
	Driver       string `json:"driver" envconfig:"CYBERCASE_DATABASE_DRIVER"`
	SQLitePath   string `json:"sqlite_path" envconfig:"CYBERCASE_DATABASE_SQLITE_PATH"`
	PostgresDSN  string `json:"postgres_dsn" envconfig:"CYBERCASE_DATABASE_POSTGRES_DSN"`
	MaxOpenConns int    `json:"max_open_conns" envconfig:"CYBERCASE_DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns int    `json:"max_idle_conns" envconfig:"CYBERCASE_DATABASE_MAX_IDLE_CONNS"`
	// QueryTimeout bounds every storage call made on behalf of a request.
	QueryTimeout string `json:"query_timeout" envconfig:"CYBERCASE_DATABASE_QUERY_TIMEOUT"`
}

type LogConfig struct {
	Level      string `json:"level" envconfig:"CYBERCASE_LOG_LEVEL"`
	Mode       string `json:"mode" envconfig:"CYBERCASE_LOG_MODE"`
	FilePath   string `json:"file_path" envconfig:"CYBERCASE_LOG_FILE_PATH"`
	MaxSizeMB  int    `json:"max_size_mb" envconfig:"CYBERCASE_LOG_MAX_SIZE_MB"`
	MaxBackups int    `json:"max_backups" envconfig:"CYBERCASE_LOG_MAX_BACKUPS"`
	MaxAgeDays int    `json:"max_age_days" envconfig:"CYBERCASE_LOG_MAX_AGE_DAYS"`
	Compress   bool   `json:"compress" envconfig:"CYBERCASE_LOG_COMPRESS"`
}

type DashboardConfig struct {
	RefreshSeconds int `json:"refresh_seconds" envconfig:"CYBERCASE_DASHBOARD_REFRESH_SECONDS"`
	TrendDays      int `json:"trend_days" envconfig:"CYBERCASE_DASHBOARD_TREND_DAYS"`
	RecentLimit    int `json:"recent_limit" envconfig:"CYBERCASE_DASHBOARD_RECENT_LIMIT"`
}

type AlertConfig struct {
	Enabled bool `json:"enabled" envconfig:"CYBERCASE_ALERT_ENABLED"`
	// MinPriority is the lowest case priority that triggers a notification.
	MinPriority      string `json:"min_priority" envconfig:"CYBERCASE_ALERT_MIN_PRIORITY"`
	WebhookURL       string `json:"webhook_url" envconfig:"CYBERCASE_ALERT_WEBHOOK_URL"`
	SlackToken       string `json:"slack_token" envconfig:"CYBERCASE_ALERT_SLACK_TOKEN"`
	SlackChannel     string `json:"slack_channel" envconfig:"CYBERCASE_ALERT_SLACK_CHANNEL"`
	TelegramBotToken string `json:"telegram_bot_token" envconfig:"CYBERCASE_ALERT_TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string `json:"telegram_chat_id" envconfig:"CYBERCASE_ALERT_TELEGRAM_CHAT_ID"`
}

type Config struct {
	Server    ServerConfig    `json:"server"`
	Auth      AuthConfig      `json:"auth"`
	Database  DatabaseConfig  `json:"database"`
	Log       LogConfig       `json:"log"`
	Dashboard DashboardConfig `json:"dashboard"`
	Alert     AlertConfig     `json:"alert"`
}

// defaultDataDir returns the directory holding cybercase.db/json/log next to the binary.
func defaultDataDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "./data"
	}
	return filepath.Join(filepath.Dir(exe), "data")
}

func Default() Config {
	dataDir := defaultDataDir()
	return Config{
		Server: ServerConfig{
			Port:        8050,
			Bind:        "0.0.0.0",
			CORSOrigins: []string{},
		},
		Auth: AuthConfig{
			JWTSecret:     "",
			JWTExpire:     "24h",
			AdminUsername: "admin",
			AdminPassword: "admin123",
			AdminFullName: "System Administrator",
			LoginRateMax:  10,
		},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			SQLitePath:   filepath.Join(dataDir, "cybercase.db"),
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			QueryTimeout: "5s",
		},
		Log: LogConfig{
			Level:      "info",
			Mode:       "production",
			FilePath:   filepath.Join(dataDir, "cybercase.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Dashboard: DashboardConfig{
			RefreshSeconds: 60,
			TrendDays:      30,
			RecentLimit:    10,
		},
		Alert: AlertConfig{
			Enabled:     false,
			MinPriority: "Critical",
		},
	}
}

func ConfigPath() string {
	if custom := strings.TrimSpace(os.Getenv("CYBERCASE_CONFIG")); custom != "" {
		return custom
	}
	return filepath.Join(defaultDataDir(), "cybercase.json")
}

func Load() (Config, error) {
	cfg := Default()

	// Layer 1: config file
	path := ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}
	if err == nil && len(strings.TrimSpace(string(data))) > 0 {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Default(), err
		}
	}

	// Layer 2: .env file (optional) and environment variables override
	_ = godotenv.Load()
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	// Layer 3: generate JWT secret if empty and persist it
	if cfg.Auth.JWTSecret == "" {
		secret, err := generateSecret(32)
		if err != nil {
			return cfg, err
		}
		cfg.Auth.JWTSecret = secret
		_ = Save(cfg)
	}

	return cfg, nil
}

// ApplyEnv overrides cfg with any CYBERCASE_* variables present in the environment.
// Unset variables leave the existing value untouched.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

func Save(cfg Config) error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func (c *Config) ListenAddr() string {
	return c.Server.Bind + ":" + strconv.Itoa(c.Server.Port)
}

func (c *Config) JWTExpireDuration() time.Duration {
	d, err := time.ParseDuration(c.Auth.JWTExpire)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

func (c *Config) QueryTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Database.QueryTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

func (c *Config) RefreshInterval() time.Duration {
	if c.Dashboard.RefreshSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Dashboard.RefreshSeconds) * time.Second
}

func (c *Config) IsDebug() bool {
	return strings.EqualFold(c.Log.Mode, "debug")
}

func generateSecret(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
