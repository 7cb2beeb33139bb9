package logger

import (
	"io"
	"os"
	"path/filepath"

	"cybercase/internal/webconfig"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Log zerolog.Logger

// Module sub-loggers
var (
	Auth      zerolog.Logger
	Cases     zerolog.Logger
	Users     zerolog.Logger
	Reports   zerolog.Logger
	Dashboard zerolog.Logger
	Config    zerolog.Logger
	Alert     zerolog.Logger
	Audit     zerolog.Logger
	HTTP      zerolog.Logger
	WS        zerolog.Logger
	DB        zerolog.Logger
)

func init() {
	// Usable before Init, e.g. from tests.
	setup(zerolog.Nop())
}

func Init(cfg webconfig.LogConfig) {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var writer io.Writer

	if cfg.Mode == "debug" {
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			writer = os.Stderr
		} else {
			writer = &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   cfg.Compress,
			}
		}
	}

	setup(zerolog.New(writer).With().Timestamp().Caller().Logger())
}

func setup(base zerolog.Logger) {
	Log = base

	Auth = Log.With().Str("module", "auth").Logger()
	Cases = Log.With().Str("module", "cases").Logger()
	Users = Log.With().Str("module", "users").Logger()
	Reports = Log.With().Str("module", "reports").Logger()
	Dashboard = Log.With().Str("module", "dashboard").Logger()
	Config = Log.With().Str("module", "config").Logger()
	Alert = Log.With().Str("module", "alert").Logger()
	Audit = Log.With().Str("module", "audit").Logger()
	HTTP = Log.With().Str("module", "http").Logger()
	WS = Log.With().Str("module", "websocket").Logger()
	DB = Log.With().Str("module", "database").Logger()
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
