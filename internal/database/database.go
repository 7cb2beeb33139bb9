package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cybercase/internal/constants"
	"cybercase/internal/logger"
	"cybercase/internal/security"
	"cybercase/internal/webconfig"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// BootstrapAdmin is the administrator seeded into an empty schema.
type BootstrapAdmin struct {
	Username string
	Password string
	FullName string
}

func Init(cfg webconfig.DatabaseConfig, admin BootstrapAdmin, debug bool) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
		dialector = sqlite.Open(cfg.SQLitePath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
		logger.DB.Info().Str("driver", "sqlite").Str("path", cfg.SQLitePath).Msg("opening database")
	case "postgres":
		if cfg.PostgresDSN == "" {
			return fmt.Errorf("postgres_dsn is required when driver is postgres")
		}
		dialector = postgres.Open(cfg.PostgresDSN)
		logger.DB.Info().Str("driver", "postgres").Msg("opening database")
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := Open(dialector, debug)
	if err != nil {
		return err
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, 25))
	sqlDB.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, 5))
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := InitSchema(db, admin); err != nil {
		return err
	}

	DB = db
	logger.DB.Info().Msg("database ready")
	return nil
}

// Open connects with the settings every caller shares: UTC timestamps and
// driver errors translated to gorm sentinels such as gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector, debug bool) (*gorm.DB, error) {
	logLevel := gormlogger.Silent
	if debug {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

// InitSchema creates missing tables and seeds the bootstrap administrator.
// Running it again on an initialized database changes nothing.
func InitSchema(db *gorm.DB, admin BootstrapAdmin) error {
	if err := db.AutoMigrate(
		&User{},
		&Case{},
		&ActivityLog{},
		&CaseSequence{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if admin.Username == "" {
		return nil
	}

	var existing User
	err := db.Where("username = ?", admin.Username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up bootstrap admin: %w", err)
	}

	hash, err := security.HashPassword(admin.Password)
	if err != nil {
		return err
	}
	seed := &User{
		Username:           admin.Username,
		PasswordHash:       hash,
		FullName:           admin.FullName,
		Role:               constants.RoleAdmin,
		IsActive:           true,
		MustChangePassword: true,
	}
	if err := db.Create(seed).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("failed to seed bootstrap admin: %w", err)
	}
	logger.DB.Warn().Str("username", admin.Username).Msg("bootstrap admin created, password must be changed on first login")
	return nil
}

// Ping checks that the store answers within ctx.
func Ping(ctx context.Context) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
