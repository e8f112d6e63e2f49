package database

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hugh/go-recipes/internal/database/models"
	"github.com/hugh/go-recipes/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.SSLMode == "disable" && !cfg.IsSQLite() {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		// Foreign keys are off by default in SQLite.
		dialector = sqlite.Open(cfg.SQLitePath + "?_foreign_keys=on")
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying db: %w", err)
	}

	// Connection pool settings
	if cfg.IsSQLite() {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}

	if cfg.IsSQLite() {
		log.Info("connected to database", "driver", cfg.Driver, "path", cfg.SQLitePath)
	} else {
		log.Info("connected to database", "driver", cfg.Driver, "host", cfg.Host, "database", cfg.Name)
	}

	return db, nil
}

// Tables lists every model in dependency order.
func Tables() []interface{} {
	return []interface{}{
		&models.User{},
		&models.AuthToken{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.ActivityLog{},
	}
}

// AutoMigrate builds the schema from the models. Used for SQLite and tests;
// Postgres deployments go through RunMigrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Tables()...)
}

// RunMigrations applies the versioned SQL files under source to a Postgres database.
func RunMigrations(databaseURL, source string, log *slog.Logger) error {
	if source == "" {
		source = "file://migrations"
	}

	m, err := migrate.New(source, databaseURL)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running up migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("reading migration version: %w", err)
	}
	log.Info("database migrations applied", "version", version, "dirty", dirty)
	return nil
}

// Migrate picks the schema strategy for the configured driver.
func Migrate(db *gorm.DB, cfg *config.DatabaseConfig, log *slog.Logger) error {
	if cfg.IsSQLite() {
		return AutoMigrate(db)
	}
	return RunMigrations(cfg.URL(), cfg.MigrationsPath, log)
}
