package database

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationDir = "migrations"

// gooseLogger routes goose output through zerolog
type gooseLogger struct {
	logger zerolog.Logger
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error().Msg(fmt.Sprintf(format, v...))
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info().Msg(fmt.Sprintf(format, v...))
}

// Migrate applies every pending embedded migration
func Migrate(ctx context.Context, db *gorm.DB, logger zerolog.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errs.NewMigrationFailedError(err)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger: logger.With().Str("component", "goose").Logger()})
	if err := goose.SetDialect("postgres"); err != nil {
		return errs.NewMigrationFailedError(err)
	}

	if err := goose.UpContext(ctx, sqlDB, migrationDir); err != nil {
		if errors.Is(err, goose.ErrNoNextVersion) {
			logger.Info().Msg("no migrations to apply")
			return nil
		}
		return errs.NewMigrationFailedError(err)
	}

	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return errs.NewMigrationFailedError(err)
	}
	logger.Info().Int64("version", version).Msg("database migrations applied")
	return nil
}
