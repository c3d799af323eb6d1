package database

import (
	"context"
	"fmt"
	stdlog "log"
	"time"

	"github.com/rpupo63/reel-marketplace-backend/errs"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

// ConnOptions describes how to reach the primary database and an optional read replica
type ConnOptions struct {
	DSN           string
	ReplicaDSN    string
	SlowThreshold time.Duration
	Logger        zerolog.Logger
}

// Open connects to Postgres. Reads are routed to the replica when one is configured;
// transactions and writes always go to the primary.
func Open(ctx context.Context, opts ConnOptions) (*gorm.DB, error) {
	if opts.SlowThreshold == 0 {
		opts.SlowThreshold = 10 * time.Second
	}

	gormLogger := logger.New(
		stdlog.New(opts.Logger.With().Str("component", "gorm").Logger(), "", 0),
		logger.Config{
			SlowThreshold:             opts.SlowThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  opts.DSN,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt:    false,
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrDatabaseConnection, err)
	}

	if opts.ReplicaDSN != "" {
		resolver := dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{postgres.New(postgres.Config{
				DSN:                  opts.ReplicaDSN,
				PreferSimpleProtocol: true,
			})},
			Policy:            dbresolver.RandomPolicy{},
			TraceResolverMode: false,
		})
		if err := db.Use(resolver); err != nil {
			return nil, err
		}
		opts.Logger.Info().Msg("read replica registered")
	}

	var result int
	if err := db.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrDatabaseConnection, err)
	}
	return db, nil
}
