package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"menuadmin/config"
	"menuadmin/plugins/supabase"
)

// OpenGorm opens a SQL backend by name ("sqlite" or "postgres").
func OpenGorm(backend, dsn string) (*gorm.DB, error) {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	switch backend {
	case config.BackendSQLite:
		dialector = sqlite.Open(dsn)
	case config.BackendPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported SQL backend %q", backend)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: newLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}
	return gdb, nil
}

// Open returns the Store selected by cfg.Backend.
func Open(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (Store, error) {
	if err := cfg.ValidateBackend(); err != nil {
		return nil, err
	}

	if cfg.Backend == config.BackendSupabase {
		log.Debugw("using hosted REST backend", "url", cfg.SupabaseURL)
		return NewRESTStore(supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey)), nil
	}

	gdb, err := OpenGorm(cfg.Backend, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	s := NewSQLStore(gdb)
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("connecting to %s: %w", cfg.Backend, err)
	}
	log.Debugw("using SQL backend", "backend", cfg.Backend)
	return s, nil
}
