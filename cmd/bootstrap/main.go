package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"menuadmin/config"
	"menuadmin/db"
	"menuadmin/importer"
)

const (
	defaultMaxBackups = 5
	backupFileExt     = ".bak"
)

type options struct {
	dbPath     string
	menuDir    string
	seed       bool
	backup     bool
	maxBackups int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var o options

	rootCmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the local database schema and optionally seed it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.maxBackups < 0 {
				return fmt.Errorf("--max-backups must not be negative, got %d", o.maxBackups)
			}

			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			cfg, err := config.Load(config.EnvFile())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("db") && cfg.DatabaseURL != "" {
				o.dbPath = cfg.DatabaseURL
			}
			if !cmd.Flags().Changed("menu-dir") {
				o.menuDir = cfg.MenuDir
			}
			return runBootstrap(localBackend(cfg.Backend), o, logger.Sugar())
		},
	}

	rootCmd.Flags().StringVar(&o.dbPath, "db", config.DefaultSQLitePath, "Path to SQLite database file, or Postgres DSN when DB_BACKEND=postgres")
	rootCmd.Flags().StringVar(&o.menuDir, "menu-dir", "", "Directory of menu files; one restaurant is seeded per file (default $MENU_DIR)")
	rootCmd.Flags().BoolVar(&o.seed, "seed", true, "Whether to load seed data into the database")
	rootCmd.Flags().BoolVar(&o.backup, "backup", true, "Whether to create a backup of the database if it exists")
	rootCmd.Flags().IntVar(&o.maxBackups, "max-backups", defaultMaxBackups, "Maximum number of backups to retain")
	return rootCmd
}

// localBackend maps the configured backend to a SQL one; the Supabase
// backend is bootstrapped as a local SQLite file.
func localBackend(backend string) string {
	if backend == "" || backend == config.BackendSupabase {
		return config.BackendSQLite
	}
	return backend
}

func runBootstrap(backend string, o options, log *zap.SugaredLogger) error {
	if o.backup && backend == config.BackendSQLite {
		if info, err := os.Stat(o.dbPath); err == nil {
			log.Infof("existing database file size: %d bytes", info.Size())
			backupPath := fmt.Sprintf("%s.%s%s", o.dbPath, time.Now().Format("20060102-150405"), backupFileExt)
			if err := copyFile(o.dbPath, backupPath); err != nil {
				return fmt.Errorf("failed to create DB backup: %w", err)
			}
			log.Infof("existing database backed up to %s", backupPath)
			pruneOldBackups(o.dbPath, o.maxBackups, log)
		}
	}

	var restaurants []string
	if o.seed && o.menuDir != "" {
		files, err := importer.ListJSONFiles(o.menuDir)
		if err != nil {
			return err
		}
		for _, f := range files {
			restaurants = append(restaurants, importer.RestaurantNameFromFile(f))
		}
	}

	gdb, err := db.OpenGorm(backend, o.dbPath)
	if err != nil {
		return err
	}
	if err := db.Bootstrap(gdb, o.seed, restaurants, log); err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}
	log.Infof("bootstrap: completed for %s", o.dbPath)

	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func copyFile(src, dst string) error {
	sourceFileStat, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !sourceFileStat.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := destination.ReadFrom(source); err != nil {
		_ = destination.Close()
		return err
	}
	return destination.Close()
}

// pruneOldBackups keeps the newest keep backups of dbPath; the timestamp in
// the name makes lexical order chronological.
func pruneOldBackups(dbPath string, keep int, log *zap.SugaredLogger) {
	dir := filepath.Dir(dbPath)
	prefix := filepath.Base(dbPath) + "."
	files, err := os.ReadDir(dir)
	if err != nil {
		log.Warnf("failed to read backup directory: %v", err)
		return
	}

	var backups []string
	for _, f := range files {
		if strings.HasPrefix(f.Name(), prefix) && strings.HasSuffix(f.Name(), backupFileExt) {
			backups = append(backups, filepath.Join(dir, f.Name()))
		}
	}
	if keep < 0 {
		log.Warnf("refusing to prune backups with a negative limit %d", keep)
		return
	}
	if len(backups) <= keep {
		return
	}

	sort.Strings(backups)
	for _, file := range backups[:len(backups)-keep] {
		if err := os.Remove(file); err != nil {
			log.Warnf("failed to remove old backup %s: %v", file, err)
		} else {
			log.Infof("removed old backup: %s", file)
		}
	}
}
