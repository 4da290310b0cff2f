package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"menuadmin/config"
	"menuadmin/db"
	"menuadmin/importer"
	"menuadmin/logging"
)

const logFile = "menu_import.log"

func main() {
	rootCmd := &cobra.Command{
		Use:          "import-menus",
		Short:        "Import JSON menu files from $MENU_DIR into the restaurants table",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	logger, closeLog, err := logging.New(logging.Options{File: logFile, Console: true})
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer closeLog()
	log := logger.Sugar()

	cfg, err := config.Load(config.EnvFile())
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		return err
	}
	if err := cfg.ValidateImporter(); err != nil {
		log.Errorf("Configuration error: %v", err)
		return err
	}

	store, err := db.Open(ctx, cfg, log)
	if err != nil {
		log.Errorf("Failed to open %s backend: %v", cfg.Backend, err)
		return err
	}
	defer store.Close()

	res, err := importer.New(store, cfg.MenuDir, log).Run(ctx)
	if res != nil {
		res.WriteSummary(os.Stdout)
	}
	if errors.Is(err, context.Canceled) {
		log.Info("Import terminated by user")
		return nil
	}
	if err != nil {
		log.Errorf("Import failed: %v", err)
	}
	return err
}
