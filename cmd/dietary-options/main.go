package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"menuadmin/config"
	"menuadmin/db"
	"menuadmin/dietary"
	"menuadmin/logging"
)

const logFile = "restaurant_dietary_options.log"

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:          "dietary-options",
		Short:        "Interactively associate dietary options with restaurants",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), verbose)
		},
	}
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Mirror log output to the console")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, verbose bool) error {
	logger, closeLog, err := logging.New(logging.Options{File: logFile, Console: verbose})
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer closeLog()
	log := logger.Sugar()

	log.Infof("Logging initialized. Log file: %s", logFile)
	fmt.Printf("Log file created: %s\n", logFile)

	cfg, err := config.Load(config.EnvFile())
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		return err
	}

	store, err := db.Open(ctx, cfg, log)
	if err != nil {
		log.Errorf("Failed to connect to %s: %v", cfg.Backend, err)
		return err
	}
	defer store.Close()
	log.Infof("Connected to %s successfully", cfg.Backend)

	return session(ctx, store, log, os.Stdout)
}

// session runs the manager until it returns or ctx is cancelled, reporting
// the outcome on out. The manager's own output goes to out as well.
func session(ctx context.Context, store db.Store, log *zap.SugaredLogger, out io.Writer, opts ...dietary.Option) error {
	opts = append([]dietary.Option{dietary.WithOutput(out)}, opts...)

	// The manager blocks on stdin; run it aside so an interrupt is seen at once.
	done := make(chan error, 1)
	go func() {
		done <- runManager(ctx, store, log, opts...)
	}()

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-done:
	}
	switch {
	case errors.Is(err, context.Canceled):
		log.Info("Program terminated by user via interrupt")
		fmt.Fprintln(out, "\nProgram terminated by user.")
	case err != nil:
		fmt.Fprintf(out, "An error occurred: %v\n", err)
		fmt.Fprintln(out, "Check the log file for more details.")
	}
	return nil
}

func runManager(ctx context.Context, store db.Store, log *zap.SugaredLogger, opts ...dietary.Option) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw(fmt.Sprintf("Unhandled exception: %v", r), "stack", string(debug.Stack()))
			err = fmt.Errorf("%v", r)
		}
	}()
	return dietary.New(store, log, opts...).Run(ctx)
}
