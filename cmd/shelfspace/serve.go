package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"shelfspace/internal/api"
	"shelfspace/internal/controllers"
	"shelfspace/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sync daemon with the HTTP status server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	a.logger.Info("Starting shelfspace")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	traktClient, err := a.traktClient(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("Trakt client initialized")

	watchlist := controllers.NewWatchlistIngester(a.db, traktClient, a.logger)
	placement := controllers.NewPlacementResolver(a.db, a.logger)
	reconciler := controllers.NewWatchReconciler(a.db, traktClient, a.logger)

	sched := scheduler.NewScheduler(watchlist, placement, reconciler, traktClient, a.db, a.cfg.TraktSyncDays, a.cfg.CalendarDays, a.logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	server := api.NewServer(a.cfg, a.db, a.logger)
	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	a.logger.Info("Shelfspace is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		a.logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			a.logger.WithError(err).Error("Error during server shutdown")
		}
	}

	a.logger.Info("Shelfspace stopped")
	return nil
}
