package main

import (
	"github.com/spf13/cobra"

	"shelfspace/internal/controllers"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one watchlist, calendar and history sync cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	traktClient, err := a.traktClient(ctx)
	if err != nil {
		return err
	}

	registry, err := a.registry()
	if err != nil {
		return err
	}

	watchlist := controllers.NewWatchlistIngester(a.db, traktClient, a.logger)
	if err := watchlist.Sync(ctx, registry); err != nil {
		return err
	}

	placement := controllers.NewPlacementResolver(a.db, a.logger)
	episodes, err := traktClient.UpcomingEpisodes(ctx, a.cfg.CalendarDays)
	if err != nil {
		return err
	}
	if err := placement.PlaceUpcoming(ctx, registry, episodes); err != nil {
		return err
	}
	if err := placement.ReevaluateBacklog(registry); err != nil {
		return err
	}

	reconciler := controllers.NewWatchReconciler(a.db, traktClient, a.logger)
	events, err := traktClient.RecentlyWatched(ctx, a.cfg.TraktSyncDays)
	if err != nil {
		return err
	}
	return reconciler.Reconcile(ctx, registry, events)
}
