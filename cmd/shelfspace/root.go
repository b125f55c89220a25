package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"shelfspace/internal/config"
	"shelfspace/internal/models"
	"shelfspace/internal/services/trakt"
	"shelfspace/internal/shelves"
	"shelfspace/internal/utils"
)

var rootCmd = &cobra.Command{
	Use:           "shelfspace",
	Short:         "Weekly shelf planner for the media backlog",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// app bundles the pieces every command needs.
type app struct {
	cfg    *config.Config
	logger *logrus.Logger
	db     *models.Database
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := utils.NewLogger(cfg.LogLevel)

	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.EnsureReservedShelves(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure reserved shelves: %w", err)
	}

	return &app{cfg: cfg, logger: logger, db: db}, nil
}

func (a *app) close() {
	a.db.Close()
}

func (a *app) registry() (*shelves.Registry, error) {
	all, err := a.db.GetAllShelves()
	if err != nil {
		return nil, fmt.Errorf("failed to load shelves: %w", err)
	}
	return shelves.NewRegistry(all), nil
}

// traktClient builds an authenticated Trakt client, running the device-code
// flow when no token is stored yet.
func (a *app) traktClient(ctx context.Context) (*trakt.Client, error) {
	if err := a.cfg.RequireTrakt(); err != nil {
		return nil, err
	}
	client, err := trakt.NewClient(a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Trakt client: %w", err)
	}
	if _, err := client.GetToken(); err != nil {
		a.logger.Info("Trakt authentication required")
		if err := client.Authenticate(ctx); err != nil {
			return nil, fmt.Errorf("failed to authenticate with Trakt: %w", err)
		}
	}
	return client, nil
}
