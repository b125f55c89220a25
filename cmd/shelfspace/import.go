package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shelfspace/internal/controllers"
	"shelfspace/internal/services/hltb"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import entries from external libraries",
}

var importBooksCmd = &cobra.Command{
	Use:   "books <export.csv>",
	Short: "Import books from a goodreads CSV export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImportBooks(args[0])
	},
}

var importGamesCmd = &cobra.Command{
	Use:   "games",
	Short: "Import the howlongtobeat games backlog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImportGames(cmd)
	},
}

func init() {
	importCmd.AddCommand(importBooksCmd, importGamesCmd)
	rootCmd.AddCommand(importCmd)
}

func runImportBooks(path string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	registry, err := a.registry()
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	importer := controllers.NewLibraryImporter(a.db, nil, a.logger)
	return importer.ImportBooks(f, registry)
}

func runImportGames(cmd *cobra.Command) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.cfg.RequireHLTB(); err != nil {
		return err
	}

	registry, err := a.registry()
	if err != nil {
		return err
	}

	importer := controllers.NewLibraryImporter(a.db, hltb.NewClient(a.cfg.HLTBUserID, a.logger), a.logger)
	return importer.SyncGames(cmd.Context(), registry)
}
