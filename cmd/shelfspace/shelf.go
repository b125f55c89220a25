package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shelfspace/internal/models"
	"shelfspace/internal/shelves"
)

var shelfCmd = &cobra.Command{
	Use:   "shelf",
	Short: "Manage shelves",
}

var shelfListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all shelves in planning order",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShelfList()
	},
}

var shelfDescription string

var shelfCreateCmd = &cobra.Command{
	Use:   "create <start> <end>",
	Short: "Create a dated shelf (dates as YYYY-MM-DD)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShelfCreate(args[0], args[1])
	},
}

var shelfFinishCmd = &cobra.Command{
	Use:   "finish <name>",
	Short: "Finish a shelf and carry unfinished work to the next one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShelfFinish(args[0])
	},
}

func init() {
	shelfCreateCmd.Flags().StringVarP(&shelfDescription, "description", "d", "", "shelf description")
	shelfCmd.AddCommand(shelfListCmd, shelfCreateCmd, shelfFinishCmd)
	rootCmd.AddCommand(shelfCmd)
}

func runShelfList() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	registry, err := a.registry()
	if err != nil {
		return err
	}

	for _, shelf := range registry.All() {
		marker := " "
		if shelf.IsFinished {
			marker = "✓"
		}
		if shelf.Dated() {
			fmt.Printf("%s %s\n", marker, models.ShelfDisplayName(*shelf.StartDate, *shelf.EndDate))
		} else {
			fmt.Printf("%s %s\n", marker, shelf.Name)
		}
	}
	return nil
}

func runShelfCreate(start, end string) error {
	startDate, err := time.Parse("2006-01-02", start)
	if err != nil {
		return fmt.Errorf("invalid start date %q: %w", start, err)
	}
	endDate, err := time.Parse("2006-01-02", end)
	if err != nil {
		return fmt.Errorf("invalid end date %q: %w", end, err)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	shelf, err := models.NewDatedShelf(startDate, endDate, shelfDescription)
	if err != nil {
		return err
	}
	if existing, err := a.db.GetShelfByName(shelf.Name); err == nil {
		return fmt.Errorf("shelf %q already exists (id %d)", existing.Name, existing.ID)
	}
	if err := a.db.CreateShelf(shelf); err != nil {
		return err
	}
	fmt.Printf("Created shelf %q\n", shelf.Name)
	return nil
}

func runShelfFinish(name string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	registry, err := a.registry()
	if err != nil {
		return err
	}
	shelf := registry.ByName(name)
	if shelf == nil {
		return fmt.Errorf("shelf %q: %w", name, models.ErrNotFound)
	}

	entries, err := a.db.GetAllEntries()
	if err != nil {
		return err
	}

	engine := shelves.NewCarryoverEngine(a.db, a.logger)
	if !engine.CanFinish(shelf, entries) {
		return fmt.Errorf("shelf %q cannot be finished yet: %w", shelf.Name, models.ErrInvalidTransition)
	}
	if err := engine.Finish(registry, shelf); err != nil {
		return err
	}
	fmt.Printf("Finished shelf %q\n", shelf.Name)
	return nil
}
