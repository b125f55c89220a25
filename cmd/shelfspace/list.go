package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"shelfspace/internal/models"
	"shelfspace/internal/utils"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked entries grouped by shelf",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList()
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "include finished shelves and units")
	rootCmd.AddCommand(listCmd)
}

var typeEmoji = map[models.MediaType]string{
	models.MediaTypeProjects:   "🏗️",
	models.MediaTypeDuolingo:   "🗣️",
	models.MediaTypeCourse:     "📚",
	models.MediaTypeMovie:      "🎬",
	models.MediaTypeSeries:     "📺",
	models.MediaTypeGame:       "🎮",
	models.MediaTypeGameVR:     "🥽",
	models.MediaTypeGameMobile: "📱",
	models.MediaTypeBook:       "📖",
	models.MediaTypeBookEd:     "📚",
	models.MediaTypeBookComics: "💭",
	models.MediaTypeArticle:    "📰",
	models.MediaTypeVideo:      "🎥",
}

func emojiFor(t models.MediaType) string {
	if emoji, ok := typeEmoji[t]; ok {
		return emoji
	}
	return "📌"
}

// listLine is one printed unit: an entry name, optionally suffixed with the
// sub-entry name for multi-unit entries.
type listLine struct {
	label     string
	emoji     string
	year      string
	estimated string
}

func runList() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	registry, err := a.registry()
	if err != nil {
		return err
	}
	entries, err := a.db.GetAllEntries()
	if err != nil {
		return err
	}

	lines := make(map[uint64][]listLine)
	for _, entry := range entries {
		for _, se := range entry.SubEntries {
			if se.IsFinished && !listAll {
				continue
			}
			label := entry.Name
			if se.Name != "" {
				label = fmt.Sprintf("%s %s", entry.Name, se.Name)
			}
			year := "N/A"
			switch {
			case se.ReleaseDate != nil:
				year = fmt.Sprintf("%d", se.ReleaseDate.Year())
			case entry.ReleaseDate != nil:
				year = fmt.Sprintf("%d", entry.ReleaseDate.Year())
			}
			estimated := "N/A"
			if se.Estimated != nil {
				estimated = utils.FormatMinutes(*se.Estimated)
			}
			lines[se.ShelfID] = append(lines[se.ShelfID], listLine{
				label:     label,
				emoji:     emojiFor(entry.Type),
				year:      year,
				estimated: estimated,
			})
		}
	}

	for _, shelf := range registry.All() {
		if shelf.IsFinished && !listAll {
			continue
		}
		shelfLines := lines[shelf.ID]
		if len(shelfLines) == 0 {
			continue
		}
		sort.Slice(shelfLines, func(i, j int) bool { return shelfLines[i].label < shelfLines[j].label })

		fmt.Printf("\n📚 %s\n", shelf.Name)
		for _, line := range shelfLines {
			fmt.Printf("  %s \033[1m%s\033[0m (%s) - %s\n", line.emoji, line.label, line.year, line.estimated)
		}
	}
	return nil
}
