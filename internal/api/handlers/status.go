package handlers

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/sirupsen/logrus"

	"shelfspace/internal/models"
)

// StatusHandler handles status requests
type StatusHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *models.Database, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		db:     db,
		logger: logger,
	}
}

// ShelfStatus summarises one shelf for the status response.
type ShelfStatus struct {
	Name             string `json:"name"`
	Finished         bool   `json:"finished"`
	OpenUnits        int    `json:"open_units"`
	FinishedUnits    int    `json:"finished_units"`
	RemainingMinutes int    `json:"remaining_minutes"`
}

// StatusResponse represents the status response
type StatusResponse struct {
	TotalEntries  int            `json:"total_entries"`
	EntriesByType map[string]int `json:"entries_by_type"`
	Shelves       []ShelfStatus  `json:"shelves"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	shelvesList, err := h.db.GetAllShelves()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get shelves")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	entries, err := h.db.GetAllEntries()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get entries")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	response := StatusResponse{
		TotalEntries:  len(entries),
		EntriesByType: make(map[string]int),
	}

	byShelf := make(map[uint64]*ShelfStatus, len(shelvesList))
	for _, shelf := range shelvesList {
		byShelf[shelf.ID] = &ShelfStatus{Name: shelf.Name, Finished: shelf.IsFinished}
	}

	for _, entry := range entries {
		response.EntriesByType[string(entry.Type)]++
		for _, se := range entry.SubEntries {
			status, ok := byShelf[se.ShelfID]
			if !ok {
				continue
			}
			if se.IsFinished {
				status.FinishedUnits++
				continue
			}
			status.OpenUnits++
			if se.Estimated != nil {
				status.RemainingMinutes += *se.Estimated - se.Spent
			}
		}
	}

	sort.SliceStable(shelvesList, func(i, j int) bool {
		return shelvesList[i].Weight < shelvesList[j].Weight
	})
	for _, shelf := range shelvesList {
		response.Shelves = append(response.Shelves, *byShelf[shelf.ID])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
