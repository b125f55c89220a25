package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"shelfspace/internal/models"
)

// HealthHandler reports liveness of the process and its entry store.
type HealthHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *models.Database, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Shelves int    `json:"shelves"`
}

// ServeHTTP answers the health check. The store is pinged with a shelf
// listing; an unreadable store makes the instance unhealthy.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	shelves, err := h.db.GetAllShelves()
	if err != nil {
		h.logger.WithError(err).Error("Health check failed to read the store")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(HealthResponse{Status: "unhealthy"})
		return
	}

	json.NewEncoder(w).Encode(HealthResponse{
		Status:  "healthy",
		Shelves: len(shelves),
	})
}
