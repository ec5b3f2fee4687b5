package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/mudra/internal/store"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// EventsHandler serves the recorded event history.
type EventsHandler struct {
	store *store.Store
}

// NewEventsHandler creates a new EventsHandler with the given store.
func NewEventsHandler(s *store.Store) *EventsHandler {
	return &EventsHandler{store: s}
}

type listEventsResponse struct {
	Events []store.EventRecord `json:"events"`
	Total  int                 `json:"total"`
}

// ServeHTTP handles GET /api/events?base_type=pan&limit=20.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxEventLimit)
	}

	events, err := h.store.Events().Recent(r.URL.Query().Get("base_type"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}
	total, err := h.store.Events().Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count events")
		return
	}

	if events == nil {
		events = []store.EventRecord{}
	}
	writeJSON(w, http.StatusOK, listEventsResponse{Events: events, Total: total})
}
