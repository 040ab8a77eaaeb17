package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/gridcast/internal/domain/model"
)

// EventDependencies defines the calendar lookup used by EventsHandler.
type EventDependencies interface {
	Calendar(ctx context.Context, year int) ([]model.Event, error)
}

// EventsHandler handles calendar requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandleGetEvents handles GET /events?year=YYYY requests.
func (h *EventsHandler) HandleGetEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	year, err := parseYear(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	events, err := h.deps.Calendar(r.Context(), year)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func parseYear(raw string) (int, error) {
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1950 || year > 2100 {
		return 0, fmt.Errorf("%w: year must be a season like 2025", ErrBadRequest)
	}
	return year, nil
}
