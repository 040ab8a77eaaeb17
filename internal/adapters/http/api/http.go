// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/gridcast/internal/adapters/repository"
	service "github.com/okian/gridcast/internal/app"
	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/training"
	"github.com/okian/gridcast/internal/domain/types"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Calendar(ctx context.Context, year int) ([]model.Event, error)
	Predict(ctx context.Context, key model.EventKey, opts service.PredictOptions) (*training.Report, error)
	History(ctx context.Context, limit int) ([]repository.Run, error)
	RunPredictions(ctx context.Context, runID string) ([]types.Entry, error)
}

// Server wires HTTP routes for the prediction API.
type Server struct {
	healthHandler      *HealthHandler
	eventsHandler      *EventsHandler
	predictionsHandler *PredictionsHandler
	historyHandler     *HistoryHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		eventsHandler:      NewEventsHandler(deps),
		predictionsHandler: NewPredictionsHandler(deps),
		historyHandler:     NewHistoryHandler(deps, defaultHistoryLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandleGetEvents, "events"))
	mux.HandleFunc("/predictions", MetricsMiddleware(s.predictionsHandler.HandleGetPredictions, "predictions"))
	mux.HandleFunc("/history", MetricsMiddleware(s.historyHandler.HandleGetHistory, "history"))
	mux.HandleFunc("/history/", MetricsMiddleware(s.historyHandler.HandleGetRun, "history_run"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps pipeline errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrEventNotFound), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, training.ErrNoTrainingData):
		writeError(w, http.StatusUnprocessableEntity, "no_training_data", err)
	case errors.Is(err, training.ErrTargetUnavailable):
		writeError(w, http.StatusUnprocessableEntity, "target_unavailable", err)
	case errors.Is(err, repository.ErrInvalidLimit), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrHistoryDisabled):
		writeError(w, http.StatusServiceUnavailable, "history_disabled", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
