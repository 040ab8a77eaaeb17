package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	service "github.com/okian/gridcast/internal/app"
	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/training"
)

// PredictionDependencies defines the prediction entry point.
type PredictionDependencies interface {
	Predict(ctx context.Context, key model.EventKey, opts service.PredictOptions) (*training.Report, error)
}

// PredictionsHandler runs predictions on request.
type PredictionsHandler struct {
	deps PredictionDependencies
}

// NewPredictionsHandler creates a new predictions handler.
func NewPredictionsHandler(deps PredictionDependencies) *PredictionsHandler {
	return &PredictionsHandler{deps: deps}
}

// HandleGetPredictions handles GET /predictions?country=&location=&year=[&refresh=true].
func (h *PredictionsHandler) HandleGetPredictions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	key := model.EventKey{
		Country:  strings.TrimSpace(q.Get("country")),
		Location: strings.TrimSpace(q.Get("location")),
	}
	if key.Country == "" || key.Location == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: country and location are required", ErrBadRequest))
		return
	}
	year, err := parseYear(q.Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	key.Year = year

	var opts service.PredictOptions
	if raw := q.Get("refresh"); raw != "" {
		if opts.Refresh, err = strconv.ParseBool(raw); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: refresh must be a boolean", ErrBadRequest))
			return
		}
	}

	report, err := h.deps.Predict(r.Context(), key, opts)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
