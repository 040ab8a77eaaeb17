// Package report renders prediction reports as text, JSON and XLSX.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/gridcast/internal/domain/training"
)

// ErrUnknownFormat is returned by Write for an unsupported format.
var ErrUnknownFormat = errors.New("unknown report format")

// Format names accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
)

const unavailable = "unavailable"

// Write renders r in the given format.
func Write(w io.Writer, r *training.Report, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return WriteText(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteText renders a fixed-width ranked table followed by the accuracy.
func WriteText(w io.Writer, r *training.Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Prediction for %s (model %s, run %s)\n", r.Target, r.Model, r.RunID)
	fmt.Fprintf(&b, "Trained on %d events, %d rows, %d features\n", len(r.TrainingEvents), r.TrainingRows, r.Features)
	if len(r.Skipped) > 0 {
		fmt.Fprintf(&b, "Skipped %d events:\n", len(r.Skipped))
		for _, s := range r.Skipped {
			fmt.Fprintf(&b, "  %s\n", s)
		}
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%-4s  %-3s  %-24s  %-24s  %8s  %6s\n", "Rank", "No", "Driver", "Team", "Score", "Actual")
	for _, e := range r.Predictions {
		actual := "-"
		if e.Actual != nil {
			actual = strconv.Itoa(*e.Actual)
		}
		fmt.Fprintf(&b, "%4d  %-3d  %-24s  %-24s  %8.3f  %6s\n", e.Rank, e.Driver.Number, e.Driver.Name, e.Driver.Team, e.Score, actual)
	}
	b.WriteString("\n")
	mae, r2 := unavailable, unavailable
	if r.Metrics != nil {
		mae = strconv.FormatFloat(r.Metrics.MAE, 'f', 3, 64)
		if r.Metrics.R2 != nil {
			r2 = strconv.FormatFloat(*r.Metrics.R2, 'f', 3, 64)
		}
	}
	fmt.Fprintf(&b, "MAE: %s\n", mae)
	fmt.Fprintf(&b, "R2:  %s\n", r2)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON renders the report as indented JSON.
func WriteJSON(w io.Writer, r *training.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
