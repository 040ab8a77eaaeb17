package model

import (
	"errors"
	"fmt"
)

// ErrEventNotFound reports that no data exists for an event. Storage and
// provider adapters wrap it so callers can tell absence from failure.
var ErrEventNotFound = errors.New("event not found")

// SkipKind classifies why an event or session produced no usable data.
type SkipKind string

const (
	SkipNotFound        SkipKind = "not_found"
	SkipNoData          SkipKind = "no_data"
	SkipNoLabels        SkipKind = "no_labels"
	SkipLoadFailed      SkipKind = "load_failed"
	SkipFetchFailed     SkipKind = "fetch_failed"
	SkipAggregateFailed SkipKind = "aggregate_failed"
	SkipMergeFailed     SkipKind = "merge_failed"
	SkipSaveFailed      SkipKind = "save_failed"
)

// Skip is a structured, non-fatal diagnostic attached to an event.
type Skip struct {
	Event  EventKey `json:"event"`
	Kind   SkipKind `json:"kind"`
	Reason string   `json:"reason"`
}

func (s Skip) String() string {
	return fmt.Sprintf("%s: %s: %s", s.Event, s.Kind, s.Reason)
}
