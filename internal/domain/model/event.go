// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// EventKey identifies one grand prix weekend.
type EventKey struct {
	Country  string `json:"country"`
	Location string `json:"location"`
	Year     int    `json:"year"`
}

func (k EventKey) String() string {
	return fmt.Sprintf("%s/%s/%d", k.Country, k.Location, k.Year)
}

// Matches reports whether k names the same event as o, ignoring case and
// surrounding whitespace of the free-text parts.
func (k EventKey) Matches(o EventKey) bool {
	return k.Year == o.Year &&
		strings.EqualFold(strings.TrimSpace(k.Country), strings.TrimSpace(o.Country)) &&
		strings.EqualFold(strings.TrimSpace(k.Location), strings.TrimSpace(o.Location))
}

// Event is a calendar entry. Date and Name are optional; events discovered
// from the table store carry only their key.
type Event struct {
	EventKey
	Name string    `json:"name,omitempty"`
	Date time.Time `json:"date,omitempty"`
}

// Before orders events by year, then date when both dates are known, then
// country and location. It is a strict weak ordering over a calendar.
func (e Event) Before(o Event) bool {
	if e.Year != o.Year {
		return e.Year < o.Year
	}
	if !e.Date.IsZero() && !o.Date.IsZero() && !e.Date.Equal(o.Date) {
		return e.Date.Before(o.Date)
	}
	if e.Country != o.Country {
		return e.Country < o.Country
	}
	return e.Location < o.Location
}

// SortEvents sorts events in calendar order.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Before(events[j]) })
}

// Collapse keeps one entry per event key and returns them in calendar order.
// When keys repeat the latest dated entry wins: a season's pre-season test
// shares its key with the grand prix held later at the same circuit.
func Collapse(events []Event) []Event {
	out := make([]Event, 0, len(events))
	at := make(map[EventKey]int, len(events))
	for _, e := range events {
		k := e.EventKey.normalized()
		i, ok := at[k]
		if !ok {
			at[k] = len(out)
			out = append(out, e)
			continue
		}
		if e.Date.After(out[i].Date) {
			out[i] = e
		}
	}
	SortEvents(out)
	return out
}

func (k EventKey) normalized() EventKey {
	return EventKey{
		Country:  strings.ToLower(strings.TrimSpace(k.Country)),
		Location: strings.ToLower(strings.TrimSpace(k.Location)),
		Year:     k.Year,
	}
}
