package training

import "github.com/okian/gridcast/internal/domain/model"

// SelectTraining returns the calendar events that happened strictly before
// target, in calendar order: every event of an earlier season plus the
// target season's events ordered before it. The target itself and repeated
// keys are left out.
func SelectTraining(target model.Event, calendar []model.Event) []model.Event {
	seen := make(map[model.EventKey]bool, len(calendar))
	out := make([]model.Event, 0, len(calendar))
	for _, e := range calendar {
		if e.Matches(target.EventKey) || seen[e.EventKey] {
			continue
		}
		if e.Year > target.Year || (e.Year == target.Year && !e.Before(target)) {
			continue
		}
		seen[e.EventKey] = true
		out = append(out, e)
	}
	model.SortEvents(out)
	return out
}
