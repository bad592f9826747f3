package timeline

import (
	"sort"
	"strings"
)

// FilterState is owned by the caller and passed in explicitly; applying it
// never mutates the built timeline, so any filter change is reversible by
// re-applying against the same input.
type FilterState struct {
	Categories map[string]bool
	Query      string
}

// NewFilterState returns a state with every category actually present in the
// timeline active and no query, which filters to the identity.
func NewFilterState(t Timeline) FilterState {
	categories := map[string]bool{}
	for _, events := range t.Grouped {
		for i := range events {
			categories[events[i].Category()] = true
		}
	}
	return FilterState{Categories: categories}
}

// ActiveCategories lists the enabled categories in stable order.
func (s FilterState) ActiveCategories() []string {
	out := make([]string, 0, len(s.Categories))
	for c, on := range s.Categories {
		if on {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// Apply maps each date's event list through the category and query
// predicates and returns a fresh timeline. Dates stay listed even when every
// event on them is filtered out, so the day grid keeps its shape.
func Apply(t Timeline, state FilterState) Timeline {
	query := strings.ToLower(strings.TrimSpace(state.Query))

	filtered := Timeline{
		AllDates: append([]string(nil), t.AllDates...),
		Grouped:  make(map[string][]Event, len(t.Grouped)),
	}
	for date, events := range t.Grouped {
		kept := make([]Event, 0, len(events))
		for i := range events {
			ev := events[i]
			if state.Categories != nil && !state.Categories[ev.Category()] {
				continue
			}
			if query != "" && !matchesQuery(&ev, query) {
				continue
			}
			kept = append(kept, ev)
		}
		filtered.Grouped[date] = kept
	}
	return filtered
}

// matchesQuery checks a case-insensitive substring match against the fields
// a traveller would search by for each event type.
func matchesQuery(e *Event, lowered string) bool {
	var fields []string
	switch {
	case e.Flight != nil:
		f := e.Flight
		fields = []string{
			f.Departure.City, f.Departure.Code,
			f.Arrival.City, f.Arrival.Code,
			f.Airline, f.FlightNumber,
		}
	case e.Hotel != nil:
		fields = []string{e.Hotel.Name, derefStr(e.Hotel.Address)}
	case e.Activity != nil:
		a := e.Activity
		fields = []string{a.Name, derefStr(a.Description), derefStr(a.Address)}
	}
	for _, field := range fields {
		if field != "" && strings.Contains(strings.ToLower(field), lowered) {
			return true
		}
	}
	return false
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
