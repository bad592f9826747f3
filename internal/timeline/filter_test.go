package timeline

import (
	"reflect"
	"testing"

	"github.com/tripfolio/api/internal/domain"
)

func filterTrip() *domain.Trip {
	return &domain.Trip{
		StartDate: "2026-06-10",
		EndDate:   "2026-06-12",
		Flights: []domain.Flight{{
			ID:            "flight-1",
			Date:          "2026-06-10",
			FlightNumber:  "AZ608",
			Airline:       "ITA Airways",
			DepartureTime: strPtr("10:00"),
			Departure:     domain.FlightEndpoint{Code: "FCO", City: "Rome"},
			Arrival:       domain.FlightEndpoint{Code: "JFK", City: "New York"},
		}},
		Hotels: []domain.Hotel{{
			ID:           "hotel-1",
			Name:         "Hotel Artemide",
			Address:      strPtr("Via Nazionale 22, Rome"),
			CheckInDate:  "2026-06-10",
			CheckOutDate: "2026-06-12",
		}},
		Activities: []domain.Activity{{
			ID:   "activity-1",
			Name: "Colosseum tour",
			Date: "2026-06-11",
		}},
	}
}

func countEvents(t Timeline) int {
	n := 0
	for _, events := range t.Grouped {
		n += len(events)
	}
	return n
}

func TestNewFilterState_EnablesPresentCategories(t *testing.T) {
	tl := Build(filterTrip())
	state := NewFilterState(tl)

	want := []string{"activity", "flight", "hotel"}
	if got := state.ActiveCategories(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestApply_DefaultStateIsIdentity(t *testing.T) {
	tl := Build(filterTrip())
	state := NewFilterState(tl)

	filtered := Apply(tl, state)

	if countEvents(filtered) != countEvents(tl) {
		t.Fatalf("default state must keep all %d events, got %d", countEvents(tl), countEvents(filtered))
	}
	if !reflect.DeepEqual(filtered.AllDates, tl.AllDates) {
		t.Fatalf("dates must be unchanged, got %v", filtered.AllDates)
	}
}

func TestApply_CategoryToggleRemovesAllHotelEventTypes(t *testing.T) {
	tl := Build(filterTrip())
	state := NewFilterState(tl)
	state.Categories["hotel"] = false

	filtered := Apply(tl, state)

	for date, events := range filtered.Grouped {
		for _, ev := range events {
			if ev.Category() == "hotel" {
				t.Fatalf("hotel event %s leaked through on %s", ev.Type, date)
			}
		}
	}
	// Check-in, two stay days and checkout all disappear together.
	if countEvents(filtered) != 2 {
		t.Fatalf("expected flight and activity to remain, got %d events", countEvents(filtered))
	}
}

func TestApply_KeepsDatesWithNoMatchingEvents(t *testing.T) {
	tl := Build(filterTrip())
	state := NewFilterState(tl)
	state.Categories["hotel"] = false
	state.Categories["activity"] = false

	filtered := Apply(tl, state)

	if !reflect.DeepEqual(filtered.AllDates, tl.AllDates) {
		t.Fatalf("day grid must keep its shape, got %v", filtered.AllDates)
	}
	if events, ok := filtered.Grouped["2026-06-11"]; !ok || len(events) != 0 {
		t.Fatalf("expected an empty event list for 2026-06-11, got %v (present=%v)", events, ok)
	}
}

func TestApply_QueryMatchesPerType(t *testing.T) {
	tl := Build(filterTrip())
	state := NewFilterState(tl)

	state.Query = "new york"
	filtered := Apply(tl, state)
	if countEvents(filtered) != 1 {
		t.Fatalf("expected only the flight to match, got %d events", countEvents(filtered))
	}

	state.Query = "artemide"
	filtered = Apply(tl, state)
	for _, events := range filtered.Grouped {
		for _, ev := range events {
			if ev.Category() != "hotel" {
				t.Fatalf("unexpected %s event matched hotel query", ev.Type)
			}
		}
	}
	if countEvents(filtered) != 3 {
		t.Fatalf("expected checkin, stay and checkout to match, got %d", countEvents(filtered))
	}

	state.Query = "colosseum"
	filtered = Apply(tl, state)
	if countEvents(filtered) != 1 {
		t.Fatalf("expected only the activity to match, got %d", countEvents(filtered))
	}

	state.Query = "zzz-no-match"
	filtered = Apply(tl, state)
	if countEvents(filtered) != 0 {
		t.Fatalf("expected nothing to match, got %d", countEvents(filtered))
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	tl := Build(filterTrip())
	before := countEvents(tl)

	state := NewFilterState(tl)
	state.Categories["flight"] = false
	state.Query = "artemide"
	Apply(tl, state)

	if countEvents(tl) != before {
		t.Fatalf("input timeline was mutated: %d events before, %d after", before, countEvents(tl))
	}
}

func TestActiveCategories_OnlyListsEnabled(t *testing.T) {
	state := FilterState{Categories: map[string]bool{"flight": true, "hotel": false, "activity": true}}
	want := []string{"activity", "flight"}
	if got := state.ActiveCategories(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
