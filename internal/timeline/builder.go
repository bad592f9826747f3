// Package timeline projects a trip aggregate into the day-by-day event
// sequence the itinerary view renders. Events are derived values: they are
// rebuilt on every call and never persisted.
package timeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tripfolio/api/internal/domain"
)

type EventType string

const (
	EventFlight        EventType = "flight"
	EventHotelCheckin  EventType = "hotel-checkin"
	EventHotelStay     EventType = "hotel-stay"
	EventHotelCheckout EventType = "hotel-checkout"
	EventActivity      EventType = "activity"
)

// Event is one atomic calendar entry. Exactly one of Flight/Hotel/Activity is
// set, matching Type. Time is nil for untimed events.
type Event struct {
	Date string    `json:"date"`
	Time *string   `json:"time"`
	Type EventType `json:"type"`

	Flight   *domain.Flight   `json:"flight,omitempty"`
	Hotel    *domain.Hotel    `json:"hotel,omitempty"`
	Activity *domain.Activity `json:"activity,omitempty"`
}

// Category is the filter key: the three hotel event types share one chip.
func (e *Event) Category() string {
	switch e.Type {
	case EventHotelCheckin, EventHotelStay, EventHotelCheckout:
		return "hotel"
	case EventActivity:
		return "activity"
	default:
		return "flight"
	}
}

// Timeline is the projection output: every displayed date in order, and the
// sorted events for each of them.
type Timeline struct {
	AllDates []string           `json:"allDates"`
	Grouped  map[string][]Event `json:"grouped"`
}

// typePriority breaks timing ties so that on a changeover day the prior
// hotel's checkout and the departing flight precede the arriving flight and
// the new check-in.
func typePriority(t EventType) int {
	switch t {
	case EventHotelCheckout:
		return 0
	case EventFlight:
		return 1
	case EventHotelCheckin:
		return 2
	case EventHotelStay:
		return 3
	default:
		return 4
	}
}

// Build expands the trip's flights, hotels and activities into events,
// groups them by local date and sorts each day. A trip with no bookings
// yields an empty timeline.
func Build(trip *domain.Trip) Timeline {
	grouped := map[string][]Event{}
	add := func(ev Event) {
		if strings.TrimSpace(ev.Date) == "" {
			return
		}
		grouped[ev.Date] = append(grouped[ev.Date], ev)
	}

	for i := range trip.Flights {
		f := &trip.Flights[i]
		add(Event{Date: f.Date, Time: f.DepartureTime, Type: EventFlight, Flight: f})
	}

	for i := range trip.Hotels {
		h := &trip.Hotels[i]
		add(Event{Date: h.CheckInDate, Time: h.CheckInTime, Type: EventHotelCheckin, Hotel: h})
		// Stay days run strictly between check-in and check-out: a
		// three-night stay yields two intermediate entries.
		for _, day := range daysBetween(h.CheckInDate, h.CheckOutDate) {
			add(Event{Date: day, Type: EventHotelStay, Hotel: h})
		}
		add(Event{Date: h.CheckOutDate, Time: h.CheckOutTime, Type: EventHotelCheckout, Hotel: h})
	}

	for i := range trip.Activities {
		a := &trip.Activities[i]
		add(Event{Date: a.Date, Time: a.StartTime, Type: EventActivity, Activity: a})
	}

	if len(grouped) == 0 {
		return Timeline{AllDates: []string{}, Grouped: map[string][]Event{}}
	}

	for date := range grouped {
		sortDay(grouped[date])
	}

	return Timeline{AllDates: allDates(trip, grouped), Grouped: grouped}
}

// sortDay orders one day's events: untimed before timed, timed ascending by
// HH:MM, ties broken by type priority.
func sortDay(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := &events[i], &events[j]
		aTimed, bTimed := a.Time != nil && *a.Time != "", b.Time != nil && *b.Time != ""
		if aTimed != bTimed {
			return !aTimed
		}
		if aTimed && bTimed && *a.Time != *b.Time {
			return *a.Time < *b.Time
		}
		return typePriority(a.Type) < typePriority(b.Type)
	})
}

// allDates is the closed [startDate, endDate] interval expanded day by day,
// plus any event dates outside it, such as a checkout the morning after the
// nominal trip end. Zero-padded YYYY-MM-DD strings sort correctly as strings.
func allDates(trip *domain.Trip, grouped map[string][]Event) []string {
	seen := map[string]bool{}
	for date := range grouped {
		seen[date] = true
	}
	if trip.StartDate != "" && trip.EndDate != "" && trip.StartDate <= trip.EndDate {
		for _, day := range expandRange(trip.StartDate, trip.EndDate) {
			seen[day] = true
		}
	}
	dates := make([]string, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// daysBetween lists the dates strictly between from and to, exclusive on
// both ends.
func daysBetween(from, to string) []string {
	fy, fm, fd, ok := splitDate(from)
	if !ok {
		return nil
	}
	_, _, _, ok = splitDate(to)
	if !ok {
		return nil
	}
	var days []string
	y, m, d := fy, fm, fd
	for {
		y, m, d = nextDay(y, m, d)
		day := formatDate(y, m, d)
		if day >= to {
			return days
		}
		days = append(days, day)
	}
}

func expandRange(from, to string) []string {
	fy, fm, fd, ok := splitDate(from)
	if !ok {
		return nil
	}
	days := []string{from}
	y, m, d := fy, fm, fd
	for {
		day := formatDate(y, m, d)
		if day >= to {
			return days
		}
		y, m, d = nextDay(y, m, d)
		days = append(days, formatDate(y, m, d))
	}
}

// Date arithmetic works on year/month/day components directly. Going through
// a timezone-aware conversion here is how itineraries drift a day when the
// server runs west of the booking's timezone.

func splitDate(s string) (y, m, d int, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	var err error
	if y, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, false
	}
	if m, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, false
	}
	if d, err = strconv.Atoi(parts[2]); err != nil {
		return 0, 0, 0, false
	}
	return y, m, d, true
}

func formatDate(y, m, d int) string {
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

func nextDay(y, m, d int) (int, int, int) {
	if d < daysInMonth(y, m) {
		return y, m, d + 1
	}
	if m < 12 {
		return y, m + 1, 1
	}
	return y + 1, 1, 1
}

func daysInMonth(y, m int) int {
	switch m {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	default:
		if y%4 == 0 && (y%100 != 0 || y%400 == 0) {
			return 29
		}
		return 28
	}
}
