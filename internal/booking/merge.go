package booking

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tripfolio/api/internal/domain"
)

// MergeResult reports what one merge pass did. SkippedPassengers counts
// duplicates that were recognized and absorbed; it is diagnostics, not an
// error condition.
type MergeResult struct {
	AddedFlights      []domain.Flight
	AddedHotels       []domain.Hotel
	SkippedPassengers int
	DroppedRecords    int

	// NeedsUpload lists ids of existing flights that gained a passenger and
	// therefore need that passenger's source document attached.
	NeedsUpload []string
}

// flightKey builds the cross-upload dedup key. Boarding passes are issued per
// passenger per flight, so the same (reference, number, date) triple across
// documents means the same physical flight.
func flightKey(f *domain.Flight) string {
	ref := ""
	if f.BookingReference != nil {
		ref = *f.BookingReference
	}
	return strings.ToLower(strings.TrimSpace(ref)) + "|" +
		strings.ToLower(strings.TrimSpace(f.FlightNumber)) + "|" +
		strings.TrimSpace(f.Date)
}

// samePassenger applies the passenger identity rule: a ticket-number match
// when both sides carry one, otherwise a case-insensitive name match.
func samePassenger(a, b *domain.Passenger) bool {
	if !emptyStr(a.TicketNumber) && !emptyStr(b.TicketNumber) {
		if strings.EqualFold(strings.TrimSpace(*a.TicketNumber), strings.TrimSpace(*b.TicketNumber)) {
			return true
		}
	}
	an := strings.TrimSpace(a.Name)
	bn := strings.TrimSpace(b.Name)
	return an != "" && strings.EqualFold(an, bn)
}

// canonicalizePassengers brings an already-stored flight to the canonical
// shape before merging into it: the legacy singular passenger becomes a
// one-element array, and the flight-level ticket number is copied onto array
// members that lack their own. A passenger's existing ticket number is never
// overwritten.
func canonicalizePassengers(f *domain.Flight) {
	if f.Passengers == nil {
		if f.Passenger != nil {
			p := *f.Passenger
			if emptyStr(p.TicketNumber) {
				p.TicketNumber = f.TicketNumber
			}
			f.Passengers = []domain.Passenger{p}
		} else {
			f.Passengers = []domain.Passenger{}
		}
		f.Passenger = nil
		return
	}
	for i := range f.Passengers {
		if emptyStr(f.Passengers[i].TicketNumber) {
			f.Passengers[i].TicketNumber = f.TicketNumber
		}
	}
}

// Compact folds records extracted from a single upload together before they
// touch the persisted trip: several boarding passes for the same flight but
// different passengers become one flight with a multi-element passengers
// array. The identity rule is the same one Merge uses, so a passenger
// re-described twice in one batch is absorbed here.
func Compact(records []Record) ([]Record, int) {
	out := make([]Record, 0, len(records))
	skipped := 0

	for _, rec := range records {
		if rec.Flight == nil {
			out = append(out, rec)
			continue
		}
		key := flightKey(rec.Flight)
		var target *domain.Flight
		for i := range out {
			if out[i].Flight != nil && flightKey(out[i].Flight) == key {
				target = out[i].Flight
				break
			}
		}
		if target == nil {
			f := *rec.Flight
			out = append(out, Record{Flight: &f, PDFIndex: rec.PDFIndex})
			continue
		}
		for _, p := range rec.Flight.Passengers {
			if hasPassenger(target.Passengers, &p) {
				skipped++
				continue
			}
			if emptyStr(p.TicketNumber) {
				p.TicketNumber = rec.Flight.TicketNumber
			}
			target.Passengers = append(target.Passengers, p)
		}
	}
	return out, skipped
}

// Merge folds a batch of normalized records into the trip in place. Flights
// dedup against existing entries by key; hotels append and get resorted by
// check-in date. Derived trip fields are recomputed afterwards.
func Merge(trip *domain.Trip, records []Record) MergeResult {
	var res MergeResult

	for _, rec := range records {
		switch {
		case rec.Flight != nil:
			mergeFlight(trip, rec.Flight, &res)
		case rec.Hotel != nil:
			h := *rec.Hotel
			h.ID = nextSequentialID("hotel", hotelIDs(trip.Hotels))
			trip.Hotels = append(trip.Hotels, h)
			res.AddedHotels = append(res.AddedHotels, h)
		default:
			res.DroppedRecords++
		}
	}

	RecomputeDerived(trip)
	return res
}

func mergeFlight(trip *domain.Trip, incoming *domain.Flight, res *MergeResult) {
	key := flightKey(incoming)
	var existing *domain.Flight
	for i := range trip.Flights {
		if flightKey(&trip.Flights[i]) == key {
			existing = &trip.Flights[i]
			break
		}
	}

	if existing == nil {
		f := *incoming
		f.ID = nextSequentialID("flight", flightIDs(trip.Flights))
		if f.Passengers == nil {
			f.Passengers = []domain.Passenger{}
		}
		trip.Flights = append(trip.Flights, f)
		res.AddedFlights = append(res.AddedFlights, f)
		return
	}

	canonicalizePassengers(existing)

	if len(incoming.Passengers) == 0 {
		// Same flight, no passenger to contribute.
		res.SkippedPassengers++
		return
	}

	appended := false
	for _, p := range incoming.Passengers {
		if hasPassenger(existing.Passengers, &p) {
			res.SkippedPassengers++
			continue
		}
		if emptyStr(p.TicketNumber) {
			p.TicketNumber = incoming.TicketNumber
		}
		if emptyStr(p.TicketNumber) {
			p.TicketNumber = existing.TicketNumber
		}
		existing.Passengers = append(existing.Passengers, p)
		appended = true
	}
	if appended {
		existing.NeedsPDFUpload = true
		res.NeedsUpload = append(res.NeedsUpload, existing.ID)
	}
}

func hasPassenger(list []domain.Passenger, p *domain.Passenger) bool {
	for i := range list {
		if samePassenger(&list[i], p) {
			return true
		}
	}
	return false
}

// RecomputeDerived resorts flights and hotels chronologically and rebuilds
// the trip-level date range and route string. Start/end dates are never
// hand-edited; this is the only place they change.
func RecomputeDerived(trip *domain.Trip) {
	sort.SliceStable(trip.Flights, func(i, j int) bool {
		a, b := &trip.Flights[i], &trip.Flights[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return timeOrEmpty(a.DepartureTime) < timeOrEmpty(b.DepartureTime)
	})
	sort.SliceStable(trip.Hotels, func(i, j int) bool {
		return trip.Hotels[i].CheckInDate < trip.Hotels[j].CheckInDate
	})

	var min, max string
	consider := func(date string) {
		if strings.TrimSpace(date) == "" {
			return
		}
		if min == "" || date < min {
			min = date
		}
		if max == "" || date > max {
			max = date
		}
	}
	for i := range trip.Flights {
		consider(trip.Flights[i].Date)
	}
	for i := range trip.Hotels {
		consider(trip.Hotels[i].CheckInDate)
		consider(trip.Hotels[i].CheckOutDate)
	}
	trip.StartDate = min
	trip.EndDate = max

	trip.Route = computeRoute(trip.Flights)
}

// computeRoute walks flights in date order and chains airport codes,
// collapsing consecutive repeats so a same-airport connection appears once.
// Non-consecutive repeats stay: a round trip reads FCO → JFK → FCO.
func computeRoute(flights []domain.Flight) *string {
	if len(flights) == 0 {
		return nil
	}
	parts := []string{}
	appendCode := func(code string) {
		code = strings.TrimSpace(code)
		if code == "" {
			return
		}
		if len(parts) > 0 && strings.EqualFold(parts[len(parts)-1], code) {
			return
		}
		parts = append(parts, code)
	}
	appendCode(flights[0].Departure.Code)
	for i := range flights {
		appendCode(flights[i].Arrival.Code)
	}
	if len(parts) == 0 {
		return nil
	}
	route := strings.Join(parts, " → ")
	return &route
}

// nextSequentialID scans ids of the form <prefix>-<n> and returns
// <prefix>-<max+1>, so ids stay stable across deletions of earlier entries.
func nextSequentialID(prefix string, ids []string) string {
	max := 0
	for _, id := range ids {
		rest, ok := strings.CutPrefix(id, prefix+"-")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s-%d", prefix, max+1)
}

func flightIDs(flights []domain.Flight) []string {
	ids := make([]string, len(flights))
	for i := range flights {
		ids[i] = flights[i].ID
	}
	return ids
}

func hotelIDs(hotels []domain.Hotel) []string {
	ids := make([]string, len(hotels))
	for i := range hotels {
		ids[i] = hotels[i].ID
	}
	return ids
}

func timeOrEmpty(t *string) string {
	if t == nil {
		return ""
	}
	return *t
}
