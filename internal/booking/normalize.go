package booking

import (
	"strings"

	"github.com/tripfolio/api/internal/domain"
)

// Record is one normalized unit of merge input: exactly one of Flight or
// Hotel is set. Records with neither are dropped by the merge pass.
type Record struct {
	Flight *domain.Flight
	Hotel  *domain.Hotel

	// PDFIndex identifies which uploaded document produced this record.
	PDFIndex *int
}

// BookingInfo carries booking-level fields some confirmations print once for
// the whole reservation instead of per flight.
type BookingInfo struct {
	Reference    *string
	TicketNumber *string
}

// NormalizeFlight turns one extracted flight plus an optional passenger into
// the canonical shape: a passengers array, the legacy singular field erased,
// and the flight-level ticket number copied onto a passenger that lacks one.
// The copy happens here because a later merge may add more passengers and the
// flight-level number would otherwise become ambiguous.
func NormalizeFlight(f domain.Flight, passenger *domain.Passenger, pdfIndex *int) domain.Flight {
	if passenger == nil && f.Passenger != nil {
		passenger = f.Passenger
	}
	f.Passenger = nil

	if len(f.Passengers) == 0 {
		if passenger != nil {
			p := *passenger
			if emptyStr(p.TicketNumber) {
				p.TicketNumber = f.TicketNumber
			}
			p.PDFIndex = pdfIndex
			f.Passengers = []domain.Passenger{p}
		} else {
			f.Passengers = []domain.Passenger{}
		}
		return f
	}

	for i := range f.Passengers {
		if emptyStr(f.Passengers[i].TicketNumber) {
			f.Passengers[i].TicketNumber = f.TicketNumber
		}
		if f.Passengers[i].PDFIndex == nil {
			f.Passengers[i].PDFIndex = pdfIndex
		}
	}
	return f
}

// NormalizeHotel folds the legacy singular roomType field into the roomTypes
// list so downstream code only branches on one shape.
func NormalizeHotel(h domain.Hotel) domain.Hotel {
	if h.RoomType != nil && strings.TrimSpace(*h.RoomType) != "" {
		rt := strings.TrimSpace(*h.RoomType)
		present := false
		for _, existing := range h.RoomTypes {
			if strings.EqualFold(existing, rt) {
				present = true
				break
			}
		}
		if !present {
			h.RoomTypes = append(h.RoomTypes, rt)
		}
	}
	h.RoomType = nil
	return h
}

// ApplyBookingInfo backfills booking-level reference and ticket number onto a
// flight that lacks them. Values the flight already carries win.
func ApplyBookingInfo(f domain.Flight, info *BookingInfo) domain.Flight {
	if info == nil {
		return f
	}
	if emptyStr(f.BookingReference) {
		f.BookingReference = info.Reference
	}
	if emptyStr(f.TicketNumber) {
		f.TicketNumber = info.TicketNumber
	}
	return f
}

func emptyStr(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
