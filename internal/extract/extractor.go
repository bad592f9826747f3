// Package extract wraps the natural-language collaborator that turns raw
// document text into semi-structured booking records. The rest of the system
// only depends on the Extractor interface and the shapes in Result.
package extract

import (
	"context"
	"strings"

	"github.com/tripfolio/api/internal/booking"
	"github.com/tripfolio/api/internal/domain"
)

// DocumentHint tells the extractor what kind of document it is looking at.
type DocumentHint string

const (
	HintAuto         DocumentHint = "auto"
	HintBoardingPass DocumentHint = "boarding-pass"
	HintHotel        DocumentHint = "hotel-confirmation"
)

// Result is the extractor's output for one document. Flights and hotels
// conform to the domain shapes; Passenger and Booking are document-level
// fields that apply to every flight in the same document.
type Result struct {
	Flights   []domain.Flight      `json:"flights"`
	Hotels    []domain.Hotel       `json:"hotels"`
	Passenger *domain.Passenger    `json:"passenger,omitempty"`
	Booking   *booking.BookingInfo `json:"booking,omitempty"`
}

// Empty reports whether the document yielded nothing usable.
func (r *Result) Empty() bool {
	return r == nil || (len(r.Flights) == 0 && len(r.Hotels) == 0)
}

type Extractor interface {
	Extract(ctx context.Context, documentText string, hint DocumentHint) (*Result, error)
}

// InferHint guesses the document kind from its filename and text so callers
// that do not pass an explicit hint still get a useful type hint. The guess
// only steers the extraction prompt; a wrong guess degrades quality, not
// correctness.
func InferHint(fileName, text string) DocumentHint {
	haystack := strings.ToLower(fileName + " " + text)
	switch {
	case containsAny(haystack, "boarding", "gate", "seat", "e-ticket", "eticket", "flight"):
		return HintBoardingPass
	case containsAny(haystack, "hotel", "check-in", "check in", "checkout", "check-out", "room", "nights"):
		return HintHotel
	default:
		return HintAuto
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
