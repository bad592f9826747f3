package domain

// FlightEndpoint is one side of a leg. Times stay local to the airport.
type FlightEndpoint struct {
	Code     string  `json:"code"`
	City     string  `json:"city"`
	Terminal *string `json:"terminal,omitempty"`
}

// Flight is a single leg extracted from a boarding pass or booking email.
// Dates are calendar-local YYYY-MM-DD strings, clock times HH:MM.
type Flight struct {
	ID               string         `json:"id"`
	Date             string         `json:"date"`
	FlightNumber     string         `json:"flightNumber"`
	Airline          string         `json:"airline"`
	Departure        FlightEndpoint `json:"departure"`
	Arrival          FlightEndpoint `json:"arrival"`
	DepartureTime    *string        `json:"departureTime,omitempty"`
	ArrivalTime      *string        `json:"arrivalTime,omitempty"`
	ArrivalNextDay   bool           `json:"arrivalNextDay,omitempty"`
	Duration         *string        `json:"duration,omitempty"`
	BookingReference *string        `json:"bookingReference,omitempty"`

	// TicketNumber at flight level comes from single-passenger boarding
	// passes that only print it once. Normalization copies it onto
	// passengers that lack their own.
	TicketNumber *string `json:"ticketNumber,omitempty"`

	// Passenger is the legacy singular field older documents carry; the
	// normalizer folds it into Passengers and downstream code never reads it.
	Passenger  *Passenger  `json:"passenger,omitempty"`
	Passengers []Passenger `json:"passengers"`

	// NeedsPDFUpload marks a flight whose newest passenger's source document
	// still has to be attached before the trip counts as saved.
	NeedsPDFUpload bool `json:"_needsPdfUpload,omitempty"`
}

type TravelerType string

const (
	TravelerAdult  TravelerType = "adult"
	TravelerChild  TravelerType = "child"
	TravelerInfant TravelerType = "infant"
)

type Passenger struct {
	Name         string        `json:"name"`
	Type         *TravelerType `json:"type,omitempty"`
	TicketNumber *string       `json:"ticketNumber,omitempty"`

	// PDFIndex points back into the batch of uploaded documents that
	// produced this passenger; it only exists between extraction and
	// attachment upload.
	PDFIndex *int `json:"_pdfIndex,omitempty"`

	// PDFKey is the object-storage key of the attached source document.
	PDFKey *string `json:"pdfKey,omitempty"`
}
