package domain

// Hotel is one stay from a booking confirmation. Check-in/check-out are
// calendar-local YYYY-MM-DD strings, the optional times HH:MM.
type Hotel struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Address            *string `json:"address,omitempty"`
	CheckInDate        string  `json:"checkInDate"`
	CheckInTime        *string `json:"checkInTime,omitempty"`
	CheckOutDate       string  `json:"checkOutDate"`
	CheckOutTime       *string `json:"checkOutTime,omitempty"`
	Nights             *int    `json:"nights,omitempty"`
	ConfirmationNumber *string `json:"confirmationNumber,omitempty"`

	// RoomTypes supersedes the legacy singular roomType field; the
	// normalizer folds the old shape into this one.
	RoomType  *string  `json:"roomType,omitempty"`
	RoomTypes []string `json:"roomTypes,omitempty"`
}
