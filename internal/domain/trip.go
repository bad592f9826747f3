package domain

import "time"

// Trip is the aggregate root: everything a traveller booked for one journey.
// Flights, hotels and activities have no lifecycle outside their trip.
type Trip struct {
	ID          string            `json:"id"`
	Title       map[string]string `json:"title"`
	Destination string            `json:"destination"`
	StartDate   string            `json:"startDate"`
	EndDate     string            `json:"endDate"`
	Route       *string           `json:"route,omitempty"`
	Flights     []Flight          `json:"flights"`
	Hotels      []Hotel           `json:"hotels"`
	Activities  []Activity        `json:"activities"`

	// Version guards the read-modify-write cycle: saves fail when the stored
	// version has advanced since this copy was loaded.
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TripSummary is the listing shape; the full document stays out of list calls.
type TripSummary struct {
	ID          string            `json:"id"`
	Title       map[string]string `json:"title"`
	Destination string            `json:"destination"`
	StartDate   string            `json:"startDate"`
	EndDate     string            `json:"endDate"`
	Route       *string           `json:"route,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (t *Trip) Summary() TripSummary {
	return TripSummary{
		ID:          t.ID,
		Title:       t.Title,
		Destination: t.Destination,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Route:       t.Route,
		UpdatedAt:   t.UpdatedAt,
	}
}

// FindActivity returns the index of the activity with the given id, or -1.
func (t *Trip) FindActivity(activityID string) int {
	for i := range t.Activities {
		if t.Activities[i].ID == activityID {
			return i
		}
	}
	return -1
}
