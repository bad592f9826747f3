package domain

// Activity is a user-authored itinerary entry, the only booking type not
// produced by document extraction.
type Activity struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	Date        string       `json:"date"`
	StartTime   *string      `json:"startTime,omitempty"`
	EndTime     *string      `json:"endTime,omitempty"`
	Address     *string      `json:"address,omitempty"`
	URLs        []string     `json:"urls,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is a stored file linked to an activity.
type Attachment struct {
	ObjectKey   string `json:"objectKey"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}
