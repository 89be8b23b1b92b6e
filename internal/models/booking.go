package models

// Booking is one scheduled service appointment, as served by the mechanic
// API. The backend owns the record; this side only flips status and
// reschedules.
type Booking struct {
	ID            int64   `json:"booking_id"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	PhoneNumber   string  `json:"phone_number"`
	Make          string  `json:"make"`
	Model         string  `json:"model"`
	Year          int     `json:"year"`
	ServiceName   string  `json:"service_name"`
	Price         float64 `json:"price"`
	ScheduledDate string  `json:"scheduled_date"` // YYYY-MM-DD
	ScheduledTime string  `json:"scheduled_time"` // slot label, e.g. "8:30 AM"
	Status        string  `json:"booking_status"` // pending, confirmed, completed, cancelled
	WorkshopName  string  `json:"workshop_name"`
	Notes         string  `json:"notes,omitempty"`
}

// CustomerName joins first and last name for display and search.
func (b *Booking) CustomerName() string {
	if b.FirstName == "" {
		return b.LastName
	}
	if b.LastName == "" {
		return b.FirstName
	}
	return b.FirstName + " " + b.LastName
}

// Vehicle joins make and model for display and search.
func (b *Booking) Vehicle() string {
	if b.Make == "" {
		return b.Model
	}
	if b.Model == "" {
		return b.Make
	}
	return b.Make + " " + b.Model
}

// Terminal reports whether no further status transition is allowed from the
// booking's current status through this client.
func (b *Booking) Terminal() bool {
	return b.Status == StatusCancelled || b.Status == StatusCompleted
}
