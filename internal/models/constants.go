package models

import "fmt"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Collection kinds the desk keeps loaded. They are overlapping views over the
// same backend records, not disjoint storage.
const (
	KindPending = "pending"
	KindToday   = "today"
	KindAll     = "all"
)

// Kinds lists the collection kinds in tab order.
var Kinds = []string{KindPending, KindToday, KindAll}

const (
	// DateLayout is the wire format for scheduled_date.
	DateLayout = "2006-01-02"

	// slotOpenMinutes/slotCloseMinutes bound the bookable day: every half
	// hour from 8:00 AM through 5:00 PM inclusive.
	slotOpenMinutes  = 8 * 60
	slotCloseMinutes = 17 * 60
)

// TimeSlots holds the fixed set of schedulable labels, in day order.
var TimeSlots = buildTimeSlots()

var timeSlotSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(TimeSlots))
	for _, s := range TimeSlots {
		set[s] = struct{}{}
	}
	return set
}()

func buildTimeSlots() []string {
	var slots []string
	for m := slotOpenMinutes; m <= slotCloseMinutes; m += 30 {
		slots = append(slots, SlotLabel(m))
	}
	return slots
}

// SlotLabel formats minutes-from-midnight as the "h:mm AM" labels the
// booking forms use.
func SlotLabel(minutes int) string {
	hour := minutes / 60
	minute := minutes % 60
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, period)
}

// ValidTimeSlot reports whether label is one of the allowed half-hour slots.
func ValidTimeSlot(label string) bool {
	_, ok := timeSlotSet[label]
	return ok
}

const (
	// DefaultAPITimeout bounds every call to the mechanic API.
	DefaultAPITimeout = 10 // seconds

	// DefaultRefreshInterval is how often the background refresher reloads
	// the three collections.
	DefaultRefreshInterval = 5 * 60 // seconds

	// DefaultSessionTTL is how long a stored session token lives in redis.
	DefaultSessionTTL = 24 * 60 * 60 // seconds
)
