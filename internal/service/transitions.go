package service

import "garagedesk/internal/models"

// CanTransition reports whether this client may move a booking from one
// status to another. Cancelled and completed are terminal; completed is never
// set from this side at all.
func CanTransition(from, to string) bool {
	switch from {
	case models.StatusPending:
		return to == models.StatusConfirmed || to == models.StatusCancelled
	case models.StatusConfirmed:
		return to == models.StatusCancelled
	default:
		return false
	}
}
