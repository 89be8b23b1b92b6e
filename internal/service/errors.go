package service

import "errors"

// Validation failures: the operation was refused before any state changed.
var (
	ErrUnknownBooking    = errors.New("unknown booking")
	ErrUnknownCollection = errors.New("unknown collection kind")
	ErrInvalidTransition = errors.New("illegal status transition")
	ErrInvalidSlot       = errors.New("time is not an allowed slot")
	ErrInvalidDate       = errors.New("invalid date")
	ErrBookingBusy       = errors.New("booking already has a change in flight")
)
