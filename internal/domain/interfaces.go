package domain

import (
	"context"
	"time"

	"garagedesk/internal/models"
)

// BookingAPI covers the booking endpoints of the mechanic backend.
type BookingAPI interface {
	ListBookings(ctx context.Context, kind string) ([]models.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID int64, status string) (*models.Booking, error)
	RescheduleBooking(ctx context.Context, bookingID int64, date, timeSlot string) (*models.Booking, error)
}

// CatalogAPI covers the service-pricing endpoints.
type CatalogAPI interface {
	ListCategories(ctx context.Context) ([]models.ServiceCategory, error)
	CreateCategory(ctx context.Context, name string) (*models.ServiceCategory, error)
	RenameCategory(ctx context.Context, categoryID int64, name string) error
	DeleteCategory(ctx context.Context, categoryID int64) error
	ListServices(ctx context.Context, categoryID int64) ([]models.ServiceItem, error)
	CreateService(ctx context.Context, categoryID int64, name string, price float64) (*models.ServiceItem, error)
	UpdateService(ctx context.Context, serviceID int64, name string, price float64) error
	DeleteService(ctx context.Context, serviceID int64) error
}

// FinanceAPI covers the payments and invoices feeds.
type FinanceAPI interface {
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	ListInvoices(ctx context.Context) ([]models.Invoice, error)
}

// ReviewAPI covers customer feedback.
type ReviewAPI interface {
	ListReviews(ctx context.Context) ([]models.Review, error)
	RespondToReview(ctx context.Context, reviewID int64, comment string) error
}

// HoursAPI covers the workshop's weekly schedule.
type HoursAPI interface {
	GetWeekHours(ctx context.Context) (models.WeekHours, error)
	SaveWeekHours(ctx context.Context, week models.WeekHours) error
}

// SessionStore holds the workshop session token. The token is written by the
// login flow and read ad hoc by every API call; Expire clears it and fires
// the registered callbacks so holders can stop issuing requests.
type SessionStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
	Expire(ctx context.Context) error
	OnExpire(fn func())
}

// EventPublisher fans out desk events to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Clock abstracts time for the hours and report services.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a func to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }
