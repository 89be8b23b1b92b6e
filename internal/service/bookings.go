package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"garagedesk/internal/api"
	"garagedesk/internal/domain"
	"garagedesk/internal/events"
	"garagedesk/internal/metrics"
	"garagedesk/internal/models"

	"github.com/rs/zerolog"
)

// LoadState is the per-collection load lifecycle a frontend needs to tell
// "empty because nothing matched" apart from "load failed".
type LoadState struct {
	Loading bool
	Loaded  bool
	Err     error
}

// loadSlot tracks one collection's fetch lifecycle. The sequence number
// discards responses of superseded loads.
type loadSlot struct {
	seq     uint64
	loading bool
	loaded  bool
	err     error
}

// BookingDesk owns the signed-in workshop's booking working set: one
// authoritative cache keyed by booking ID plus the three backend views
// (pending, today, all) as ordered ID lists. Because every view resolves
// through the same cache entry, a mutation is visible in all tabs and in the
// detail selection at once.
type BookingDesk struct {
	client domain.BookingAPI
	bus    domain.EventPublisher
	logger zerolog.Logger

	mu         sync.Mutex
	cache      map[int64]*models.Booking
	order      map[string][]int64
	loads      map[string]*loadSlot
	inflight   map[int64]bool
	activeTab  string
	searchTerm string
	selectedID int64
}

// NewBookingDesk builds an empty desk on the pending tab.
func NewBookingDesk(client domain.BookingAPI, bus domain.EventPublisher, logger zerolog.Logger) *BookingDesk {
	loads := make(map[string]*loadSlot, len(models.Kinds))
	order := make(map[string][]int64, len(models.Kinds))
	for _, kind := range models.Kinds {
		loads[kind] = &loadSlot{}
		order[kind] = nil
	}
	return &BookingDesk{
		client:    client,
		bus:       bus,
		logger:    logger,
		cache:     make(map[int64]*models.Booking),
		order:     order,
		loads:     loads,
		inflight:  make(map[int64]bool),
		activeTab: models.KindPending,
	}
}

// LoadCollection fetches one collection kind and replaces its view. On
// failure the previous view is kept and the error recorded; a response that
// arrives after a newer load of the same kind started is discarded.
func (d *BookingDesk) LoadCollection(ctx context.Context, kind string) error {
	slot, err := d.beginLoad(kind)
	if err != nil {
		return err
	}

	bookings, fetchErr := d.client.ListBookings(ctx, kind)

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.loads[kind].seq != slot {
		// A newer load owns this collection now.
		d.logger.Debug().Str("kind", kind).Msg("discarding stale collection response")
		return nil
	}

	ls := d.loads[kind]
	ls.loading = false

	if fetchErr != nil {
		ls.err = fetchErr
		if errors.Is(fetchErr, api.ErrAuthExpired) {
			_ = d.bus.PublishJSON(events.EventSessionExpired, map[string]string{"source": "load_" + kind})
		}
		d.logger.Warn().Err(fetchErr).Str("kind", kind).Msg("collection load failed")
		return fmt.Errorf("load %s bookings: %w", kind, fetchErr)
	}

	ids := make([]int64, 0, len(bookings))
	for i := range bookings {
		b := bookings[i]
		if existing, ok := d.cache[b.ID]; ok {
			*existing = b
		} else {
			d.cache[b.ID] = &b
		}
		ids = append(ids, b.ID)
	}
	d.order[kind] = ids
	ls.loaded = true
	ls.err = nil
	return nil
}

func (d *BookingDesk) beginLoad(kind string) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ls, ok := d.loads[kind]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCollection, kind)
	}
	ls.seq++
	ls.loading = true
	return ls.seq, nil
}

// LoadAll fetches the three collections concurrently, the way the dashboard
// does on mount. A failure in one kind does not block or clear the others.
func (d *BookingDesk) LoadAll(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make([]error, len(models.Kinds))
	for i, kind := range models.Kinds {
		wg.Add(1)
		go func(i int, kind string) {
			defer wg.Done()
			errs[i] = d.LoadCollection(ctx, kind)
		}(i, kind)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// SelectTab switches the rendered collection. It never refetches: loads
// happen once at startup and again via the background refresher, so a tab
// switch is instant at the cost of staleness bounded by the refresh interval.
func (d *BookingDesk) SelectTab(kind string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.loads[kind]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, kind)
	}
	d.activeTab = kind
	return nil
}

// ActiveTab returns the selected collection kind.
func (d *BookingDesk) ActiveTab() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.activeTab
}

// SetSearch sets the free-text filter applied by VisibleBookings.
func (d *BookingDesk) SetSearch(term string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.searchTerm = term
}

// VisibleBookings returns the active collection filtered by the search term,
// in backend order. The match is a case-insensitive substring test against
// customer name, vehicle, service name and workshop name; any hit includes
// the booking. Returned values are copies.
func (d *BookingDesk) VisibleBookings() []models.Booking {
	d.mu.Lock()
	defer d.mu.Unlock()

	term := strings.ToLower(strings.TrimSpace(d.searchTerm))
	out := make([]models.Booking, 0, len(d.order[d.activeTab]))
	for _, id := range d.order[d.activeTab] {
		b, ok := d.cache[id]
		if !ok {
			continue
		}
		if term == "" || matchesSearch(b, term) {
			out = append(out, *b)
		}
	}
	return out
}

func matchesSearch(b *models.Booking, term string) bool {
	for _, field := range []string{b.CustomerName(), b.Vehicle(), b.ServiceName, b.WorkshopName} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Counts returns per-kind collection sizes for the tab badges.
func (d *BookingDesk) Counts() map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	counts := make(map[string]int, len(d.order))
	for kind, ids := range d.order {
		counts[kind] = len(ids)
	}
	return counts
}

// CollectionState reports the load lifecycle of one kind.
func (d *BookingDesk) CollectionState(kind string) (LoadState, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ls, ok := d.loads[kind]
	if !ok {
		return LoadState{}, fmt.Errorf("%w: %q", ErrUnknownCollection, kind)
	}
	return LoadState{Loading: ls.loading, Loaded: ls.loaded, Err: ls.err}, nil
}

// Select opens a booking in the detail panel.
func (d *BookingDesk) Select(bookingID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.cache[bookingID]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBooking, bookingID)
	}
	d.selectedID = bookingID
	return nil
}

// ClearSelection closes the detail panel.
func (d *BookingDesk) ClearSelection() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selectedID = 0
}

// Selected returns a copy of the booking in the detail panel, or nil. It is
// read from the same cache the lists use, so it can never diverge from them.
func (d *BookingDesk) Selected() *models.Booking {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.cache[d.selectedID]
	if !ok {
		return nil
	}
	snapshot := *b
	return &snapshot
}

// ChangeStatus applies a confirm or cancel to a booking: legality check,
// optimistic local apply, backend write, and rollback when the backend
// refuses. Two changes cannot be in flight for the same booking at once.
func (d *BookingDesk) ChangeStatus(ctx context.Context, bookingID int64, newStatus string) error {
	if newStatus != models.StatusConfirmed && newStatus != models.StatusCancelled {
		return fmt.Errorf("%w: cannot set %q from this client", ErrInvalidTransition, newStatus)
	}

	d.mu.Lock()
	b, ok := d.cache[bookingID]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownBooking, bookingID)
	}
	if d.inflight[bookingID] {
		d.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrBookingBusy, bookingID)
	}
	oldStatus := b.Status
	if !CanTransition(oldStatus, newStatus) {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, oldStatus, newStatus)
	}

	// Optimistic apply: every view and the detail panel see it immediately.
	b.Status = newStatus
	d.inflight[bookingID] = true
	snapshot := *b
	d.mu.Unlock()

	updated, err := d.client.UpdateBookingStatus(ctx, bookingID, newStatus)

	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inflight, bookingID)

	if err != nil {
		// Roll back unless a concurrent refresh already replaced our
		// optimistic value with authoritative server state.
		if cur, ok := d.cache[bookingID]; ok && cur.Status == newStatus {
			cur.Status = oldStatus
		}
		d.logger.Warn().Err(err).Int64("booking_id", bookingID).Str("status", newStatus).Msg("status change rolled back")
		return fmt.Errorf("change booking %d status: %w", bookingID, err)
	}

	if updated != nil {
		if cur, ok := d.cache[bookingID]; ok {
			*cur = *updated
		}
	}

	metrics.IncTransition(newStatus)
	eventType := events.EventBookingConfirmed
	if newStatus == models.StatusCancelled {
		eventType = events.EventBookingCancelled
	}
	_ = d.bus.PublishJSON(eventType, events.BookingEventPayload{
		BookingID:    bookingID,
		Customer:     snapshot.CustomerName(),
		ServiceName:  snapshot.ServiceName,
		OldStatus:    oldStatus,
		NewStatus:    newStatus,
		WorkshopName: snapshot.WorkshopName,
	})
	return nil
}

// UpdateSchedule edits a booking's date and time slot with the same
// optimistic-then-rollback semantics as ChangeStatus.
func (d *BookingDesk) UpdateSchedule(ctx context.Context, bookingID int64, date, timeSlot string) error {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if !models.ValidTimeSlot(timeSlot) {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, timeSlot)
	}

	d.mu.Lock()
	b, ok := d.cache[bookingID]
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownBooking, bookingID)
	}
	if d.inflight[bookingID] {
		d.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrBookingBusy, bookingID)
	}
	if b.Terminal() {
		d.mu.Unlock()
		return fmt.Errorf("%w: cannot reschedule a %s booking", ErrInvalidTransition, b.Status)
	}
	oldDate, oldTime := b.ScheduledDate, b.ScheduledTime

	b.ScheduledDate = date
	b.ScheduledTime = timeSlot
	d.inflight[bookingID] = true
	snapshot := *b
	d.mu.Unlock()

	updated, err := d.client.RescheduleBooking(ctx, bookingID, date, timeSlot)

	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inflight, bookingID)

	if err != nil {
		if cur, ok := d.cache[bookingID]; ok && cur.ScheduledDate == date && cur.ScheduledTime == timeSlot {
			cur.ScheduledDate = oldDate
			cur.ScheduledTime = oldTime
		}
		d.logger.Warn().Err(err).Int64("booking_id", bookingID).Msg("reschedule rolled back")
		return fmt.Errorf("reschedule booking %d: %w", bookingID, err)
	}

	if updated != nil {
		if cur, ok := d.cache[bookingID]; ok {
			*cur = *updated
		}
	}

	_ = d.bus.PublishJSON(events.EventBookingRescheduled, events.BookingEventPayload{
		BookingID:    bookingID,
		Customer:     snapshot.CustomerName(),
		ServiceName:  snapshot.ServiceName,
		OldDate:      oldDate,
		NewDate:      date,
		OldTime:      oldTime,
		NewTime:      timeSlot,
		WorkshopName: snapshot.WorkshopName,
	})
	return nil
}
