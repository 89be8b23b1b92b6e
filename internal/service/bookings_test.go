package service

import (
	"context"
	"sync"
	"testing"

	"garagedesk/internal/api"
	"garagedesk/internal/events"
	"garagedesk/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBookingAPI struct {
	mock.Mock
}

func (m *mockBookingAPI) ListBookings(ctx context.Context, kind string) ([]models.Booking, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockBookingAPI) UpdateBookingStatus(ctx context.Context, id int64, status string) (*models.Booking, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingAPI) RescheduleBooking(ctx context.Context, id int64, date, timeSlot string) (*models.Booking, error) {
	args := m.Called(ctx, id, date, timeSlot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func testBookings() []models.Booking {
	return []models.Booking{
		{
			ID: 9, FirstName: "John", LastName: "Doe", Make: "Toyota", Model: "Camry", Year: 2020,
			ServiceName: "Oil Change", Price: 120, ScheduledDate: "2025-03-31", ScheduledTime: "9:00 AM",
			Status: models.StatusPending, WorkshopName: "AutoFix",
		},
		{
			ID: 10, FirstName: "John", LastName: "Doee", Make: "Honda", Model: "Accord", Year: 2019,
			ServiceName: "Brake Inspection", Price: 80, ScheduledDate: "2025-04-01", ScheduledTime: "1:00 PM",
			Status: models.StatusPending, WorkshopName: "AutoFix",
		},
	}
}

func newTestDesk(t *testing.T) (*BookingDesk, *mockBookingAPI, *events.Bus) {
	t.Helper()
	client := new(mockBookingAPI)
	bus := events.NewBus()
	desk := NewBookingDesk(client, bus, zerolog.Nop())
	return desk, client, bus
}

func loadPending(t *testing.T, desk *BookingDesk, client *mockBookingAPI, bookings []models.Booking) {
	t.Helper()
	client.On("ListBookings", mock.Anything, models.KindPending).Return(bookings, nil).Once()
	require.NoError(t, desk.LoadCollection(context.Background(), models.KindPending))
}

func TestLoadCollectionSuccess(t *testing.T) {
	desk, client, _ := newTestDesk(t)
	loadPending(t, desk, client, testBookings())

	state, err := desk.CollectionState(models.KindPending)
	require.NoError(t, err)
	assert.True(t, state.Loaded)
	assert.False(t, state.Loading)
	assert.NoError(t, state.Err)

	visible := desk.VisibleBookings()
	require.Len(t, visible, 2)
	assert.Equal(t, int64(9), visible[0].ID)
	assert.Equal(t, int64(10), visible[1].ID)
}

func TestLoadCollectionFailureKeepsPrevious(t *testing.T) {
	desk, client, _ := newTestDesk(t)
	loadPending(t, desk, client, testBookings())

	client.On("ListBookings", mock.Anything, models.KindPending).Return(nil, api.ErrUnavailable).Once()
	err := desk.LoadCollection(context.Background(), models.KindPending)
	require.ErrorIs(t, err, api.ErrUnavailable)

	// The stale-but-present view survives; the error is recorded.
	assert.Len(t, desk.VisibleBookings(), 2)
	state, _ := desk.CollectionState(models.KindPending)
	assert.ErrorIs(t, state.Err, api.ErrUnavailable)
	assert.True(t, state.Loaded)
}

func TestLoadCollectionAuthExpired(t *testing.T) {
	desk, client, bus := newTestDesk(t)

	expired := false
	bus.Subscribe(events.EventSessionExpired, func(e *events.Event) error {
		expired = true
		return nil
	})

	client.On("ListBookings", mock.Anything, models.KindPending).Return(nil, api.ErrAuthExpired).Once()
	err := desk.LoadCollection(context.Background(), models.KindPending)
	require.ErrorIs(t, err, api.ErrAuthExpired)
	assert.True(t, expired)
	assert.Empty(t, desk.VisibleBookings(), "collections.pending must stay untouched")
}

func TestLoadCollectionUnknownKind(t *testing.T) {
	desk, _, _ := newTestDesk(t)
	err := desk.LoadCollection(context.Background(), "tomorrow")
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestLoadCollectionDiscardsStaleResponse(t *testing.T) {
	desk, _, _ := newTestDesk(t)

	fresh := testBookings()
	stale := []models.Booking{{ID: 99, FirstName: "Old", Status: models.StatusPending}}

	firstStarted := make(chan struct{})
	release := make(chan struct{})
	calls := 0

	client := &funcBookingAPI{
		list: func(ctx context.Context, kind string) ([]models.Booking, error) {
			calls++
			if calls == 1 {
				close(firstStarted)
				<-release
				return stale, nil
			}
			return fresh, nil
		},
	}
	desk.client = client

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = desk.LoadCollection(context.Background(), models.KindPending)
	}()
	<-firstStarted

	// A newer load completes while the first is still in flight.
	require.NoError(t, desk.LoadCollection(context.Background(), models.KindPending))
	close(release)
	wg.Wait()

	visible := desk.VisibleBookings()
	require.Len(t, visible, 2, "late stale response must not overwrite the newer load")
	assert.Equal(t, int64(9), visible[0].ID)
}

// funcBookingAPI lets a test script responses without mock bookkeeping.
type funcBookingAPI struct {
	list       func(ctx context.Context, kind string) ([]models.Booking, error)
	update     func(ctx context.Context, id int64, status string) (*models.Booking, error)
	reschedule func(ctx context.Context, id int64, date, timeSlot string) (*models.Booking, error)
}

func (f *funcBookingAPI) ListBookings(ctx context.Context, kind string) ([]models.Booking, error) {
	return f.list(ctx, kind)
}

func (f *funcBookingAPI) UpdateBookingStatus(ctx context.Context, id int64, status string) (*models.Booking, error) {
	return f.update(ctx, id, status)
}

func (f *funcBookingAPI) RescheduleBooking(ctx context.Context, id int64, date, timeSlot string) (*models.Booking, error) {
	return f.reschedule(ctx, id, date, timeSlot)
}

func TestLoadAllIndependence(t *testing.T) {
	desk, client, _ := newTestDesk(t)

	client.On("ListBookings", mock.Anything, models.KindPending).Return(testBookings(), nil).Once()
	client.On("ListBookings", mock.Anything, models.KindToday).Return(nil, api.ErrUnavailable).Once()
	client.On("ListBookings", mock.Anything, models.KindAll).Return(testBookings(), nil).Once()

	err := desk.LoadAll(context.Background())
	require.Error(t, err)

	counts := desk.Counts()
	assert.Equal(t, 2, counts[models.KindPending])
	assert.Equal(t, 0, counts[models.KindToday])
	assert.Equal(t, 2, counts[models.KindAll])

	todayState, _ := desk.CollectionState(models.KindToday)
	assert.ErrorIs(t, todayState.Err, api.ErrUnavailable)
	pendingState, _ := desk.CollectionState(models.KindPending)
	assert.NoError(t, pendingState.Err)
}

func TestSelectTab(t *testing.T) {
	desk, client, _ := newTestDesk(t)
	loadPending(t, desk, client, testBookings())

	require.NoError(t, desk.SelectTab(models.KindAll))
	assert.Equal(t, models.KindAll, desk.ActiveTab())
	assert.Empty(t, desk.VisibleBookings())

	require.NoError(t, desk.SelectTab(models.KindPending))
	assert.Len(t, desk.VisibleBookings(), 2)

	assert.ErrorIs(t, desk.SelectTab("archive"), ErrUnknownCollection)
	// Switching tabs never triggers a refetch.
	client.AssertNumberOfCalls(t, "ListBookings", 1)
}

func TestVisibleBookingsIdentityLaw(t *testing.T) {
	desk, client, _ := newTestDesk(t)
	bookings := testBookings()
	loadPending(t, desk, client, bookings)

	desk.SetSearch("")
	visible := desk.VisibleBookings()
	require.Len(t, visible, len(bookings))
	for i := range bookings {
		assert.Equal(t, bookings[i], visible[i], "empty search must preserve content and order")
	}

	// Idempotence: repeated evaluation with unchanged state is equal.
	assert.Equal(t, visible, desk.VisibleBookings())
}

func TestVisibleBookingsSearch(t *testing.T) {
	desk, client, _ := newTestDesk(t)
	loadPending(t, desk, client, testBookings())

	cases := []struct {
		term string
		want []int64
	}{
		{"toyota", []int64{9}},
		{"TOYOTA", []int64{9}},
		{"camry", []int64{9}},
		{"accord", []int64{10}},
		{"doe", []int64{9, 10}},
		{"brake", []int64{10}},
		{"autofix", []int64{9, 10}},
		{"tesla", nil},
	}
	for _, tc := range cases {
		desk.SetSearch(tc.term)
		var got []int64
		for _, b := range desk.VisibleBookings() {
			got = append(got, b.ID)
		}
		assert.Equal(t, tc.want, got, "term %q", tc.term)
	}
}

func TestChangeStatusConfirm(t *testing.T) {
	desk, client, bus := newTestDesk(t)
	loadPending(t, desk, client, testBookings())

	var published *events.Event
	bus.Subscribe(events.EventBookingConfirmed, func(e *events.Event) error {
		published = e
		return nil
	})

	client.On("UpdateBookingStatus", mock.Anything, int64(9), models.StatusConfirmed).
		Return(&models.Booking{ID: 9, FirstName: "John", LastName: "Doe", Status: models.StatusConfirmed}, nil).Once()

	require.NoError(t, desk.ChangeStatus(context.Background(), 9, models.StatusConfirmed))

	visible := desk.VisibleBookings()
	assert.Equal(t, models.StatusConfirmed, visible[0].Status)
	assert.Equal(t, models.StatusPending, visible[1].Status, "id 10 unchanged")
	assert.NotNil(t, published)

	// Confirming again is rejected: 9 is no longer pending.
	err := desk.ChangeStatus(context.Background(), 9, models.StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	client.AssertNumberOfCalls(t, "UpdateBookingStatus", 1)
}

func TestCancelledIsTerminal(t *testing.T) {
	desk, client, _ := newTestDesk(t)
	loadPending(t, desk, client, testBookings())

	client.On("UpdateBookingStatus", mock.Anything, int64(9), models.StatusCancelled).
		Return(&models.Booking{ID: 9, Status: models.StatusCancelled}, nil).Once()
	require.NoError(t, desk.ChangeStatus(context.Background(), 9, models.StatusCancelled))

	for _, next := range []string{models.StatusConfirmed, models.StatusCancelled} {
		err := desk.ChangeStatus(context.Background(), 9, next)
		assert.ErrorIs(t, err, ErrInvalidTransition, "no transition out of cancelled")
	}
}

func TestChangeStatusIdentityJoin(t *testing.T) {
	desk, client, _ := newTestDesk(t)
	bookings := testBookings()

	// Booking 9 appears in all three collections.
	client.On("ListBookings", mock.Anything, models.KindPending).Return(bookings, nil).Once()
	client.On("ListBookings", mock.Anything, models.KindToday).Return(bookings[:1], nil).Once()
	client.On("ListBookings", mock.Anything, models.KindAll).Return(bookings, nil).Once()
	require.NoError(t, desk.LoadAll(context.Background()))

	require.NoError(t, desk.Select(9))

	client.On("UpdateBookingStatus", mock.Anything, int64(9), models.StatusConfirmed).
		Return(nil, nil).Once()
	require.NoError(t, desk.ChangeStatus(context.Background(), 9, models.StatusConfirmed))

	for _, kind := range models.Kinds {
		require.NoError(t, desk.SelectTab(kind))
		for _, b := range desk.VisibleBookings() {
			if b.ID == 9 {
				assert.Equal(t, models.StatusConfirmed, b.Status, "kind %s", kind)
			}
		}
	}
	assert.Equal(t, models.StatusConfirmed, desk.Selected().Status, "detail panel stays consistent")
}

func TestChangeStatusRollbackOnWriteFailure(t *testing.T) {
	desk, client, _ := newTestDesk(t)
	loadPending(t, desk, client, testBookings())

	client.On("UpdateBookingStatus", mock.Anything, int64(9), models.StatusConfirmed).
		Return(nil, api.ErrRejected).Once()

	err := desk.ChangeStatus(context.Background(), 9, models.StatusConfirmed)
	require.ErrorIs(t, err, api.ErrRejected)

	assert.Equal(t, models.StatusPending, desk.VisibleBookings()[0].Status, "optimistic apply must be rolled back")
}

func TestChangeStatusUnknownBooking(t *testing.T) {
	desk, client, _ := newTestDesk(t)
	loadPending(t, desk, client, testBookings())

	err := desk.ChangeStatus(context.Background(), 404, models.StatusConfirmed)
	assert.ErrorIs(t, err, ErrUnknownBooking)
}

func TestChangeStatusSerializedPerBooking(t *testing.T) {
	desk, _, _ := newTestDesk(t)

	started := make(chan struct{})
	release := make(chan struct{})
	client := &funcBookingAPI{
		list: func(ctx context.Context, kind string) ([]models.Booking, error) {
			return testBookings(), nil
		},
		update: func(ctx context.Context, id int64, status string) (*models.Booking, error) {
			close(started)
			<-release
			return &models.Booking{ID: id, Status: status}, nil
		},
	}
	desk.client = client
	require.NoError(t, desk.LoadCollection(context.Background(), models.KindPending))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = desk.ChangeStatus(context.Background(), 9, models.StatusConfirmed)
	}()
	<-started

	// A conflicting click while the confirm is still in flight.
	err := desk.ChangeStatus(context.Background(), 9, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrBookingBusy)

	close(release)
	wg.Wait()
	assert.Equal(t, models.StatusConfirmed, desk.VisibleBookings()[0].Status)
}

func TestUpdateSchedule(t *testing.T) {
	desk, client, _ := newTestDesk(t)
	loadPending(t, desk, client, testBookings())

	client.On("RescheduleBooking", mock.Anything, int64(9), "2025-04-02", "1:30 PM").
		Return(nil, nil).Once()

	require.NoError(t, desk.UpdateSchedule(context.Background(), 9, "2025-04-02", "1:30 PM"))

	b := desk.VisibleBookings()[0]
	assert.Equal(t, "2025-04-02", b.ScheduledDate)
	assert.Equal(t, "1:30 PM", b.ScheduledTime)
}

func TestUpdateScheduleRejectsBadSlot(t *testing.T) {
	desk, client, _ := newTestDesk(t)
	loadPending(t, desk, client, testBookings())

	// "13:00" is not one of the "1:00 PM"-style labels.
	err := desk.UpdateSchedule(context.Background(), 9, "2025-03-31", "13:00")
	require.ErrorIs(t, err, ErrInvalidSlot)

	b := desk.VisibleBookings()[0]
	assert.Equal(t, "2025-03-31", b.ScheduledDate, "schedule unchanged")
	assert.Equal(t, "9:00 AM", b.ScheduledTime)
	client.AssertNotCalled(t, "RescheduleBooking", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateScheduleRejectsBadDate(t *testing.T) {
	desk, client, _ := newTestDesk(t)
	loadPending(t, desk, client, testBookings())

	err := desk.UpdateSchedule(context.Background(), 9, "31/03/2025", "1:00 PM")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestUpdateScheduleRollbackOnWriteFailure(t *testing.T) {
	desk, client, _ := newTestDesk(t)
	loadPending(t, desk, client, testBookings())

	client.On("RescheduleBooking", mock.Anything, int64(9), "2025-04-02", "1:30 PM").
		Return(nil, api.ErrUnavailable).Once()

	err := desk.UpdateSchedule(context.Background(), 9, "2025-04-02", "1:30 PM")
	require.ErrorIs(t, err, api.ErrUnavailable)

	b := desk.VisibleBookings()[0]
	assert.Equal(t, "2025-03-31", b.ScheduledDate)
	assert.Equal(t, "9:00 AM", b.ScheduledTime)
}

func TestUpdateScheduleTerminalBooking(t *testing.T) {
	desk, client, _ := newTestDesk(t)
	bookings := testBookings()
	bookings[0].Status = models.StatusCancelled
	loadPending(t, desk, client, bookings)

	err := desk.UpdateSchedule(context.Background(), 9, "2025-04-02", "1:00 PM")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSelection(t *testing.T) {
	desk, client, _ := newTestDesk(t)
	loadPending(t, desk, client, testBookings())

	assert.Nil(t, desk.Selected())
	assert.ErrorIs(t, desk.Select(404), ErrUnknownBooking)

	require.NoError(t, desk.Select(10))
	require.NotNil(t, desk.Selected())
	assert.Equal(t, int64(10), desk.Selected().ID)

	desk.ClearSelection()
	assert.Nil(t, desk.Selected())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.StatusPending, models.StatusConfirmed))
	assert.True(t, CanTransition(models.StatusPending, models.StatusCancelled))
	assert.True(t, CanTransition(models.StatusConfirmed, models.StatusCancelled))
	assert.False(t, CanTransition(models.StatusConfirmed, models.StatusPending))
	assert.False(t, CanTransition(models.StatusCancelled, models.StatusConfirmed))
	assert.False(t, CanTransition(models.StatusCancelled, models.StatusCancelled))
	assert.False(t, CanTransition(models.StatusCompleted, models.StatusCancelled))
	assert.False(t, CanTransition(models.StatusPending, models.StatusCompleted))
}
