package ops

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"garagedesk/internal/events"
	"garagedesk/internal/models"
	"garagedesk/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listFunc func(ctx context.Context, kind string) ([]models.Booking, error)

func (f listFunc) ListBookings(ctx context.Context, kind string) ([]models.Booking, error) {
	return f(ctx, kind)
}

func (f listFunc) UpdateBookingStatus(ctx context.Context, bookingID int64, status string) (*models.Booking, error) {
	return nil, nil
}

func (f listFunc) RescheduleBooking(ctx context.Context, bookingID int64, date, timeSlot string) (*models.Booking, error) {
	return nil, nil
}

type staticSession string

func (s staticSession) Token(ctx context.Context) (string, error) { return string(s), nil }

func newStatusServer(t *testing.T) *Server {
	t.Helper()
	client := listFunc(func(ctx context.Context, kind string) ([]models.Booking, error) {
		if kind != models.KindPending {
			return nil, nil
		}
		return []models.Booking{
			{ID: 9, FirstName: "John", LastName: "Doe", Status: models.StatusPending},
		}, nil
	})
	desk := service.NewBookingDesk(client, events.NewBus(), zerolog.Nop())
	require.NoError(t, desk.LoadAll(context.Background()))
	return NewServer(0, desk, staticSession("token-123"), zerolog.Nop())
}

func TestHealthz(t *testing.T) {
	srv := newStatusServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatusSnapshot(t *testing.T) {
	srv := newStatusServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ActiveTab   string `json:"active_tab"`
		LoggedIn    bool   `json:"logged_in"`
		Collections map[string]struct {
			Loaded bool `json:"loaded"`
			Count  int  `json:"count"`
		} `json:"collections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, models.KindPending, body.ActiveTab)
	assert.True(t, body.LoggedIn)
	assert.True(t, body.Collections[models.KindPending].Loaded)
	assert.Equal(t, 1, body.Collections[models.KindPending].Count)
	assert.Equal(t, 0, body.Collections[models.KindAll].Count)
}

func TestStatusMethodNotAllowed(t *testing.T) {
	srv := newStatusServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpointMounted(t *testing.T) {
	srv := newStatusServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
