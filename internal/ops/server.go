package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"garagedesk/internal/models"
	"garagedesk/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server is the monitoring surface of the desk daemon: liveness, Prometheus
// metrics and a JSON snapshot of the booking collections.
type Server struct {
	desk    *service.BookingDesk
	session sessionProbe
	logger  zerolog.Logger
	server  *http.Server
}

type sessionProbe interface {
	Token(ctx context.Context) (string, error)
}

func NewServer(port int, desk *service.BookingDesk, session sessionProbe, logger zerolog.Logger) *Server {
	s := &Server{desk: desk, session: session, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/v1/status", s.handleStatus)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("ops server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus reports per-collection load states and counts plus whether a
// session token is currently held.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	counts := s.desk.Counts()
	collections := make(map[string]any, len(models.Kinds))
	for _, kind := range models.Kinds {
		state, err := s.desk.CollectionState(kind)
		if err != nil {
			continue
		}
		entry := map[string]any{
			"loaded": state.Loaded,
			"count":  counts[kind],
		}
		if state.Err != nil {
			entry["error"] = state.Err.Error()
		}
		collections[kind] = entry
	}

	loggedIn := false
	if s.session != nil {
		token, err := s.session.Token(r.Context())
		loggedIn = err == nil && token != ""
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"active_tab":  s.desk.ActiveTab(),
		"collections": collections,
		"logged_in":   loggedIn,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
