package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/rosterbot/internal/tracker"
)

// ShiftSource is the read-only view the API serves.
type ShiftSource interface {
	Snapshot() []tracker.ShiftStatus
}

type Server struct {
	Logger *zap.Logger
	Shifts ShiftSource
}

func NewServer(l *zap.Logger, shifts ShiftSource) *Server {
	return &Server{Logger: l, Shifts: shifts}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/shifts", s.handleListShifts)

	return r
}

func (s *Server) handleListShifts(w http.ResponseWriter, r *http.Request) {
	snap := s.Shifts.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.Logger.Warn("shifts_encode_error", zap.Error(err))
	}
}
