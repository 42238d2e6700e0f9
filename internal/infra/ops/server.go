// Package ops exposes the thin operational surface: health, scheduler
// status, and manual job triggers for test/ops use. None of this is part
// of the normal production flow.
package ops

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/infra/scheduler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Server struct {
	db    *sql.DB
	sched *scheduler.JobScheduler
	log   *logrus.Entry
}

func NewServer(db *sql.DB, sched *scheduler.JobScheduler, log *logrus.Logger) *Server {
	return &Server{db: db, sched: sched, log: log.WithField("component", "ops")}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Minute)) // manual triggers run jobs synchronously

	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Post("/jobs/materialize", s.handleMaterialize)
	r.Post("/jobs/dispatch", s.handleDispatch)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.log.WithError(err).Warn("Health check failed: database unreachable")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sched.Status())
}

func (s *Server) handleMaterialize(w http.ResponseWriter, r *http.Request) {
	s.log.Info("Manual materialization trigger received")
	s.sched.TriggerMaterializationNow()
	writeJSON(w, http.StatusOK, map[string]string{"job": "materialize", "status": "completed"})
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	s.log.Info("Manual dispatch trigger received")
	s.sched.TriggerDispatchNow()
	writeJSON(w, http.StatusOK, map[string]string{"job": "dispatch", "status": "completed"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
