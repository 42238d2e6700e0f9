package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	jobMaterialize = "materialize"
	jobDispatch    = "dispatch"
	jobSweep       = "sweep"

	jobTimeout = 10 * time.Minute
)

// Status is the operational snapshot exposed to the ops surface.
type Status struct {
	Running bool     `json:"running"`
	Jobs    []string `json:"jobs"`
}

// JobScheduler drives the three daily jobs on cron schedules evaluated in
// the bot timezone. Job bodies are stateless; all coordination happens in
// the store, so a manual trigger can safely overlap a scheduled firing.
type JobScheduler struct {
	cronEngine    *cron.Cron
	materializer  *app.Materializer
	dispatcher    *app.Dispatcher
	sweeper       *app.Sweeper
	loc           *time.Location
	retentionDays int
	log           *logrus.Entry

	specMaterialize string
	specDispatch    string
	specSweep       string

	mu      sync.Mutex
	running bool
}

func NewJobScheduler(
	materializer *app.Materializer,
	dispatcher *app.Dispatcher,
	sweeper *app.Sweeper,
	loc *time.Location,
	retentionDays int,
	specMaterialize, specDispatch, specSweep string,
	log *logrus.Logger,
) *JobScheduler {
	return &JobScheduler{
		cronEngine:      cron.New(cron.WithLocation(loc)),
		materializer:    materializer,
		dispatcher:      dispatcher,
		sweeper:         sweeper,
		loc:             loc,
		retentionDays:   retentionDays,
		specMaterialize: specMaterialize,
		specDispatch:    specDispatch,
		specSweep:       specSweep,
		log:             log.WithField("component", "scheduler"),
	}
}

// Start registers the three jobs and starts the cron engine. Calling Start
// on a running scheduler is a no-op.
func (s *JobScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{jobMaterialize, s.specMaterialize, s.runMaterialize},
		{jobDispatch, s.specDispatch, s.runDispatch},
		{jobSweep, s.specSweep, s.runSweep},
	}
	for _, j := range jobs {
		if _, err := s.cronEngine.AddFunc(j.spec, j.run); err != nil {
			return fmt.Errorf("could not register %s job (%q): %w", j.name, j.spec, err)
		}
	}

	s.cronEngine.Start()
	s.running = true
	s.log.WithFields(logrus.Fields{
		"materialize": s.specMaterialize,
		"dispatch":    s.specDispatch,
		"sweep":       s.specSweep,
		"timezone":    s.loc.String(),
	}).Info("Scheduler started")
	return nil
}

// Stop cancels future firings and waits for any in-flight job to finish,
// so no record is left mid-mutation. Safe to call when already stopped.
func (s *JobScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cronEngine.Stop().Done()
	s.running = false
	s.log.Info("Scheduler stopped")
}

// Status reports whether the scheduler is running and which jobs it owns.
func (s *JobScheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Running: s.running,
		Jobs:    []string{jobMaterialize, jobDispatch, jobSweep},
	}
}

// TriggerMaterializationNow runs the materialization job body synchronously.
// Intended for ops use; duplicate creations no-op at the store level, so
// overlap with the scheduled firing is harmless.
func (s *JobScheduler) TriggerMaterializationNow() {
	s.runMaterialize()
}

// TriggerDispatchNow runs the dispatch job body synchronously. Duplicate
// sent-flips no-op at the store level.
func (s *JobScheduler) TriggerDispatchNow() {
	s.runDispatch()
}

// runMaterialize creates reminders for tomorrow's birthdays (one-day lead).
func (s *JobScheduler) runMaterialize() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	tomorrow := s.localToday().AddDate(0, 0, 1)
	created, err := s.materializer.MaterializeFor(ctx, tomorrow)
	if err != nil {
		s.log.WithError(err).Error("Materialization run failed; next scheduled run will retry")
		return
	}
	s.log.WithFields(logrus.Fields{"target_date": tomorrow.Format("2006-01-02"), "created": created}).
		Info("Materialization job finished")
}

// runDispatch sends today's pending reminders.
func (s *JobScheduler) runDispatch() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	today := s.localToday()
	res, err := s.dispatcher.DispatchFor(ctx, today)
	if err != nil {
		s.log.WithError(err).Error("Dispatch run failed; next scheduled run will retry the remainder")
		return
	}
	s.log.WithFields(logrus.Fields{"target_date": today.Format("2006-01-02"), "sent": res.Sent, "failed": res.Failed}).
		Info("Dispatch job finished")
}

func (s *JobScheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	deleted, err := s.sweeper.Sweep(ctx, time.Now().In(s.loc), s.retentionDays)
	if err != nil {
		s.log.WithError(err).Error("Retention sweep failed; next scheduled run will retry")
		return
	}
	s.log.WithField("deleted", deleted).Info("Sweep job finished")
}

func (s *JobScheduler) localToday() time.Time {
	now := time.Now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}
