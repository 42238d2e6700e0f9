package app

import (
	"context"
	"fmt"
	"time"

	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/dates"
	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/reminder"

	"github.com/sirupsen/logrus"
)

// Sweeper deletes sent reminders whose target date has aged out of the
// retention window, bounding table growth. Unsent records are never touched:
// a stuck-pending reminder stays visible until someone looks at it.
type Sweeper struct {
	reminders reminder.Repository
	log       *logrus.Entry
}

func NewSweeper(rr reminder.Repository, log *logrus.Logger) *Sweeper {
	return &Sweeper{
		reminders: rr,
		log:       log.WithField("job", "sweeper"),
	}
}

// Sweep removes sent reminders with a target date older than retentionDays
// before now's local date and returns how many were deleted.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time, retentionDays int) (int64, error) {
	cutoff := dates.BeginningOfDay(now).AddDate(0, 0, -retentionDays)
	deleted, err := s.reminders.DeleteSentBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep: deleting sent reminders before %s: %w", cutoff.Format("2006-01-02"), err)
	}
	s.log.WithFields(logrus.Fields{
		"cutoff":  cutoff.Format("2006-01-02"),
		"deleted": deleted,
	}).Info("Retention sweep complete")
	return deleted, nil
}
