package app

import (
	"context"
	"fmt"
	"time"

	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/birthday"
	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/dates"
	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/reminder"

	"github.com/sirupsen/logrus"
)

// GroupFilter answers whether a group should still receive announcements.
// Supplied by the membership subsystem; the jobs never decide this themselves.
type GroupFilter interface {
	IsActive(ctx context.Context, groupID int64) (bool, error)
}

// Materializer turns birthdays that fall on a target date into pending
// reminder records ahead of time. Creating the record and sending it are
// deliberately separate steps: a crash between "decide to remind" and
// "send" leaves a pending record behind, which the next dispatch run picks
// up instead of losing the obligation.
type Materializer struct {
	birthdays birthday.Repository
	reminders reminder.Repository
	groups    GroupFilter
	log       *logrus.Entry
}

func NewMaterializer(
	br birthday.Repository,
	rr reminder.Repository,
	gf GroupFilter,
	log *logrus.Logger,
) *Materializer {
	return &Materializer{
		birthdays: br,
		reminders: rr,
		groups:    gf,
		log:       log.WithField("job", "materializer"),
	}
}

// MaterializeFor creates one pending reminder for every birthday on
// targetDate's month/day in an active group, skipping pairs that already
// have one. Returns the number of records actually created; zero on a
// repeat run is the expected outcome, not an error.
func (m *Materializer) MaterializeFor(ctx context.Context, targetDate time.Time) (int, error) {
	md, err := dates.NewMonthDay(int(targetDate.Month()), targetDate.Day())
	if err != nil {
		return 0, fmt.Errorf("materialize: bad target date %s: %w", targetDate.Format("2006-01-02"), err)
	}

	candidates, err := m.birthdays.ListByMonthDay(ctx, md)
	if err != nil {
		return 0, fmt.Errorf("materialize: listing birthdays for %s: %w", md, err)
	}

	// Feb 29 birthdays resolve to March 1 in non-leap years, so they
	// belong to March 1's materialization run in those years.
	if md.Month == time.March && md.Day == 1 && !dates.IsLeapYear(targetDate.Year()) {
		leapDay := dates.MonthDay{Month: time.February, Day: 29}
		leaplings, err := m.birthdays.ListByMonthDay(ctx, leapDay)
		if err != nil {
			return 0, fmt.Errorf("materialize: listing birthdays for %s: %w", leapDay, err)
		}
		candidates = append(candidates, leaplings...)
	}

	if len(candidates) == 0 {
		m.log.WithField("target_date", targetDate.Format("2006-01-02")).Debug("No birthdays fall on the target date")
		return 0, nil
	}

	created := 0
	// Groups repeat within one run; resolve each active flag once.
	activeByGroup := make(map[int64]bool)
	for _, b := range candidates {
		active, known := activeByGroup[b.GroupID]
		if !known {
			active, err = m.groups.IsActive(ctx, b.GroupID)
			if err != nil {
				return created, fmt.Errorf("materialize: checking group %d: %w", b.GroupID, err)
			}
			activeByGroup[b.GroupID] = active
		}
		if !active {
			m.log.WithFields(logrus.Fields{"group_id": b.GroupID, "owner_id": b.OwnerID}).
				Debug("Skipping birthday in inactive group")
			continue
		}

		inserted, err := m.reminders.CreateIfAbsent(ctx, b.ID, targetDate)
		if err != nil {
			return created, fmt.Errorf("materialize: creating reminder for birthday %s: %w", b.ID, err)
		}
		if inserted {
			created++
		}
	}

	m.log.WithFields(logrus.Fields{
		"target_date": targetDate.Format("2006-01-02"),
		"candidates":  len(candidates),
		"created":     created,
	}).Info("Materialization run complete")
	return created, nil
}
