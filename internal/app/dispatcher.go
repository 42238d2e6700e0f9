package app

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/notify"
	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/reminder"

	"github.com/sirupsen/logrus"
)

// greetingTemplates are picked per owner by a stable hash, so the same
// member gets the same greeting on a re-delivery.
var greetingTemplates = []string{
	"🎉 Happy Birthday, %s! 🎂 Wishing you an amazing year ahead!",
	"🎂 It's %s's birthday today! Join us in celebrating! 🎉",
	"🥳 Three cheers for %s — happy birthday from all of us! 🎈",
}

// DispatchResult summarizes one dispatch run.
type DispatchResult struct {
	Sent   int
	Failed int
}

// Dispatcher delivers pending reminders for a target date and marks each one
// sent immediately after a successful send. A record whose delivery fails
// stays pending and is retried by the next scheduled run; it is never
// retried within the same run.
type Dispatcher struct {
	reminders reminder.Repository
	sink      notify.Sink
	pacing    time.Duration
	log       *logrus.Entry
}

func NewDispatcher(
	rr reminder.Repository,
	sink notify.Sink,
	pacing time.Duration,
	log *logrus.Logger,
) *Dispatcher {
	return &Dispatcher{
		reminders: rr,
		sink:      sink,
		pacing:    pacing,
		log:       log.WithField("job", "dispatcher"),
	}
}

// DispatchFor sends every pending reminder for targetDate, in the store's
// (group, owner) order. One failing record never blocks the rest of the
// batch. If the process dies after the sink accepted a message but before
// the sent flip lands, the record is re-delivered on the next run: a rare
// duplicate is accepted over silently losing the announcement.
func (d *Dispatcher) DispatchFor(ctx context.Context, targetDate time.Time) (DispatchResult, error) {
	var res DispatchResult

	pending, err := d.reminders.ListPending(ctx, targetDate)
	if err != nil {
		return res, fmt.Errorf("dispatch: listing pending reminders: %w", err)
	}
	if len(pending) == 0 {
		d.log.WithField("target_date", targetDate.Format("2006-01-02")).Debug("No pending reminders")
		return res, nil
	}

	for i, p := range pending {
		if i > 0 {
			// Pace consecutive sends to respect the chat transport's rate
			// limits, without holding anything locked while waiting.
			if err := d.pause(ctx); err != nil {
				return res, err
			}
		}

		logCtx := d.log.WithFields(logrus.Fields{
			"reminder_id": p.ID,
			"group_id":    p.GroupID,
			"owner_id":    p.OwnerID,
		})

		text := renderGreeting(p)
		if err := d.sink.Send(ctx, p.GroupID, text); err != nil {
			logCtx.WithError(err).Error("Failed to deliver birthday announcement")
			res.Failed++
			continue
		}

		flipped, err := d.reminders.MarkSent(ctx, p.ID)
		if err != nil {
			// The message went out but the flip failed. Stop the run here:
			// continuing would risk the same fate for the whole batch while
			// the store is unreachable.
			return res, fmt.Errorf("dispatch: marking reminder %s sent: %w", p.ID, err)
		}
		if !flipped {
			logCtx.Warn("Reminder was already marked sent by a concurrent run")
			continue
		}
		res.Sent++
		logCtx.Info("Birthday announcement delivered")
	}

	d.log.WithFields(logrus.Fields{
		"target_date": targetDate.Format("2006-01-02"),
		"sent":        res.Sent,
		"failed":      res.Failed,
	}).Info("Dispatch run complete")
	return res, nil
}

func (d *Dispatcher) pause(ctx context.Context) error {
	if d.pacing <= 0 {
		return nil
	}
	timer := time.NewTimer(d.pacing)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func renderGreeting(p *reminder.PendingReminder) string {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d", p.OwnerID)
	tpl := greetingTemplates[h.Sum32()%uint32(len(greetingTemplates))]
	return fmt.Sprintf(tpl, p.DisplayName)
}
