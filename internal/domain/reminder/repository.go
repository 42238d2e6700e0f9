package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for reminder records. Every
// mutation is a single atomic call; the implementation's unique constraint
// on (birthday_id, target_date) and its conditional sent-flip are the only
// dedup mechanisms the jobs rely on.
type Repository interface {
	// CreateIfAbsent inserts an unsent reminder for (birthdayID, targetDate)
	// unless one already exists. Reports whether an insert happened. Must be
	// atomic with respect to concurrent callers.
	CreateIfAbsent(ctx context.Context, birthdayID uuid.UUID, targetDate time.Time) (bool, error)
	// ListPending returns the unsent reminders for targetDate, ordered by
	// group then owner for reproducible dispatch order.
	ListPending(ctx context.Context, targetDate time.Time) ([]*PendingReminder, error)
	// MarkSent flips sent to true and stamps sent_at, only if the record is
	// still unsent. Reports whether the flip happened.
	MarkSent(ctx context.Context, reminderID uuid.UUID) (bool, error)
	// DeleteSentBefore removes sent reminders with a target date strictly
	// before cutoff and returns how many were deleted.
	DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
