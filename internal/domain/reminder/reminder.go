package reminder

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Reminder is a materialized obligation to announce one birthday on one
// concrete calendar date. The (BirthdayID, TargetDate) pair is unique in the
// store; that uniqueness is what turns repeated materialization attempts
// into at most one delivery.
type Reminder struct {
	ID         uuid.UUID
	BirthdayID uuid.UUID
	TargetDate time.Time // date only, midnight in the bot timezone
	Sent       bool
	SentAt     sql.NullTime // valid exactly when Sent is true
	CreatedAt  time.Time
}

// PendingReminder is a Reminder joined with enough birthday context to
// deliver the announcement without further lookups.
type PendingReminder struct {
	ID          uuid.UUID
	BirthdayID  uuid.UUID
	TargetDate  time.Time
	OwnerID     int64
	GroupID     int64
	DisplayName string
}
