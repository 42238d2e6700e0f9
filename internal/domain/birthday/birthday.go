package birthday

import (
	"time"

	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/dates"

	"github.com/google/uuid"
)

// Birthday is a tracked recurring date for one member within one group.
// No birth year is stored: recurrence is always yearly and members never
// disclose their age to the bot.
type Birthday struct {
	ID          uuid.UUID
	OwnerID     int64 // chat user the birthday belongs to
	GroupID     int64 // group chat it is announced in
	DisplayName string
	MonthDay    dates.MonthDay
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
