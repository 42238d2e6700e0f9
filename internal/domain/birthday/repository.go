package birthday

import (
	"context"

	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/dates"
)

// Repository defines the operations for persisting and retrieving Birthday entities.
type Repository interface {
	// Upsert creates the birthday, or replaces the stored month/day and
	// display name in place when one already exists for (OwnerID, GroupID).
	Upsert(ctx context.Context, b *Birthday) error
	GetByOwnerAndGroup(ctx context.Context, ownerID, groupID int64) (*Birthday, error)
	ListByGroup(ctx context.Context, groupID int64) ([]*Birthday, error)
	// ListByMonthDay returns every birthday falling on the given month/day,
	// across all groups, ordered by group then owner.
	ListByMonthDay(ctx context.Context, md dates.MonthDay) ([]*Birthday, error)
	// Delete removes the owner's birthday in the given group. Also used when
	// the member leaves the group.
	Delete(ctx context.Context, ownerID, groupID int64) error
}
