package group

import (
	"context"
	"time"
)

// Group is a chat the bot has been added to. Announcements only go to
// groups whose IsActive flag is still set; the flag is cleared when the
// bot is removed instead of deleting the row, so birthday data survives a
// re-add.
type Group struct {
	ID        int64
	Title     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository defines the operations for tracking group membership state.
type Repository interface {
	Upsert(ctx context.Context, g *Group) error
	SetActive(ctx context.Context, groupID int64, active bool) error
	IsActive(ctx context.Context, groupID int64) (bool, error)
}
