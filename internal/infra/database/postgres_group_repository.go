package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/group"
)

var ErrGroupNotFound = fmt.Errorf("group not found")

type PostgresGroupRepository struct {
	db *sql.DB
}

func NewPostgresGroupRepository(db *sql.DB) *PostgresGroupRepository {
	return &PostgresGroupRepository{db: db}
}

func (r *PostgresGroupRepository) Upsert(ctx context.Context, g *group.Group) error {
	query := `INSERT INTO bot_groups (group_id, title, is_active)
              VALUES ($1, $2, $3)
              ON CONFLICT (group_id) DO UPDATE
                  SET title = EXCLUDED.title, is_active = EXCLUDED.is_active, updated_at = NOW()
              RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, g.ID, g.Title, g.IsActive).Scan(&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return wrapStoreErr("error upserting group", err)
	}
	return nil
}

func (r *PostgresGroupRepository) SetActive(ctx context.Context, groupID int64, active bool) error {
	query := `UPDATE bot_groups SET is_active = $1, updated_at = NOW() WHERE group_id = $2`
	res, err := r.db.ExecContext(ctx, query, active, groupID)
	if err != nil {
		return wrapStoreErr("error updating group active flag", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading group update result: %w", err)
	}
	if affected == 0 {
		return ErrGroupNotFound
	}
	return nil
}

func (r *PostgresGroupRepository) IsActive(ctx context.Context, groupID int64) (bool, error) {
	query := `SELECT is_active FROM bot_groups WHERE group_id = $1`
	var active bool
	err := r.db.QueryRowContext(ctx, query, groupID).Scan(&active)
	if err != nil {
		if err == sql.ErrNoRows {
			// Unknown group: treat as inactive rather than failing the run.
			return false, nil
		}
		return false, wrapStoreErr("error checking group active flag", err)
	}
	return active, nil
}
