package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/birthday"
	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/dates"

	"github.com/google/uuid"
)

// Custom errors
var ErrBirthdayNotFound = fmt.Errorf("birthday not found")

type PostgresBirthdayRepository struct {
	db *sql.DB
}

func NewPostgresBirthdayRepository(db *sql.DB) *PostgresBirthdayRepository {
	return &PostgresBirthdayRepository{db: db}
}

// Upsert inserts the birthday or, when the (owner_id, group_id) pair already
// exists, replaces its month/day and display name in place. The unique
// constraint carries the at-most-one-per-pair invariant.
func (r *PostgresBirthdayRepository) Upsert(ctx context.Context, b *birthday.Birthday) error {
	query := `INSERT INTO birthdays (id, owner_id, group_id, display_name, birth_month, birth_day)
              VALUES ($1, $2, $3, $4, $5, $6)
              ON CONFLICT (owner_id, group_id) DO UPDATE
                  SET display_name = EXCLUDED.display_name,
                      birth_month  = EXCLUDED.birth_month,
                      birth_day    = EXCLUDED.birth_day,
                      updated_at   = NOW()
              RETURNING id, created_at, updated_at`

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	err := r.db.QueryRowContext(ctx, query,
		b.ID, b.OwnerID, b.GroupID, b.DisplayName, int(b.MonthDay.Month), b.MonthDay.Day,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return wrapStoreErr("error upserting birthday", err)
	}
	return nil
}

func (r *PostgresBirthdayRepository) GetByOwnerAndGroup(ctx context.Context, ownerID, groupID int64) (*birthday.Birthday, error) {
	query := `SELECT id, owner_id, group_id, display_name, birth_month, birth_day, created_at, updated_at
              FROM birthdays WHERE owner_id = $1 AND group_id = $2`
	b, err := scanBirthday(r.db.QueryRowContext(ctx, query, ownerID, groupID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBirthdayNotFound
		}
		return nil, wrapStoreErr("error getting birthday by owner and group", err)
	}
	return b, nil
}

func (r *PostgresBirthdayRepository) ListByGroup(ctx context.Context, groupID int64) ([]*birthday.Birthday, error) {
	query := `SELECT id, owner_id, group_id, display_name, birth_month, birth_day, created_at, updated_at
              FROM birthdays WHERE group_id = $1 ORDER BY birth_month, birth_day, owner_id`
	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, wrapStoreErr("error listing birthdays by group", err)
	}
	defer rows.Close()
	return scanBirthdays(rows)
}

func (r *PostgresBirthdayRepository) ListByMonthDay(ctx context.Context, md dates.MonthDay) ([]*birthday.Birthday, error) {
	query := `SELECT id, owner_id, group_id, display_name, birth_month, birth_day, created_at, updated_at
              FROM birthdays WHERE birth_month = $1 AND birth_day = $2 ORDER BY group_id, owner_id`
	rows, err := r.db.QueryContext(ctx, query, int(md.Month), md.Day)
	if err != nil {
		return nil, wrapStoreErr("error listing birthdays by month and day", err)
	}
	defer rows.Close()
	return scanBirthdays(rows)
}

func (r *PostgresBirthdayRepository) Delete(ctx context.Context, ownerID, groupID int64) error {
	query := `DELETE FROM birthdays WHERE owner_id = $1 AND group_id = $2`
	res, err := r.db.ExecContext(ctx, query, ownerID, groupID)
	if err != nil {
		return wrapStoreErr("error deleting birthday", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading delete result: %w", err)
	}
	if affected == 0 {
		return ErrBirthdayNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBirthday(row rowScanner) (*birthday.Birthday, error) {
	b := &birthday.Birthday{}
	var month, day int
	if err := row.Scan(&b.ID, &b.OwnerID, &b.GroupID, &b.DisplayName, &month, &day, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	md, err := dates.NewMonthDay(month, day)
	if err != nil {
		return nil, fmt.Errorf("corrupt birthday row %s: %w", b.ID, err)
	}
	b.MonthDay = md
	return b, nil
}

func scanBirthdays(rows *sql.Rows) ([]*birthday.Birthday, error) {
	birthdays := make([]*birthday.Birthday, 0)
	for rows.Next() {
		b, err := scanBirthday(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning birthday row: %w", err)
		}
		birthdays = append(birthdays, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating birthday rows: %w", err)
	}
	return birthdays, nil
}
