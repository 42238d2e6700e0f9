package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/reminder"

	"github.com/google/uuid"
)

type PostgresReminderRepository struct {
	db *sql.DB
}

func NewPostgresReminderRepository(db *sql.DB) *PostgresReminderRepository {
	return &PostgresReminderRepository{db: db}
}

// CreateIfAbsent inserts an unsent reminder for (birthdayID, targetDate)
// unless one already exists. The unique constraint on
// (birthday_id, target_date) makes this safe when the materializer runs
// twice for the same day, e.g. after a crash-restart.
func (r *PostgresReminderRepository) CreateIfAbsent(ctx context.Context, birthdayID uuid.UUID, targetDate time.Time) (bool, error) {
	query := `INSERT INTO birthday_reminders (id, birthday_id, target_date, sent)
              VALUES ($1, $2, $3, FALSE)
              ON CONFLICT (birthday_id, target_date) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, uuid.New(), birthdayID, dateOnly(targetDate))
	if err != nil {
		return false, wrapStoreErr("error creating reminder", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading reminder insert result: %w", err)
	}
	return affected == 1, nil
}

// ListPending returns the unsent reminders for targetDate joined with their
// birthday context, ordered by group then owner for a reproducible dispatch
// sequence.
func (r *PostgresReminderRepository) ListPending(ctx context.Context, targetDate time.Time) ([]*reminder.PendingReminder, error) {
	query := `SELECT rem.id, rem.birthday_id, rem.target_date, b.owner_id, b.group_id, b.display_name
              FROM birthday_reminders rem
              JOIN birthdays b ON b.id = rem.birthday_id
              WHERE rem.target_date = $1 AND rem.sent = FALSE
              ORDER BY b.group_id, b.owner_id`
	rows, err := r.db.QueryContext(ctx, query, dateOnly(targetDate))
	if err != nil {
		return nil, wrapStoreErr("error listing pending reminders", err)
	}
	defer rows.Close()

	pending := make([]*reminder.PendingReminder, 0)
	for rows.Next() {
		p := &reminder.PendingReminder{}
		if err := rows.Scan(&p.ID, &p.BirthdayID, &p.TargetDate, &p.OwnerID, &p.GroupID, &p.DisplayName); err != nil {
			return nil, fmt.Errorf("error scanning pending reminder row: %w", err)
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending reminder rows: %w", err)
	}
	return pending, nil
}

// MarkSent flips sent and stamps sent_at in one statement, guarded by
// `sent = FALSE` so a second caller loses the race and gets false back.
func (r *PostgresReminderRepository) MarkSent(ctx context.Context, reminderID uuid.UUID) (bool, error) {
	query := `UPDATE birthday_reminders
              SET sent = TRUE, sent_at = NOW()
              WHERE id = $1 AND sent = FALSE`
	res, err := r.db.ExecContext(ctx, query, reminderID)
	if err != nil {
		return false, wrapStoreErr("error marking reminder sent", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading mark-sent result: %w", err)
	}
	return affected == 1, nil
}

func (r *PostgresReminderRepository) DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM birthday_reminders WHERE sent = TRUE AND target_date < $1`
	res, err := r.db.ExecContext(ctx, query, dateOnly(cutoff))
	if err != nil {
		return 0, wrapStoreErr("error deleting sent reminders", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading sweep result: %w", err)
	}
	return deleted, nil
}

// dateOnly strips the time component so DATE column comparisons never
// depend on the session timezone.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
