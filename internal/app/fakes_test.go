package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/birthday"
	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/dates"
	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/reminder"
	idb "github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// memBirthdayRepo is an in-memory birthday.Repository.
type memBirthdayRepo struct {
	mu        sync.Mutex
	birthdays map[uuid.UUID]*birthday.Birthday
	err       error // when set, every call fails with it
}

func newMemBirthdayRepo() *memBirthdayRepo {
	return &memBirthdayRepo{birthdays: make(map[uuid.UUID]*birthday.Birthday)}
}

func (r *memBirthdayRepo) Upsert(_ context.Context, b *birthday.Birthday) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, existing := range r.birthdays {
		if existing.OwnerID == b.OwnerID && existing.GroupID == b.GroupID {
			existing.MonthDay = b.MonthDay
			existing.DisplayName = b.DisplayName
			existing.UpdatedAt = time.Now()
			*b = *existing
			return nil
		}
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	r.birthdays[b.ID] = &cp
	return nil
}

func (r *memBirthdayRepo) GetByOwnerAndGroup(_ context.Context, ownerID, groupID int64) (*birthday.Birthday, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, b := range r.birthdays {
		if b.OwnerID == ownerID && b.GroupID == groupID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, idb.ErrBirthdayNotFound
}

func (r *memBirthdayRepo) ListByGroup(_ context.Context, groupID int64) ([]*birthday.Birthday, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*birthday.Birthday
	for _, b := range r.birthdays {
		if b.GroupID == groupID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OwnerID < out[j].OwnerID })
	return out, nil
}

func (r *memBirthdayRepo) ListByMonthDay(_ context.Context, md dates.MonthDay) ([]*birthday.Birthday, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*birthday.Birthday
	for _, b := range r.birthdays {
		if b.MonthDay == md {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupID != out[j].GroupID {
			return out[i].GroupID < out[j].GroupID
		}
		return out[i].OwnerID < out[j].OwnerID
	})
	return out, nil
}

func (r *memBirthdayRepo) Delete(_ context.Context, ownerID, groupID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for id, b := range r.birthdays {
		if b.OwnerID == ownerID && b.GroupID == groupID {
			delete(r.birthdays, id)
			return nil
		}
	}
	return idb.ErrBirthdayNotFound
}

// memReminderRepo is an in-memory reminder.Repository mirroring the
// postgres implementation's atomicity: create-if-absent and the guarded
// sent-flip are single operations under one lock.
type memReminderRepo struct {
	mu        sync.Mutex
	birthdays *memBirthdayRepo
	reminders map[uuid.UUID]*reminder.Reminder
	err       error
}

func newMemReminderRepo(birthdays *memBirthdayRepo) *memReminderRepo {
	return &memReminderRepo{
		birthdays: birthdays,
		reminders: make(map[uuid.UUID]*reminder.Reminder),
	}
}

func (r *memReminderRepo) CreateIfAbsent(_ context.Context, birthdayID uuid.UUID, targetDate time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	day := dates.BeginningOfDay(targetDate.UTC())
	for _, rem := range r.reminders {
		if rem.BirthdayID == birthdayID && rem.TargetDate.Equal(day) {
			return false, nil
		}
	}
	id := uuid.New()
	r.reminders[id] = &reminder.Reminder{
		ID:         id,
		BirthdayID: birthdayID,
		TargetDate: day,
		CreatedAt:  time.Now(),
	}
	return true, nil
}

func (r *memReminderRepo) ListPending(_ context.Context, targetDate time.Time) ([]*reminder.PendingReminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	day := dates.BeginningOfDay(targetDate.UTC())
	var out []*reminder.PendingReminder
	for _, rem := range r.reminders {
		if rem.Sent || !rem.TargetDate.Equal(day) {
			continue
		}
		b, ok := r.birthdays.birthdays[rem.BirthdayID]
		if !ok {
			continue // orphan, swept later
		}
		out = append(out, &reminder.PendingReminder{
			ID:          rem.ID,
			BirthdayID:  rem.BirthdayID,
			TargetDate:  rem.TargetDate,
			OwnerID:     b.OwnerID,
			GroupID:     b.GroupID,
			DisplayName: b.DisplayName,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GroupID != out[j].GroupID {
			return out[i].GroupID < out[j].GroupID
		}
		return out[i].OwnerID < out[j].OwnerID
	})
	return out, nil
}

func (r *memReminderRepo) MarkSent(_ context.Context, reminderID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	rem, ok := r.reminders[reminderID]
	if !ok || rem.Sent {
		return false, nil
	}
	rem.Sent = true
	rem.SentAt = sql.NullTime{Time: time.Now(), Valid: true}
	return true, nil
}

func (r *memReminderRepo) DeleteSentBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	day := dates.BeginningOfDay(cutoff.UTC())
	var deleted int64
	for id, rem := range r.reminders {
		if rem.Sent && rem.TargetDate.Before(day) {
			delete(r.reminders, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *memReminderRepo) get(id uuid.UUID) *reminder.Reminder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reminders[id]
}

func (r *memReminderRepo) all() []*reminder.Reminder {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*reminder.Reminder, 0, len(r.reminders))
	for _, rem := range r.reminders {
		cp := *rem
		out = append(out, &cp)
	}
	return out
}

// staticGroupFilter marks the listed groups active.
type staticGroupFilter struct {
	active map[int64]bool
}

func (f *staticGroupFilter) IsActive(_ context.Context, groupID int64) (bool, error) {
	return f.active[groupID], nil
}

// recordingSink captures sends and fails those matching failFor.
type sentMessage struct {
	GroupID int64
	Text    string
}

type recordingSink struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[int64]bool // group IDs whose sends fail
}

func (s *recordingSink) Send(_ context.Context, groupID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[groupID] {
		return fmt.Errorf("transport rejected message to group %d", groupID)
	}
	s.sent = append(s.sent, sentMessage{GroupID: groupID, Text: text})
	return nil
}

func (s *recordingSink) messages() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}
