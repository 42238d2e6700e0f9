package app

import (
	"context"
	"testing"
	"time"

	idb "github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/infra/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveReplacesExistingBirthdayInPlace(t *testing.T) {
	birthdays := newMemBirthdayRepo()
	svc := NewBirthdayService(birthdays, time.UTC, testLogger())

	first, err := svc.Save(context.Background(), 1, 100, "Ada", 3, 15)
	require.NoError(t, err)

	second, err := svc.Save(context.Background(), 1, 100, "Ada O.", 7, 2)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "update semantics, not insert-then-duplicate")

	all, err := svc.ListGroup(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Ada O.", all[0].DisplayName)
	assert.Equal(t, 7, int(all[0].MonthDay.Month))
	assert.Equal(t, 2, all[0].MonthDay.Day)
}

func TestSaveRejectsInvalidMonthDay(t *testing.T) {
	svc := NewBirthdayService(newMemBirthdayRepo(), time.UTC, testLogger())
	_, err := svc.Save(context.Background(), 1, 100, "Ada", 2, 30)
	assert.Error(t, err)
}

func TestSaveScopedPerGroup(t *testing.T) {
	birthdays := newMemBirthdayRepo()
	svc := NewBirthdayService(birthdays, time.UTC, testLogger())

	_, err := svc.Save(context.Background(), 1, 100, "Ada", 3, 15)
	require.NoError(t, err)
	_, err = svc.Save(context.Background(), 1, 200, "Ada", 3, 15)
	require.NoError(t, err)

	groupA, err := svc.ListGroup(context.Background(), 100)
	require.NoError(t, err)
	groupB, err := svc.ListGroup(context.Background(), 200)
	require.NoError(t, err)
	assert.Len(t, groupA, 1)
	assert.Len(t, groupB, 1)
	assert.NotEqual(t, groupA[0].ID, groupB[0].ID)
}

func TestRemoveUnknownBirthday(t *testing.T) {
	svc := NewBirthdayService(newMemBirthdayRepo(), time.UTC, testLogger())
	err := svc.Remove(context.Background(), 1, 100)
	assert.ErrorIs(t, err, idb.ErrBirthdayNotFound)
}

func TestUpcomingSortedAndWindowed(t *testing.T) {
	birthdays := newMemBirthdayRepo()
	svc := NewBirthdayService(birthdays, time.UTC, testLogger())

	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	_, err := svc.Save(context.Background(), 1, 100, "Ada", 3, 15) // in 5 days
	require.NoError(t, err)
	_, err = svc.Save(context.Background(), 2, 100, "Bayo", 3, 10) // today
	require.NoError(t, err)
	_, err = svc.Save(context.Background(), 3, 100, "Chi", 6, 1) // beyond window
	require.NoError(t, err)

	upcoming, err := svc.Upcoming(context.Background(), 100, now, 30)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "Bayo", upcoming[0].Birthday.DisplayName)
	assert.Zero(t, upcoming[0].DaysUntil)
	assert.Equal(t, "Ada", upcoming[1].Birthday.DisplayName)
	assert.Equal(t, 5, upcoming[1].DaysUntil)
}

// TestBirthdayLifecycleScenario walks the whole pipeline: register a
// birthday on March 14, materialize for March 15, dispatch on the day,
// verify a repeat dispatch stays silent.
func TestBirthdayLifecycleScenario(t *testing.T) {
	birthdays := newMemBirthdayRepo()
	reminders := newMemReminderRepo(birthdays)
	groups := &staticGroupFilter{active: map[int64]bool{1: true}}
	svc := NewBirthdayService(birthdays, time.UTC, testLogger())
	m := NewMaterializer(birthdays, reminders, groups, testLogger())
	sink := &recordingSink{}
	d := NewDispatcher(reminders, sink, 0, testLogger())

	_, err := svc.Save(context.Background(), 1, 1, "U1", 3, 15)
	require.NoError(t, err)

	targetDate := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	// Evening of March 14: materialization creates one pending record.
	created, err := m.MaterializeFor(context.Background(), targetDate)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	pending, err := reminders.ListPending(context.Background(), targetDate)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	rem := reminders.get(pending[0].ID)
	require.NotNil(t, rem)
	assert.False(t, rem.Sent)
	assert.True(t, rem.TargetDate.Equal(targetDate))

	// March 15: dispatch sends one announcement to group 1 and flips sent.
	res, err := d.DispatchFor(context.Background(), targetDate)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	msgs := sink.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(1), msgs[0].GroupID)
	assert.Contains(t, msgs[0].Text, "U1")

	// A second dispatch for the same date sends nothing.
	res, err = d.DispatchFor(context.Background(), targetDate)
	require.NoError(t, err)
	assert.Zero(t, res.Sent)
	assert.Len(t, sink.messages(), 1)
}
