package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/birthday"
	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/dates"

	"github.com/sirupsen/logrus"
)

// BirthdayService carries the member-facing birthday CRUD. Adding a
// birthday for a member who already has one in the group replaces it in
// place; a member has at most one birthday per group.
type BirthdayService struct {
	birthdays birthday.Repository
	loc       *time.Location
	log       *logrus.Entry
}

func NewBirthdayService(br birthday.Repository, loc *time.Location, log *logrus.Logger) *BirthdayService {
	return &BirthdayService{
		birthdays: br,
		loc:       loc,
		log:       log.WithField("service", "birthday"),
	}
}

// UpcomingBirthday pairs a birthday with its next occurrence relative to a
// reference instant.
type UpcomingBirthday struct {
	Birthday  *birthday.Birthday
	Date      time.Time
	DaysUntil int
}

// Save records or replaces the member's birthday in the group.
func (s *BirthdayService) Save(ctx context.Context, ownerID, groupID int64, displayName string, month, day int) (*birthday.Birthday, error) {
	md, err := dates.NewMonthDay(month, day)
	if err != nil {
		return nil, err
	}
	b := &birthday.Birthday{
		OwnerID:     ownerID,
		GroupID:     groupID,
		DisplayName: displayName,
		MonthDay:    md,
	}
	if err := s.birthdays.Upsert(ctx, b); err != nil {
		return nil, fmt.Errorf("saving birthday: %w", err)
	}
	s.log.WithFields(logrus.Fields{"owner_id": ownerID, "group_id": groupID, "month_day": md.String()}).
		Info("Birthday saved")
	return b, nil
}

// Get returns the member's birthday in the group, or
// database.ErrBirthdayNotFound.
func (s *BirthdayService) Get(ctx context.Context, ownerID, groupID int64) (*birthday.Birthday, error) {
	return s.birthdays.GetByOwnerAndGroup(ctx, ownerID, groupID)
}

// Remove deletes the member's birthday in the group. Pending reminders for
// it are removed by the store's cascade.
func (s *BirthdayService) Remove(ctx context.Context, ownerID, groupID int64) error {
	if err := s.birthdays.Delete(ctx, ownerID, groupID); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"owner_id": ownerID, "group_id": groupID}).Info("Birthday removed")
	return nil
}

// ListGroup returns all birthdays registered in the group.
func (s *BirthdayService) ListGroup(ctx context.Context, groupID int64) ([]*birthday.Birthday, error) {
	return s.birthdays.ListByGroup(ctx, groupID)
}

// Upcoming returns the group's birthdays occurring within the next
// windowDays (inclusive of today), soonest first.
func (s *BirthdayService) Upcoming(ctx context.Context, groupID int64, now time.Time, windowDays int) ([]UpcomingBirthday, error) {
	all, err := s.birthdays.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("listing group birthdays: %w", err)
	}

	upcoming := make([]UpcomingBirthday, 0, len(all))
	for _, b := range all {
		next, err := dates.NextOccurrence(b.MonthDay, now, s.loc)
		if err != nil {
			// Reject bad rows loudly rather than guessing a date.
			return nil, fmt.Errorf("birthday %s has invalid month/day: %w", b.ID, err)
		}
		days := dates.DaysUntil(next, now, s.loc)
		if days > windowDays {
			continue
		}
		upcoming = append(upcoming, UpcomingBirthday{Birthday: b, Date: next, DaysUntil: days})
	}

	sort.Slice(upcoming, func(i, j int) bool {
		if upcoming[i].DaysUntil != upcoming[j].DaysUntil {
			return upcoming[i].DaysUntil < upcoming[j].DaysUntil
		}
		return upcoming[i].Birthday.OwnerID < upcoming[j].Birthday.OwnerID
	})
	return upcoming, nil
}
