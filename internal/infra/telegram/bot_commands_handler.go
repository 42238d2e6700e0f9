package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/app"
	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/dates"
	"github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/domain/group"
	idb "github.com/xamuel98/MSSSE-Birthday-Reminder-Bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const upcomingWindowDays = 30

// RegisterBotCommands wires the group-facing birthday commands and the
// membership events that keep the active-group flag current.
func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	birthdays *app.BirthdayService,
	groups group.Repository,
	baseLogger *logrus.Entry,
) {
	cmdLogger := baseLogger.WithField("handler_group", "birthday_commands")

	b.Handle("/addbirthday", func(c telebot.Context) error {
		logCtx := cmdLogger.WithField("command", "/addbirthday").WithField("sender_id", c.Sender().ID)
		if !isGroupChat(c) {
			return c.Reply("Birthdays are tracked per group — use this command inside a group chat.")
		}

		args := c.Args()
		if len(args) < 1 {
			return c.Reply("Usage: /addbirthday DD.MM — e.g. /addbirthday 15.03")
		}
		day, month, err := parseDayMonth(args[0])
		if err != nil {
			logCtx.WithField("input", args[0]).Info("Rejected unparsable birthday input")
			return c.Reply("I couldn't read that date. Use DD.MM, e.g. 15.03 for March 15th.")
		}

		saved, err := birthdays.Save(ctx, c.Sender().ID, c.Chat().ID, displayName(c.Sender()), month, day)
		if err != nil {
			if errors.Is(err, dates.ErrInvalidMonthDay) {
				return c.Reply("That day doesn't exist on the calendar. Use DD.MM, e.g. 15.03.")
			}
			logCtx.WithError(err).Error("Failed to save birthday")
			return c.Reply("Something went wrong saving your birthday. Please try again later.")
		}
		return c.Reply(fmt.Sprintf("Saved! I'll celebrate you on %s every year. 🎂", saved.MonthDay))
	})

	b.Handle("/mybirthday", func(c telebot.Context) error {
		logCtx := cmdLogger.WithField("command", "/mybirthday").WithField("sender_id", c.Sender().ID)
		if !isGroupChat(c) {
			return c.Reply("Use this command inside a group chat.")
		}
		bd, err := birthdays.Get(ctx, c.Sender().ID, c.Chat().ID)
		if err != nil {
			if errors.Is(err, idb.ErrBirthdayNotFound) {
				return c.Reply("You haven't registered a birthday here yet. Use /addbirthday DD.MM.")
			}
			logCtx.WithError(err).Error("Failed to look up birthday")
			return c.Reply("Something went wrong. Please try again later.")
		}
		return c.Reply(fmt.Sprintf("Your birthday here is registered as %s.", bd.MonthDay))
	})

	b.Handle("/removebirthday", func(c telebot.Context) error {
		logCtx := cmdLogger.WithField("command", "/removebirthday").WithField("sender_id", c.Sender().ID)
		if !isGroupChat(c) {
			return c.Reply("Use this command inside a group chat.")
		}
		err := birthdays.Remove(ctx, c.Sender().ID, c.Chat().ID)
		if err != nil {
			if errors.Is(err, idb.ErrBirthdayNotFound) {
				return c.Reply("You don't have a birthday registered here.")
			}
			logCtx.WithError(err).Error("Failed to remove birthday")
			return c.Reply("Something went wrong. Please try again later.")
		}
		return c.Reply("Done — your birthday is no longer tracked in this group.")
	})

	b.Handle("/birthdays", func(c telebot.Context) error {
		logCtx := cmdLogger.WithField("command", "/birthdays").WithField("chat_id", c.Chat().ID)
		if !isGroupChat(c) {
			return c.Reply("Use this command inside a group chat.")
		}
		all, err := birthdays.ListGroup(ctx, c.Chat().ID)
		if err != nil {
			logCtx.WithError(err).Error("Failed to list group birthdays")
			return c.Reply("Something went wrong. Please try again later.")
		}
		if len(all) == 0 {
			return c.Reply("No birthdays registered in this group yet. Be the first: /addbirthday DD.MM")
		}
		var sb strings.Builder
		sb.WriteString("🎂 Birthdays in this group:\n")
		for _, bd := range all {
			fmt.Fprintf(&sb, "• %s — %s\n", bd.DisplayName, bd.MonthDay)
		}
		return c.Reply(sb.String())
	})

	b.Handle("/upcoming", func(c telebot.Context) error {
		logCtx := cmdLogger.WithField("command", "/upcoming").WithField("chat_id", c.Chat().ID)
		if !isGroupChat(c) {
			return c.Reply("Use this command inside a group chat.")
		}
		upcoming, err := birthdays.Upcoming(ctx, c.Chat().ID, time.Now(), upcomingWindowDays)
		if err != nil {
			logCtx.WithError(err).Error("Failed to compute upcoming birthdays")
			return c.Reply("Something went wrong. Please try again later.")
		}
		if len(upcoming) == 0 {
			return c.Reply(fmt.Sprintf("No birthdays in the next %d days.", upcomingWindowDays))
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "🎉 Upcoming birthdays (next %d days):\n", upcomingWindowDays)
		for _, u := range upcoming {
			switch u.DaysUntil {
			case 0:
				fmt.Fprintf(&sb, "• %s — today! 🎂\n", u.Birthday.DisplayName)
			case 1:
				fmt.Fprintf(&sb, "• %s — tomorrow\n", u.Birthday.DisplayName)
			default:
				fmt.Fprintf(&sb, "• %s — in %d days (%s)\n", u.Birthday.DisplayName, u.DaysUntil, u.Date.Format("Jan 2"))
			}
		}
		return c.Reply(sb.String())
	})

	membershipLogger := baseLogger.WithField("handler_group", "membership")

	b.Handle(telebot.OnAddedToGroup, func(c telebot.Context) error {
		logCtx := membershipLogger.WithField("chat_id", c.Chat().ID)
		g := &group.Group{ID: c.Chat().ID, Title: c.Chat().Title, IsActive: true}
		if err := groups.Upsert(ctx, g); err != nil {
			logCtx.WithError(err).Error("Failed to register group")
			return nil
		}
		logCtx.Info("Bot added to group; announcements enabled")
		return c.Send("Hello! 🎂 I track birthdays. Register yours with /addbirthday DD.MM and I'll make sure nobody's day goes unnoticed.")
	})

	b.Handle(telebot.OnUserLeft, func(c telebot.Context) error {
		logCtx := membershipLogger.WithField("chat_id", c.Chat().ID)
		left := c.Message().UserLeft
		if left == nil {
			return nil
		}
		if left.ID == b.Me.ID {
			// Keep birthday data; just stop announcing until re-added.
			if err := groups.SetActive(ctx, c.Chat().ID, false); err != nil && !errors.Is(err, idb.ErrGroupNotFound) {
				logCtx.WithError(err).Error("Failed to deactivate group")
			}
			return nil
		}
		if err := birthdays.Remove(ctx, left.ID, c.Chat().ID); err != nil && !errors.Is(err, idb.ErrBirthdayNotFound) {
			logCtx.WithError(err).WithField("owner_id", left.ID).Error("Failed to drop birthday for departed member")
		}
		return nil
	})
}

func isGroupChat(c telebot.Context) bool {
	t := c.Chat().Type
	return t == telebot.ChatGroup || t == telebot.ChatSuperGroup
}

func displayName(u *telebot.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}

// parseDayMonth accepts DD.MM and DD/MM. Range validation happens in the
// dates package; this only splits and parses digits.
func parseDayMonth(s string) (day, month int, err error) {
	sep := "."
	if strings.Contains(s, "/") {
		sep = "/"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected DD%sMM, got %q", sep, s)
	}
	day, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("bad day %q: %w", parts[0], err)
	}
	month, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("bad month %q: %w", parts[1], err)
	}
	return day, month, nil
}
