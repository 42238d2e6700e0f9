package telegram

import (
	"context"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the notify.Sink interface using the
// gopkg.in/telebot.v3 library, keeping the dispatch logic decoupled from
// the bot library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// Send posts a plain-text message to the group chat.
func (tba *TelebotAdapter) Send(ctx context.Context, groupID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	recipient := &telebot.Chat{ID: groupID}
	_, err := tba.bot.Send(recipient, text)
	return err
}
