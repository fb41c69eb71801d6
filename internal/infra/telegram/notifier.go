// internal/infra/telegram/notifier.go
package telegram

import (
	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the notify.Client interface using the
// gopkg.in/telebot.v3 library. Outbound only: run reports go to a single
// configured operator chat.
type TelebotAdapter struct {
	bot            *telebot.Bot
	operatorChatID int64
}

func NewTelebotAdapter(b *telebot.Bot, operatorChatID int64) *TelebotAdapter {
	return &TelebotAdapter{bot: b, operatorChatID: operatorChatID}
}

// SendMessage sends a text message to the configured operator chat.
func (tba *TelebotAdapter) SendMessage(text string) error {
	recipient := &telebot.User{ID: tba.operatorChatID}
	_, err := tba.bot.Send(recipient, text, &telebot.SendOptions{})
	return err
}
