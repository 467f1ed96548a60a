// internal/infra/telegram/client.go
package telegram

import (
	"time"

	"gopkg.in/telebot.v3"
)

// MessageSender sends plain text to a chat.
type MessageSender interface {
	SendMessage(chatID int64, text string) error
}

// TelebotAdapter implements MessageSender using gopkg.in/telebot.v3.
type TelebotAdapter struct {
	bot *telebot.Bot
}

// NewBot creates a long-polling bot; OnError is routed to onError.
func NewBot(token string, onError func(error, telebot.Context)) (*telebot.Bot, error) {
	return telebot.NewBot(telebot.Settings{
		Token:   token,
		Poller:  &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: onError,
	})
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

func (a *TelebotAdapter) SendMessage(chatID int64, text string) error {
	_, err := a.bot.Send(&telebot.Chat{ID: chatID}, text)
	return err
}
