// Package notify delivers short operator messages. Delivery is best effort:
// callers log failures and carry on.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

// Telegram posts every message to one chat.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// sendTimeout bounds every Bot API call.
const sendTimeout = 5 * time.Second

func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	return dial(token, tgbotapi.APIEndpoint, sendTimeout, chatID, log)
}

func dial(token, endpoint string, timeout time.Duration, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return newTelegram(api, chatID, log), nil
}

func newTelegram(api *tgbotapi.BotAPI, chatID int64, log *slog.Logger) *Telegram {
	log.Info("telegram notifier ready", "bot", api.Self.UserName, "chat_id", chatID)
	return &Telegram{api: api, chatID: chatID}
}

func (t *Telegram) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.api.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
		return fmt.Errorf("telegram send to chat %d: %w", t.chatID, err)
	}
	return nil
}

// New picks Telegram when a token is configured and Nop otherwise.
func New(token string, chatID int64, log *slog.Logger) (Notifier, error) {
	if token == "" || chatID == 0 {
		return Nop{}, nil
	}
	t, err := NewTelegram(token, chatID, log)
	if err != nil {
		return nil, err
	}
	return t, nil
}
