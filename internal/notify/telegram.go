package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramScheme is the destination scheme handled by Telegram:
// tg://<chat_id> or tg://@<channel_username>.
const TelegramScheme = "tg"

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends notifications through a Telegram bot.
type Telegram struct {
	api telegramAPI
}

// NewTelegram creates a Telegram sender authenticated with token.
func NewTelegram(token string) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Telegram{api: api}, nil
}

// Send posts msg.Body to the chat named by destination.
func (t *Telegram) Send(ctx context.Context, destination string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	chat := strings.TrimPrefix(destination, TelegramScheme+"://")
	chat = strings.TrimSuffix(chat, "/")

	var out tgbotapi.MessageConfig
	switch {
	case strings.HasPrefix(chat, "@"):
		out = tgbotapi.NewMessageToChannel(chat, msg.Body)
	default:
		id, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: invalid telegram chat %q", ErrUnsupportedDestination, chat)
		}
		out = tgbotapi.NewMessage(id, msg.Body)
	}
	out.DisableWebPagePreview = msg.DisablePreview

	if _, err := t.api.Send(out); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
