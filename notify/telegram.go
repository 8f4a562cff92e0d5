package notify

import (
	"context"
	"fmt"
	"strconv"

	gobot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram delivers alerts through a telegram bot.
type Telegram struct {
	bot *gobot.BotAPI
}

func NewTelegram(token string) (*Telegram, error) {
	bot, err := gobot.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	bot.Debug = false
	return &Telegram{bot: bot}, nil
}

func (t *Telegram) Send(_ context.Context, chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: bad chat id %q: %w", chatID, err)
	}
	if _, err := t.bot.Send(gobot.NewMessage(id, text)); err != nil {
		return fmt.Errorf("telegram: send to %s: %w", chatID, err)
	}
	return nil
}
