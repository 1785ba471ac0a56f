package notify

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"botserver/internal/infra"
)

// TelegramNotifier sends results and failure notices through the Telegram
// Bot API.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	logger infra.Logger
}

func NewTelegramNotifier(token string, logger infra.Logger) (*TelegramNotifier, error) {
	if token == "" {
		return nil, errors.New("notify: telegram bot token is required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("bot", bot.Self.UserName).Msg("notify: telegram bot authorized")
	return &TelegramNotifier{bot: bot, logger: logger}, nil
}

// Deliver sends the finished video to the chat by URL; Telegram fetches the
// file itself.
func (n *TelegramNotifier) Deliver(ctx context.Context, chatID int64, resultLocation, locale string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewVideo(chatID, tgbotapi.FileURL(resultLocation))
	msg.Caption = SuccessText(locale)
	_, err := n.bot.Send(msg)
	return err
}

// DeliverFailure sends a generic localized failure notice.
func (n *TelegramNotifier) DeliverFailure(ctx context.Context, chatID int64, reason Reason, locale string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, FailureText(locale, reason))
	_, err := n.bot.Send(msg)
	return err
}

var _ Notifier = (*TelegramNotifier)(nil)
