package notifier

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"dealvoy/internal/domain/entity"
)

// TelegramBot pushes found arbitrage opportunities to an ops chat. Purely
// informational; webhook delivery does not depend on it.
type TelegramBot struct {
	bot    *telego.Bot
	chatID int64
}

func NewTelegramBot(token string, chatID int64) (*TelegramBot, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	return &TelegramBot{
		bot:    bot,
		chatID: chatID,
	}, nil
}

// Run consumes opportunities from the channel until it closes or the
// context ends.
func (b *TelegramBot) Run(ctx context.Context, opportunities <-chan entity.ExportItem) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item, ok := <-opportunities:
			if !ok {
				return nil
			}
			if err := b.SendOpportunity(ctx, item); err != nil {
				logger(ctx).Error("failed to send opportunity", "error", err)
			}
		}
	}
}

func (b *TelegramBot) SendOpportunity(ctx context.Context, item entity.ExportItem) error {
	text := fmt.Sprintf(
		"<b>Arbitrage hit</b>\n\n"+
			"UPC: <code>%s</code>\n"+
			"Source: %s\n"+
			"Price: %.2f\n"+
			"ROI: %.1f%%",
		item.UPC,
		item.Source,
		item.Price,
		item.ROI*100,
	)

	msg := tu.Message(
		tu.ID(b.chatID),
		text,
	).WithParseMode(telego.ModeHTML)

	if _, err := b.bot.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

// SendText sends a plain text message.
func (b *TelegramBot) SendText(ctx context.Context, text string) error {
	msg := tu.Message(tu.ID(b.chatID), text)

	_, err := b.bot.SendMessage(ctx, msg)
	return err
}
