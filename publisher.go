package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// RateLimitedError is returned by a Publisher when the destination asks to
// slow down; Wait is the service-suggested pause before retrying.
type RateLimitedError struct {
	Wait time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited by destination, retry after %s", e.Wait)
}

// Publisher delivers one formatted record to the destination. withActions
// attaches the reviewer confirm buttons. The returned ID identifies the
// published message for later feedback callbacks.
type Publisher interface {
	Publish(ctx context.Context, destination, text string, withActions bool) (int, error)
}

// TelegramPublisher publishes through the bot API, translating Telegram's
// flood-wait responses into RateLimitedError so the forwarder can honor the
// suggested wait.
type TelegramPublisher struct {
	bot *bot.Bot
}

func NewTelegramPublisher(b *bot.Bot) *TelegramPublisher {
	return &TelegramPublisher{bot: b}
}

func (p *TelegramPublisher) Publish(ctx context.Context, destination, text string, withActions bool) (int, error) {
	params := &bot.SendMessageParams{
		ChatID: destination,
		Text:   text,
	}
	if withActions {
		params.ReplyMarkup = reviewKeyboard()
	}

	msg, err := p.bot.SendMessage(ctx, params)
	if err != nil {
		var tooMany *bot.TooManyRequestsError
		if errors.As(err, &tooMany) {
			return 0, &RateLimitedError{Wait: time.Duration(tooMany.RetryAfter) * time.Second}
		}
		return 0, err
	}
	return msg.ID, nil
}

// reviewKeyboard is the pre-confirmation reviewer affordance: one button per
// confirm action.
func reviewKeyboard() models.InlineKeyboardMarkup {
	return models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{Text: "✅ Target", CallbackData: callbackTarget},
			{Text: "🚫 Spam", CallbackData: callbackSpam},
		}},
	}
}

func undoKeyboard(kind ListKind) models.InlineKeyboardMarkup {
	data := callbackUndoTarget
	if kind == ListKindMinusWords {
		data = callbackUndoSpam
	}
	return models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{Text: "↩️ Undo", CallbackData: data},
		}},
	}
}

const (
	callbackTarget     = "target"
	callbackSpam       = "spam"
	callbackUndoTarget = "undo_target"
	callbackUndoSpam   = "undo_spam"
)
