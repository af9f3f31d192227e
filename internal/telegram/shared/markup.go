package shared

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/codex-k8s/telegram-jotting-pal/internal/markdown"
	"github.com/codex-k8s/telegram-jotting-pal/internal/metrics"
)

// Fallback reasons reported to metrics.
const (
	fallbackEscape   = "escape"
	fallbackRejected = "rejected"
)

// ErrEmptyText is returned when there is nothing to send.
var ErrEmptyText = errors.New("empty message text")

// Sender delivers free-form text as MarkdownV2. Text that cannot be
// converted, or that Telegram refuses, is resent without formatting.
type Sender struct {
	bot      Bot
	maxRunes int
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// NewSender creates a sender splitting texts longer than maxRunes.
func NewSender(bot Bot, maxRunes int, m *metrics.Metrics, log *slog.Logger) *Sender {
	return &Sender{bot: bot, maxRunes: maxRunes, metrics: m, log: log}
}

// Send posts text to chatID, as a reply to replyTo when it is positive.
// Long texts become a chain of replies; markup is attached to the last one.
// The sent messages are returned in order.
func (s *Sender) Send(ctx context.Context, chatID int64, replyTo int, text string, markup telego.ReplyMarkup) ([]*telego.Message, error) {
	chunks := Split(text, s.maxRunes)
	if len(chunks) == 0 {
		return nil, ErrEmptyText
	}
	return s.sendChunks(ctx, chatID, replyTo, chunks, markup)
}

// Edit replaces the text of messageID. Text beyond the first chunk is sent as
// replies to the edited message. The edited message comes first in the
// result.
func (s *Sender) Edit(ctx context.Context, chatID int64, messageID int, text string, keyboard *telego.InlineKeyboardMarkup) ([]*telego.Message, error) {
	chunks := Split(text, s.maxRunes)
	if len(chunks) == 0 {
		return nil, ErrEmptyText
	}
	params := &telego.EditMessageTextParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
	}
	if len(chunks) == 1 && keyboard != nil {
		params.ReplyMarkup = keyboard
	}
	edited, err := s.edit(ctx, params, chunks[0])
	if err != nil {
		return nil, err
	}
	out := []*telego.Message{edited}
	if len(chunks) == 1 {
		return out, nil
	}
	var markup telego.ReplyMarkup
	if keyboard != nil {
		markup = keyboard
	}
	rest, err := s.sendChunks(ctx, chatID, messageID, chunks[1:], markup)
	return append(out, rest...), err
}

func (s *Sender) sendChunks(ctx context.Context, chatID int64, replyTo int, chunks []string, markup telego.ReplyMarkup) ([]*telego.Message, error) {
	sent := make([]*telego.Message, 0, len(chunks))
	for idx, chunk := range chunks {
		params := &telego.SendMessageParams{ChatID: tu.ID(chatID)}
		if replyTo > 0 {
			params.ReplyParameters = (&telego.ReplyParameters{MessageID: replyTo}).WithAllowSendingWithoutReply()
		}
		if idx == len(chunks)-1 && markup != nil {
			params.ReplyMarkup = markup
		}
		msg, err := s.send(ctx, params, chunk)
		if err != nil {
			return sent, err
		}
		sent = append(sent, msg)
		replyTo = msg.MessageID
	}
	return sent, nil
}

func (s *Sender) send(ctx context.Context, params *telego.SendMessageParams, text string) (*telego.Message, error) {
	escaped, err := markdown.Escape(text)
	s.metrics.ObserveEscape(err)
	if err == nil {
		params.Text = escaped
		params.ParseMode = telego.ModeMarkdownV2
		msg, sendErr := s.bot.SendMessage(ctx, params)
		if sendErr == nil {
			return msg, nil
		}
		s.log.Warn("Telegram rejected MarkdownV2 message, sending plain text", "error", sendErr)
		s.metrics.PlainFallback(fallbackRejected)
	} else {
		s.log.Debug("Markdown conversion failed, sending plain text", "error", err)
		s.metrics.PlainFallback(fallbackEscape)
	}
	params.Text = text
	params.ParseMode = ""
	return s.bot.SendMessage(ctx, params)
}

func (s *Sender) edit(ctx context.Context, params *telego.EditMessageTextParams, text string) (*telego.Message, error) {
	escaped, err := markdown.Escape(text)
	s.metrics.ObserveEscape(err)
	if err == nil {
		params.Text = escaped
		params.ParseMode = telego.ModeMarkdownV2
		msg, editErr := s.bot.EditMessageText(ctx, params)
		if editErr == nil {
			return msg, nil
		}
		s.log.Warn("Telegram rejected MarkdownV2 edit, editing with plain text", "error", editErr)
		s.metrics.PlainFallback(fallbackRejected)
	} else {
		s.log.Debug("Markdown conversion failed, editing with plain text", "error", err)
		s.metrics.PlainFallback(fallbackEscape)
	}
	params.Text = text
	params.ParseMode = ""
	return s.bot.EditMessageText(ctx, params)
}
