package telegram

import (
	"fmt"
	"log/slog"
	"strings"
)

// telegoLogger adapts slog to telego.Logger. Request logs carry the bot
// token in the URL path, so it is masked.
type telegoLogger struct {
	log   *slog.Logger
	token string
}

func (l telegoLogger) Debugf(format string, args ...any) {
	l.log.Debug("Telegram API", "detail", l.format(format, args...))
}

func (l telegoLogger) Errorf(format string, args ...any) {
	l.log.Error("Telegram API error", "detail", l.format(format, args...))
}

func (l telegoLogger) format(format string, args ...any) string {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	if l.token != "" {
		msg = strings.ReplaceAll(msg, l.token, "BOT_TOKEN")
	}
	return strings.TrimSpace(msg)
}
