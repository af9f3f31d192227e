package store

import (
	"fmt"
	"log/slog"
	"strings"
)

// badgerLogger adapts slog logger to badger.Logger.
type badgerLogger struct {
	log *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.Error("badger", "message", formatMessage(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn("badger", "message", formatMessage(format, args...))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.Debug("badger", "message", formatMessage(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.Debug("badger", "message", formatMessage(format, args...))
}

func formatMessage(format string, args ...any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
