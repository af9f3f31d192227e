package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mymmrac/telego"
)

// Bot commands.
const (
	CommandAsk      = "ask"
	CommandNihongo  = "nihongo"
	CommandSettings = "settings"
	CommandHelp     = "help"
)

// parseCommand splits "/cmd@bot args" into its command and arguments.
func parseCommand(text string) (string, string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, args, _ := strings.Cut(text[1:], " ")
	if i := strings.IndexByte(head, '\n'); i >= 0 {
		args = head[i+1:] + " " + args
		head = head[:i]
	}
	head, _, _ = strings.Cut(head, "@")
	if head == "" {
		return "", "", false
	}
	return strings.ToLower(head), strings.TrimSpace(args), true
}

// Commands returns the command list registered with Telegram.
func (h *Handler) Commands() []telego.BotCommand {
	return []telego.BotCommand{
		{Command: CommandAsk, Description: h.msg.CommandAsk},
		{Command: CommandNihongo, Description: h.msg.CommandNihongo},
		{Command: CommandSettings, Description: h.msg.CommandSettings},
		{Command: CommandHelp, Description: h.msg.CommandHelp},
	}
}

func (h *Handler) helpText() string {
	var b strings.Builder
	b.WriteString(h.msg.Greeting)
	b.WriteString("\n\n")
	b.WriteString(h.msg.AvailableCommands)
	for _, cmd := range h.Commands() {
		fmt.Fprintf(&b, "\n/%s - %s", cmd.Command, cmd.Description)
	}
	return b.String()
}

func (h *Handler) showHelp(ctx context.Context, log *slog.Logger, chatID int64) {
	if _, err := h.sender.Send(ctx, chatID, 0, h.helpText(), nil); err != nil {
		log.Error("Failed to send help", "error", err)
	}
}
