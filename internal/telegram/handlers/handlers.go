package handlers

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/codex-k8s/telegram-jotting-pal/internal/i18n"
	"github.com/codex-k8s/telegram-jotting-pal/internal/metrics"
	"github.com/codex-k8s/telegram-jotting-pal/internal/prompts"
	"github.com/codex-k8s/telegram-jotting-pal/internal/telegram/shared"
	"github.com/codex-k8s/telegram-jotting-pal/internal/threads"
)

// Completer answers questions with a language model.
type Completer interface {
	Complete(ctx context.Context, model, system string, history []threads.Turn, question string) (string, error)
}

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, reader io.Reader, filename, contentType, language string) (string, error)
}

// Deps groups the collaborators of a Handler.
type Deps struct {
	Bot         shared.Bot
	Sender      *shared.Sender
	Threads     *threads.Threads
	Prompts     *prompts.Catalog
	Completer   Completer
	Transcriber Transcriber
	Messages    i18n.Messages
	Lang        string
	ChatAllowed func(chatID int64) bool
	Metrics     *metrics.Metrics
	Log         *slog.Logger
}

// Handler processes Telegram updates.
type Handler struct {
	bot         shared.Bot
	sender      *shared.Sender
	threads     *threads.Threads
	prompts     *prompts.Catalog
	completer   Completer
	transcriber Transcriber
	msg         i18n.Messages
	lang        string
	chatAllowed func(chatID int64) bool
	download    func(url string) ([]byte, error)
	metrics     *metrics.Metrics
	log         *slog.Logger

	wg sync.WaitGroup
}

// NewHandler creates a new update handler.
func NewHandler(deps Deps) *Handler {
	allowed := deps.ChatAllowed
	if allowed == nil {
		allowed = func(int64) bool { return true }
	}
	return &Handler{
		bot:         deps.Bot,
		sender:      deps.Sender,
		threads:     deps.Threads,
		prompts:     deps.Prompts,
		completer:   deps.Completer,
		transcriber: deps.Transcriber,
		msg:         deps.Messages,
		lang:        deps.Lang,
		chatAllowed: allowed,
		download:    tu.DownloadFile,
		metrics:     deps.Metrics,
		log:         deps.Log,
	}
}

// Run processes updates until context cancellation or until updates is
// closed. Each update is handled in its own goroutine; updates already taken
// are finished even after ctx is done, see Wait.
func (h *Handler) Run(ctx context.Context, updates <-chan telego.Update) {
	handleCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.wg.Add(1)
			go func() {
				defer h.wg.Done()
				h.HandleUpdate(handleCtx, update)
			}()
		}
	}
}

// Wait blocks until in-flight updates are done.
func (h *Handler) Wait() {
	h.wg.Wait()
}

// HandleUpdate processes a single update.
func (h *Handler) HandleUpdate(ctx context.Context, update telego.Update) {
	log := h.log.With("trace_id", uuid.NewString(), "update_id", update.UpdateID)
	switch {
	case update.CallbackQuery != nil:
		h.metrics.Update("callback")
		h.handleCallback(ctx, log, update.CallbackQuery)
	case update.Message != nil:
		h.metrics.Update("message")
		h.handleMessage(ctx, log, update.Message)
	default:
		h.metrics.Update("other")
	}
}

func (h *Handler) handleMessage(ctx context.Context, log *slog.Logger, message *telego.Message) {
	if !h.chatAllowed(message.Chat.ID) {
		log.Debug("Message from foreign chat ignored", "chat_id", message.Chat.ID)
		return
	}
	text := strings.TrimSpace(message.Text)

	if message.ReplyToMessage != nil {
		if message.Voice != nil {
			h.askVoice(ctx, log, message)
			return
		}
		if text != "" {
			question := text
			if cmd, args, ok := parseCommand(text); ok && cmd == CommandAsk {
				question = args
			}
			if question != "" {
				h.ask(ctx, log, message, question)
				return
			}
		}
	}

	cmd, args, _ := parseCommand(text)
	switch cmd {
	case CommandAsk:
		if args == "" {
			h.promptQuestion(ctx, log, message)
			return
		}
		h.ask(ctx, log, message, args)
	case CommandNihongo:
		h.showNihongoMenu(ctx, log, message, false)
	case CommandSettings:
		h.showSettings(ctx, log, message)
	default:
		h.showHelp(ctx, log, message.Chat.ID)
	}
}

// ask answers question within the thread message belongs to.
func (h *Handler) ask(ctx context.Context, log *slog.Logger, message *telego.Message, question string) {
	chatID := message.Chat.ID
	log = log.With("chat_id", chatID, "message_id", message.MessageID)
	log.Info("Handling question")

	sent, err := h.sender.Send(ctx, chatID, message.MessageID, h.msg.Typing, nil)
	if err != nil {
		log.Error("Failed to send placeholder", "error", err)
		return
	}
	placeholder := sent[len(sent)-1]
	if err := h.bot.SendChatAction(ctx, &telego.SendChatActionParams{
		ChatID: tu.ID(chatID),
		Action: telego.ChatActionTyping,
	}); err != nil {
		log.Debug("Failed to send typing action", "error", err)
	}

	thread, err := h.threads.Lookup(refOf(rootOf(message)))
	if err != nil {
		log.Error("Failed to load thread", "error", err)
		h.fail(ctx, log, chatID, placeholder.MessageID)
		return
	}
	chain := append([]threads.Ref{refOf(placeholder)}, chainOf(message)...)
	if err := h.threads.Bind(chain, thread); err != nil {
		log.Error("Failed to bind thread", "error", err)
	}

	model, err := h.threads.Model(chatID)
	if err != nil {
		log.Error("Failed to load model setting", "error", err)
		h.fail(ctx, log, chatID, placeholder.MessageID)
		return
	}
	history, err := h.threads.History(thread)
	if err != nil {
		log.Error("Failed to load history", "error", err)
		h.fail(ctx, log, chatID, placeholder.MessageID)
		return
	}
	log.Info("Asking language model", "thread", thread.ID, "prompt", thread.Prompt, "model", model, "history", len(history))

	answer, err := h.completer.Complete(ctx, model, h.prompts.System(thread.Prompt), history, question)
	if err != nil || strings.TrimSpace(answer) == "" {
		log.Error("Chat completion failed", "error", err)
		h.fail(ctx, log, chatID, placeholder.MessageID)
		return
	}
	if err := h.threads.Append(thread,
		threads.Turn{Role: threads.RoleUser, Content: question},
		threads.Turn{Role: threads.RoleAssistant, Content: answer},
	); err != nil {
		log.Error("Failed to store history", "error", err)
	}

	edited, err := h.sender.Edit(ctx, chatID, placeholder.MessageID, answer, nil)
	if err != nil {
		log.Error("Failed to deliver answer", "error", err)
	}
	if len(edited) > 1 {
		refs := make([]threads.Ref, 0, len(edited)-1)
		for _, m := range edited[1:] {
			refs = append(refs, refOf(m))
		}
		if err := h.threads.Bind(refs, thread); err != nil {
			log.Error("Failed to bind answer chunks", "error", err)
		}
	}
}

func (h *Handler) fail(ctx context.Context, log *slog.Logger, chatID int64, messageID int) {
	if _, err := h.sender.Edit(ctx, chatID, messageID, h.msg.AskFailed, nil); err != nil {
		log.Error("Failed to report error", "error", err)
	}
}

// promptQuestion asks the user to type a question as a reply.
func (h *Handler) promptQuestion(ctx context.Context, log *slog.Logger, message *telego.Message) {
	if _, err := h.sender.Send(ctx, message.Chat.ID, 0, h.msg.AskPrompt, forceReply()); err != nil {
		log.Error("Failed to send question prompt", "error", err)
	}
}

// startThread sends text as a forced reply to message and starts a thread
// with prompt on it.
func (h *Handler) startThread(ctx context.Context, log *slog.Logger, message *telego.Message, text string, prompt prompts.ID) {
	sent, err := h.sender.Send(ctx, message.Chat.ID, message.MessageID, text, forceReply())
	if err != nil {
		log.Error("Failed to send thread prompt", "error", err)
		return
	}
	chain := append([]threads.Ref{refOf(sent[len(sent)-1])}, chainOf(message)...)
	thread, err := h.threads.Start(chain, prompt)
	if err != nil {
		log.Error("Failed to start thread", "error", err)
		return
	}
	log.Info("Thread started", "thread", thread.ID, "prompt", prompt)
}

func forceReply() *telego.ForceReply {
	return &telego.ForceReply{ForceReply: true}
}

func refOf(message *telego.Message) threads.Ref {
	return threads.Ref{ChatID: message.Chat.ID, MessageID: message.MessageID}
}

// rootOf follows replies to the oldest known message.
func rootOf(message *telego.Message) *telego.Message {
	root := message
	for root.ReplyToMessage != nil {
		root = root.ReplyToMessage
	}
	return root
}

// chainOf lists message and every message it replies to.
func chainOf(message *telego.Message) []threads.Ref {
	var refs []threads.Ref
	for m := message; m != nil; m = m.ReplyToMessage {
		refs = append(refs, refOf(m))
	}
	return refs
}
