// Package sharedtest provides an in-memory Telegram bot for tests.
package sharedtest

import (
	"context"
	"errors"
	"sync"

	"github.com/mymmrac/telego"
)

// ErrRejected mimics the Bot API refusing MarkdownV2 text.
var ErrRejected = errors.New("telego: sendMessage: api: 400 \"Bad Request: can't parse entities\"")

// FakeBot records calls and answers with synthetic messages.
type FakeBot struct {
	mu     sync.Mutex
	nextID int

	// RejectMarkdown makes every MarkdownV2 request fail.
	RejectMarkdown bool
	// Files are returned by GetFile by file id.
	Files map[string]*telego.File

	Sent     []telego.SendMessageParams
	Edited   []telego.EditMessageTextParams
	Actions  []telego.SendChatActionParams
	Answers  []telego.AnswerCallbackQueryParams
	Commands []telego.BotCommand
	Rejected int
}

// New creates a fake whose message ids start after firstID.
func New(firstID int) *FakeBot {
	return &FakeBot{nextID: firstID, Files: map[string]*telego.File{}}
}

func (b *FakeBot) SendMessage(_ context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.RejectMarkdown && params.ParseMode == telego.ModeMarkdownV2 {
		b.Rejected++
		return nil, ErrRejected
	}
	b.Sent = append(b.Sent, *params)
	b.nextID++
	msg := &telego.Message{
		MessageID: b.nextID,
		Chat:      telego.Chat{ID: params.ChatID.ID},
		Text:      params.Text,
	}
	if params.ReplyParameters != nil {
		msg.ReplyToMessage = &telego.Message{
			MessageID: params.ReplyParameters.MessageID,
			Chat:      telego.Chat{ID: params.ChatID.ID},
		}
	}
	return msg, nil
}

func (b *FakeBot) EditMessageText(_ context.Context, params *telego.EditMessageTextParams) (*telego.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.RejectMarkdown && params.ParseMode == telego.ModeMarkdownV2 {
		b.Rejected++
		return nil, ErrRejected
	}
	b.Edited = append(b.Edited, *params)
	return &telego.Message{
		MessageID: params.MessageID,
		Chat:      telego.Chat{ID: params.ChatID.ID},
		Text:      params.Text,
	}, nil
}

func (b *FakeBot) SendChatAction(_ context.Context, params *telego.SendChatActionParams) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Actions = append(b.Actions, *params)
	return nil
}

func (b *FakeBot) AnswerCallbackQuery(_ context.Context, params *telego.AnswerCallbackQueryParams) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Answers = append(b.Answers, *params)
	return nil
}

func (b *FakeBot) SetMyCommands(_ context.Context, params *telego.SetMyCommandsParams) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Commands = append([]telego.BotCommand(nil), params.Commands...)
	return nil
}

func (b *FakeBot) GetFile(_ context.Context, params *telego.GetFileParams) (*telego.File, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	file, ok := b.Files[params.FileID]
	if !ok {
		return nil, errors.New("file not found")
	}
	return file, nil
}

func (b *FakeBot) FileDownloadURL(filepath string) string {
	return "https://files.example/" + filepath
}

// SentTexts returns the text of every sent message.
func (b *FakeBot) SentTexts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.Sent))
	for _, p := range b.Sent {
		out = append(out, p.Text)
	}
	return out
}

// LastEdit returns the most recent edit.
func (b *FakeBot) LastEdit() (telego.EditMessageTextParams, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Edited) == 0 {
		return telego.EditMessageTextParams{}, false
	}
	return b.Edited[len(b.Edited)-1], true
}
