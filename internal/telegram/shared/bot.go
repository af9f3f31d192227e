package shared

import (
	"context"

	"github.com/mymmrac/telego"
)

// Bot is the part of the Telegram Bot API the service uses. *telego.Bot
// implements it.
type Bot interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
	EditMessageText(ctx context.Context, params *telego.EditMessageTextParams) (*telego.Message, error)
	SendChatAction(ctx context.Context, params *telego.SendChatActionParams) error
	AnswerCallbackQuery(ctx context.Context, params *telego.AnswerCallbackQueryParams) error
	SetMyCommands(ctx context.Context, params *telego.SetMyCommandsParams) error
	GetFile(ctx context.Context, params *telego.GetFileParams) (*telego.File, error)
	FileDownloadURL(filepath string) string
}

var _ Bot = (*telego.Bot)(nil)
