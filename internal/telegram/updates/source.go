// Package updates delivers Telegram updates to the bot handler.
package updates

import (
	"context"
	"net/http"

	"github.com/mymmrac/telego"
)

// Source provides Telegram updates.
type Source interface {
	// Start begins receiving updates.
	Start(ctx context.Context) error
	// Stop stops receiving updates.
	Stop(ctx context.Context) error
	// Updates returns the updates channel. It is valid after Start.
	Updates() <-chan telego.Update
	// Handler returns the webhook HTTP handler, nil for long polling.
	Handler() http.Handler
}

// allowedUpdates are the update kinds the bot handles.
var allowedUpdates = []string{
	telego.MessageUpdates,
	telego.CallbackQueryUpdates,
}
