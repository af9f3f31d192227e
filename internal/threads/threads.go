// Package threads tracks which system prompt a reply thread runs with and
// the conversation so far.
package threads

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"github.com/codex-k8s/telegram-jotting-pal/internal/prompts"
	"github.com/codex-k8s/telegram-jotting-pal/internal/store"
)

// Role is the author of a conversation turn.
type Role string

const (
	// RoleUser marks a question.
	RoleUser Role = "user"
	// RoleAssistant marks a model answer.
	RoleAssistant Role = "assistant"
)

// Turn is a single conversation entry.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Context is shared by every message of a reply thread.
type Context struct {
	// ID is the pointer of the message that started the thread.
	ID string `json:"id"`
	// Prompt selects the system prompt.
	Prompt prompts.ID `json:"prompt"`
}

// Ref points at a Telegram message.
type Ref struct {
	ChatID    int64
	MessageID int
}

// Key returns the storage key of the message.
func (r Ref) Key() string {
	return fmt.Sprintf("ptr--%d-%d", r.ChatID, r.MessageID)
}

// Threads stores thread contexts, conversation history and chat settings.
type Threads struct {
	contexts store.Store[Context]
	history  store.Store[[]Turn]
	settings store.Store[string]

	historyLimit int
	defaultModel string

	mu sync.Mutex
}

// New creates thread storage on top of db.
func New(db *badger.DB, cacheSize, historyLimit int, defaultModel string) (*Threads, error) {
	contexts, err := store.NewCached(store.NewJSON[Context](db, "thread/"), cacheSize)
	if err != nil {
		return nil, err
	}
	settings := store.New(db, "settings/", func(v string) ([]byte, error) {
		return []byte(v), nil
	}, func(raw []byte) (string, error) {
		return string(raw), nil
	})
	return &Threads{
		contexts:     contexts,
		history:      store.NewJSON[[]Turn](db, "history/"),
		settings:     settings,
		historyLimit: historyLimit,
		defaultModel: defaultModel,
	}, nil
}

// Lookup returns the context bound to root, or a fresh default context
// owned by root.
func (t *Threads) Lookup(root Ref) (Context, error) {
	ctx, err := t.contexts.Get(root.Key())
	if errors.Is(err, store.ErrNotFound) {
		return Context{ID: root.Key(), Prompt: prompts.Default}, nil
	}
	if err != nil {
		return Context{}, fmt.Errorf("lookup thread %s: %w", root.Key(), err)
	}
	return ctx, nil
}

// Bind stores ctx for every message of chain.
func (t *Threads) Bind(chain []Ref, ctx Context) error {
	for _, ref := range chain {
		if err := t.contexts.Set(ref.Key(), ctx); err != nil {
			return fmt.Errorf("bind thread %s: %w", ref.Key(), err)
		}
	}
	return nil
}

// Start creates a thread owned by the first message of chain and binds it
// to the whole chain.
func (t *Threads) Start(chain []Ref, prompt prompts.ID) (Context, error) {
	if len(chain) == 0 {
		return Context{}, errors.New("empty message chain")
	}
	ctx := Context{ID: chain[0].Key(), Prompt: prompt}
	return ctx, t.Bind(chain, ctx)
}

// History returns the stored turns of a thread, oldest first.
func (t *Threads) History(ctx Context) ([]Turn, error) {
	turns, err := t.history.Get(historyKey(ctx))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return turns, err
}

// Append adds turns to the thread history, keeping the newest entries.
func (t *Threads) Append(ctx Context, turns ...Turn) error {
	if t.historyLimit == 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	current, err := t.History(ctx)
	if err != nil {
		return err
	}
	current = append(current, turns...)
	if len(current) > t.historyLimit {
		current = current[len(current)-t.historyLimit:]
	}
	return t.history.Set(historyKey(ctx), current)
}

// Model returns the language model chosen for a chat.
func (t *Threads) Model(chatID int64) (string, error) {
	model, err := t.settings.Get(modelKey(chatID))
	if errors.Is(err, store.ErrNotFound) {
		return t.defaultModel, nil
	}
	return model, err
}

// SetModel stores the language model for a chat.
func (t *Threads) SetModel(chatID int64, model string) error {
	return t.settings.Set(modelKey(chatID), model)
}

func historyKey(ctx Context) string {
	return "ctx--" + ctx.ID
}

func modelKey(chatID int64) string {
	return "language.model." + strconv.FormatInt(chatID, 10)
}
