package threads

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/telegram-jotting-pal/internal/prompts"
	"github.com/codex-k8s/telegram-jotting-pal/internal/store"
)

func newTestThreads(t *testing.T, limit int) *Threads {
	t.Helper()
	db, err := store.Open("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	th, err := New(db, 16, limit, "gpt4")
	require.NoError(t, err)
	return th
}

func TestRefKey(t *testing.T) {
	assert.Equal(t, "ptr--42-7", Ref{ChatID: 42, MessageID: 7}.Key())
	assert.Equal(t, "ptr---1001-1", Ref{ChatID: -1001, MessageID: 1}.Key())
}

func TestLookupDefault(t *testing.T) {
	th := newTestThreads(t, 10)
	root := Ref{ChatID: 1, MessageID: 10}

	ctx, err := th.Lookup(root)
	require.NoError(t, err)
	assert.Equal(t, Context{ID: root.Key(), Prompt: prompts.Default}, ctx)
}

func TestStartAndBind(t *testing.T) {
	th := newTestThreads(t, 10)
	menu := Ref{ChatID: 1, MessageID: 5}
	prompt := Ref{ChatID: 1, MessageID: 6}

	ctx, err := th.Start([]Ref{prompt, menu}, prompts.NihongoTranslate)
	require.NoError(t, err)
	assert.Equal(t, prompt.Key(), ctx.ID)

	for _, ref := range []Ref{prompt, menu} {
		got, err := th.Lookup(ref)
		require.NoError(t, err)
		assert.Equal(t, ctx, got)
	}

	reply := Ref{ChatID: 1, MessageID: 9}
	require.NoError(t, th.Bind([]Ref{reply}, ctx))
	got, err := th.Lookup(reply)
	require.NoError(t, err)
	assert.Equal(t, prompts.NihongoTranslate, got.Prompt)

	_, err = th.Start(nil, prompts.Default)
	assert.Error(t, err)
}

func TestHistory(t *testing.T) {
	th := newTestThreads(t, 3)
	ctx := Context{ID: "ptr--1-1", Prompt: prompts.Default}

	turns, err := th.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, turns)

	require.NoError(t, th.Append(ctx, Turn{Role: RoleUser, Content: "q1"}, Turn{Role: RoleAssistant, Content: "a1"}))
	require.NoError(t, th.Append(ctx, Turn{Role: RoleUser, Content: "q2"}, Turn{Role: RoleAssistant, Content: "a2"}))

	turns, err = th.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Turn{
		{Role: RoleAssistant, Content: "a1"},
		{Role: RoleUser, Content: "q2"},
		{Role: RoleAssistant, Content: "a2"},
	}, turns)
}

func TestHistoryDisabled(t *testing.T) {
	th := newTestThreads(t, 0)
	ctx := Context{ID: "ptr--1-1"}
	require.NoError(t, th.Append(ctx, Turn{Role: RoleUser, Content: "q"}))
	turns, err := th.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestModel(t *testing.T) {
	th := newTestThreads(t, 10)

	model, err := th.Model(1)
	require.NoError(t, err)
	assert.Equal(t, "gpt4", model)

	require.NoError(t, th.SetModel(1, "gpt3.5-turbo"))
	model, err = th.Model(1)
	require.NoError(t, err)
	assert.Equal(t, "gpt3.5-turbo", model)

	model, err = th.Model(2)
	require.NoError(t, err)
	assert.Equal(t, "gpt4", model)
}
