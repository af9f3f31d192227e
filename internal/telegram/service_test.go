package telegram

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/telegram-jotting-pal/internal/config"
	"github.com/codex-k8s/telegram-jotting-pal/internal/i18n"
	"github.com/codex-k8s/telegram-jotting-pal/internal/metrics"
	"github.com/codex-k8s/telegram-jotting-pal/internal/prompts"
	"github.com/codex-k8s/telegram-jotting-pal/internal/store"
	"github.com/codex-k8s/telegram-jotting-pal/internal/telegram/shared/sharedtest"
	"github.com/codex-k8s/telegram-jotting-pal/internal/threads"
)

type fakeSource struct {
	updates  chan telego.Update
	started  bool
	stopped  bool
	stopErr  error
	startErr error
}

func (f *fakeSource) Start(context.Context) error {
	f.started = true
	return f.startErr
}

func (f *fakeSource) Stop(context.Context) error {
	f.stopped = true
	return f.stopErr
}

func (f *fakeSource) Updates() <-chan telego.Update {
	return f.updates
}

func (f *fakeSource) Handler() http.Handler {
	return nil
}

type echoCompleter struct {
	mu    sync.Mutex
	calls int
}

func (e *echoCompleter) Complete(_ context.Context, _, _ string, _ []threads.Turn, question string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return "echo: " + question, nil
}

func newTestService(t *testing.T, source *fakeSource) (*Service, *sharedtest.FakeBot, *echoCompleter) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := store.Open("", log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	th, err := threads.New(db, 16, 20, "gpt4")
	require.NoError(t, err)
	catalog, err := prompts.Load()
	require.NoError(t, err)
	bundle, err := i18n.Load("en")
	require.NoError(t, err)

	bot := sharedtest.New(100)
	completer := &echoCompleter{}
	svc := newService(bot, source, config.Config{MaxMessageRunes: 4000}, Deps{
		Bundle:    bundle,
		Threads:   th,
		Prompts:   catalog,
		Completer: completer,
		Metrics:   metrics.New(),
	}, log)
	return svc, bot, completer
}

func TestServiceLifecycle(t *testing.T) {
	source := &fakeSource{updates: make(chan telego.Update, 1)}
	svc, bot, completer := newTestService(t, source)
	ctx := context.Background()

	require.NoError(t, svc.Start(ctx))
	assert.True(t, source.started)
	assert.Len(t, bot.Commands, 4)

	source.updates <- telego.Update{Message: &telego.Message{MessageID: 1, Chat: telego.Chat{ID: 5}, Text: "/ask hi"}}
	close(source.updates)
	require.Eventually(t, func() bool {
		completer.mu.Lock()
		defer completer.mu.Unlock()
		return completer.calls == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, svc.Stop(ctx))
	assert.True(t, source.stopped)
	edit, ok := bot.LastEdit()
	require.True(t, ok)
	assert.Equal(t, "echo: hi", edit.Text)
}

func TestServiceStopCollectsErrors(t *testing.T) {
	source := &fakeSource{updates: make(chan telego.Update), stopErr: errors.New("delete webhook failed")}
	svc, _, _ := newTestService(t, source)
	ctx := context.Background()
	require.NoError(t, svc.Start(ctx))

	err := svc.Stop(ctx)
	assert.ErrorContains(t, err, "delete webhook failed")
}

func TestServiceStartError(t *testing.T) {
	source := &fakeSource{startErr: errors.New("unauthorized")}
	svc, _, _ := newTestService(t, source)

	assert.Error(t, svc.Start(context.Background()))
}

func TestTelegoLoggerMasksToken(t *testing.T) {
	var buf bytes.Buffer
	l := telegoLogger{log: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), token: "123:abc"}

	assert.Equal(t, "GET /botBOT_TOKEN/getMe", l.format("GET /bot%s/getMe\n", "123:abc"))
	assert.Equal(t, "plain", l.format(" plain "))

	l.Errorf("call /bot%s/sendMessage failed", "123:abc")
	assert.NotContains(t, buf.String(), "123:abc")
	assert.Contains(t, buf.String(), "BOT_TOKEN")
}
