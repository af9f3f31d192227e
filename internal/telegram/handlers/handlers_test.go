package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-k8s/telegram-jotting-pal/internal/i18n"
	"github.com/codex-k8s/telegram-jotting-pal/internal/markdown"
	"github.com/codex-k8s/telegram-jotting-pal/internal/metrics"
	"github.com/codex-k8s/telegram-jotting-pal/internal/prompts"
	"github.com/codex-k8s/telegram-jotting-pal/internal/store"
	"github.com/codex-k8s/telegram-jotting-pal/internal/telegram/shared"
	"github.com/codex-k8s/telegram-jotting-pal/internal/telegram/shared/sharedtest"
	"github.com/codex-k8s/telegram-jotting-pal/internal/threads"
)

const chatID = 5

type completion struct {
	model    string
	system   string
	history  []threads.Turn
	question string
}

type fakeCompleter struct {
	mu     sync.Mutex
	calls  []completion
	answer string
	err    error
}

func (f *fakeCompleter) Complete(_ context.Context, model, system string, history []threads.Turn, question string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, completion{model: model, system: system, history: history, question: question})
	return f.answer, f.err
}

type fakeTranscriber struct {
	text string
	got  string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, reader io.Reader, filename, _, _ string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.got = filename + ":" + string(data)
	return f.text, nil
}

type fixture struct {
	handler   *Handler
	bot       *sharedtest.FakeBot
	threads   *threads.Threads
	prompts   *prompts.Catalog
	completer *fakeCompleter
	msg       i18n.Messages
}

func newFixture(t *testing.T) *fixture {
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
	m := metrics.New()
	completer := &fakeCompleter{answer: "Go is a language"}
	h := NewHandler(Deps{
		Bot:       bot,
		Sender:    shared.NewSender(bot, 4000, m, log),
		Threads:   th,
		Prompts:   catalog,
		Completer: completer,
		Messages:  bundle.Messages,
		Lang:      "en",
		Metrics:   m,
		Log:       log,
	})
	return &fixture{handler: h, bot: bot, threads: th, prompts: catalog, completer: completer, msg: bundle.Messages}
}

func (f *fixture) message(ctx context.Context, msg *telego.Message) {
	f.handler.HandleUpdate(ctx, telego.Update{Message: msg})
}

func (f *fixture) callback(ctx context.Context, data string, msg telego.MaybeInaccessibleMessage) {
	f.handler.HandleUpdate(ctx, telego.Update{CallbackQuery: &telego.CallbackQuery{ID: "cb", Data: data, Message: msg}})
}

func escaped(t *testing.T, text string) string {
	t.Helper()
	out, err := markdown.Escape(text)
	require.NoError(t, err)
	return out
}

func chatMessage(id int, text string) *telego.Message {
	return &telego.Message{MessageID: id, Chat: telego.Chat{ID: chatID}, Text: text}
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		text string
		cmd  string
		args string
		ok   bool
	}{
		{text: "/ask what is go", cmd: "ask", args: "what is go", ok: true},
		{text: "/ask@jotting_pal_bot  hi ", cmd: "ask", args: "hi", ok: true},
		{text: "/ASK", cmd: "ask", ok: true},
		{text: "/ask\nfirst line", cmd: "ask", args: "first line", ok: true},
		{text: "/nihongo", cmd: "nihongo", ok: true},
		{text: "hello", ok: false},
		{text: "/", ok: false},
		{text: "", ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			cmd, args, ok := parseCommand(tc.text)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.cmd, cmd)
			assert.Equal(t, tc.args, args)
		})
	}
}

func TestAskCommand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.message(ctx, chatMessage(10, "/ask What is Go?"))

	require.Len(t, f.bot.Sent, 1)
	placeholder := f.bot.Sent[0]
	assert.Equal(t, escaped(t, f.msg.Typing), placeholder.Text)
	require.NotNil(t, placeholder.ReplyParameters)
	assert.Equal(t, 10, placeholder.ReplyParameters.MessageID)
	require.Len(t, f.bot.Actions, 1)
	assert.Equal(t, telego.ChatActionTyping, f.bot.Actions[0].Action)

	require.Len(t, f.completer.calls, 1)
	call := f.completer.calls[0]
	assert.Equal(t, "gpt4", call.model)
	assert.Equal(t, f.prompts.System(prompts.Default), call.system)
	assert.Equal(t, "What is Go?", call.question)
	assert.Empty(t, call.history)

	edit, ok := f.bot.LastEdit()
	require.True(t, ok)
	assert.Equal(t, 101, edit.MessageID)
	assert.Equal(t, "Go is a language", edit.Text)
	assert.Equal(t, telego.ModeMarkdownV2, edit.ParseMode)

	thread, err := f.threads.Lookup(threads.Ref{ChatID: chatID, MessageID: 101})
	require.NoError(t, err)
	assert.Equal(t, "ptr--5-10", thread.ID)
	history, err := f.threads.History(thread)
	require.NoError(t, err)
	assert.Equal(t, []threads.Turn{
		{Role: threads.RoleUser, Content: "What is Go?"},
		{Role: threads.RoleAssistant, Content: "Go is a language"},
	}, history)
}

func TestReplyContinuesThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.message(ctx, chatMessage(10, "/ask What is Go?"))
	reply := chatMessage(12, "And Rust?")
	reply.ReplyToMessage = chatMessage(101, "Go is a language")
	f.message(ctx, reply)

	require.Len(t, f.completer.calls, 2)
	assert.Equal(t, "And Rust?", f.completer.calls[1].question)
	assert.Len(t, f.completer.calls[1].history, 2)

	thread, err := f.threads.Lookup(threads.Ref{ChatID: chatID, MessageID: 102})
	require.NoError(t, err)
	assert.Equal(t, "ptr--5-10", thread.ID)
}

func TestAskFailure(t *testing.T) {
	f := newFixture(t)
	f.completer.err = errors.New("boom")

	f.message(context.Background(), chatMessage(10, "/ask hi"))

	edit, ok := f.bot.LastEdit()
	require.True(t, ok)
	assert.Equal(t, escaped(t, f.msg.AskFailed), edit.Text)
}

func TestAskWithoutQuestion(t *testing.T) {
	f := newFixture(t)

	f.message(context.Background(), chatMessage(10, "/ask"))

	require.Len(t, f.bot.Sent, 1)
	assert.Equal(t, escaped(t, f.msg.AskPrompt), f.bot.Sent[0].Text)
	assert.IsType(t, &telego.ForceReply{}, f.bot.Sent[0].ReplyMarkup)
	assert.Empty(t, f.completer.calls)
}

func TestHelp(t *testing.T) {
	f := newFixture(t)

	f.message(context.Background(), chatMessage(10, "hello"))

	require.Len(t, f.bot.Sent, 1)
	assert.Equal(t, escaped(t, f.handler.helpText()), f.bot.Sent[0].Text)
	assert.Contains(t, f.handler.helpText(), "/settings - ")
}

func TestForeignChatIgnored(t *testing.T) {
	f := newFixture(t)
	f.handler.chatAllowed = func(id int64) bool { return id != chatID }

	f.message(context.Background(), chatMessage(10, "/ask hi"))

	assert.Empty(t, f.bot.Sent)
	assert.Empty(t, f.completer.calls)
}

func TestNihongoMenu(t *testing.T) {
	f := newFixture(t)

	f.message(context.Background(), chatMessage(10, "/nihongo"))

	require.Len(t, f.bot.Sent, 1)
	keyboard, ok := f.bot.Sent[0].ReplyMarkup.(*telego.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, keyboard.InlineKeyboard, 2)
	assert.Equal(t, ButtonNihongoTranslate, keyboard.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, ButtonNihongoSceneMock, keyboard.InlineKeyboard[1][0].CallbackData)
}

func TestTranslateStartsThread(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.callback(ctx, ButtonNihongoTranslate, chatMessage(50, f.msg.NihongoMenu))

	require.Len(t, f.bot.Sent, 1)
	assert.Equal(t, 50, f.bot.Sent[0].ReplyParameters.MessageID)
	require.Len(t, f.bot.Answers, 1)
	assert.Empty(t, f.bot.Answers[0].Text)

	thread, err := f.threads.Lookup(threads.Ref{ChatID: chatID, MessageID: 101})
	require.NoError(t, err)
	assert.Equal(t, prompts.NihongoTranslate, thread.Prompt)
	assert.Equal(t, "ptr--5-101", thread.ID)

	reply := chatMessage(60, "good morning")
	reply.ReplyToMessage = chatMessage(101, "")
	f.message(ctx, reply)

	require.Len(t, f.completer.calls, 1)
	assert.Equal(t, f.prompts.System(prompts.NihongoTranslate), f.completer.calls[0].system)
}

func TestSceneMenuAndBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	menu := chatMessage(50, f.msg.NihongoMenu)

	f.callback(ctx, ButtonNihongoSceneMock, menu)
	edit, ok := f.bot.LastEdit()
	require.True(t, ok)
	assert.Equal(t, 50, edit.MessageID)
	require.NotNil(t, edit.ReplyMarkup)
	assert.Len(t, edit.ReplyMarkup.InlineKeyboard, 3)

	f.callback(ctx, ButtonNihongoSceneMockGoBack, menu)
	edit, ok = f.bot.LastEdit()
	require.True(t, ok)
	assert.Equal(t, escaped(t, f.msg.NihongoMenu), edit.Text)
	require.NotNil(t, edit.ReplyMarkup)
	assert.Len(t, edit.ReplyMarkup.InlineKeyboard, 2)
	assert.Len(t, f.bot.Answers, 2)
}

func TestSceneStartsThread(t *testing.T) {
	f := newFixture(t)

	f.callback(context.Background(), ButtonNihongoSceneMockClothes, chatMessage(50, f.msg.SceneMenu))

	thread, err := f.threads.Lookup(threads.Ref{ChatID: chatID, MessageID: 50})
	require.NoError(t, err)
	assert.Equal(t, prompts.NihongoSceneMockClothes, thread.Prompt)
}

func TestSettingsSelectModel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.message(ctx, chatMessage(10, "/settings"))
	require.Len(t, f.bot.Sent, 1)
	assert.IsType(t, &telego.InlineKeyboardMarkup{}, f.bot.Sent[0].ReplyMarkup)

	f.callback(ctx, ButtonSettingsLMGPT35Turbo, chatMessage(101, f.msg.SettingsMenu))

	model, err := f.threads.Model(chatID)
	require.NoError(t, err)
	assert.Equal(t, "gpt3.5-turbo", model)
	edit, ok := f.bot.LastEdit()
	require.True(t, ok)
	assert.Equal(t, escaped(t, "Using language model: gpt3.5-turbo"), edit.Text)

	f.message(ctx, chatMessage(20, "/ask hi"))
	require.Len(t, f.completer.calls, 1)
	assert.Equal(t, "gpt3.5-turbo", f.completer.calls[0].model)
}

func TestUnknownCallback(t *testing.T) {
	f := newFixture(t)

	f.callback(context.Background(), "Nope", chatMessage(50, ""))

	require.Len(t, f.bot.Answers, 1)
	assert.Equal(t, f.msg.InvalidAction, f.bot.Answers[0].Text)
}

func TestCallbackWithoutMessage(t *testing.T) {
	f := newFixture(t)

	f.callback(context.Background(), ButtonNihongoTranslate, &telego.InaccessibleMessage{Chat: telego.Chat{ID: chatID}, MessageID: 50})

	require.Len(t, f.bot.Answers, 1)
	assert.Equal(t, f.msg.InvalidAction, f.bot.Answers[0].Text)
	assert.Empty(t, f.bot.Sent)
}

func TestVoiceDisabled(t *testing.T) {
	f := newFixture(t)
	voice := chatMessage(12, "")
	voice.Voice = &telego.Voice{FileID: "v1"}
	voice.ReplyToMessage = chatMessage(11, "")

	f.message(context.Background(), voice)

	require.Len(t, f.bot.Sent, 1)
	assert.Equal(t, escaped(t, f.msg.VoiceDisabled), f.bot.Sent[0].Text)
	assert.Empty(t, f.completer.calls)
}

func TestVoiceQuestion(t *testing.T) {
	f := newFixture(t)
	tr := &fakeTranscriber{text: " What is Go? "}
	f.handler.transcriber = tr
	f.handler.download = func(url string) ([]byte, error) {
		assert.Equal(t, "https://files.example/voice/file_1.mp3", url)
		return []byte("audio"), nil
	}
	f.bot.Files["v1"] = &telego.File{FileID: "v1", FilePath: "voice/file_1.mp3"}
	voice := chatMessage(12, "")
	voice.Voice = &telego.Voice{FileID: "v1", MimeType: "audio/mpeg"}
	voice.ReplyToMessage = chatMessage(11, "")

	f.message(context.Background(), voice)

	assert.Equal(t, "voice/file_1.mp3:audio", tr.got)
	require.Len(t, f.completer.calls, 1)
	assert.Equal(t, "What is Go?", f.completer.calls[0].question)
}

func TestCommands(t *testing.T) {
	f := newFixture(t)

	cmds := f.handler.Commands()

	require.Len(t, cmds, 4)
	assert.Equal(t, CommandAsk, cmds[0].Command)
	assert.Equal(t, f.msg.CommandAsk, cmds[0].Description)
}

func TestRunStopsOnClose(t *testing.T) {
	f := newFixture(t)
	updates := make(chan telego.Update, 1)
	updates <- telego.Update{Message: chatMessage(10, "/ask hi")}
	close(updates)

	f.handler.Run(context.Background(), updates)
	f.handler.Wait()

	assert.Len(t, f.completer.calls, 1)
}
