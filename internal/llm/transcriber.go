package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"
)

// Transcription errors.
var (
	ErrEmptyAudio      = errors.New("empty audio")
	ErrEmptyTranscript = errors.New("empty transcription")
)

const (
	defaultAudioName = "voice.mp3"
	defaultAudioType = "audio/mpeg"
)

// Transcriber turns voice messages into question text.
type Transcriber struct {
	client  openai.Client
	model   openai.AudioModel
	timeout time.Duration
	log     *slog.Logger
}

// NewTranscriber creates a speech-to-text client for model.
func NewTranscriber(opts Options, model string, log *slog.Logger) *Transcriber {
	return &Transcriber{
		client:  openai.NewClient(opts.requestOptions()...),
		model:   openai.AudioModel(model),
		timeout: opts.Timeout,
		log:     log,
	}
}

// Transcribe returns the text spoken in the audio read from reader. An empty
// language lets the API detect it.
func (t *Transcriber) Transcribe(ctx context.Context, reader io.Reader, filename, contentType, language string) (string, error) {
	if reader == nil {
		return "", ErrEmptyAudio
	}
	audio, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}
	if filename == "" {
		filename = defaultAudioName
	}
	if contentType == "" {
		contentType = defaultAudioType
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audio), filename, contentType),
		Model: t.model,
	}
	if language != "" {
		params.Language = param.NewOpt(language)
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	started := time.Now()
	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		t.log.Error("OpenAI transcription failed", "model", t.model, "bytes", len(audio), "error", err)
		return "", fmt.Errorf("transcribe: %w", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrEmptyTranscript
	}
	t.log.Debug("Voice transcribed", "model", t.model, "elapsed", time.Since(started), "runes", len([]rune(text)))
	return text, nil
}
