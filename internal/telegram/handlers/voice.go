package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mymmrac/telego"
)

var errVoiceDisabled = errors.New("voice questions disabled")

// askVoice transcribes a voice reply and asks it as a question.
func (h *Handler) askVoice(ctx context.Context, log *slog.Logger, message *telego.Message) {
	question, err := h.transcribe(ctx, message.Voice)
	if err != nil {
		text := h.msg.TranscriptionFail
		if errors.Is(err, errVoiceDisabled) {
			text = h.msg.VoiceDisabled
		} else {
			log.Error("Voice transcription failed", "error", err)
		}
		if _, err := h.sender.Send(ctx, message.Chat.ID, message.MessageID, text, nil); err != nil {
			log.Error("Failed to report transcription error", "error", err)
		}
		return
	}
	question = strings.TrimSpace(question)
	if question == "" {
		log.Info("Voice message transcribed to nothing")
		return
	}
	h.ask(ctx, log, message, question)
}

func (h *Handler) transcribe(ctx context.Context, voice *telego.Voice) (string, error) {
	if h.transcriber == nil {
		return "", errVoiceDisabled
	}
	file, err := h.bot.GetFile(ctx, &telego.GetFileParams{FileID: voice.FileID})
	if err != nil {
		return "", fmt.Errorf("get voice file: %w", err)
	}
	data, err := h.download(h.bot.FileDownloadURL(file.FilePath))
	if err != nil {
		return "", fmt.Errorf("download voice file: %w", err)
	}
	audio, err := normalizeVoice(ctx, voiceAudio{Data: data, MimeType: voice.MimeType, Filename: file.FilePath})
	if err != nil {
		return "", err
	}
	return h.transcriber.Transcribe(ctx, bytes.NewReader(audio.Data), audio.Filename, audio.MimeType, h.lang)
}
