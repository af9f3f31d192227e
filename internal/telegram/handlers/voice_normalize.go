package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ffmpegCommand is replaced in tests.
var ffmpegCommand = "ffmpeg"

// Telegram voice notes are OGG/Opus, which the transcription API rejects.
var transcribableMimeTypes = map[string]bool{
	"audio/mpeg":      true,
	"audio/mp3":       true,
	"audio/mp4":       true,
	"audio/mp4a-latm": true,
	"audio/x-m4a":     true,
	"audio/m4a":       true,
	"audio/wav":       true,
	"audio/x-wav":     true,
	"audio/webm":      true,
}

var transcribableExtensions = map[string]bool{
	".mp3":  true,
	".mpeg": true,
	".mp4":  true,
	".m4a":  true,
	".wav":  true,
	".webm": true,
}

type voiceAudio struct {
	Data     []byte
	MimeType string
	Filename string
}

// normalizeVoice transcodes audio to mono 16kHz MP3 unless it already is in
// a format the transcription API accepts.
func normalizeVoice(ctx context.Context, audio voiceAudio) (voiceAudio, error) {
	if len(audio.Data) == 0 {
		return voiceAudio{}, errors.New("empty voice audio")
	}
	if transcribable(audio) {
		return audio, nil
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, ffmpegCommand,
		"-nostdin", "-y",
		"-i", "pipe:0",
		"-ac", "1",
		"-ar", "16000",
		"-f", "mp3",
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(audio.Data)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return voiceAudio{}, fmt.Errorf("ffmpeg: %w: %s", err, msg)
		}
		return voiceAudio{}, fmt.Errorf("ffmpeg: %w", err)
	}
	if stdout.Len() == 0 {
		return voiceAudio{}, errors.New("ffmpeg produced no audio")
	}
	return voiceAudio{Data: stdout.Bytes(), MimeType: "audio/mpeg", Filename: mp3Name(audio.Filename)}, nil
}

func transcribable(audio voiceAudio) bool {
	if transcribableMimeTypes[strings.ToLower(strings.TrimSpace(audio.MimeType))] {
		return true
	}
	return transcribableExtensions[strings.ToLower(filepath.Ext(strings.TrimSpace(audio.Filename)))]
}

func mp3Name(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == "/" || base == "" {
		return "voice.mp3"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".mp3"
}
