//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"

	"openai-speech/internal/domain"
)

// MicrophoneSource stub when portaudio is not available
type MicrophoneSource struct {
	logger *slog.Logger
}

func NewMicrophoneSource(sampleRate, channels, seconds int, language string, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{logger: logger}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Open(_ context.Context) (domain.AudioMetadata, <-chan []byte, error) {
	return domain.AudioMetadata{}, nil, fmt.Errorf("microphone source not available: rebuild with -tags portaudio")
}
