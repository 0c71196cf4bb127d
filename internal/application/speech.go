package application

import (
	"context"

	"openai-speech/internal/domain"
)

type SpeechToText interface {
	Transcribe(ctx context.Context, meta domain.AudioMetadata, chunks <-chan []byte) (string, error)
}

type TextToSpeech interface {
	Synthesize(ctx context.Context, text, voice, model string, speed float64) (domain.SpeechAudio, error)
}
