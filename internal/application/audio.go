package application

import (
	"context"

	"openai-speech/internal/domain"
)

// AudioSource produces one recording as PCM chunks. The channel is closed
// when the recording ends.
type AudioSource interface {
	Open(ctx context.Context) (domain.AudioMetadata, <-chan []byte, error)
	Name() string
}
