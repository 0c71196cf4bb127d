//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"

	"openai-speech/internal/domain"
)

const framesPerBuffer = 1024

// MicrophoneSource records from the default input device for a fixed
// duration.
type MicrophoneSource struct {
	sampleRate int
	channels   int
	seconds    int
	language   string
	logger     *slog.Logger
}

func NewMicrophoneSource(sampleRate, channels, seconds int, language string, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		sampleRate: sampleRate,
		channels:   channels,
		seconds:    seconds,
		language:   language,
		logger:     logger.With("component", "microphone"),
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Open(ctx context.Context) (domain.AudioMetadata, <-chan []byte, error) {
	if err := portaudio.Initialize(); err != nil {
		return domain.AudioMetadata{}, nil, fmt.Errorf("initializing portaudio: %w", err)
	}

	buffer := make([]int16, framesPerBuffer*m.channels)
	stream, err := portaudio.OpenDefaultStream(m.channels, 0, float64(m.sampleRate), framesPerBuffer, buffer)
	if err != nil {
		portaudio.Terminate()
		return domain.AudioMetadata{}, nil, fmt.Errorf("opening stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return domain.AudioMetadata{}, nil, fmt.Errorf("starting stream: %w", err)
	}

	m.logger.Info("microphone started", "sample_rate", m.sampleRate, "seconds", m.seconds)

	meta := domain.AudioMetadata{
		Language:   m.language,
		Format:     domain.AudioFormatWAV,
		Codec:      domain.AudioCodecPCM,
		BitRate:    8 * domain.SampleWidth,
		SampleRate: m.sampleRate,
		Channels:   m.channels,
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer portaudio.Terminate()
		defer stream.Close()
		defer stream.Stop()

		total := m.sampleRate * m.seconds
		for read := 0; read < total; read += framesPerBuffer {
			if err := stream.Read(); err != nil {
				m.logger.Error("reading from stream", "error", err)
				return
			}
			select {
			case out <- samplesToPCM(buffer):
			case <-ctx.Done():
				return
			}
		}
		m.logger.Info("microphone stopped")
	}()

	return meta, out, nil
}

func samplesToPCM(samples []int16) []byte {
	pcm := make([]byte, len(samples)*domain.SampleWidth)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
	}
	return pcm
}
