package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"openai-speech/internal/domain"
)

// Assistant drives the speak and listen services from local audio, for the
// command line.
type Assistant struct {
	audio  AudioSource
	stt    *SpeechToTextEntity
	tts    *TextToSpeechEntity
	logger *slog.Logger
}

func NewAssistant(audio AudioSource, stt *SpeechToTextEntity, tts *TextToSpeechEntity, logger *slog.Logger) *Assistant {
	return &Assistant{
		audio:  audio,
		stt:    stt,
		tts:    tts,
		logger: logger,
	}
}

// Listen records from the audio source and transcribes it. The error covers
// only the source; transcription failures come back as an ERROR result.
func (a *Assistant) Listen(ctx context.Context) (domain.TranscriptionResult, error) {
	if a.audio == nil {
		return domain.TranscriptionError(), fmt.Errorf("no audio source configured")
	}

	a.logger.Info("opening audio source", "source", a.audio.Name())
	meta, chunks, err := a.audio.Open(ctx)
	if err != nil {
		return domain.TranscriptionError(), fmt.Errorf("opening %s source: %w", a.audio.Name(), err)
	}

	a.logger.Info("listening",
		"channels", meta.Channels,
		"sample_rate", meta.SampleRate,
	)

	return a.stt.ProcessAudioStream(ctx, meta, chunks), nil
}

// Speak synthesizes text and writes the audio to w.
func (a *Assistant) Speak(ctx context.Context, text string, opts domain.SynthesisOptions, w io.Writer) (string, error) {
	audio, err := a.tts.Speak(ctx, text, opts)
	if err != nil {
		return "", fmt.Errorf("synthesizing: %w", err)
	}

	if _, err := w.Write(audio.Data); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}

	return audio.Format, nil
}
