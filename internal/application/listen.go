package application

import (
	"context"
	"log/slog"
	"time"

	"openai-speech/internal/domain"
	"openai-speech/internal/metrics"
)

// SpeechToTextEntity is the host-facing listen service.
type SpeechToTextEntity struct {
	name      string
	languages []string
	stt       SpeechToText
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewSpeechToTextEntity(name string, languages []string, stt SpeechToText, m *metrics.Metrics, logger *slog.Logger) *SpeechToTextEntity {
	if len(languages) == 0 {
		languages = []string{"en-US"}
	}
	return &SpeechToTextEntity{
		name:      name,
		languages: languages,
		stt:       stt,
		metrics:   m,
		logger:    logger.With("component", "stt_entity"),
	}
}

func (e *SpeechToTextEntity) Name() string {
	return e.name + " Speech-to-Text Service"
}

func (e *SpeechToTextEntity) DefaultLanguage() string {
	return e.languages[0]
}

func (e *SpeechToTextEntity) SupportedLanguages() []string {
	return append([]string(nil), e.languages...)
}

// Supports reports whether meta describes audio this entity accepts.
func (e *SpeechToTextEntity) Supports(meta domain.AudioMetadata) bool {
	return meta.Format == domain.AudioFormatWAV && meta.Codec == domain.AudioCodecPCM &&
		(meta.BitRate == 0 || meta.BitRate == 8*domain.SampleWidth)
}

func (e *SpeechToTextEntity) Info() EntityInfo {
	return EntityInfo{
		Name:               e.Name(),
		UniqueID:           EntityID(e.Name()),
		Device:             deviceInfo(e.name),
		DefaultLanguage:    e.DefaultLanguage(),
		SupportedLanguages: e.SupportedLanguages(),
		SupportedFormats:   []string{string(domain.AudioFormatWAV)},
		SupportedCodecs:    []string{string(domain.AudioCodecPCM)},
		SupportedBitRates:  []int{16},
		SupportedRates:     []int{16000},
		SupportedChannels:  []int{1},
	}
}

// ProcessAudioStream transcribes one recording. Every failure collapses to
// an ERROR result; the failure kind only reaches the log and metrics.
func (e *SpeechToTextEntity) ProcessAudioStream(ctx context.Context, meta domain.AudioMetadata, chunks <-chan []byte) domain.TranscriptionResult {
	start := time.Now()

	text, err := e.stt.Transcribe(ctx, meta, chunks)
	if err != nil {
		kind := domain.KindOf(err)
		e.metrics.Observe(metrics.ServiceSTT, start, string(kind))
		if kind == domain.KindEmptyInput {
			e.logger.Warn("no audio received")
		} else {
			e.logger.Error("transcription failed", "kind", kind, "error", err)
		}
		return domain.TranscriptionError()
	}

	e.metrics.Observe(metrics.ServiceSTT, start, "")
	e.logger.Info("transcribed", "chars", len(text), "duration", time.Since(start))

	return domain.TranscriptionSuccess(text)
}

func deviceInfo(name string) DeviceInfo {
	return DeviceInfo{
		Identifiers:  []string{"openai_speech", EntityID(name)},
		Name:         name + " Speech Services",
		Manufacturer: manufacturer,
	}
}
