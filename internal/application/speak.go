package application

import (
	"context"
	"log/slog"
	"time"

	"openai-speech/internal/domain"
	"openai-speech/internal/metrics"
)

// ttsLanguages are the languages OpenAI documents for speech synthesis.
var ttsLanguages = []string{
	"af", "ar", "az", "be", "bg", "bs", "ca", "cs", "cy", "da", "de", "el", "en", "es",
	"et", "fa", "fi", "fr", "gl", "he", "hi", "hr", "hu", "hy", "id", "is", "it", "ja",
	"kk", "kn", "ko", "lt", "lv", "mi", "mk", "mr", "ms", "ne", "nl", "no", "pl", "pt",
	"ro", "ru", "sk", "sl", "sr", "sv", "sw", "ta", "th", "tl", "tr", "uk", "ur", "vi", "zh",
}

// TextToSpeechEntity is the host-facing speak service.
type TextToSpeechEntity struct {
	name     string
	defaults domain.SynthesisOptions
	tts      TextToSpeech
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewTextToSpeechEntity(name string, defaults domain.SynthesisOptions, tts TextToSpeech, m *metrics.Metrics, logger *slog.Logger) *TextToSpeechEntity {
	return &TextToSpeechEntity{
		name:     name,
		defaults: defaults,
		tts:      tts,
		metrics:  m,
		logger:   logger.With("component", "tts_entity"),
	}
}

func (e *TextToSpeechEntity) Name() string {
	return e.name + " Text-to-Speech Service"
}

func (e *TextToSpeechEntity) DefaultLanguage() string {
	return "en"
}

func (e *TextToSpeechEntity) SupportedLanguages() []string {
	return append([]string(nil), ttsLanguages...)
}

func (e *TextToSpeechEntity) Info() EntityInfo {
	return EntityInfo{
		Name:               e.Name(),
		UniqueID:           EntityID(e.Name()),
		Device:             deviceInfo(e.name),
		DefaultLanguage:    e.DefaultLanguage(),
		SupportedLanguages: e.SupportedLanguages(),
	}
}

// Speak synthesizes message, applying opts over the configured defaults.
// The returned error keeps its domain.ErrorKind.
func (e *TextToSpeechEntity) Speak(ctx context.Context, message string, opts domain.SynthesisOptions) (domain.SpeechAudio, error) {
	start := time.Now()
	o := e.resolve(opts)

	audio, err := e.tts.Synthesize(ctx, message, o.Voice, o.Model, o.Speed)
	if err != nil {
		kind := domain.KindOf(err)
		e.metrics.Observe(metrics.ServiceTTS, start, string(kind))
		if kind == domain.KindMessageTooLong {
			e.logger.Error("maximum length of the message exceeded", "chars", len([]rune(message)))
		} else {
			e.logger.Error("speech synthesis failed", "kind", kind, "error", err)
		}
		return domain.SpeechAudio{}, err
	}

	e.metrics.Observe(metrics.ServiceTTS, start, "")
	e.metrics.AddAudioBytes(metrics.DirectionOut, len(audio.Data))
	e.logger.Info("synthesized", "voice", o.Voice, "bytes", len(audio.Data), "duration", time.Since(start))

	return audio, nil
}

// GetTTSAudio is the host's call shape: ("mp3", audio) on success and
// ("", nil) on any failure, which is logged.
func (e *TextToSpeechEntity) GetTTSAudio(ctx context.Context, message, language string, opts domain.SynthesisOptions) (string, []byte) {
	if language != "" {
		e.logger.Debug("speak request", "language", language)
	}
	audio, err := e.Speak(ctx, message, opts)
	if err != nil {
		return "", nil
	}
	return audio.Format, audio.Data
}

func (e *TextToSpeechEntity) resolve(opts domain.SynthesisOptions) domain.SynthesisOptions {
	o := e.defaults
	if opts.Voice != "" {
		o.Voice = opts.Voice
	}
	if opts.Model != "" {
		o.Model = opts.Model
	}
	if opts.Speed > 0 {
		o.Speed = opts.Speed
	}
	return o
}
