package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	openaisdk "github.com/sashabaranov/go-openai"

	"openai-speech/config"
	"openai-speech/internal/domain"
)

const speechFormat = "mp3"

// Synthesizer turns text into mp3 audio through the /audio/speech endpoint.
type Synthesizer struct {
	client *openaisdk.Client
	logger *slog.Logger
}

func NewSynthesizer(apiKey, baseURL string, httpClient *http.Client, logger *slog.Logger) *Synthesizer {
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	cfg := openaisdk.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = httpClient

	return &Synthesizer{
		client: openaisdk.NewClientWithConfig(cfg),
		logger: logger.With("component", "synthesizer"),
	}
}

// Synthesize rejects text longer than domain.MaxMessageLength characters
// without contacting the API. Failures are *domain.SpeechError values.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voice, model string, speed float64) (domain.SpeechAudio, error) {
	if n := utf8.RuneCountInString(text); n > domain.MaxMessageLength {
		return domain.SpeechAudio{}, synthesizeError(domain.KindMessageTooLong, 0, fmt.Errorf("%d characters: %w", n, domain.ErrMessageTooLong))
	}

	s.logger.Debug("requesting speech", "chars", utf8.RuneCountInString(text), "voice", voice, "model", model, "speed", speed)

	resp, err := s.client.CreateSpeech(ctx, openaisdk.CreateSpeechRequest{
		Model:          openaisdk.SpeechModel(model),
		Input:          text,
		Voice:          openaisdk.SpeechVoice(voice),
		ResponseFormat: openaisdk.SpeechResponseFormatMp3,
		Speed:          speed,
	})
	if err != nil {
		return domain.SpeechAudio{}, classify(err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return domain.SpeechAudio{}, synthesizeError(domain.KindRemoteFailure, 0, fmt.Errorf("reading audio: %w", err))
	}

	return domain.SpeechAudio{Format: speechFormat, Data: data}, nil
}

func classify(err error) error {
	var apiErr *openaisdk.APIError
	if errors.As(err, &apiErr) {
		return synthesizeError(domain.KindRemoteFailure, apiErr.HTTPStatusCode, fmt.Errorf("speech API error: %w", err))
	}
	var reqErr *openaisdk.RequestError
	if errors.As(err, &reqErr) {
		return synthesizeError(domain.KindRemoteFailure, reqErr.HTTPStatusCode, fmt.Errorf("speech API error: %w", err))
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return synthesizeError(domain.KindRemoteFailure, 0, fmt.Errorf("sending request: %w", err))
	}
	return synthesizeError(domain.KindUnknownFailure, 0, err)
}

func synthesizeError(kind domain.ErrorKind, status int, err error) error {
	return &domain.SpeechError{Op: "synthesize", Kind: kind, StatusCode: status, Err: err}
}
