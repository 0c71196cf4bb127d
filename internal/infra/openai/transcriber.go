package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strconv"
	"time"

	"openai-speech/config"
	"openai-speech/internal/domain"
	"openai-speech/internal/infra"
	"openai-speech/internal/infra/wav"
)

const stagingPattern = "openai-speech-*.wav"

// Transcriber sends PCM audio to the /audio/transcriptions endpoint. It keeps
// no per-call state and is safe for concurrent use.
type Transcriber struct {
	cfg        config.ProviderConfig
	httpClient *http.Client
	tempDir    string
	logger     *slog.Logger
}

func NewTranscriber(cfg config.ProviderConfig, tempDir string, httpClient *http.Client, logger *slog.Logger) *Transcriber {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultBaseURL
	}
	return &Transcriber{
		cfg:        cfg,
		httpClient: httpClient,
		tempDir:    tempDir,
		logger:     logger.With("component", "transcriber"),
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe drains chunks, wraps them in a WAV container and makes exactly one
// transcription request. Failures are *domain.SpeechError values.
func (c *Transcriber) Transcribe(ctx context.Context, meta domain.AudioMetadata, chunks <-chan []byte) (string, error) {
	pcm, err := collect(ctx, chunks)
	if err != nil {
		return "", transcribeError(domain.KindUnknownFailure, 0, fmt.Errorf("receiving audio: %w", err))
	}

	if len(pcm) == 0 {
		return "", transcribeError(domain.KindEmptyInput, 0, domain.ErrEmptyInput)
	}

	if meta.Channels <= 0 || meta.SampleRate <= 0 {
		return "", transcribeError(domain.KindUnknownFailure, 0, fmt.Errorf("invalid audio format: %d channels at %d Hz", meta.Channels, meta.SampleRate))
	}

	c.logger.Debug("staging audio", "bytes", len(pcm), "channels", meta.Channels, "sample_rate", meta.SampleRate)

	var text string
	err = infra.WithTempFile(c.tempDir, stagingPattern, func(f *os.File) error {
		if err := wav.Write(f, meta.Channels, meta.SampleRate, pcm); err != nil {
			return transcribeError(domain.KindUnknownFailure, 0, fmt.Errorf("staging audio: %w", err))
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return transcribeError(domain.KindUnknownFailure, 0, fmt.Errorf("rewinding staged audio: %w", err))
		}

		var sendErr error
		text, sendErr = c.send(ctx, f)
		return sendErr
	}, func(err error) {
		c.logger.Warn("staged audio cleanup failed", "error", err)
	})
	if err != nil {
		var se *domain.SpeechError
		if !errors.As(err, &se) {
			err = transcribeError(domain.KindUnknownFailure, 0, err)
		}
		return "", err
	}

	return text, nil
}

func (c *Transcriber) send(ctx context.Context, audio io.Reader) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="audio.wav"`)
	header.Set("Content-Type", "audio/wav")

	part, err := writer.CreatePart(header)
	if err != nil {
		return "", transcribeError(domain.KindUnknownFailure, 0, fmt.Errorf("creating form file: %w", err))
	}

	if _, err = io.Copy(part, audio); err != nil {
		return "", transcribeError(domain.KindUnknownFailure, 0, fmt.Errorf("writing audio: %w", err))
	}

	fields := [][2]string{
		{"language", c.cfg.Language},
		{"model", c.cfg.Model},
	}
	if c.cfg.Prompt != "" {
		fields = append(fields, [2]string{"prompt", c.cfg.Prompt})
	}
	if c.cfg.Temperature > 0 {
		fields = append(fields, [2]string{"temperature", strconv.FormatFloat(c.cfg.Temperature, 'f', -1, 64)})
	}
	for _, f := range fields {
		if err = writer.WriteField(f[0], f[1]); err != nil {
			return "", transcribeError(domain.KindUnknownFailure, 0, fmt.Errorf("writing %s field: %w", f[0], err))
		}
	}

	if err = writer.Close(); err != nil {
		return "", transcribeError(domain.KindUnknownFailure, 0, fmt.Errorf("closing writer: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/audio/transcriptions", body)
	if err != nil {
		return "", transcribeError(domain.KindUnknownFailure, 0, fmt.Errorf("creating request: %w", err))
	}

	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transcribeError(domain.KindRemoteFailure, 0, fmt.Errorf("sending request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", transcribeError(domain.KindRemoteFailure, resp.StatusCode, fmt.Errorf("transcription API error: %s", bytes.TrimSpace(respBody)))
	}

	var result transcriptionResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", transcribeError(domain.KindUnknownFailure, resp.StatusCode, fmt.Errorf("decoding response: %w", err))
	}

	return result.Text, nil
}

func collect(ctx context.Context, chunks <-chan []byte) ([]byte, error) {
	var buf bytes.Buffer
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				return buf.Bytes(), nil
			}
			buf.Write(chunk)
		}
	}
}

func transcribeError(kind domain.ErrorKind, status int, err error) error {
	return &domain.SpeechError{Op: "transcribe", Kind: kind, StatusCode: status, Err: err}
}
