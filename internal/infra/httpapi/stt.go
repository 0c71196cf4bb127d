package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"openai-speech/internal/domain"
	"openai-speech/internal/metrics"
)

// SpeechContentHeader carries the stream metadata on POST /api/stt, e.g.
// "format=wav; codec=pcm; sample_rate=16000; bit_rate=16; channel=1; language=en-US".
const SpeechContentHeader = "X-Speech-Content"

var errMissingHeader = errors.New("missing " + SpeechContentHeader + " header")

type sttResponse struct {
	Result domain.ResultState `json:"result"`
	Text   string             `json:"text"`
}

// ParseSpeechContent reads audio metadata from an X-Speech-Content value.
// Every key is required; unknown keys are ignored.
func ParseSpeechContent(value string) (domain.AudioMetadata, error) {
	if strings.TrimSpace(value) == "" {
		return domain.AudioMetadata{}, errMissingHeader
	}

	fields := make(map[string]string)
	for _, part := range strings.Split(value, ";") {
		key, val, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		fields[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(val)
	}

	var (
		meta domain.AudioMetadata
		errs []error
	)

	str := func(key string) string {
		v, ok := fields[key]
		if !ok || v == "" {
			errs = append(errs, fmt.Errorf("missing %s", key))
		}
		return v
	}
	num := func(key string) int {
		v := str(key)
		if v == "" {
			return 0
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errs = append(errs, fmt.Errorf("invalid %s %q", key, v))
		}
		return n
	}

	meta.Format = domain.AudioFormat(strings.ToLower(str("format")))
	meta.Codec = domain.AudioCodec(strings.ToLower(str("codec")))
	meta.SampleRate = num("sample_rate")
	meta.BitRate = num("bit_rate")
	meta.Channels = num("channel")
	meta.Language = str("language")

	if err := errors.Join(errs...); err != nil {
		return domain.AudioMetadata{}, fmt.Errorf("parsing %s: %w", SpeechContentHeader, err)
	}
	return meta, nil
}

func (s *Server) handleSTTInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stt.Info())
}

func (s *Server) handleSTT(w http.ResponseWriter, r *http.Request) {
	meta, err := ParseSpeechContent(r.Header.Get(SpeechContentHeader))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.stt.Supports(meta) {
		writeError(w, http.StatusUnsupportedMediaType,
			fmt.Sprintf("unsupported audio %s/%s at %d bits", meta.Format, meta.Codec, meta.BitRate))
		return
	}

	if r.ContentLength > s.opts.MaxAudioBytes {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("audio exceeds %d bytes", s.opts.MaxAudioBytes))
		return
	}
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxAudioBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	chunks, done := s.pump(ctx, cancel, body)
	result := s.stt.ProcessAudioStream(ctx, meta, chunks)

	// The body must not be read after the handler returns.
	cancel()
	if err := <-done; err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("audio exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.logger.Warn("reading audio body", "error", err)
		writeError(w, http.StatusBadRequest, "failed to read audio body")
		return
	}

	writeJSON(w, http.StatusOK, sttResponse{Result: result.State, Text: result.Text})
}

// pump copies body into chunkSize pieces on the returned channel and closes
// it at EOF. On a read error it calls abort and leaves the channel open, so
// the transcriber stops on the canceled context and never uploads partial
// audio. done yields the read error, or nil, once body is no longer touched.
func (s *Server) pump(ctx context.Context, abort context.CancelFunc, body io.Reader) (<-chan []byte, <-chan error) {
	chunks := make(chan []byte)
	done := make(chan error, 1)

	go func() {
		buf := make([]byte, s.opts.ChunkSize)
		for {
			n, err := io.ReadFull(body, buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				s.metrics.AddAudioBytes(metrics.DirectionIn, n)
				select {
				case chunks <- chunk:
				case <-ctx.Done():
					done <- nil
					return
				}
			}
			switch {
			case err == nil:
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
				close(chunks)
				done <- nil
				return
			default:
				abort()
				done <- err
				return
			}
		}
	}()

	return chunks, done
}
