package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"openai-speech/internal/domain"
	"openai-speech/internal/infra/wav"
)

const DefaultChunkSize = 4096

// FileSource replays a WAV file as a chunked PCM stream.
type FileSource struct {
	path      string
	language  string
	chunkSize int
}

func NewFileSource(path, language string, chunkSize int) *FileSource {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &FileSource{
		path:      path,
		language:  language,
		chunkSize: chunkSize,
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Open(ctx context.Context) (domain.AudioMetadata, <-chan []byte, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return domain.AudioMetadata{}, nil, fmt.Errorf("opening %s: %w", f.path, err)
	}
	defer file.Close()

	hdr, pcm, err := wav.Decode(file)
	if err != nil {
		return domain.AudioMetadata{}, nil, fmt.Errorf("decoding %s: %w", f.path, err)
	}

	meta := domain.AudioMetadata{
		Language:   f.language,
		Format:     domain.AudioFormatWAV,
		Codec:      domain.AudioCodecPCM,
		BitRate:    hdr.BitsPerSample,
		SampleRate: hdr.SampleRate,
		Channels:   hdr.Channels,
	}

	return meta, emit(ctx, split(pcm, f.chunkSize)), nil
}

// IsWAV reports whether path looks like a file FileSource can read.
func IsWAV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".wav")
}

func split(data []byte, size int) [][]byte {
	chunks := make([][]byte, 0, len(data)/size+1)
	for len(data) > 0 {
		n := min(size, len(data))
		chunks = append(chunks, data[:n:n])
		data = data[n:]
	}
	return chunks
}

// emit sends chunks on a new channel and closes it when done or when ctx ends.
func emit(ctx context.Context, chunks [][]byte) <-chan []byte {
	out := make(chan []byte)
	go func() {
		defer close(out)
		for _, c := range chunks {
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
