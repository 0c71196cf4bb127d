// Package wav reads and writes canonical RIFF/WAVE files holding 16-bit
// linear PCM.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	HeaderSize    = 44
	BitsPerSample = 16
	formatPCM     = 1
)

var (
	ErrNotWAV      = errors.New("not a RIFF/WAVE file")
	ErrUnsupported = errors.New("unsupported WAV encoding")
	ErrNoData      = errors.New("WAV file has no data chunk")
	ErrTruncated   = errors.New("WAV data chunk is shorter than its header says")
)

// streamingSize is the placeholder size written by encoders that stream to a
// pipe and cannot seek back to finalize the header.
const streamingSize = 0xFFFFFFFF

type Header struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
}

// Encode wraps pcm in a 44-byte WAV header.
func Encode(channels, sampleRate int, pcm []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(HeaderSize + len(pcm))
	// bytes.Buffer writes never fail.
	_ = Write(&buf, channels, sampleRate, pcm)
	return buf.Bytes()
}

func Write(w io.Writer, channels, sampleRate int, pcm []byte) error {
	if channels <= 0 || sampleRate <= 0 {
		return fmt.Errorf("invalid format: %d channels at %d Hz", channels, sampleRate)
	}

	blockAlign := channels * BitsPerSample / 8
	dataSize := len(pcm)

	hdr := struct {
		RIFF          [4]byte
		FileSize      uint32
		WAVE          [4]byte
		Fmt           [4]byte
		FmtSize       uint32
		AudioFormat   uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		Data          [4]byte
		DataSize      uint32
	}{
		RIFF:          [4]byte{'R', 'I', 'F', 'F'},
		FileSize:      uint32(36 + dataSize),
		WAVE:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   formatPCM,
		Channels:      uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * blockAlign),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: BitsPerSample,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      uint32(dataSize),
	}

	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := w.Write(pcm); err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}
	return nil
}

// Decode parses a WAV stream and returns its format and raw sample bytes.
// Chunks other than "fmt " and "data" are skipped.
func Decode(r io.Reader) (Header, []byte, error) {
	var riff struct {
		ID   [4]byte
		Size uint32
		Form [4]byte
	}
	if err := binary.Read(r, binary.LittleEndian, &riff); err != nil {
		return Header{}, nil, fmt.Errorf("%w: %v", ErrNotWAV, err)
	}
	if string(riff.ID[:]) != "RIFF" || string(riff.Form[:]) != "WAVE" {
		return Header{}, nil, ErrNotWAV
	}

	var (
		hdr    Header
		hasFmt bool
	)

	for {
		var chunk struct {
			ID   [4]byte
			Size uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if errors.Is(err, io.EOF) {
				return Header{}, nil, ErrNoData
			}
			return Header{}, nil, fmt.Errorf("reading chunk header: %w", err)
		}

		switch string(chunk.ID[:]) {
		case "fmt ":
			if chunk.Size < 16 {
				return Header{}, nil, fmt.Errorf("%w: fmt chunk of %d bytes", ErrUnsupported, chunk.Size)
			}
			var f struct {
				AudioFormat   uint16
				Channels      uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(r, binary.LittleEndian, &f); err != nil {
				return Header{}, nil, fmt.Errorf("reading fmt chunk: %w", err)
			}
			if err := skip(r, int64(chunk.Size)-16+int64(chunk.Size%2)); err != nil {
				return Header{}, nil, err
			}
			if f.AudioFormat != formatPCM || f.BitsPerSample != BitsPerSample {
				return Header{}, nil, fmt.Errorf("%w: format %d, %d bits", ErrUnsupported, f.AudioFormat, f.BitsPerSample)
			}
			if f.Channels == 0 || f.SampleRate == 0 {
				return Header{}, nil, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupported, f.Channels, f.SampleRate)
			}
			hdr = Header{
				Channels:      int(f.Channels),
				SampleRate:    int(f.SampleRate),
				BitsPerSample: int(f.BitsPerSample),
			}
			hasFmt = true

		case "data":
			if !hasFmt {
				return Header{}, nil, fmt.Errorf("%w: data before fmt", ErrUnsupported)
			}
			pcm, err := io.ReadAll(io.LimitReader(r, int64(chunk.Size)))
			if err != nil {
				return Header{}, nil, fmt.Errorf("reading data chunk: %w", err)
			}
			if uint32(len(pcm)) < chunk.Size {
				if chunk.Size != streamingSize && riff.Size != streamingSize && riff.Size != 0 {
					return Header{}, nil, fmt.Errorf("%w: %d of %d bytes", ErrTruncated, len(pcm), chunk.Size)
				}
				// Unfinalized stream: keep whole frames only.
				frame := hdr.Channels * hdr.BitsPerSample / 8
				pcm = pcm[:len(pcm)-len(pcm)%frame]
			}
			return hdr, pcm, nil

		default:
			if err := skip(r, int64(chunk.Size)+int64(chunk.Size%2)); err != nil {
				return Header{}, nil, err
			}
		}
	}
}

func skip(r io.Reader, n int64) error {
	if n <= 0 {
		return nil
	}
	if _, err := io.CopyN(io.Discard, r, n); err != nil {
		return fmt.Errorf("skipping %d bytes: %w", n, err)
	}
	return nil
}
