package wav_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"openai-speech/internal/infra/wav"
)

func TestEncode_Header(t *testing.T) {
	pcm := []byte{0x01, 0x00, 0xff, 0x7f, 0x00, 0x80, 0x10, 0x20}
	out := wav.Encode(2, 22050, pcm)

	if len(out) != wav.HeaderSize+len(pcm) {
		t.Fatalf("length: got %d, want %d", len(out), wav.HeaderSize+len(pcm))
	}

	checks := []struct {
		name   string
		offset int
		want   []byte
	}{
		{"riff", 0, []byte("RIFF")},
		{"wave", 8, []byte("WAVE")},
		{"fmt", 12, []byte("fmt ")},
		{"data", 36, []byte("data")},
	}
	for _, c := range checks {
		if got := out[c.offset : c.offset+len(c.want)]; !bytes.Equal(got, c.want) {
			t.Errorf("%s tag: got %q, want %q", c.name, got, c.want)
		}
	}

	le := binary.LittleEndian
	fields := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"riff size", le.Uint32(out[4:]), uint32(36 + len(pcm))},
		{"fmt size", le.Uint32(out[16:]), 16},
		{"audio format", uint32(le.Uint16(out[20:])), 1},
		{"channels", uint32(le.Uint16(out[22:])), 2},
		{"sample rate", le.Uint32(out[24:]), 22050},
		{"byte rate", le.Uint32(out[28:]), 22050 * 2 * 2},
		{"block align", uint32(le.Uint16(out[32:])), 4},
		{"bits per sample", uint32(le.Uint16(out[34:])), 16},
		{"data size", le.Uint32(out[40:]), uint32(len(pcm))},
	}
	for _, f := range fields {
		if f.got != f.want {
			t.Errorf("%s: got %d, want %d", f.name, f.got, f.want)
		}
	}

	if !bytes.Equal(out[wav.HeaderSize:], pcm) {
		t.Error("samples were not copied verbatim after the header")
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		channels   int
		sampleRate int
		pcm        []byte
	}{
		{"mono 16k", 1, 16000, bytes.Repeat([]byte{0x12, 0x34}, 800)},
		{"stereo 44.1k", 2, 44100, bytes.Repeat([]byte{0x01, 0x02, 0x03, 0x04}, 300)},
		{"odd length", 1, 8000, []byte{0x01, 0x02, 0x03}},
		{"empty", 1, 16000, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := wav.Encode(tt.channels, tt.sampleRate, tt.pcm)

			hdr, pcm, err := wav.Decode(bytes.NewReader(encoded))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if hdr.Channels != tt.channels {
				t.Errorf("channels: got %d, want %d", hdr.Channels, tt.channels)
			}
			if hdr.SampleRate != tt.sampleRate {
				t.Errorf("sample rate: got %d, want %d", hdr.SampleRate, tt.sampleRate)
			}
			if hdr.BitsPerSample != 16 {
				t.Errorf("bits: got %d, want 16", hdr.BitsPerSample)
			}
			if !bytes.Equal(pcm, tt.pcm) && !(len(pcm) == 0 && len(tt.pcm) == 0) {
				t.Errorf("samples differ: got %d bytes, want %d", len(pcm), len(tt.pcm))
			}
		})
	}
}

func TestDecode_SkipsUnknownChunks(t *testing.T) {
	pcm := []byte{0xaa, 0xbb, 0xcc, 0xdd}
	canonical := wav.Encode(1, 16000, pcm)

	var buf bytes.Buffer
	buf.Write(canonical[:36])
	buf.WriteString("LIST")
	binary.Write(&buf, binary.LittleEndian, uint32(3))
	buf.Write([]byte{'a', 'b', 'c', 0})
	buf.Write(canonical[36:])

	_, got, err := wav.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, pcm) {
		t.Errorf("samples: got %x, want %x", got, pcm)
	}
}

func TestDecode_Rejects(t *testing.T) {
	float32WAV := wav.Encode(1, 16000, []byte{0, 0})
	binary.LittleEndian.PutUint16(float32WAV[20:], 3)

	eightBit := wav.Encode(1, 16000, []byte{0, 0})
	binary.LittleEndian.PutUint16(eightBit[34:], 8)

	headerOnly := wav.Encode(1, 16000, nil)[:36]

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"garbage", []byte("definitely not audio data"), wav.ErrNotWAV},
		{"too short", []byte("RIFF"), wav.ErrNotWAV},
		{"float samples", float32WAV, wav.ErrUnsupported},
		{"8-bit samples", eightBit, wav.ErrUnsupported},
		{"missing data chunk", headerOnly, wav.ErrNoData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := wav.Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("error: got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecode_StreamingDataSize(t *testing.T) {
	pcm := []byte{0x01, 0x00, 0x02, 0x00}

	unsizedData := wav.Encode(1, 16000, pcm)
	binary.LittleEndian.PutUint32(unsizedData[40:], 0xFFFFFFFF)

	unsizedBoth := wav.Encode(1, 16000, pcm)
	binary.LittleEndian.PutUint32(unsizedBoth[4:], 0xFFFFFFFF)
	binary.LittleEndian.PutUint32(unsizedBoth[40:], 0xFFFFFFFF)

	// A stream cut mid-sample keeps whole frames only.
	partialFrame := append(wav.Encode(1, 16000, pcm), 0x03)
	binary.LittleEndian.PutUint32(partialFrame[40:], 0xFFFFFFFF)

	tests := []struct {
		name string
		data []byte
	}{
		{"data size placeholder", unsizedData},
		{"riff and data size placeholders", unsizedBoth},
		{"partial trailing frame", partialFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hdr, got, err := wav.Decode(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if hdr.SampleRate != 16000 || hdr.Channels != 1 {
				t.Errorf("header: got %+v", hdr)
			}
			if !bytes.Equal(got, pcm) {
				t.Errorf("samples: got %x, want %x", got, pcm)
			}
		})
	}
}

func TestDecode_TruncatedData(t *testing.T) {
	data := wav.Encode(1, 16000, []byte{0x01, 0x00, 0x02, 0x00})
	binary.LittleEndian.PutUint32(data[40:], 64)

	if _, _, err := wav.Decode(bytes.NewReader(data)); !errors.Is(err, wav.ErrTruncated) {
		t.Errorf("error: got %v, want ErrTruncated", err)
	}
}

func TestWrite_InvalidFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := wav.Write(&buf, 0, 16000, []byte{1, 2}); err == nil {
		t.Error("expected error for zero channels")
	}
	if err := wav.Write(&buf, 1, 0, []byte{1, 2}); err == nil {
		t.Error("expected error for zero sample rate")
	}
}
