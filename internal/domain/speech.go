package domain

// SampleWidth is the only sample width accepted on the listen path: 16-bit signed PCM.
const SampleWidth = 2

// MaxMessageLength is the longest text, in characters, the speak path accepts.
const MaxMessageLength = 4096

type AudioFormat string

const (
	AudioFormatWAV AudioFormat = "wav"
	AudioFormatOGG AudioFormat = "ogg"
)

type AudioCodec string

const (
	AudioCodecPCM  AudioCodec = "pcm"
	AudioCodecOpus AudioCodec = "opus"
)

// AudioMetadata describes a raw PCM stream. It is fixed before the first chunk
// arrives and does not change for the rest of the request.
type AudioMetadata struct {
	Language   string
	Format     AudioFormat
	Codec      AudioCodec
	BitRate    int
	SampleRate int
	Channels   int
}

// DefaultAudioMetadata matches what the listen entity advertises to the host.
func DefaultAudioMetadata() AudioMetadata {
	return AudioMetadata{
		Format:     AudioFormatWAV,
		Codec:      AudioCodecPCM,
		BitRate:    16,
		SampleRate: 16000,
		Channels:   1,
	}
}

type ResultState string

const (
	ResultSuccess ResultState = "success"
	ResultError   ResultState = "error"
)

type TranscriptionResult struct {
	State ResultState
	Text  string
}

func TranscriptionSuccess(text string) TranscriptionResult {
	return TranscriptionResult{State: ResultSuccess, Text: text}
}

func TranscriptionError() TranscriptionResult {
	return TranscriptionResult{State: ResultError}
}

func (r TranscriptionResult) OK() bool {
	return r.State == ResultSuccess
}

// SpeechAudio is synthesized audio tagged with its container format.
type SpeechAudio struct {
	Format string
	Data   []byte
}

// SynthesisOptions carries per-request overrides from the host. Zero values
// fall back to the configured defaults.
type SynthesisOptions struct {
	Voice string  `json:"voice,omitempty"`
	Model string  `json:"model,omitempty"`
	Speed float64 `json:"speed,omitempty"`
}
