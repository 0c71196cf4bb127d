package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"openai-speech/config"
)

func TestLoad_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("openai:\n  api_key: sk-test\n"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"name", cfg.OpenAI.Name, "OpenAI"},
		{"base url", cfg.OpenAI.BaseURL, "https://api.openai.com/v1"},
		{"tts model", cfg.TTS.Model, "tts-1"},
		{"tts voice", cfg.TTS.Voice, "alloy"},
		{"tts speed", cfg.TTS.Speed, 1.0},
		{"stt model", cfg.STT.Model, "whisper-1"},
		{"stt language", cfg.STT.Language, "en-US"},
		{"stt temperature", cfg.STT.Temperature, 0.0},
		{"http addr", cfg.HTTP.Addr, ":8080"},
		{"rate limit", cfg.HTTP.RateLimit, 30},
		{"rate window", cfg.RateWindowDuration(), time.Minute},
		{"max audio bytes", cfg.HTTP.MaxAudioBytes, int64(25 << 20)},
		{"chunk size", cfg.Audio.ChunkSize, 4096},
		{"sample rate", cfg.Audio.SampleRate, 16000},
		{"channels", cfg.Audio.Channels, 1},
		{"log level", cfg.Log.Level, "info"},
		{"log format", cfg.Log.Format, "text"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-from-env")
	t.Setenv("TEST_BASE_URL", "http://localhost:9000/v1/")

	cfg, err := config.Parse([]byte(`
openai:
  api_key: ${TEST_OPENAI_KEY}
  base_url: ${TEST_BASE_URL}
stt:
  language: "de-DE, en-US"
  prompt: kitchen lights
  temperature: 0.4
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	p := cfg.Provider()
	want := config.ProviderConfig{
		APIKey:      "sk-from-env",
		BaseURL:     "http://localhost:9000/v1",
		Model:       "whisper-1",
		Language:    "de-DE, en-US",
		Prompt:      "kitchen lights",
		Temperature: 0.4,
	}
	if p != want {
		t.Errorf("Provider: got %+v, want %+v", p, want)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing api key", "openai: {}", "openai.api_key is required"},
		{"bad base url", "openai: {api_key: k, base_url: 'ftp://example.com'}", "openai.base_url"},
		{"negative speed", "openai: {api_key: k}\ntts: {speed: -1}", "tts.speed"},
		{"temperature above 1", "openai: {api_key: k}\nstt: {temperature: 1.5}", "stt.temperature"},
		{"temperature below 0", "openai: {api_key: k}\nstt: {temperature: -0.1}", "stt.temperature"},
		{"blank languages", "openai: {api_key: k}\nstt: {language: ' , '}", "stt.language"},
		{"bad rate window", "openai: {api_key: k}\nhttp: {rate_window: soon}", "http.rate_window"},
		{"negative audio cap", "openai: {api_key: k}\nhttp: {max_audio_bytes: -1}", "http.max_audio_bytes"},
		{"not yaml", "openai: [", "parsing config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSplitLanguages(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"en-US", []string{"en-US"}},
		{"en-US,de-DE", []string{"en-US", "de-DE"}},
		{" en , fr ,, ", []string{"en", "fr"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		if got := config.SplitLanguages(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitLanguages(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}
