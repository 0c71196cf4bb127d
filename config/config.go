package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultName     = "OpenAI"
	DefaultBaseURL  = "https://api.openai.com/v1"
	DefaultSTTModel = "whisper-1"
	DefaultLanguage = "en-US"
	DefaultTTSModel = "tts-1"
	DefaultVoice    = "alloy"

	// DefaultMaxAudioBytes matches the upload limit of the transcription endpoint.
	DefaultMaxAudioBytes = 25 << 20
)

var (
	TTSModels = []string{"tts-1", "tts-1-hd"}
	TTSVoices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}
)

type Config struct {
	OpenAI OpenAIConfig `yaml:"openai"`
	TTS    TTSConfig    `yaml:"tts"`
	STT    STTConfig    `yaml:"stt"`
	HTTP   HTTPConfig   `yaml:"http"`
	Audio  AudioConfig  `yaml:"audio"`
	Log    LogConfig    `yaml:"log"`
}

type OpenAIConfig struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

type TTSConfig struct {
	Model string  `yaml:"model"`
	Voice string  `yaml:"voice"`
	Speed float64 `yaml:"speed"`
}

type STTConfig struct {
	Model       string  `yaml:"model"`
	Language    string  `yaml:"language"`
	Prompt      string  `yaml:"prompt"`
	Temperature float64 `yaml:"temperature"`
	TempDir     string  `yaml:"temp_dir"`
}

type HTTPConfig struct {
	Addr       string `yaml:"addr"`
	AuthToken  string `yaml:"auth_token"`
	RateLimit  int    `yaml:"rate_limit"`
	RateWindow string `yaml:"rate_window"`
	// MaxAudioBytes caps a POST /api/stt body.
	MaxAudioBytes int64 `yaml:"max_audio_bytes"`
}

type AudioConfig struct {
	ChunkSize     int `yaml:"chunk_size"`
	SampleRate    int `yaml:"sample_rate"`
	Channels      int `yaml:"channels"`
	RecordSeconds int `yaml:"record_seconds"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ProviderConfig is the read-only connection and model set a listen adapter is
// built with.
type ProviderConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Language    string
	Prompt      string
	Temperature float64
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.OpenAI.Name == "" {
		c.OpenAI.Name = DefaultName
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = DefaultBaseURL
	}
	c.OpenAI.BaseURL = strings.TrimSuffix(c.OpenAI.BaseURL, "/")
	if c.TTS.Model == "" {
		c.TTS.Model = DefaultTTSModel
	}
	if c.TTS.Voice == "" {
		c.TTS.Voice = DefaultVoice
	}
	if c.TTS.Speed == 0 {
		c.TTS.Speed = 1
	}
	if c.STT.Model == "" {
		c.STT.Model = DefaultSTTModel
	}
	if c.STT.Language == "" {
		c.STT.Language = DefaultLanguage
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.RateLimit == 0 {
		c.HTTP.RateLimit = 30
	}
	if c.HTTP.RateWindow == "" {
		c.HTTP.RateWindow = "1m"
	}
	if c.HTTP.MaxAudioBytes == 0 {
		c.HTTP.MaxAudioBytes = DefaultMaxAudioBytes
	}
	if c.Audio.ChunkSize == 0 {
		c.Audio.ChunkSize = 4096
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = 1
	}
	if c.Audio.RecordSeconds == 0 {
		c.Audio.RecordSeconds = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) Validate() error {
	var errs []error

	if c.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("openai.api_key is required"))
	}
	if u, err := url.Parse(c.OpenAI.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("openai.base_url %q is not an http(s) URL", c.OpenAI.BaseURL))
	}
	if c.TTS.Speed <= 0 {
		errs = append(errs, fmt.Errorf("tts.speed must be greater than 0, got %g", c.TTS.Speed))
	}
	if c.STT.Temperature < 0 || c.STT.Temperature > 1 {
		errs = append(errs, fmt.Errorf("stt.temperature must be within [0, 1], got %g", c.STT.Temperature))
	}
	if len(SplitLanguages(c.STT.Language)) == 0 {
		errs = append(errs, fmt.Errorf("stt.language %q has no language codes", c.STT.Language))
	}
	if _, err := time.ParseDuration(c.HTTP.RateWindow); err != nil {
		errs = append(errs, fmt.Errorf("http.rate_window: %w", err))
	}
	if c.HTTP.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("http.rate_limit must not be negative, got %d", c.HTTP.RateLimit))
	}
	if c.HTTP.MaxAudioBytes < 0 {
		errs = append(errs, fmt.Errorf("http.max_audio_bytes must not be negative, got %d", c.HTTP.MaxAudioBytes))
	}
	if c.Audio.ChunkSize < 0 || c.Audio.SampleRate < 0 || c.Audio.Channels < 0 || c.Audio.RecordSeconds < 0 {
		errs = append(errs, errors.New("audio settings must not be negative"))
	}

	return errors.Join(errs...)
}

func (c *Config) Provider() ProviderConfig {
	return ProviderConfig{
		APIKey:      c.OpenAI.APIKey,
		BaseURL:     c.OpenAI.BaseURL,
		Model:       c.STT.Model,
		Language:    c.STT.Language,
		Prompt:      c.STT.Prompt,
		Temperature: c.STT.Temperature,
	}
}

// RateWindowDuration returns the parsed rate window. Validate guarantees it parses.
func (c *Config) RateWindowDuration() time.Duration {
	d, err := time.ParseDuration(c.HTTP.RateWindow)
	if err != nil {
		return time.Minute
	}
	return d
}

// SplitLanguages turns "en-US, de-DE" into ["en-US", "de-DE"], dropping blanks.
func SplitLanguages(s string) []string {
	parts := strings.Split(s, ",")
	langs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			langs = append(langs, p)
		}
	}
	return langs
}
