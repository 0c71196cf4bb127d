package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"openai-speech/config"
	"openai-speech/internal/application"
	"openai-speech/internal/domain"
	"openai-speech/internal/infra/audio"
	"openai-speech/internal/infra/httpapi"
	"openai-speech/internal/infra/openai"
	"openai-speech/internal/metrics"
)

const usage = `usage: openai-speech [-config path] <command> [flags]

commands:
  serve    run the HTTP bridge until interrupted
  speak    synthesize text to an mp3 file
  listen   transcribe a WAV file or a microphone recording
`

type services struct {
	cfg      *config.Config
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	stt      *application.SpeechToTextEntity
	tts      *application.TextToSpeechEntity
	logger   *slog.Logger
}

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	svc := buildServices(cfg, logger)

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "serve":
		err = serve(ctx, svc)
	case "speak":
		err = speak(ctx, svc, args)
	case "listen":
		err = listen(ctx, svc, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		flag.Usage()
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(cmd+" failed", "error", err)
		os.Exit(1)
	}
}

func buildServices(cfg *config.Config, logger *slog.Logger) *services {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	transcriber := openai.NewTranscriber(cfg.Provider(), cfg.STT.TempDir, nil, logger)
	synthesizer := openai.NewSynthesizer(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, nil, logger)

	defaults := domain.SynthesisOptions{
		Voice: cfg.TTS.Voice,
		Model: cfg.TTS.Model,
		Speed: cfg.TTS.Speed,
	}

	return &services{
		cfg:      cfg,
		registry: registry,
		metrics:  m,
		stt:      application.NewSpeechToTextEntity(cfg.OpenAI.Name, config.SplitLanguages(cfg.STT.Language), transcriber, m, logger),
		tts:      application.NewTextToSpeechEntity(cfg.OpenAI.Name, defaults, synthesizer, m, logger),
		logger:   logger,
	}
}

func serve(ctx context.Context, svc *services) error {
	server := httpapi.New(httpapi.Options{
		Addr:          svc.cfg.HTTP.Addr,
		AuthToken:     svc.cfg.HTTP.AuthToken,
		RateLimit:     svc.cfg.HTTP.RateLimit,
		RateWindow:    svc.cfg.RateWindowDuration(),
		ChunkSize:     svc.cfg.Audio.ChunkSize,
		MaxAudioBytes: svc.cfg.HTTP.MaxAudioBytes,
		Gatherer:      svc.registry,
	}, svc.stt, svc.tts, svc.metrics, svc.logger)

	if svc.cfg.HTTP.AuthToken == "" {
		svc.logger.Warn("http.auth_token is empty, /api is unauthenticated")
	}

	svc.logger.Info("starting speech services",
		"stt", svc.stt.Name(),
		"tts", svc.tts.Name(),
	)

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}

	<-ctx.Done()
	return server.Stop()
}

func speak(ctx context.Context, svc *services, args []string) error {
	fs := flag.NewFlagSet("speak", flag.ExitOnError)
	text := fs.String("text", "", "text to synthesize (reads stdin when empty)")
	out := fs.String("out", "speech.mp3", "output file, - for stdout")
	voice := fs.String("voice", "", "voice override: "+strings.Join(config.TTSVoices, ", "))
	model := fs.String("model", "", "model override: "+strings.Join(config.TTSModels, ", "))
	speed := fs.Float64("speed", 0, "speed override (0 keeps the configured speed)")
	_ = fs.Parse(args)

	message := *text
	if message == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		message = strings.TrimSpace(string(data))
	}
	if message == "" {
		return errors.New("nothing to say: pass -text or pipe text on stdin")
	}

	var w io.Writer = os.Stdout
	if *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		w = f
	}

	assistant := application.NewAssistant(nil, svc.stt, svc.tts, svc.logger)
	format, err := assistant.Speak(ctx, message, domain.SynthesisOptions{Voice: *voice, Model: *model, Speed: *speed}, w)
	if err != nil {
		if *out != "-" {
			os.Remove(*out)
		}
		return err
	}

	svc.logger.Info("speech written", "format", format, "out", *out)
	return nil
}

func listen(ctx context.Context, svc *services, args []string) error {
	fs := flag.NewFlagSet("listen", flag.ExitOnError)
	file := fs.String("file", "", "WAV file to transcribe")
	mic := fs.Bool("mic", false, "record from the default microphone")
	seconds := fs.Int("seconds", svc.cfg.Audio.RecordSeconds, "recording length with -mic")
	_ = fs.Parse(args)

	source, err := createAudioSource(svc, *file, *mic, *seconds)
	if err != nil {
		return err
	}

	assistant := application.NewAssistant(source, svc.stt, svc.tts, svc.logger)
	result, err := assistant.Listen(ctx)
	if err != nil {
		return err
	}
	if !result.OK() {
		return errors.New("transcription failed")
	}

	fmt.Println(result.Text)
	return nil
}

func createAudioSource(svc *services, file string, mic bool, seconds int) (application.AudioSource, error) {
	language := svc.stt.DefaultLanguage()
	switch {
	case file != "" && mic:
		return nil, errors.New("use either -file or -mic, not both")
	case file != "":
		if !audio.IsWAV(file) {
			return nil, fmt.Errorf("%s: only .wav files are supported", file)
		}
		return audio.NewFileSource(file, language, svc.cfg.Audio.ChunkSize), nil
	case mic:
		return audio.NewMicrophoneSource(svc.cfg.Audio.SampleRate, svc.cfg.Audio.Channels, seconds, language, svc.logger), nil
	default:
		return nil, errors.New("listen needs -file or -mic")
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	// stdout carries transcripts and audio, so logs go to stderr.
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
