package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/konnectpackaging/konnect-bot/backend/internal/analysis/emotion"
	"github.com/konnectpackaging/konnect-bot/backend/internal/config"
	"github.com/konnectpackaging/konnect-bot/backend/internal/logging"
	speechmodel "github.com/konnectpackaging/konnect-bot/backend/internal/model/speech"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/speech"
)

func main() {
	text := flag.String("text", "", "text to synthesize")
	outputPath := flag.String("out", "", "output audio file (default tts-<unix>.mp3)")
	voice := flag.String("voice", "", "voice id override")
	mood := flag.String("emotion", string(emotion.Neutral), "emotion used to pick voice settings")
	provider := flag.String("provider", "auto", "synthesizer: auto, http or elevenlabs")
	play := flag.Bool("play", false, "play the clip with SPEECH_PLAYER_COMMAND")
	timeout := flag.Duration("timeout", 45*time.Second, "request timeout")
	flag.Parse()

	_ = godotenv.Load()

	logger, err := logging.New("info", "console")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger, *text, *outputPath, *voice, *mood, *provider, *play, *timeout); err != nil {
		logger.Fatal("speech test failed", zap.Error(err))
	}
}

func run(logger *zap.Logger, text, outputPath, voice, mood, provider string, play bool, timeout time.Duration) error {
	text = strings.TrimSpace(text)
	if text == "" {
		flag.Usage()
		return fmt.Errorf("-text is required")
	}
	label := emotion.Label(strings.ToLower(mood))
	if !label.Valid() {
		return fmt.Errorf("unknown emotion %q", mood)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	synth, err := synthesizerFor(cfg.Speech, provider)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	started := time.Now()
	resp, err := synth.Synthesize(ctx, &speechmodel.TTSRequest{Text: text, Voice: voice, Emotion: label})
	if err != nil {
		return err
	}
	logger.Info("synthesis succeeded",
		zap.Int("bytes", len(resp.Audio)),
		zap.String("content_type", resp.ContentType),
		zap.String("request_id", resp.RequestID),
		zap.Duration("elapsed", time.Since(started)),
	)

	if outputPath == "" {
		outputPath = fmt.Sprintf("tts-%d.mp3", time.Now().Unix())
	}
	if err := os.WriteFile(outputPath, resp.Audio, 0o644); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}
	logger.Info("audio written", zap.String("path", outputPath))

	if !play {
		return nil
	}
	player, err := speech.NewCommandPlayer(cfg.Speech.PlayerCommand)
	if err != nil {
		return fmt.Errorf("SPEECH_PLAYER_COMMAND: %w", err)
	}
	return player.Play(ctx, speechmodel.Clip{Text: text, Audio: resp.Audio, ContentType: resp.ContentType})
}

func synthesizerFor(cfg config.SpeechConfig, provider string) (speech.Synthesizer, error) {
	switch provider {
	case "auto":
		return cfg.NewSynthesizer()
	case "http":
		return speech.NewHTTPClient(cfg.Endpoint, cfg.Timeout), nil
	case "elevenlabs":
		return cfg.NewElevenLabs()
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}
