package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/konnectpackaging/konnect-bot/backend/internal/model/persona"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/completion"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/speech"
)

// Config aggregates every runtime setting.
type Config struct {
	Server     ServerConfig
	Completion CompletionConfig
	Speech     SpeechConfig
	Brand      BrandConfig
	Log        LogConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	completionCfg, err := loadCompletionConfig()
	if err != nil {
		return nil, err
	}

	speechCfg, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:     server,
		Completion: completionCfg,
		Speech:     speechCfg,
		Brand:      BrandConfig{ProfileFile: strings.TrimSpace(os.Getenv("BRAND_PROFILE_FILE"))},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

func loadServerConfig() (ServerConfig, error) {
	origins := parseListEnv("CORS_ALLOWED_ORIGINS", []string{"*"})

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	// ":8080" and "127.0.0.1:8080" are accepted as-is.
	if strings.Contains(port, ":") {
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value %q: %w", port, err)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// Completion providers.
const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
)

// CompletionConfig describes the chat model backend.
type CompletionConfig struct {
	Provider     string
	Model        string
	Temperature  float32
	Timeout      time.Duration
	HistoryLimit int

	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkBaseURL   string
	ArkRegion    string

	OpenAIAPIKey  string
	OpenAIBaseURL string
}

func (c CompletionConfig) arkCredentials() bool {
	return c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != "")
}

// Enabled reports whether credentials for the selected provider are present.
func (c CompletionConfig) Enabled() bool {
	switch c.Provider {
	case ProviderArk:
		return c.Model != "" && c.arkCredentials()
	case ProviderOpenAI:
		return c.Model != "" && c.OpenAIAPIKey != ""
	default:
		return false
	}
}

// NewChatModel builds the configured chat model transport.
func (c CompletionConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%s completion credentials or model missing", c.Provider)
	}

	switch c.Provider {
	case ProviderArk:
		temperature := c.Temperature
		chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.ArkBaseURL,
			Region:      c.ArkRegion,
			APIKey:      c.ArkAPIKey,
			AccessKey:   c.ArkAccessKey,
			SecretKey:   c.ArkSecretKey,
			Model:       c.Model,
			Temperature: &temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("create ark chat model: %w", err)
		}
		return chatModel, nil
	case ProviderOpenAI:
		chatModel, err := completion.NewOpenAIModel(completion.OpenAIConfig{
			APIKey:  c.OpenAIAPIKey,
			BaseURL: c.OpenAIBaseURL,
			Model:   c.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai chat model: %w", err)
		}
		return chatModel, nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", c.Provider)
	}
}

// DispatcherOptions converts the config into completion dispatcher options.
func (c CompletionConfig) DispatcherOptions() []completion.Option {
	return []completion.Option{
		completion.WithModelID(c.Model),
		completion.WithTemperature(c.Temperature),
		completion.WithTimeout(c.Timeout),
	}
}

func loadCompletionConfig() (CompletionConfig, error) {
	temperature := completion.DefaultTemperature
	if override, err := parseOptionalFloat32Env("COMPLETION_TEMPERATURE"); err != nil {
		return CompletionConfig{}, err
	} else if override != nil {
		temperature = *override
	}

	timeout, err := parseDurationEnv("COMPLETION_TIMEOUT", completion.DefaultTimeout)
	if err != nil {
		return CompletionConfig{}, err
	}
	if timeout == 0 {
		return CompletionConfig{}, fmt.Errorf("invalid COMPLETION_TIMEOUT value %q: must be positive", os.Getenv("COMPLETION_TIMEOUT"))
	}

	historyLimit := 0
	if override, err := parseOptionalIntEnv("COMPLETION_HISTORY_LIMIT"); err != nil {
		return CompletionConfig{}, err
	} else if override != nil && *override > 0 {
		historyLimit = *override
	}

	cfg := CompletionConfig{
		Provider:      strings.ToLower(strings.TrimSpace(os.Getenv("COMPLETION_PROVIDER"))),
		Model:         strings.TrimSpace(os.Getenv("COMPLETION_MODEL")),
		Temperature:   temperature,
		Timeout:       timeout,
		HistoryLimit:  historyLimit,
		ArkAPIKey:     strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey:  strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey:  strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkBaseURL:    getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:     getEnvOrDefault("ARK_REGION", "cn-beijing"),
		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL: strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
	}

	switch cfg.Provider {
	case "":
		cfg.Provider = ProviderOpenAI
		if cfg.arkCredentials() {
			cfg.Provider = ProviderArk
		}
	case ProviderArk, ProviderOpenAI:
	default:
		return CompletionConfig{}, fmt.Errorf("invalid COMPLETION_PROVIDER value %q: want %s or %s", cfg.Provider, ProviderArk, ProviderOpenAI)
	}

	// Ark addresses models by endpoint id, so there is no usable default.
	if cfg.Model == "" {
		if cfg.Provider == ProviderArk {
			return CompletionConfig{}, fmt.Errorf("COMPLETION_MODEL is required for the %s provider", ProviderArk)
		}
		cfg.Model = completion.DefaultModelID
	}

	return cfg, nil
}

// SpeechConfig describes spoken output.
type SpeechConfig struct {
	Enabled       bool
	Endpoint      string
	Timeout       time.Duration
	PlayerCommand string

	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string
	ElevenLabsModel   string
}

// ElevenLabsEnabled reports whether the in-process synthesizer can be built.
func (c SpeechConfig) ElevenLabsEnabled() bool {
	return c.ElevenLabsAPIKey != "" && c.ElevenLabsVoiceID != ""
}

// NewElevenLabs builds the ElevenLabs synthesizer, or returns speech.ErrSpeechUnavailable.
func (c SpeechConfig) NewElevenLabs() (*speech.ElevenLabsClient, error) {
	if !c.ElevenLabsEnabled() {
		return nil, speech.ErrSpeechUnavailable
	}
	return speech.NewElevenLabsClient(speech.ElevenLabsConfig{
		APIKey:  c.ElevenLabsAPIKey,
		VoiceID: c.ElevenLabsVoiceID,
		ModelID: c.ElevenLabsModel,
		Timeout: c.Timeout,
	})
}

// NewSynthesizer returns the synthesizer replies are spoken with: ElevenLabs
// directly when configured and no endpoint override is set, otherwise the
// HTTP synthesis endpoint.
func (c SpeechConfig) NewSynthesizer() (speech.Synthesizer, error) {
	if c.Endpoint == "" && c.ElevenLabsEnabled() {
		return c.NewElevenLabs()
	}
	return speech.NewHTTPClient(c.Endpoint, c.Timeout), nil
}

func loadSpeechConfig() (SpeechConfig, error) {
	enabled, err := parseBoolEnv("SPEECH_ENABLED", false)
	if err != nil {
		return SpeechConfig{}, err
	}

	timeout, err := parseDurationEnv("SPEECH_TIMEOUT", speech.DefaultTimeout)
	if err != nil {
		return SpeechConfig{}, err
	}

	return SpeechConfig{
		Enabled:           enabled,
		Endpoint:          strings.TrimSpace(os.Getenv("SPEECH_ENDPOINT")),
		Timeout:           timeout,
		PlayerCommand:     strings.TrimSpace(os.Getenv("SPEECH_PLAYER_COMMAND")),
		ElevenLabsAPIKey:  strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")),
		ElevenLabsVoiceID: strings.TrimSpace(os.Getenv("ELEVENLABS_VOICE_ID")),
		ElevenLabsModel:   getEnvOrDefault("ELEVENLABS_MODEL", "eleven_multilingual_v2"),
	}, nil
}

// BrandConfig points at an optional persona profile file.
type BrandConfig struct {
	ProfileFile string
}

// Personas returns the profile file contents, or the built-in profile when no file is set.
func (c BrandConfig) Personas() ([]persona.Persona, error) {
	if c.ProfileFile == "" {
		return persona.Seed(), nil
	}
	return persona.LoadFile(c.ProfileFile)
}

// LogConfig selects the logger level and encoder.
type LogConfig struct {
	Level  string
	Format string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// parseListEnv splits a comma-separated value, dropping empty entries.
func parseListEnv(key string, defaultValue []string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

// parseDurationEnv accepts Go durations ("45s") or a bare number of seconds.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
		}
		return time.Duration(seconds) * time.Second, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalFloat32Env(key string) (*float32, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	result := float32(val)
	return &result, nil
}
