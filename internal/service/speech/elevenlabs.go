package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	speechmodel "github.com/konnectpackaging/konnect-bot/backend/internal/model/speech"
)

const (
	elevenLabsBaseURL      = "https://api.elevenlabs.io"
	elevenLabsDefaultModel = "eleven_multilingual_v2"
	elevenLabsOutputFormat = "mp3_44100_128"
)

// ElevenLabsConfig holds credentials and defaults for the ElevenLabs API.
type ElevenLabsConfig struct {
	APIKey  string
	VoiceID string
	ModelID string
	BaseURL string
	Timeout time.Duration
}

// ElevenLabsClient synthesizes speech through the ElevenLabs text-to-speech endpoint.
type ElevenLabsClient struct {
	apiKey     string
	voiceID    string
	modelID    string
	baseURL    string
	httpClient *http.Client
}

// NewElevenLabsClient validates cfg and creates a client.
func NewElevenLabsClient(cfg ElevenLabsConfig) (*ElevenLabsClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.VoiceID) == "" {
		return nil, fmt.Errorf("elevenlabs: api key or voice id missing")
	}

	modelID := strings.TrimSpace(cfg.ModelID)
	if modelID == "" {
		modelID = elevenLabsDefaultModel
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = elevenLabsBaseURL
	}

	return &ElevenLabsClient{
		apiKey:     cfg.APIKey,
		voiceID:    cfg.VoiceID,
		modelID:    modelID,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type elevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// Synthesize implements Synthesizer. req.Voice overrides the configured voice.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	if req == nil || strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("elevenlabs: text is required")
	}

	voiceID := c.voiceID
	if v := strings.TrimSpace(req.Voice); v != "" {
		voiceID = v
	}

	endpoint := c.baseURL + "/v1/text-to-speech/" + url.PathEscape(voiceID) +
		"?output_format=" + url.QueryEscape(elevenLabsOutputFormat)

	body, err := json.Marshal(elevenLabsRequest{
		Text:          req.Text,
		ModelID:       c.modelID,
		VoiceSettings: VoiceSettingsFor(req.Emotion),
	})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: build request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("elevenlabs status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: read audio: %w", err)
	}

	requestID := resp.Header.Get("request-id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	return &speechmodel.TTSResponse{
		Audio:       audio,
		ContentType: contentType,
		RequestID:   requestID,
		CreatedAt:   time.Now(),
	}, nil
}
