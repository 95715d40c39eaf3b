package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	speechmodel "github.com/konnectpackaging/konnect-bot/backend/internal/model/speech"
)

// DefaultEndpoint is the local synthesis proxy.
const DefaultEndpoint = "http://localhost:3001/api/tts"

// maxAudioBytes caps how much audio is read from a synthesis response.
const maxAudioBytes = 16 << 20

// HTTPClient posts {"text": ...} to a synthesis endpoint and returns the audio body.
type HTTPClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPClient creates a client for endpoint. An empty endpoint uses DefaultEndpoint.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	return &HTTPClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the synthesis URL.
func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

// Synthesize implements Synthesizer.
func (c *HTTPClient) Synthesize(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	if req == nil || strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("synthesize: text is required")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode tts request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build tts request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("read tts audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("tts returned no audio")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(audio)
	}

	return &speechmodel.TTSResponse{
		Audio:       audio,
		ContentType: contentType,
		RequestID:   uuid.NewString(),
		CreatedAt:   time.Now(),
	}, nil
}
