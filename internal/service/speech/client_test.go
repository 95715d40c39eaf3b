package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	speechmodel "github.com/konnectpackaging/konnect-bot/backend/internal/model/speech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientPostsTextOnly(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/tts", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-bytes"))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL+"/api/tts", time.Second)
	resp, err := client.Synthesize(context.Background(), &speechmodel.TTSRequest{Text: "Hello there"})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"text": "Hello there"}, body)
	assert.Equal(t, []byte("ID3-bytes"), resp.Audio)
	assert.Equal(t, "audio/mpeg", resp.ContentType)
	assert.NotEmpty(t, resp.RequestID)
}

func TestHTTPClientFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "server error", handler: func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "synthesis failed", http.StatusBadGateway)
		}},
		{name: "empty audio", handler: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := NewHTTPClient(server.URL, time.Second).Synthesize(context.Background(), &speechmodel.TTSRequest{Text: "hi"})
			assert.Error(t, err)
		})
	}
}

func TestHTTPClientRejectsEmptyText(t *testing.T) {
	_, err := NewHTTPClient("", time.Second).Synthesize(context.Background(), &speechmodel.TTSRequest{Text: "  "})
	assert.Error(t, err)
}

func TestHTTPClientDefaultEndpoint(t *testing.T) {
	assert.Equal(t, DefaultEndpoint, NewHTTPClient(" ", time.Second).Endpoint())
}
