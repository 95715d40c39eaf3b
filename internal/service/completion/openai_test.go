package completion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAIServer(t *testing.T, handler http.HandlerFunc) *OpenAIModel {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	m, err := NewOpenAIModel(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)
	return m
}

func TestOpenAIModelGenerate(t *testing.T) {
	var received openai.ChatCompletionRequest
	m := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Namaste!"},"finish_reason":"stop"}]}`)
	})

	d, err := NewDispatcher(m)
	require.NoError(t, err)

	got, err := d.Dispatch(context.Background(), []*schema.Message{
		schema.SystemMessage("You are Konnect Bot."),
		schema.UserMessage("hello"),
		schema.AssistantMessage("Hi!", nil),
	})
	require.NoError(t, err)
	assert.Equal(t, "Namaste!", got)

	assert.Equal(t, DefaultModelID, received.Model)
	assert.InDelta(t, 0.7, received.Temperature, 1e-6)
	require.Len(t, received.Messages, 3)
	assert.Equal(t, openai.ChatMessageRoleSystem, received.Messages[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, received.Messages[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, received.Messages[2].Role)
}

func TestOpenAIModelHTTPErrorFailsDispatch(t *testing.T) {
	m := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"upstream down","type":"server_error"}}`)
	})

	d, err := NewDispatcher(m)
	require.NoError(t, err)

	_, err = d.Dispatch(context.Background(), []*schema.Message{schema.UserMessage("hello")})
	assert.ErrorIs(t, err, ErrDispatchFailed)
}

func TestOpenAIModelNoChoices(t *testing.T) {
	m := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","choices":[]}`)
	})

	_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hello")})
	assert.Error(t, err)
}

func TestOpenAIModelStream(t *testing.T) {
	m := newOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Hello", ", world"} {
			_, _ = io.WriteString(w, `data: {"id":"c1","choices":[{"index":0,"delta":{"content":"`+part+`"}}]}`+"\n\n")
		}
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	})

	reader, err := m.Stream(context.Background(), []*schema.Message{schema.UserMessage("hello")})
	require.NoError(t, err)
	defer reader.Close()

	var b strings.Builder
	for {
		chunk, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		b.WriteString(chunk.Content)
	}
	assert.Equal(t, "Hello, world", b.String())
}

func TestNewOpenAIModelRequiresKey(t *testing.T) {
	_, err := NewOpenAIModel(OpenAIConfig{})
	assert.Error(t, err)
}
