package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konnectpackaging/konnect-bot/backend/internal/model/persona"
	chatService "github.com/konnectpackaging/konnect-bot/backend/internal/service/chat"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/completion"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/conversation"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/prompt"
)

type okModel struct{}

func (okModel) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	return schema.AssistantMessage("ok", nil), nil
}

func (m okModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, _ := m.Generate(ctx, in, opts...)
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	personas := persona.NewMemoryStore(persona.Seed())
	dispatcher, err := completion.NewDispatcher(okModel{})
	require.NoError(t, err)
	svc := chatService.NewService(conversation.NewService(personas), prompt.NewComposer(), dispatcher)

	return NewRouter(Deps{Personas: personas, Chat: svc})
}

func TestRouterRoutes(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{method: http.MethodGet, path: "/healthz", want: http.StatusOK},
		{method: http.MethodGet, path: "/api/personas", want: http.StatusOK},
		{method: http.MethodPost, path: "/api/sessions", body: `{}`, want: http.StatusCreated},
		{method: http.MethodGet, path: "/api/sessions/missing", want: http.StatusNotFound},
		{method: http.MethodPost, path: "/api/tts", body: `{"text":"hi"}`, want: http.StatusNotImplemented},
		{method: http.MethodGet, path: "/nope", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, req)

	assert.Less(t, rec.Code, 300)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
