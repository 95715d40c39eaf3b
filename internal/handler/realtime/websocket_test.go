package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konnectpackaging/konnect-bot/backend/internal/analysis/language"
	"github.com/konnectpackaging/konnect-bot/backend/internal/model/persona"
	chatservice "github.com/konnectpackaging/konnect-bot/backend/internal/service/chat"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/completion"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/conversation"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/prompt"
)

type echoModel struct{}

func (echoModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	return schema.AssistantMessage("echo: "+in[len(in)-1].Content, nil), nil
}

func (m echoModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, _ := m.Generate(ctx, in, opts...)
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

type frame struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

func setup(t *testing.T) (*httptest.Server, *chatservice.Service, string) {
	t.Helper()

	dispatcher, err := completion.NewDispatcher(echoModel{})
	require.NoError(t, err)
	sessions := conversation.NewService(persona.NewMemoryStore(persona.Seed()))
	svc := chatservice.NewService(sessions, prompt.NewComposer(), dispatcher)

	snap, err := svc.CreateSession(context.Background())
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/sessions", New(svc, nil).RegisterRoutes)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, svc, snap.SessionID
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/sessions/" + sessionID + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func readSnapshotUntil(t *testing.T, conn *websocket.Conn, match func(conversation.Snapshot) bool) conversation.Snapshot {
	t.Helper()

	for {
		f := readFrame(t, conn)
		if f.Type != string(chatservice.EventSnapshot) {
			continue
		}
		var snap conversation.Snapshot
		require.NoError(t, json.Unmarshal(f.Data, &snap))
		if match(snap) {
			return snap
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": msgType, "data": data}))
}

func TestInitialSnapshot(t *testing.T) {
	server, _, sessionID := setup(t)
	conn := dial(t, server, sessionID)

	f := readFrame(t, conn)
	assert.Equal(t, "snapshot", f.Type)
	assert.Equal(t, sessionID, f.SessionID)

	var snap conversation.Snapshot
	require.NoError(t, json.Unmarshal(f.Data, &snap))
	assert.Len(t, snap.Messages, 1)
}

func TestUnknownSessionRejected(t *testing.T) {
	server, _, _ := setup(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/sessions/missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestMessageRunsTurn(t *testing.T) {
	server, _, sessionID := setup(t)
	conn := dial(t, server, sessionID)
	readFrame(t, conn)

	send(t, conn, TypeMessage, map[string]string{"text": "hello there"})

	snap := readSnapshotUntil(t, conn, func(s conversation.Snapshot) bool {
		return len(s.Messages) == 3 && !s.Typing
	})
	assert.Equal(t, "echo: hello there", snap.Messages[2].Text)
}

func TestDraftLanguageAndSpeech(t *testing.T) {
	server, _, sessionID := setup(t)
	conn := dial(t, server, sessionID)
	readFrame(t, conn)

	send(t, conn, TypeDraft, map[string]string{"text": "Need bags"})
	snap := readSnapshotUntil(t, conn, func(s conversation.Snapshot) bool { return s.Draft == "Need bags" })
	assert.Equal(t, "Need bags", snap.Draft)

	send(t, conn, TypeEmoji, map[string]string{"emoji": "👍"})
	readSnapshotUntil(t, conn, func(s conversation.Snapshot) bool { return s.Draft == "Need bags👍" })

	send(t, conn, TypeLanguage, map[string]string{"language": "hindi"})
	snap = readSnapshotUntil(t, conn, func(s conversation.Snapshot) bool { return s.Language == language.Hindi })
	assert.Len(t, snap.Messages, 1)

	send(t, conn, TypeSpeech, map[string]bool{"enabled": false})
	snap = readSnapshotUntil(t, conn, func(s conversation.Snapshot) bool { return !s.SpeechEnabled })
	assert.False(t, snap.SpeechEnabled)
}

func TestInvalidInputReportsError(t *testing.T) {
	server, _, sessionID := setup(t)
	conn := dial(t, server, sessionID)
	readFrame(t, conn)

	send(t, conn, "teleport", map[string]string{})
	f := readFrame(t, conn)
	assert.Equal(t, TypeError, f.Type)
	assert.Contains(t, string(f.Data), "unknown message type")

	send(t, conn, TypeLanguage, map[string]string{"language": "tamil"})
	f = readFrame(t, conn)
	assert.Equal(t, TypeError, f.Type)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": TypeMessage}))
	f = readFrame(t, conn)
	assert.Equal(t, TypeError, f.Type)
	assert.Contains(t, string(f.Data), "data is required")
}

func TestEndSessionClosesSocket(t *testing.T) {
	server, svc, sessionID := setup(t)
	conn := dial(t, server, sessionID)
	readFrame(t, conn)

	require.NoError(t, svc.EndSession(context.Background(), sessionID))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())
}
