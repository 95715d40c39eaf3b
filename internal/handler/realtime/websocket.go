package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/konnectpackaging/konnect-bot/backend/internal/analysis/language"
	chatservice "github.com/konnectpackaging/konnect-bot/backend/internal/service/chat"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 << 10
	turnQueueSize  = 8
	outboundBuffer = 16
)

// Inbound message types.
const (
	TypeMessage  = "message"
	TypeLanguage = "language"
	TypeEmoji    = "emoji"
	TypeDraft    = "draft"
	TypeSpeech   = "speech"
)

// TypeError is sent when an inbound message cannot be applied.
const TypeError = "error"

// Handler drives a session over a websocket: inbound user actions, outbound
// snapshot and audio events.
type Handler struct {
	chatSvc  *chatservice.Service
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// New creates a websocket handler.
func New(chatSvc *chatservice.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc: chatSvc,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the websocket endpoint on a router mounted at /sessions.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/{sessionID}/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type textPayload struct {
	Text string `json:"text"`
}

type languagePayload struct {
	Language string `json:"language"`
}

type emojiPayload struct {
	Emoji string `json:"emoji"`
}

type speechPayload struct {
	Enabled bool `json:"enabled"`
}

type connection struct {
	sessionID string
	conn      *websocket.Conn
	out       chan outgoingMessage
	turns     chan string
	logger    *zap.Logger
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	snap, err := h.chatSvc.Snapshot(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, unsubscribe, err := h.chatSvc.Subscribe(ctx, sessionID)
	if err != nil {
		return
	}
	defer unsubscribe()

	c := &connection{
		sessionID: sessionID,
		conn:      conn,
		out:       make(chan outgoingMessage, outboundBuffer),
		turns:     make(chan string, turnQueueSize),
		logger:    h.logger.With(zap.String("session_id", sessionID)),
	}
	c.logger.Info("websocket connected")
	defer c.logger.Info("websocket disconnected")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.writeLoop(ctx, cancel, events)
	}()
	go func() {
		defer wg.Done()
		h.turnLoop(ctx, c)
	}()

	c.send(ctx, outgoingMessage{Type: string(chatservice.EventSnapshot), Data: snap})
	h.readLoop(ctx, c)

	cancel()
	wg.Wait()
}

func (h *Handler) readLoop(ctx context.Context, c *connection) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inboundMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if err := h.handleMessage(ctx, c, msg); err != nil {
			c.sendError(ctx, err.Error())
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *connection, msg inboundMessage) error {
	switch msg.Type {
	case TypeMessage:
		var payload textPayload
		if err := decode(msg.Data, &payload); err != nil {
			return err
		}
		select {
		case c.turns <- payload.Text:
			return nil
		default:
			return errTooManyPending
		}
	case TypeLanguage:
		var payload languagePayload
		if err := decode(msg.Data, &payload); err != nil {
			return err
		}
		_, err := h.chatSvc.SetLanguage(ctx, c.sessionID, language.Tag(payload.Language))
		return err
	case TypeEmoji:
		var payload emojiPayload
		if err := decode(msg.Data, &payload); err != nil {
			return err
		}
		_, err := h.chatSvc.InsertEmoji(ctx, c.sessionID, payload.Emoji)
		return err
	case TypeDraft:
		var payload textPayload
		if err := decode(msg.Data, &payload); err != nil {
			return err
		}
		_, err := h.chatSvc.SetDraft(ctx, c.sessionID, payload.Text)
		return err
	case TypeSpeech:
		var payload speechPayload
		if err := decode(msg.Data, &payload); err != nil {
			return err
		}
		_, err := h.chatSvc.SetSpeechEnabled(ctx, c.sessionID, payload.Enabled)
		return err
	default:
		return errUnknownType(msg.Type)
	}
}

// turnLoop runs queued user messages one at a time so websocket input keeps its order.
func (h *Handler) turnLoop(ctx context.Context, c *connection) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-c.turns:
			// An in-flight turn finishes even if the socket drops.
			if _, err := h.chatSvc.HandleTurn(context.WithoutCancel(ctx), c.sessionID, text); err != nil {
				c.sendError(ctx, err.Error())
			}
		}
	}
}

func (c *connection) writeLoop(ctx context.Context, cancel context.CancelFunc, events <-chan chatservice.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.out:
			if err := c.write(msg); err != nil {
				return
			}
		case evt, ok := <-events:
			if !ok {
				deadline := time.Now().Add(writeWait)
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"), deadline)
				_ = c.conn.Close()
				return
			}
			msg := outgoingMessage{Type: string(evt.Type), SessionID: evt.SessionID}
			switch evt.Type {
			case chatservice.EventAudio:
				msg.Data = evt.Audio
			default:
				msg.Data = evt.Snapshot
			}
			if err := c.write(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *connection) write(msg outgoingMessage) error {
	if msg.SessionID == "" {
		msg.SessionID = c.sessionID
	}
	msg.Timestamp = time.Now().Unix()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		c.logger.Debug("websocket write failed", zap.Error(err))
		return err
	}
	return nil
}

func (c *connection) send(ctx context.Context, msg outgoingMessage) {
	select {
	case c.out <- msg:
	case <-ctx.Done():
	}
}

func (c *connection) sendError(ctx context.Context, message string) {
	c.send(ctx, outgoingMessage{Type: TypeError, Data: map[string]string{"message": message}})
}
