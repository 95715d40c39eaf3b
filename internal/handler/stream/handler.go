package stream

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	chatservice "github.com/konnectpackaging/konnect-bot/backend/internal/service/chat"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/conversation"
	"github.com/konnectpackaging/konnect-bot/backend/pkg/utils"
)

// DefaultKeepAlive is the interval between SSE keep-alive comments.
const DefaultKeepAlive = 15 * time.Second

// Handler streams session events to the browser via Server-Sent Events.
type Handler struct {
	chatSvc   *chatservice.Service
	logger    *zap.Logger
	keepAlive time.Duration
}

// New creates a stream handler.
func New(chatSvc *chatservice.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{chatSvc: chatSvc, logger: logger, keepAlive: DefaultKeepAlive}
}

// RegisterRoutes registers the event stream on a router mounted at /sessions.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/{sessionID}/events", h.handleEvents)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionID")

	events, cancel, err := h.chatSvc.Subscribe(ctx, sessionID)
	if err != nil {
		if errors.Is(err, conversation.ErrSessionNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer cancel()

	snap, err := h.chatSvc.Snapshot(ctx, sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	logger := h.logger.With(zap.String("session_id", sessionID))
	logger.Debug("sse stream opened")
	defer logger.Debug("sse stream closed")

	initial := chatservice.Event{Type: chatservice.EventSnapshot, SessionID: sessionID, Snapshot: &snap}
	if err := utils.SendSSEEvent(w, flusher, string(initial.Type), initial); err != nil {
		logger.Debug("sse write failed", zap.Error(err))
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keep-alive"); err != nil {
				return
			}
		case evt, ok := <-events:
			if !ok {
				_ = utils.SendSSEEvent(w, flusher, "closed", map[string]string{"sessionId": sessionID})
				return
			}
			if err := utils.SendSSEEvent(w, flusher, string(evt.Type), evt); err != nil {
				logger.Debug("sse write failed", zap.Error(err))
				return
			}
		}
	}
}
