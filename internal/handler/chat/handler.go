package chat

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/konnectpackaging/konnect-bot/backend/internal/analysis/language"
	chatmodel "github.com/konnectpackaging/konnect-bot/backend/internal/model/chat"
	chatservice "github.com/konnectpackaging/konnect-bot/backend/internal/service/chat"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/conversation"
	"github.com/konnectpackaging/konnect-bot/backend/pkg/utils"
)

// Handler serves the session REST API.
type Handler struct {
	chatSvc *chatservice.Service
	logger  *zap.Logger
}

// New creates a session handler.
func New(chatSvc *chatservice.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{chatSvc: chatSvc, logger: logger}
}

// RegisterRoutes registers the session routes on a router mounted at /sessions.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.handleCreateSession)
	r.Get("/{sessionID}", h.handleGetSession)
	r.Delete("/{sessionID}", h.handleEndSession)
	r.Post("/{sessionID}/messages", h.handleSendMessage)
	r.Put("/{sessionID}/language", h.handleSetLanguage)
	r.Put("/{sessionID}/speech", h.handleSetSpeech)
	r.Put("/{sessionID}/draft", h.handleSetDraft)
	r.Post("/{sessionID}/draft/emoji", h.handleInsertEmoji)
}

type createSessionRequest struct {
	Language string `json:"language"`
	Speech   *bool  `json:"speech"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	Reply     chatmodel.Message     `json:"reply"`
	Delivered bool                  `json:"delivered"`
	Language  language.Tag          `json:"language"`
	Snapshot  conversation.Snapshot `json:"snapshot"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload createSessionRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var opts []conversation.Option
	if payload.Language != "" {
		tag := language.Tag(payload.Language)
		if !tag.Valid() {
			utils.RespondError(w, http.StatusBadRequest, conversation.ErrUnsupportedLanguage.Error())
			return
		}
		opts = append(opts, conversation.WithLanguage(tag))
	}
	if payload.Speech != nil {
		opts = append(opts, conversation.WithSpeech(*payload.Speech))
	}

	snap, err := h.chatSvc.CreateSession(r.Context(), opts...)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, snap)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.chatSvc.Snapshot(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.chatSvc.EndSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload sendMessageRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.chatSvc.HandleTurn(r.Context(), chi.URLParam(r, "sessionID"), payload.Text)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, sendMessageResponse{
		Reply:     result.Reply,
		Delivered: result.Delivered,
		Language:  result.Language,
		Snapshot:  result.Snapshot,
	})
}

func (h *Handler) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Language string `json:"language"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := h.chatSvc.SetLanguage(r.Context(), chi.URLParam(r, "sessionID"), language.Tag(payload.Language))
	h.respondSnapshot(w, snap, err)
}

func (h *Handler) handleSetSpeech(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Enabled *bool `json:"enabled"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil || payload.Enabled == nil {
		utils.RespondError(w, http.StatusBadRequest, "enabled is required")
		return
	}

	snap, err := h.chatSvc.SetSpeechEnabled(r.Context(), chi.URLParam(r, "sessionID"), *payload.Enabled)
	h.respondSnapshot(w, snap, err)
}

func (h *Handler) handleSetDraft(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap, err := h.chatSvc.SetDraft(r.Context(), chi.URLParam(r, "sessionID"), payload.Text)
	h.respondSnapshot(w, snap, err)
}

func (h *Handler) handleInsertEmoji(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Emoji string `json:"emoji"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil || payload.Emoji == "" {
		utils.RespondError(w, http.StatusBadRequest, "emoji is required")
		return
	}

	snap, err := h.chatSvc.InsertEmoji(r.Context(), chi.URLParam(r, "sessionID"), payload.Emoji)
	h.respondSnapshot(w, snap, err)
}

func (h *Handler) respondSnapshot(w http.ResponseWriter, snap conversation.Snapshot, err error) {
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snap)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("session request failed", zap.Error(err))
	}
	utils.RespondError(w, status, err.Error())
}

// StatusFor maps service errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, conversation.ErrSessionNotFound), errors.Is(err, conversation.ErrPersonaNotFound):
		return http.StatusNotFound
	case errors.Is(err, chatservice.ErrEmptyMessage), errors.Is(err, conversation.ErrUnsupportedLanguage):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
