package speech

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/konnectpackaging/konnect-bot/backend/internal/analysis/emotion"
	speechmodel "github.com/konnectpackaging/konnect-bot/backend/internal/model/speech"
	speechsvc "github.com/konnectpackaging/konnect-bot/backend/internal/service/speech"
	"github.com/konnectpackaging/konnect-bot/backend/pkg/utils"
)

// maxTextLength bounds the text accepted by a single synthesis request.
const maxTextLength = 5000

// Handler exposes the text-to-speech endpoint.
type Handler struct {
	synth  speechsvc.Synthesizer
	logger *zap.Logger
}

// New creates a speech handler. A nil synthesizer answers 501.
func New(synth speechsvc.Synthesizer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{synth: synth, logger: logger}
}

// RegisterRoutes registers the speech routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/tts", h.handleSynthesize)
	r.Get("/tts/health", h.handleHealth)
}

func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	if h.synth == nil {
		utils.RespondError(w, http.StatusNotImplemented, speechsvc.ErrSpeechUnavailable.Error())
		return
	}

	var req speechmodel.TTSRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Text = strings.TrimSpace(req.Text)
	switch {
	case req.Text == "":
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	case len([]rune(req.Text)) > maxTextLength:
		utils.RespondError(w, http.StatusRequestEntityTooLarge, "text too long")
		return
	case req.Emotion != "" && !req.Emotion.Valid():
		utils.RespondError(w, http.StatusBadRequest, "unknown emotion")
		return
	}
	if req.Emotion == "" {
		req.Emotion = emotion.Neutral
	}

	resp, err := h.synth.Synthesize(r.Context(), &req)
	if err != nil {
		h.logger.Warn("speech synthesis failed", zap.Error(err))
		utils.RespondError(w, http.StatusBadGateway, "speech synthesis failed")
		return
	}

	w.Header().Set("Content-Type", resp.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Audio)))
	if resp.RequestID != "" {
		w.Header().Set("X-TTS-Request-ID", resp.RequestID)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(resp.Audio); err != nil {
		h.logger.Debug("write audio response", zap.Error(err))
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.synth == nil {
		status = "disabled"
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"service": "speech",
	})
}
