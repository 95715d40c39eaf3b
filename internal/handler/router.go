package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/konnectpackaging/konnect-bot/backend/internal/handler/chat"
	"github.com/konnectpackaging/konnect-bot/backend/internal/handler/persona"
	"github.com/konnectpackaging/konnect-bot/backend/internal/handler/realtime"
	"github.com/konnectpackaging/konnect-bot/backend/internal/handler/speech"
	"github.com/konnectpackaging/konnect-bot/backend/internal/handler/stream"
	middlewarePkg "github.com/konnectpackaging/konnect-bot/backend/internal/middleware"
	personaModel "github.com/konnectpackaging/konnect-bot/backend/internal/model/persona"
	chatService "github.com/konnectpackaging/konnect-bot/backend/internal/service/chat"
	speechService "github.com/konnectpackaging/konnect-bot/backend/internal/service/speech"
	"github.com/konnectpackaging/konnect-bot/backend/pkg/utils"
)

// Deps are the services the HTTP surface is built on. Synth may be nil and
// an empty AllowedOrigins allows any origin.
type Deps struct {
	Personas       personaModel.Store
	Chat           *chatService.Service
	Synth          speechService.Synthesizer
	Logger         *zap.Logger
	AllowedOrigins []string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	personaHandler := persona.New(deps.Personas)
	chatHandler := chat.New(deps.Chat, logger.Named("chat"))
	streamHandler := stream.New(deps.Chat, logger.Named("stream"))
	realtimeHandler := realtime.New(deps.Chat, logger.Named("ws"))
	speechHandler := speech.New(deps.Synth, logger.Named("tts"))

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)

		api.Route("/sessions", func(sessions chi.Router) {
			chatHandler.RegisterRoutes(sessions)
			streamHandler.RegisterRoutes(sessions)
			realtimeHandler.RegisterRoutes(sessions)
		})

		speechHandler.RegisterRoutes(api)
	})

	return r
}
