package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/konnectpackaging/konnect-bot/backend/internal/config"
	"github.com/konnectpackaging/konnect-bot/backend/internal/model/persona"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/chat"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/completion"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/conversation"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/prompt"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/speech"
)

type app struct {
	personas persona.Store
	chat     *chat.Service
	synth    speech.Synthesizer
	speaker  *speech.Dispatcher
}

// Close stops background speech.
func (a *app) Close() {
	if a.speaker != nil {
		a.speaker.Close()
	}
}

// newPlayer picks where synthesized replies go once the hub exists.
type newPlayer func(hub *chat.Hub) (speech.Player, error)

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, playerFor newPlayer) (*app, error) {
	items, err := cfg.Brand.Personas()
	if err != nil {
		return nil, fmt.Errorf("load brand profile: %w", err)
	}
	personas := persona.NewMemoryStore(items)
	sessions := conversation.NewService(personas, conversation.WithSpeech(cfg.Speech.Enabled))

	chatModel, err := cfg.Completion.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("init completion: %w", err)
	}
	opts := append(cfg.Completion.DispatcherOptions(), completion.WithLogger(logger.Named("completion")))
	dispatcher, err := completion.NewDispatcher(chatModel, opts...)
	if err != nil {
		return nil, err
	}
	logger.Info("completion ready",
		zap.String("provider", cfg.Completion.Provider),
		zap.String("model", dispatcher.ModelID()),
	)

	hub := chat.NewHub(chat.DefaultSubscriberBuffer, logger.Named("hub"))
	chatOpts := []chat.Option{chat.WithHub(hub), chat.WithLogger(logger.Named("turn"))}

	a := &app{personas: personas}
	if cfg.Speech.Enabled {
		synth, err := cfg.Speech.NewSynthesizer()
		if err != nil {
			return nil, fmt.Errorf("init speech: %w", err)
		}
		a.synth = synth

		player, err := playerFor(hub)
		switch {
		case errors.Is(err, speech.ErrSpeechUnavailable):
			logger.Info("no audio player configured, replies are not spoken")
		case err != nil:
			return nil, fmt.Errorf("init audio player: %w", err)
		default:
			a.speaker = speech.NewDispatcher(synth, player,
				speech.WithTimeout(cfg.Speech.Timeout),
				speech.WithLogger(logger.Named("speech")),
			)
			chatOpts = append(chatOpts, chat.WithSpeaker(a.speaker))
		}
	} else {
		logger.Info("speech output disabled")
	}

	composer := prompt.NewComposer(prompt.WithHistoryLimit(cfg.Completion.HistoryLimit))
	a.chat = chat.NewService(sessions, composer, dispatcher, chatOpts...)
	return a, nil
}
