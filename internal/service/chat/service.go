package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/schema"
	"github.com/konnectpackaging/konnect-bot/backend/internal/analysis/language"
	chatmodel "github.com/konnectpackaging/konnect-bot/backend/internal/model/chat"
	speechmodel "github.com/konnectpackaging/konnect-bot/backend/internal/model/speech"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/completion"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/conversation"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ErrEmptyMessage is returned for input that is empty after trimming whitespace.
var ErrEmptyMessage = errors.New("message text is empty")

// Composer renders the prompt blocks for a turn.
type Composer interface {
	Compose(ctx context.Context, state *conversation.State, detected language.Tag) ([]*schema.Message, error)
}

// Completer obtains a reply and appends it to the conversation.
type Completer interface {
	Complete(ctx context.Context, state *conversation.State, blocks []*schema.Message) (chatmodel.Message, bool)
}

// Speaker voices a reply without blocking the caller.
type Speaker interface {
	Speak(sessionID string, req speechmodel.TTSRequest)
}

// TurnResult describes one completed user turn.
type TurnResult struct {
	UserMessage chatmodel.Message     `json:"userMessage"`
	Reply       chatmodel.Message     `json:"reply"`
	Delivered   bool                  `json:"delivered"`
	Language    language.Tag          `json:"language"`
	Snapshot    conversation.Snapshot `json:"snapshot"`
}

// Service runs user turns against live sessions. Turns within one session are
// handled one at a time in arrival order; different sessions run in parallel.
type Service struct {
	sessions  *conversation.Service
	composer  Composer
	completer Completer
	speaker   Speaker
	hub       *Hub
	logger    *zap.Logger

	mu    sync.Mutex
	turns map[string]*semaphore.Weighted
}

// Option configures a Service.
type Option func(*Service)

// WithSpeaker sets the speech output for replies.
func WithSpeaker(speaker Speaker) Option {
	return func(s *Service) {
		s.speaker = speaker
	}
}

// WithHub sets the realtime event hub.
func WithHub(hub *Hub) Option {
	return func(s *Service) {
		if hub != nil {
			s.hub = hub
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wires the turn pipeline.
func NewService(sessions *conversation.Service, composer Composer, completer Completer, opts ...Option) *Service {
	s := &Service{
		sessions:  sessions,
		composer:  composer,
		completer: completer,
		logger:    zap.NewNop(),
		turns:     make(map[string]*semaphore.Weighted),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hub == nil {
		s.hub = NewHub(DefaultSubscriberBuffer, s.logger)
	}
	return s
}

// Hub returns the event hub used for snapshot and audio events.
func (s *Service) Hub() *Hub {
	return s.hub
}

// CreateSession starts a new conversation with the default persona.
func (s *Service) CreateSession(ctx context.Context, opts ...conversation.Option) (conversation.Snapshot, error) {
	state, err := s.sessions.CreateSession(ctx, "", opts...)
	if err != nil {
		return conversation.Snapshot{}, err
	}
	s.logger.Info("session created",
		zap.String("session_id", state.ID()),
		zap.String("language", string(state.Language())),
	)
	return state.Snapshot(), nil
}

// Snapshot returns the current state of a session.
func (s *Service) Snapshot(ctx context.Context, sessionID string) (conversation.Snapshot, error) {
	state, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return conversation.Snapshot{}, err
	}
	return state.Snapshot(), nil
}

// EndSession drops the session and disconnects its subscribers.
func (s *Service) EndSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.EndSession(ctx, sessionID); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.turns, sessionID)
	s.mu.Unlock()

	s.hub.CloseSession(sessionID)
	s.logger.Info("session ended", zap.String("session_id", sessionID))
	return nil
}

// Subscribe registers a realtime listener for an existing session.
func (s *Service) Subscribe(ctx context.Context, sessionID string) (<-chan Event, func(), error) {
	if _, err := s.sessions.GetSession(ctx, sessionID); err != nil {
		return nil, nil, err
	}
	events, cancel := s.hub.Subscribe(sessionID)
	return events, cancel, nil
}

// HandleTurn appends the user's message, requests a reply and appends it. A
// failed completion appends the fallback apology and still returns a nil
// error; Delivered reports which happened. If speech is enabled the reply is
// spoken after the turn lock is released, in the persona's voice and tuned to
// the emotion it answers.
func (s *Service) HandleTurn(ctx context.Context, sessionID, text string) (TurnResult, error) {
	if strings.TrimSpace(text) == "" {
		return TurnResult{}, ErrEmptyMessage
	}

	state, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return TurnResult{}, err
	}

	turn := s.turnLock(sessionID)
	if err := turn.Acquire(ctx, 1); err != nil {
		return TurnResult{}, fmt.Errorf("wait for turn: %w", err)
	}

	result := s.runTurn(ctx, state, text)
	turn.Release(1)

	if state.SpeechEnabled() && s.speaker != nil {
		s.speaker.Speak(sessionID, speechmodel.TTSRequest{
			Text:    result.Reply.Text,
			Voice:   state.Persona().VoiceID,
			Emotion: result.Reply.RespondingTo,
		})
	}
	return result, nil
}

func (s *Service) runTurn(ctx context.Context, state *conversation.State, text string) TurnResult {
	logger := s.logger.With(zap.String("session_id", state.ID()))

	detected, messages := state.AppendUserMessage(text)
	userID := messages[len(messages)-1].ID
	state.SetTyping(true)
	s.publish(state)

	logger.Debug("user message appended",
		zap.String("detected_language", string(detected)),
		zap.String("emotion", string(state.Emotion())),
	)

	var (
		reply     chatmodel.Message
		delivered bool
	)

	blocks, err := s.composer.Compose(ctx, state, detected)
	state.MarkLastSent()
	s.publish(state)

	if err != nil {
		logger.Error("compose prompt failed", zap.Error(err))
		reply, err = state.AppendAssistantMessage(completion.FallbackText, chatmodel.StatusError)
		if err != nil {
			logger.Error("append fallback reply", zap.Error(err))
		}
	} else {
		reply, delivered = s.completer.Complete(ctx, state, blocks)
	}

	state.SetTyping(false)
	snap := s.publish(state)

	logger.Info("turn completed",
		zap.Bool("delivered", delivered),
		zap.Int("messages", len(snap.Messages)),
	)

	var userMessage chatmodel.Message
	for _, msg := range snap.Messages {
		if msg.ID == userID {
			userMessage = msg
			break
		}
	}

	return TurnResult{
		UserMessage: userMessage,
		Reply:       reply,
		Delivered:   delivered,
		Language:    detected,
		Snapshot:    snap,
	}
}

// SetLanguage selects the reply language for a session.
func (s *Service) SetLanguage(ctx context.Context, sessionID string, tag language.Tag) (conversation.Snapshot, error) {
	return s.mutate(ctx, sessionID, func(state *conversation.State) error {
		return state.SetLanguage(tag)
	})
}

// SetSpeechEnabled toggles spoken replies for a session.
func (s *Service) SetSpeechEnabled(ctx context.Context, sessionID string, enabled bool) (conversation.Snapshot, error) {
	return s.mutate(ctx, sessionID, func(state *conversation.State) error {
		state.SetSpeechEnabled(enabled)
		return nil
	})
}

// SetDraft replaces the unsent input text.
func (s *Service) SetDraft(ctx context.Context, sessionID, text string) (conversation.Snapshot, error) {
	return s.mutate(ctx, sessionID, func(state *conversation.State) error {
		state.SetDraft(text)
		return nil
	})
}

// InsertEmoji appends a glyph to the unsent input text.
func (s *Service) InsertEmoji(ctx context.Context, sessionID, glyph string) (conversation.Snapshot, error) {
	return s.mutate(ctx, sessionID, func(state *conversation.State) error {
		state.InsertEmoji(glyph)
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, sessionID string, fn func(*conversation.State) error) (conversation.Snapshot, error) {
	state, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return conversation.Snapshot{}, err
	}
	if err := fn(state); err != nil {
		return conversation.Snapshot{}, err
	}
	return s.publish(state), nil
}

func (s *Service) publish(state *conversation.State) conversation.Snapshot {
	snap := state.Snapshot()
	s.hub.PublishSnapshot(snap)
	return snap
}

func (s *Service) turnLock(sessionID string) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.turns[sessionID]
	if !ok {
		lock = semaphore.NewWeighted(1)
		s.turns[sessionID] = lock
	}
	return lock
}
