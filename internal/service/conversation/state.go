package conversation

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/konnectpackaging/konnect-bot/backend/internal/analysis/emotion"
	"github.com/konnectpackaging/konnect-bot/backend/internal/analysis/language"
	"github.com/konnectpackaging/konnect-bot/backend/internal/model/chat"
	"github.com/konnectpackaging/konnect-bot/backend/internal/model/persona"
)

// EmotionHistoryLimit bounds the emotion trail kept per session.
const EmotionHistoryLimit = 5

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrInvalidStatus       = errors.New("assistant message status must be received or error")
)

// Snapshot is an immutable view of a session handed to renderers and the prompt composer.
type Snapshot struct {
	SessionID      string          `json:"sessionId"`
	PersonaID      string          `json:"personaId"`
	Messages       []chat.Message  `json:"messages"`
	Typing         bool            `json:"typing"`
	Language       language.Tag    `json:"language"`
	Emotion        emotion.Label   `json:"emotion"`
	EmotionHistory []emotion.Label `json:"emotionHistory"`
	SpeechEnabled  bool            `json:"speechEnabled"`
	Draft          string          `json:"draft"`
}

// State is the mutable state of one conversation session.
type State struct {
	mu sync.RWMutex

	id        string
	persona   persona.Persona
	languages language.Detector
	emotions  emotion.Detector
	now       func() time.Time

	messages []chat.Message
	lang     language.Tag
	emotion  emotion.Label
	trail    []emotion.Label
	typing   bool
	speech   bool
	draft    string
}

// Option customises a State at construction.
type Option func(*State)

// WithDetectors swaps the language and emotion classifiers.
func WithDetectors(languages language.Detector, emotions emotion.Detector) Option {
	return func(s *State) {
		if languages != nil {
			s.languages = languages
		}
		if emotions != nil {
			s.emotions = emotions
		}
	}
}

// WithClock overrides the time source used for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *State) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLanguage sets the initial reply language. Unknown tags are ignored.
func WithLanguage(tag language.Tag) Option {
	return func(s *State) {
		if tag.Valid() {
			s.lang = tag.Normalize()
		}
	}
}

// WithSpeech sets the initial speech output toggle.
func WithSpeech(enabled bool) Option {
	return func(s *State) {
		s.speech = enabled
	}
}

// NewState creates a session seeded with the persona greeting.
func NewState(id string, p persona.Persona, opts ...Option) *State {
	s := &State{
		id:        id,
		persona:   p,
		languages: language.NewKeywordDetector(),
		emotions:  emotion.NewKeywordDetector(),
		now:       time.Now,
		lang:      language.English,
		emotion:   emotion.Neutral,
		trail:     make([]emotion.Label, 0, EmotionHistoryLimit),
	}
	for _, opt := range opts {
		opt(s)
	}

	now := s.now()
	s.messages = append(s.messages, chat.Message{
		ID:          uuid.NewString(),
		Role:        chat.RoleAssistant,
		Text:        p.Greeting(s.lang),
		Timestamp:   chat.FormatTimestamp(now),
		CreatedAt:   now,
		Status:      chat.StatusReceived,
		Placeholder: true,
	})
	return s
}

// ID returns the session identifier.
func (s *State) ID() string {
	return s.id
}

// Persona returns the persona the session speaks as.
func (s *State) Persona() persona.Persona {
	return s.persona
}

// AppendUserMessage classifies text, records it with status sending and
// returns the detected (non-normalized) language with the updated transcript.
func (s *State) AppendUserMessage(text string) (language.Tag, []chat.Message) {
	detected := s.languages.Detect(text)
	mood := s.emotions.Detect(text)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lang = detected.Normalize()
	s.emotion = mood
	s.trail = append(s.trail, mood)
	if len(s.trail) > EmotionHistoryLimit {
		s.trail = append(s.trail[:0:0], s.trail[len(s.trail)-EmotionHistoryLimit:]...)
	}

	now := s.now()
	s.messages = append(s.messages, chat.Message{
		ID:        uuid.NewString(),
		Role:      chat.RoleUser,
		Text:      text,
		Timestamp: chat.FormatTimestamp(now),
		CreatedAt: now,
		Status:    chat.StatusSending,
		Emotion:   mood,
	})
	s.draft = ""

	return detected, s.copyMessages()
}

// MarkLastSent moves the newest message from sending to sent. It does nothing
// when no message is pending.
func (s *State) MarkLastSent() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) == 0 {
		return
	}
	last := &s.messages[len(s.messages)-1]
	if last.Status == chat.StatusSending {
		last.Status = chat.StatusSent
	}
}

// AppendAssistantMessage records a reply tagged with the emotion it responds to.
func (s *State) AppendAssistantMessage(text string, status chat.Status) (chat.Message, error) {
	if status != chat.StatusReceived && status != chat.StatusError {
		return chat.Message{}, ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	msg := chat.Message{
		ID:           uuid.NewString(),
		Role:         chat.RoleAssistant,
		Text:         text,
		Timestamp:    chat.FormatTimestamp(now),
		CreatedAt:    now,
		Status:       status,
		RespondingTo: s.emotion,
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

// SetLanguage applies a language selector change. Hinglish is stored as Hindi.
// While the greeting is the only message it is re-localized.
func (s *State) SetLanguage(tag language.Tag) error {
	if !tag.Valid() {
		return ErrUnsupportedLanguage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lang = tag.Normalize()
	if len(s.messages) == 1 && s.messages[0].Placeholder {
		s.messages[0].Text = s.persona.Greeting(s.lang)
	}
	return nil
}

// SetTyping toggles the assistant typing indicator.
func (s *State) SetTyping(typing bool) {
	s.mu.Lock()
	s.typing = typing
	s.mu.Unlock()
}

// SetSpeechEnabled toggles spoken replies for the session.
func (s *State) SetSpeechEnabled(enabled bool) {
	s.mu.Lock()
	s.speech = enabled
	s.mu.Unlock()
}

// SpeechEnabled reports whether replies should be spoken.
func (s *State) SpeechEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.speech
}

// SetDraft replaces the pending input text.
func (s *State) SetDraft(text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()
}

// InsertEmoji appends an emoji to the pending input and returns the new draft.
func (s *State) InsertEmoji(glyph string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft += strings.TrimSpace(glyph)
	return s.draft
}

// Draft returns the pending input text.
func (s *State) Draft() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

// Messages returns a copy of the transcript.
func (s *State) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyMessages()
}

// Language returns the stored reply language (never hinglish).
func (s *State) Language() language.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lang
}

// Emotion returns the most recently detected user emotion.
func (s *State) Emotion() emotion.Label {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emotion
}

// EmotionHistory returns the emotion trail, oldest first.
func (s *State) EmotionHistory() []emotion.Label {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]emotion.Label(nil), s.trail...)
}

// Typing reports whether a reply is being generated.
func (s *State) Typing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.typing
}

// Snapshot captures the whole session under a single read lock.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		SessionID:      s.id,
		PersonaID:      s.persona.ID,
		Messages:       s.copyMessages(),
		Typing:         s.typing,
		Language:       s.lang,
		Emotion:        s.emotion,
		EmotionHistory: append([]emotion.Label{}, s.trail...),
		SpeechEnabled:  s.speech,
		Draft:          s.draft,
	}
}

func (s *State) copyMessages() []chat.Message {
	copied := make([]chat.Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}
