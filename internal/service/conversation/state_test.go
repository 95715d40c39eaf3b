package conversation

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/konnectpackaging/konnect-bot/backend/internal/analysis/emotion"
	"github.com/konnectpackaging/konnect-bot/backend/internal/analysis/language"
	"github.com/konnectpackaging/konnect-bot/backend/internal/model/chat"
	"github.com/konnectpackaging/konnect-bot/backend/internal/model/persona"
)

func newTestState(opts ...Option) *State {
	fixed := time.Date(2026, 10, 14, 15, 4, 0, 0, time.UTC)
	opts = append([]Option{WithClock(func() time.Time { return fixed })}, opts...)
	return NewState("session-1", persona.Seed()[0], opts...)
}

func TestNewStateSeedsGreeting(t *testing.T) {
	s := newTestState()

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Placeholder)
	assert.Equal(t, chat.RoleAssistant, msgs[0].Role)
	assert.Equal(t, persona.Seed()[0].Greetings.English, msgs[0].Text)
	assert.Equal(t, "03:04 PM", msgs[0].Timestamp)
	assert.Equal(t, language.English, s.Language())
	assert.Equal(t, emotion.Neutral, s.Emotion())
	assert.Empty(t, s.EmotionHistory())
}

func TestNewStateHindiGreeting(t *testing.T) {
	s := newTestState(WithLanguage(language.Hinglish))
	assert.Equal(t, language.Hindi, s.Language())
	assert.Equal(t, persona.Seed()[0].Greetings.Hindi, s.Messages()[0].Text)
}

func TestAppendUserMessageHinglish(t *testing.T) {
	s := newTestState()
	s.SetDraft("mujhe kya karna hai")

	detected, msgs := s.AppendUserMessage("mujhe kya karna hai")

	assert.Equal(t, language.Hinglish, detected)
	assert.Equal(t, language.Hindi, s.Language())
	require.Len(t, msgs, 2)
	last := msgs[1]
	assert.Equal(t, chat.RoleUser, last.Role)
	assert.Equal(t, chat.StatusSending, last.Status)
	assert.Equal(t, emotion.Neutral, last.Emotion)
	assert.Empty(t, s.Draft())
}

func TestAppendUserMessageTracksEmotion(t *testing.T) {
	s := newTestState()

	detected, _ := s.AppendUserMessage("I am so happy today! 😊")

	assert.Equal(t, language.English, detected)
	assert.Equal(t, emotion.Happy, s.Emotion())
	assert.Equal(t, []emotion.Label{emotion.Happy}, s.EmotionHistory())
}

func TestEmotionHistoryIsBounded(t *testing.T) {
	s := newTestState()
	inputs := []string{
		"I am happy",   // happy
		"so sad",       // sad
		"I am furious", // angry
		"I'm worried",  // anxious
		"can't wait",   // excited
		"I'm confused", // confused
		"hello there",  // neutral
	}
	for _, in := range inputs {
		s.AppendUserMessage(in)
		assert.LessOrEqual(t, len(s.EmotionHistory()), EmotionHistoryLimit)
	}

	assert.Equal(t, []emotion.Label{
		emotion.Angry, emotion.Anxious, emotion.Excited, emotion.Confused, emotion.Neutral,
	}, s.EmotionHistory())
}

func TestEmotionHistoryMatchesLastFiveMessages(t *testing.T) {
	s := newTestState()
	for i := 0; i < 12; i++ {
		text := "hello"
		if i%3 == 0 {
			text = "this is terrible"
		}
		s.AppendUserMessage(fmt.Sprintf("%s %d", text, i))
	}

	var want []emotion.Label
	msgs := s.Messages()
	for _, m := range msgs[len(msgs)-EmotionHistoryLimit:] {
		want = append(want, m.Emotion)
	}
	assert.Equal(t, want, s.EmotionHistory())
}

func TestMarkLastSent(t *testing.T) {
	s := newTestState()

	s.MarkLastSent()
	assert.Equal(t, chat.StatusReceived, s.Messages()[0].Status, "greeting must not change")

	s.AppendUserMessage("hi")
	s.MarkLastSent()
	assert.Equal(t, chat.StatusSent, s.Messages()[1].Status)

	s.MarkLastSent()
	assert.Equal(t, chat.StatusSent, s.Messages()[1].Status)
}

func TestAppendAssistantMessage(t *testing.T) {
	s := newTestState()
	s.AppendUserMessage("I am so worried about my order")

	msg, err := s.AppendAssistantMessage("Don't worry, we will help.", chat.StatusReceived)
	require.NoError(t, err)
	assert.Equal(t, chat.RoleAssistant, msg.Role)
	assert.Equal(t, emotion.Anxious, msg.RespondingTo)
	assert.Len(t, s.Messages(), 3)

	_, err = s.AppendAssistantMessage("x", chat.StatusSending)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Len(t, s.Messages(), 3)
}

func TestSetLanguage(t *testing.T) {
	s := newTestState()

	require.NoError(t, s.SetLanguage(language.Hindi))
	assert.Equal(t, persona.Seed()[0].Greetings.Hindi, s.Messages()[0].Text)

	require.NoError(t, s.SetLanguage(language.Hinglish))
	assert.Equal(t, language.Hindi, s.Language())

	assert.ErrorIs(t, s.SetLanguage("tamil"), ErrUnsupportedLanguage)
	assert.Equal(t, language.Hindi, s.Language())

	s.AppendUserMessage("hello")
	require.NoError(t, s.SetLanguage(language.Hindi))
	assert.Equal(t, persona.Seed()[0].Greetings.Hindi, s.Messages()[0].Text)
	assert.Len(t, s.Messages(), 2, "history is never reset by a language change")
}

func TestInsertEmoji(t *testing.T) {
	s := newTestState()
	s.SetDraft("thanks")
	assert.Equal(t, "thanks😊", s.InsertEmoji("😊"))
	assert.Equal(t, "thanks😊🎉", s.InsertEmoji(" 🎉 "))
	assert.Equal(t, "thanks😊🎉", s.Snapshot().Draft)
}

func TestSnapshotIsImmutable(t *testing.T) {
	s := newTestState()
	s.AppendUserMessage("I am happy")

	snap := s.Snapshot()
	snap.Messages[0].Text = "tampered"
	snap.EmotionHistory[0] = emotion.Sad

	assert.NotEqual(t, "tampered", s.Messages()[0].Text)
	assert.Equal(t, emotion.Happy, s.EmotionHistory()[0])
	assert.Equal(t, "session-1", snap.SessionID)
	assert.Equal(t, persona.DefaultID, snap.PersonaID)
}

func TestTypingAndSpeechToggles(t *testing.T) {
	s := newTestState(WithSpeech(true))
	assert.True(t, s.SpeechEnabled())
	s.SetSpeechEnabled(false)
	assert.False(t, s.SpeechEnabled())

	s.SetTyping(true)
	assert.True(t, s.Snapshot().Typing)
	s.SetTyping(false)
	assert.False(t, s.Typing())
}

type stubLanguage struct{ tag language.Tag }

func (s stubLanguage) Detect(string) language.Tag { return s.tag }

type stubEmotion struct{ label emotion.Label }

func (s stubEmotion) Detect(string) emotion.Label { return s.label }

func TestWithDetectorsSwapsStrategies(t *testing.T) {
	s := newTestState(WithDetectors(stubLanguage{language.Hinglish}, stubEmotion{emotion.Confused}))

	detected, _ := s.AppendUserMessage("anything")
	assert.Equal(t, language.Hinglish, detected)
	assert.Equal(t, language.Hindi, s.Language())
	assert.Equal(t, emotion.Confused, s.Emotion())
}
