package prompt

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/konnectpackaging/konnect-bot/backend/internal/analysis/emotion"
	"github.com/konnectpackaging/konnect-bot/backend/internal/analysis/language"
	"github.com/konnectpackaging/konnect-bot/backend/internal/model/chat"
	"github.com/konnectpackaging/konnect-bot/backend/internal/model/persona"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposeFirstTurn(t *testing.T) {
	state := conversation.NewState("s1", persona.Seed()[0])
	detected, _ := state.AppendUserMessage("I am so happy today! 😊")

	blocks, err := NewComposer().Compose(context.Background(), state, detected)
	require.NoError(t, err)
	require.Len(t, blocks, 4)

	assert.Equal(t, schema.System, blocks[0].Role)
	assert.Contains(t, blocks[0].Content, "You are Konnect Bot")

	assert.Equal(t, schema.System, blocks[1].Role)
	assert.Equal(t, "The user appears to be feeling happy. Respond appropriately to their emotional state.", blocks[1].Content)

	assert.Equal(t, schema.System, blocks[2].Role)
	assert.Equal(t, DirectiveEnglish, blocks[2].Content)

	assert.Equal(t, schema.User, blocks[3].Role)
	assert.Equal(t, "I am so happy today! 😊", blocks[3].Content)
}

func TestComposeExcludesGreetingAndKeepsOrder(t *testing.T) {
	state := conversation.NewState("s1", persona.Seed()[0])
	state.AppendUserMessage("Where is your office?")
	_, err := state.AppendAssistantMessage("We are in Chhindwara, Madhya Pradesh.", chat.StatusReceived)
	require.NoError(t, err)
	detected, _ := state.AppendUserMessage("mujhe kya karna hai")

	blocks, err := NewComposer().Compose(context.Background(), state, detected)
	require.NoError(t, err)
	require.Len(t, blocks, 6)

	history := blocks[3:]
	assert.Equal(t, schema.User, history[0].Role)
	assert.Equal(t, "Where is your office?", history[0].Content)
	assert.Equal(t, schema.Assistant, history[1].Role)
	assert.Equal(t, schema.User, history[2].Role)
	assert.Equal(t, "mujhe kya karna hai", history[2].Content)

	assert.Equal(t, DirectiveHindi, blocks[2].Content)
	for _, block := range history {
		assert.NotContains(t, block.Content, "Hi, I'm Konnect!")
	}
}

func TestComposeHistoryLimit(t *testing.T) {
	state := conversation.NewState("s1", persona.Seed()[0])
	for _, text := range []string{"one", "two", "three"} {
		state.AppendUserMessage(text)
	}

	blocks, err := NewComposer(WithHistoryLimit(2)).Compose(context.Background(), state, language.English)
	require.NoError(t, err)
	require.Len(t, blocks, 5)
	assert.Equal(t, "two", blocks[3].Content)
	assert.Equal(t, "three", blocks[4].Content)
}

func TestComposeNilState(t *testing.T) {
	_, err := NewComposer().Compose(context.Background(), nil, language.English)
	assert.Error(t, err)
}

func TestEmotionalContext(t *testing.T) {
	assert.Equal(t,
		"The user appears to be feeling neutral. Respond appropriately to their emotional state.",
		EmotionalContext("", nil),
	)

	got := EmotionalContext(emotion.Sad, []emotion.Label{emotion.Happy, emotion.Sad})
	assert.Equal(t,
		"The user appears to be feeling sad. Their recent emotional pattern: happy → sad. Respond appropriately to their emotional state.",
		got,
	)

	long := []emotion.Label{
		emotion.Angry, emotion.Happy, emotion.Sad, emotion.Angry, emotion.Anxious, emotion.Excited,
	}
	got = EmotionalContext(emotion.Excited, long)
	assert.Contains(t, got, "happy → sad → angry → anxious → excited.")
	assert.Equal(t, 4, strings.Count(got, "→"))
}

func TestLanguageDirective(t *testing.T) {
	assert.Equal(t, DirectiveHindi, LanguageDirective(language.Hindi))
	assert.Equal(t, DirectiveHindi, LanguageDirective(language.Hinglish))
	assert.Equal(t, DirectiveEnglish, LanguageDirective(language.English))
	assert.Equal(t, DirectiveOther, LanguageDirective(language.Tag("tamil")))
}

func TestBuildSystemPrompt(t *testing.T) {
	got := BuildSystemPrompt(persona.Seed()[0])

	for _, want := range []string{
		"You are Konnect Bot, a helping bot for various tasks.",
		"ABOUT KONNECT PACKAGING INTERNATIONAL LLP:",
		"- VCI Kraft Paper: Specialty paper that prevents rust on metals.",
		"CONTACT INFORMATION:",
		"EMOTIONAL RESPONSE GUIDELINES:",
		"within 150-200 words",
		"plain text only",
	} {
		assert.Contains(t, got, want)
	}
	assert.NotContains(t, strings.ToLower(got), "respond in hinglish")
}

func TestBuildSystemPromptSkipsEmptySections(t *testing.T) {
	got := BuildSystemPrompt(persona.Persona{Name: "Helper"})

	assert.True(t, strings.HasPrefix(got, "You are Helper.\n"))
	assert.NotContains(t, got, "PRODUCTS & SERVICES")
	assert.NotContains(t, got, "CONTACT INFORMATION")
	assert.Contains(t, got, "within 150-200 words")
}
