package prompt

import (
	"context"
	"fmt"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/konnectpackaging/konnect-bot/backend/internal/analysis/emotion"
	"github.com/konnectpackaging/konnect-bot/backend/internal/analysis/language"
	"github.com/konnectpackaging/konnect-bot/backend/internal/model/chat"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/conversation"
)

// Directive texts appended as the final system block.
const (
	DirectiveHindi   = "कृपया केवल हिंदी (देवनागरी) में उत्तर दें।"
	DirectiveEnglish = "Please respond only in English."
	DirectiveOther   = "Please respond in the user's language."
)

// trailWindow bounds how many past emotions are rendered in the context block.
const trailWindow = 5

// Composer turns conversation state into the ordered block list sent to the
// completion model: persona prompt, emotional context, language directive, then history.
type Composer struct {
	template     einoprompt.ChatTemplate
	historyLimit int
}

// Option configures a Composer.
type Option func(*Composer)

// WithHistoryLimit keeps only the most recent n history messages. n <= 0 keeps all.
func WithHistoryLimit(n int) Option {
	return func(c *Composer) {
		if n > 0 {
			c.historyLimit = n
		}
	}
}

// NewComposer builds a composer backed by an FString chat template.
func NewComposer(opts ...Option) *Composer {
	c := &Composer{
		template: einoprompt.FromMessages(
			schema.FString,
			schema.SystemMessage("{system}"),
			schema.SystemMessage("{emotion}"),
			schema.SystemMessage("{language}"),
			schema.MessagesPlaceholder("history", true),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose renders the blocks for the next completion request. The history
// already contains the user message that triggered the turn.
func (c *Composer) Compose(ctx context.Context, state *conversation.State, detected language.Tag) ([]*schema.Message, error) {
	if state == nil {
		return nil, fmt.Errorf("compose prompt: nil conversation state")
	}

	snap := state.Snapshot()
	input := map[string]any{
		"system":   BuildSystemPrompt(state.Persona()),
		"emotion":  EmotionalContext(snap.Emotion, snap.EmotionHistory),
		"language": LanguageDirective(detected),
		"history":  c.history(snap.Messages),
	}

	blocks, err := c.template.Format(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("format prompt template: %w", err)
	}
	return blocks, nil
}

func (c *Composer) history(messages []chat.Message) []*schema.Message {
	history := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Placeholder {
			continue
		}
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Text))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Text, nil))
		}
	}

	if c.historyLimit > 0 && len(history) > c.historyLimit {
		history = history[len(history)-c.historyLimit:]
	}
	return history
}

// EmotionalContext describes the current emotion and, when more than one is
// recorded, the recent trail.
func EmotionalContext(current emotion.Label, trail []emotion.Label) string {
	if current == "" {
		current = emotion.Neutral
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The user appears to be feeling %s. ", current)

	if len(trail) > trailWindow {
		trail = trail[len(trail)-trailWindow:]
	}
	if len(trail) > 1 {
		names := make([]string, len(trail))
		for i, label := range trail {
			names[i] = string(label)
		}
		fmt.Fprintf(&b, "Their recent emotional pattern: %s. ", strings.Join(names, " → "))
	}

	b.WriteString("Respond appropriately to their emotional state.")
	return b.String()
}

// LanguageDirective returns the reply-language instruction for a detected tag.
func LanguageDirective(tag language.Tag) string {
	switch tag {
	case language.Hindi, language.Hinglish:
		return DirectiveHindi
	case language.English:
		return DirectiveEnglish
	default:
		return DirectiveOther
	}
}
