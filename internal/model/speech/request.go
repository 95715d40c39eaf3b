package speech

import "github.com/konnectpackaging/konnect-bot/backend/internal/analysis/emotion"

// TTSRequest is the body accepted by the synthesis endpoint. Only Text is required.
type TTSRequest struct {
	Text    string        `json:"text"`
	Voice   string        `json:"voice,omitempty"`
	Emotion emotion.Label `json:"emotion,omitempty"`
}
