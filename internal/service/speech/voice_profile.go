package speech

import "github.com/konnectpackaging/konnect-bot/backend/internal/analysis/emotion"

// VoiceSettings are the ElevenLabs delivery parameters for one utterance.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

var defaultVoiceSettings = VoiceSettings{
	Stability:       0.5,
	SimilarityBoost: 0.75,
	Style:           0,
	UseSpeakerBoost: true,
}

// Lower stability gives a more expressive read; higher keeps it calm.
var emotionVoiceSettings = map[emotion.Label]VoiceSettings{
	emotion.Happy:    {Stability: 0.4, SimilarityBoost: 0.75, Style: 0.35, UseSpeakerBoost: true},
	emotion.Excited:  {Stability: 0.3, SimilarityBoost: 0.75, Style: 0.5, UseSpeakerBoost: true},
	emotion.Sad:      {Stability: 0.65, SimilarityBoost: 0.8, Style: 0.15, UseSpeakerBoost: true},
	emotion.Angry:    {Stability: 0.75, SimilarityBoost: 0.8, Style: 0.05, UseSpeakerBoost: true},
	emotion.Anxious:  {Stability: 0.7, SimilarityBoost: 0.8, Style: 0.1, UseSpeakerBoost: true},
	emotion.Confused: {Stability: 0.6, SimilarityBoost: 0.75, Style: 0.05, UseSpeakerBoost: true},
}

// VoiceSettingsFor returns the delivery parameters for the user's emotion.
// Neutral and unknown labels use the default profile.
func VoiceSettingsFor(label emotion.Label) VoiceSettings {
	if settings, ok := emotionVoiceSettings[label]; ok {
		return settings
	}
	return defaultVoiceSettings
}
