package speech

import (
	"context"
	"errors"

	speechmodel "github.com/konnectpackaging/konnect-bot/backend/internal/model/speech"
)

// ErrSpeechUnavailable is returned when no synthesis backend is configured.
var ErrSpeechUnavailable = errors.New("speech synthesis unavailable")

// Synthesizer turns text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, req *speechmodel.TTSRequest) (*speechmodel.TTSResponse, error)
}

// Player plays a synthesized clip. Implementations may block until playback ends.
type Player interface {
	Play(ctx context.Context, clip speechmodel.Clip) error
}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(ctx context.Context, clip speechmodel.Clip) error

// Play implements Player.
func (f PlayerFunc) Play(ctx context.Context, clip speechmodel.Clip) error {
	return f(ctx, clip)
}
