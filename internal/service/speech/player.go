package speech

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	speechmodel "github.com/konnectpackaging/konnect-bot/backend/internal/model/speech"
)

// CommandPlayer writes each clip to a temp file and runs a local audio command on it,
// for example "afplay" or "mpg123 -q".
type CommandPlayer struct {
	name string
	args []string
}

// NewCommandPlayer parses a command line such as "ffplay -nodisp -autoexit".
func NewCommandPlayer(command string) (*CommandPlayer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("player command is empty")
	}
	return &CommandPlayer{name: fields[0], args: fields[1:]}, nil
}

// Play implements Player.
func (p *CommandPlayer) Play(ctx context.Context, clip speechmodel.Clip) error {
	if len(clip.Audio) == 0 {
		return fmt.Errorf("play: empty clip")
	}

	f, err := os.CreateTemp("", "konnect-tts-*"+extensionFor(clip.ContentType))
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(clip.Audio); err != nil {
		f.Close()
		return fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close audio file: %w", err)
	}

	args := append(append([]string{}, p.args...), f.Name())
	out, err := exec.CommandContext(ctx, p.name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("run %s: %w (%s)", p.name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func extensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "mpeg"), strings.Contains(contentType, "mp3"):
		return ".mp3"
	case strings.Contains(contentType, "wav"):
		return ".wav"
	case strings.Contains(contentType, "ogg"):
		return ".ogg"
	default:
		return ".audio"
	}
}
