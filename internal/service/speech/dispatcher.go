package speech

import (
	"context"
	"strings"
	"sync"
	"time"

	speechmodel "github.com/konnectpackaging/konnect-bot/backend/internal/model/speech"
	"go.uber.org/zap"
)

// DefaultTimeout bounds one synthesis request. Playback runs until the clip
// ends or the dispatcher is closed.
const DefaultTimeout = 20 * time.Second

// Dispatcher speaks assistant replies in the background. Failures are logged
// and never reach the caller.
type Dispatcher struct {
	synth   Synthesizer
	player  Player
	timeout time.Duration
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a dispatcher. A nil synthesizer or player makes Speak a no-op.
func NewDispatcher(synth Synthesizer, player Player, opts ...DispatcherOption) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		synth:   synth,
		player:  player,
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enabled reports whether the dispatcher has somewhere to send audio.
func (d *Dispatcher) Enabled() bool {
	return d != nil && d.synth != nil && d.player != nil
}

// Speak synthesizes req and plays it once, asynchronously. Empty text is ignored.
func (d *Dispatcher) Speak(sessionID string, req speechmodel.TTSRequest) {
	if !d.Enabled() || strings.TrimSpace(req.Text) == "" {
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		d.speak(sessionID, req)
	}()
}

func (d *Dispatcher) speak(sessionID string, req speechmodel.TTSRequest) {
	logger := d.logger.With(zap.String("session_id", sessionID))

	resp, err := d.synthesize(req)
	if err != nil {
		logger.Warn("speech synthesis failed", zap.Error(err))
		return
	}

	clip := speechmodel.Clip{
		SessionID:   sessionID,
		Text:        req.Text,
		Audio:       resp.Audio,
		ContentType: resp.ContentType,
	}
	if err := d.player.Play(d.ctx, clip); err != nil {
		logger.Warn("speech playback failed", zap.Error(err))
		return
	}

	logger.Debug("speech played", zap.Int("bytes", len(resp.Audio)), zap.String("content_type", resp.ContentType))
}

func (d *Dispatcher) synthesize(req speechmodel.TTSRequest) (*speechmodel.TTSResponse, error) {
	ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()
	return d.synth.Synthesize(ctx, &req)
}

// Wait blocks until all in-flight speech has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close cancels in-flight speech, rejects new requests and waits for workers to exit.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}
