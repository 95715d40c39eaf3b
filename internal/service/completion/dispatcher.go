package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/konnectpackaging/konnect-bot/backend/internal/model/chat"
	"github.com/konnectpackaging/konnect-bot/backend/internal/service/conversation"
	"go.uber.org/zap"
)

// ErrDispatchFailed covers every way a completion request can fail to yield a reply.
var ErrDispatchFailed = errors.New("completion dispatch failed")

// FallbackText is shown to the user when no reply could be obtained.
const FallbackText = "I'm sorry, I can't help right now. Please try again later."

const (
	DefaultModelID     = "gpt-4o-mini"
	DefaultTemperature = float32(0.7)
	DefaultTimeout     = 30 * time.Second
)

// Dispatcher sends composed prompt blocks to a chat model. Each call makes
// exactly one attempt.
type Dispatcher struct {
	model       model.BaseChatModel
	modelID     string
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithModelID overrides the model identifier passed on every request.
func WithModelID(id string) Option {
	return func(d *Dispatcher) {
		if id = strings.TrimSpace(id); id != "" {
			d.modelID = id
		}
	}
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float32) Option {
	return func(d *Dispatcher) {
		d.temperature = t
	}
}

// WithTimeout bounds each request. Non-positive values keep DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher wraps a chat model.
func NewDispatcher(m model.BaseChatModel, opts ...Option) (*Dispatcher, error) {
	if m == nil {
		return nil, fmt.Errorf("completion dispatcher requires a chat model")
	}

	d := &Dispatcher{
		model:       m,
		modelID:     DefaultModelID,
		temperature: DefaultTemperature,
		timeout:     DefaultTimeout,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// ModelID returns the model identifier sent with each request.
func (d *Dispatcher) ModelID() string {
	return d.modelID
}

// Dispatch performs one completion request and returns the reply text.
// Transport errors, timeouts and empty replies all wrap ErrDispatchFailed.
func (d *Dispatcher) Dispatch(ctx context.Context, blocks []*schema.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	started := time.Now()
	resp, err := d.model.Generate(ctx, blocks,
		model.WithModel(d.modelID),
		model.WithTemperature(d.temperature),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: empty completion", ErrDispatchFailed)
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", ErrDispatchFailed)
	}

	d.logger.Debug("completion received",
		zap.String("model", d.modelID),
		zap.Int("blocks", len(blocks)),
		zap.Int("length", len(text)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return text, nil
}

// Complete dispatches the blocks and appends the outcome to the conversation:
// the reply with status received, or FallbackText with status error. The
// boolean reports whether a real reply was delivered.
func (d *Dispatcher) Complete(ctx context.Context, state *conversation.State, blocks []*schema.Message) (chat.Message, bool) {
	text, err := d.Dispatch(ctx, blocks)
	status := chat.StatusReceived
	if err != nil {
		d.logger.Warn("completion failed, using fallback reply",
			zap.String("session_id", state.ID()),
			zap.Error(err),
		)
		text = FallbackText
		status = chat.StatusError
	}

	msg, appendErr := state.AppendAssistantMessage(text, status)
	if appendErr != nil {
		d.logger.Error("append assistant message", zap.String("session_id", state.ID()), zap.Error(appendErr))
	}
	return msg, err == nil
}
