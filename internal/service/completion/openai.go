package completion

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIModel adapts an OpenAI-compatible chat completions endpoint to the
// eino chat model interface.
type OpenAIModel struct {
	client       *openai.Client
	defaultModel string
}

var _ model.BaseChatModel = (*OpenAIModel)(nil)

// OpenAIConfig holds connection settings for an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewOpenAIModel creates the adapter. BaseURL is optional.
func NewOpenAIModel(cfg OpenAIConfig) (*OpenAIModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	defaultModel := cfg.Model
	if defaultModel == "" {
		defaultModel = DefaultModelID
	}

	return &OpenAIModel{
		client:       openai.NewClientWithConfig(clientCfg),
		defaultModel: defaultModel,
	}, nil
}

// Generate implements model.BaseChatModel.
func (m *OpenAIModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	resp, err := m.client.CreateChatCompletion(ctx, m.request(input, opts))
	if err != nil {
		return nil, fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}
	return schema.AssistantMessage(resp.Choices[0].Message.Content, nil), nil
}

// Stream implements model.BaseChatModel.
func (m *OpenAIModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	req := m.request(input, opts)
	req.Stream = true

	upstream, err := m.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create chat completion stream: %w", err)
	}

	reader, writer := schema.Pipe[*schema.Message](8)
	go func() {
		defer upstream.Close()
		defer writer.Close()

		for {
			chunk, err := upstream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				writer.Send(nil, fmt.Errorf("receive completion chunk: %w", err))
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			if closed := writer.Send(schema.AssistantMessage(chunk.Choices[0].Delta.Content, nil), nil); closed {
				return
			}
		}
	}()

	return reader, nil
}

func (m *OpenAIModel) request(input []*schema.Message, opts []model.Option) openai.ChatCompletionRequest {
	options := model.GetCommonOptions(&model.Options{Model: &m.defaultModel}, opts...)

	req := openai.ChatCompletionRequest{
		Model:    m.defaultModel,
		Messages: toOpenAIMessages(input),
	}
	if options.Model != nil && *options.Model != "" {
		req.Model = *options.Model
	}
	if options.Temperature != nil {
		req.Temperature = *options.Temperature
	}
	if options.TopP != nil {
		req.TopP = *options.TopP
	}
	if options.MaxTokens != nil {
		req.MaxTokens = *options.MaxTokens
	}
	if len(options.Stop) > 0 {
		req.Stop = options.Stop
	}
	return req
}

func toOpenAIMessages(input []*schema.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}

		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case schema.System:
			role = openai.ChatMessageRoleSystem
		case schema.Assistant:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return out
}
