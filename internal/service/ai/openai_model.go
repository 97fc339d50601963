package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mindease/backend/internal/config"
)

// DefaultOpenAIBaseURL is the OpenAI-compatible endpoint used when none is configured.
const DefaultOpenAIBaseURL = "https://api.groq.com/openai/v1"

var errEmptyChoices = errors.New("completion returned no choices")

// OpenAIChatModel adapts an OpenAI-compatible chat-completions endpoint to
// eino's BaseChatModel.
type OpenAIChatModel struct {
	client    openai.Client
	model     string
	maxTokens int
}

// NewOpenAIChatModel builds the adapter. SDK retries are disabled; the
// caller's deadline bounds each request.
func NewOpenAIChatModel(cfg config.AIConfig) *OpenAIChatModel {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &OpenAIChatModel{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Generate sends the conversation and returns the first choice as an
// assistant message.
func (m *OpenAIChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	modelName := m.model
	options := model.GetCommonOptions(&model.Options{Model: &modelName}, opts...)

	params := openai.ChatCompletionNewParams{
		Model:    *options.Model,
		Messages: toOpenAIMessages(in),
	}
	if options.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*options.MaxTokens))
	} else if m.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(m.maxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(float64(*options.Temperature))
	}
	if options.TopP != nil {
		params.TopP = openai.Float(float64(*options.TopP))
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errEmptyChoices
	}

	return schema.AssistantMessage(resp.Choices[0].Message.Content, nil), nil
}

// Stream 不支持增量输出，直接把完整回复包装成单元素流。
func (m *OpenAIChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func toOpenAIMessages(in []*schema.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(in))
	for _, msg := range in {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			out = append(out, openai.SystemMessage(msg.Content))
		case schema.Assistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
