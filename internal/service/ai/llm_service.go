package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/mindease/backend/internal/config"
	"github.com/mindease/backend/internal/model/chat"
)

// PromptHistoryTurns is the number of past turns sent to the model. It is
// independent of any history limit exposed over HTTP.
const PromptHistoryTurns = 3

const (
	defaultTimeout        = 30 * time.Second
	defaultHistoryTimeout = 5 * time.Second
)

// ErrServiceUnavailable marks failures of the external completion service.
var ErrServiceUnavailable = errors.New("ai: model service unavailable")

// HistoryReader supplies recent turns for prompt context.
type HistoryReader interface {
	// FetchRecent returns at most limit turns, oldest first; no history is an
	// empty slice, not an error.
	FetchRecent(ctx context.Context, userID string, limit int) ([]chat.Turn, error)
}

// Service assembles the companion prompt and runs it through the chat model.
type Service struct {
	history        HistoryReader
	historyTimeout time.Duration
	prompts        *CompanionPrompt
	modelName      string
	timeout        time.Duration
	chain          compose.Runnable[map[string]any, *schema.Message]
}

// Option tunes a Service.
type Option func(*Service)

// WithHistoryTimeout bounds each history read; a read that exceeds it is
// treated like any other store failure.
func WithHistoryTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.historyTimeout = d
		}
	}
}

// NewService compiles the prompt chain around chatModel. history may be nil,
// in which case every prompt is built without past turns.
func NewService(ctx context.Context, chatModel model.BaseChatModel, history HistoryReader, cfg config.AIConfig, opts ...Option) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("ai: chat model is required")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	svc := &Service{
		history:        history,
		historyTimeout: defaultHistoryTimeout,
		prompts:        NewCompanionPrompt(),
		modelName:      cfg.Model,
		timeout:        timeout,
		chain:          runnable,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Generate returns the model reply for message, personalized by mood and
// grounded in the user's last PromptHistoryTurns turns. Any failure of the
// model, including an empty completion, wraps ErrServiceUnavailable.
func (s *Service) Generate(ctx context.Context, userID, message string, mood chat.Mood) (string, error) {
	if !mood.Valid() {
		mood = chat.MoodRelaxed
	}

	turns := s.recentTurns(ctx, userID)
	input := s.buildChainInput(mood, turns, message)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var opts []compose.Option
	if s.modelName != "" {
		opts = append(opts, compose.WithChatModelOption(model.WithModel(s.modelName)))
	}

	response, err := s.chain.Invoke(callCtx, input, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrServiceUnavailable)
	}

	slog.Debug("ai reply generated",
		"user_id", userID,
		"mood", mood,
		"history_turns", len(turns),
		"length", len(response.Content))
	return response.Content, nil
}

// recentTurns degrades to no history when the store cannot be read in time.
func (s *Service) recentTurns(ctx context.Context, userID string) []chat.Turn {
	if s.history == nil {
		return nil
	}

	readCtx, cancel := context.WithTimeout(ctx, s.historyTimeout)
	defer cancel()

	turns, err := s.history.FetchRecent(readCtx, userID, PromptHistoryTurns)
	if err != nil {
		slog.Warn("history unavailable, continuing without context",
			"user_id", userID,
			"error", err)
		return nil
	}

	if len(turns) > PromptHistoryTurns {
		turns = turns[len(turns)-PromptHistoryTurns:]
	}
	return turns
}

func (s *Service) buildChainInput(mood chat.Mood, turns []chat.Turn, message string) map[string]any {
	return map[string]any{
		"system":  s.prompts.BuildSystemPrompt(mood),
		"history": buildHistoryMessages(turns),
		"query":   message,
	}
}

func buildHistoryMessages(turns []chat.Turn) []*schema.Message {
	history := make([]*schema.Message, 0, 2*len(turns))
	for _, t := range turns {
		history = append(history,
			schema.UserMessage(t.UserMessage),
			schema.AssistantMessage(t.BotResponse, nil),
		)
	}
	return history
}
