// Package conversation runs one chat turn end to end: sentiment scoring, the
// risk branch, reply generation, persistence and music recommendation.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mindease/backend/internal/analysis/music"
	"github.com/mindease/backend/internal/analysis/sentiment"
	"github.com/mindease/backend/internal/model/chat"
)

// MaxMessageLength caps the size of a single user message, in characters.
const MaxMessageLength = 4000

const defaultStoreTimeout = 5 * time.Second

// Classifier scores a message and flags risk.
type Classifier interface {
	Classify(text string) sentiment.Result
}

// Recommender picks the playlist for a message.
type Recommender interface {
	Recommend(text string) music.Recommendation
}

// Generator produces the model reply for a non-risk message.
type Generator interface {
	Generate(ctx context.Context, userID, message string, mood chat.Mood) (string, error)
}

// Escalator handles risk-flagged messages and returns the reply to show.
type Escalator interface {
	Escalate(ctx context.Context, userID, message string) string
}

// TurnWriter persists completed turns.
type TurnWriter interface {
	AppendTurn(ctx context.Context, turn chat.Turn) error
}

// HistoryReader reads past turns for the history endpoint.
type HistoryReader interface {
	// FetchRecent returns at most limit turns, oldest first; no history is an
	// empty slice, not an error.
	FetchRecent(ctx context.Context, userID string, limit int) ([]chat.Turn, error)
}

// Request is one inbound chat message.
type Request struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// Outcome is the result of a completed turn.
type Outcome struct {
	UserMessage         string
	BotResponse         string
	Sentiment           sentiment.Result
	MusicRecommendation *string
	// Mood is the mapper mood stored with the turn; empty on escalation.
	Mood      chat.Mood
	State     State
	Persisted bool
}

// Deps groups the collaborators of an Orchestrator. Generator may be nil when
// no model is configured; non-risk turns then fail with ErrModelService.
type Deps struct {
	Classifier   Classifier
	Recommender  Recommender
	Generator    Generator
	Escalator    Escalator
	Turns        TurnWriter
	History      HistoryReader
	WriteTimeout time.Duration
	// ReadTimeout bounds History lookups; it defaults to WriteTimeout.
	ReadTimeout  time.Duration
}

// Orchestrator 负责单轮对话的完整流程。
type Orchestrator struct {
	classifier   Classifier
	recommender  Recommender
	generator    Generator
	escalator    Escalator
	turns        TurnWriter
	history      HistoryReader
	writeTimeout time.Duration
	readTimeout  time.Duration
	now          func() time.Time
}

// NewOrchestrator wires deps. Classifier, Recommender, Escalator and Turns
// are required.
func NewOrchestrator(deps Deps) (*Orchestrator, error) {
	switch {
	case deps.Classifier == nil:
		return nil, fmt.Errorf("conversation: classifier is required")
	case deps.Recommender == nil:
		return nil, fmt.Errorf("conversation: recommender is required")
	case deps.Escalator == nil:
		return nil, fmt.Errorf("conversation: escalator is required")
	case deps.Turns == nil:
		return nil, fmt.Errorf("conversation: turn writer is required")
	}

	timeout := deps.WriteTimeout
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	readTimeout := deps.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = timeout
	}

	return &Orchestrator{
		classifier:   deps.Classifier,
		recommender:  deps.Recommender,
		generator:    deps.Generator,
		escalator:    deps.Escalator,
		turns:        deps.Turns,
		history:      deps.History,
		writeTimeout: timeout,
		readTimeout:  readTimeout,
		now:          func() time.Time { return time.Now().UTC() },
	}, nil
}

// SubmitTurn processes one message. Validation failures have no side effects.
// A risk-flagged message is escalated and never reaches the model or the
// turn store. A failed turn write is logged and reported via
// Outcome.Persisted rather than as an error.
func (o *Orchestrator) SubmitTurn(ctx context.Context, req Request) (out *Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in turn pipeline",
				"user_id", req.UserID,
				"panic", r,
				"stack", string(debug.Stack()))
			out = nil
			err = fmt.Errorf("%w: panic: %v", ErrInternal, r)
		}
	}()

	if err := validate(req); err != nil {
		return nil, err
	}

	state := StateReceived
	result := o.classifier.Classify(req.Message)
	state = o.advance(req.UserID, state, StateScored)

	if result.RiskFlag {
		reply := o.escalator.Escalate(ctx, req.UserID, req.Message)
		state = o.advance(req.UserID, state, StateEscalated)

		slog.Warn("turn escalated",
			"user_id", req.UserID,
			"state", state,
			"polarity", result.Polarity)
		o.advance(req.UserID, state, StateTerminal)

		return &Outcome{
			UserMessage: req.Message,
			BotResponse: reply,
			Sentiment:   result,
			State:       state,
		}, nil
	}

	reply, err := o.generate(ctx, req, result.Mood)
	if err != nil {
		return nil, err
	}

	rec := o.recommender.Recommend(req.Message)
	turn := chat.Turn{
		UserID:      req.UserID,
		UserMessage: req.Message,
		BotResponse: reply,
		Mood:        rec.Mood,
		Timestamp:   o.now(),
	}
	persisted := o.persist(ctx, turn)
	state = o.advance(req.UserID, state, StateResponded)

	slog.Info("turn completed",
		"user_id", req.UserID,
		"state", state,
		"mood", rec.Mood,
		"persisted", persisted)
	o.advance(req.UserID, state, StateTerminal)

	return &Outcome{
		UserMessage:         req.Message,
		BotResponse:         reply,
		Sentiment:           result,
		MusicRecommendation: rec.Playlist,
		Mood:                rec.Mood,
		State:               state,
		Persisted:           persisted,
	}, nil
}

// History returns up to limit past turns for userID, oldest first.
func (o *Orchestrator) History(ctx context.Context, userID string, limit int) ([]chat.Turn, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if o.history == nil {
		return nil, fmt.Errorf("%w: no history reader configured", ErrStoreUnavailable)
	}

	readCtx, cancel := context.WithTimeout(ctx, o.readTimeout)
	defer cancel()

	turns, err := o.history.FetchRecent(readCtx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return turns, nil
}

func (o *Orchestrator) generate(ctx context.Context, req Request, mood chat.Mood) (string, error) {
	if o.generator == nil {
		return "", fmt.Errorf("%w: no model configured", ErrModelService)
	}
	if mood == "" {
		mood = chat.MoodRelaxed
	}

	reply, err := o.generator.Generate(ctx, req.UserID, req.Message, mood)
	if err != nil {
		slog.Error("reply generation failed",
			"user_id", req.UserID,
			"error", err)
		return "", fmt.Errorf("%w: %w", ErrModelService, err)
	}
	return reply, nil
}

// persist writes the turn on a context detached from the caller so a client
// disconnect does not drop it.
func (o *Orchestrator) persist(ctx context.Context, turn chat.Turn) bool {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.writeTimeout)
	defer cancel()

	if err := o.turns.AppendTurn(writeCtx, turn); err != nil {
		slog.Error("failed to persist chat turn",
			"alarm", true,
			"user_id", turn.UserID,
			"error", fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
		return false
	}
	return true
}

// advance moves the state machine forward; an illegal transition is a bug.
func (o *Orchestrator) advance(userID string, from, to State) State {
	if !CanTransition(from, to) {
		panic(fmt.Sprintf("conversation: illegal transition %s -> %s", from, to))
	}
	slog.Debug("turn state", "user_id", userID, "from", from, "to", to)
	return to
}

func validate(req Request) error {
	if strings.TrimSpace(req.UserID) == "" {
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if strings.TrimSpace(req.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrValidation)
	}
	if utf8.RuneCountInString(req.Message) > MaxMessageLength {
		return fmt.Errorf("%w: message exceeds %d characters", ErrValidation, MaxMessageLength)
	}
	return nil
}
