package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindease/backend/internal/analysis/music"
	"github.com/mindease/backend/internal/analysis/sentiment"
	"github.com/mindease/backend/internal/config"
	"github.com/mindease/backend/internal/model/chat"
	"github.com/mindease/backend/internal/service/ai"
	"github.com/mindease/backend/internal/service/safety"
	"github.com/mindease/backend/internal/store"
)

// polarities maps message text to a fixed polarity; unknown text scores 0.
type polarities map[string]float64

func (p polarities) scorer() sentiment.Scorer {
	return sentiment.ScorerFunc(func(text string) sentiment.Score {
		return sentiment.Score{Polarity: p[text], Subjectivity: 0.5}
	})
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls []chat.Mood
	reply string
	err   error
	panic bool
}

func (g *fakeGenerator) Generate(_ context.Context, _ string, _ string, mood chat.Mood) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, mood)
	g.mu.Unlock()
	if g.panic {
		panic("boom")
	}
	return g.reply, g.err
}

type failingTurns struct{}

func (failingTurns) AppendTurn(context.Context, chat.Turn) error { return errors.New("disk full") }

type fixture struct {
	orch  *Orchestrator
	repo  *store.Memory
	gen   *fakeGenerator
	score polarities
}

func newFixture(t *testing.T, score polarities, gen Generator) *fixture {
	t.Helper()
	repo := store.NewMemory()
	scorer := score.scorer()

	deps := Deps{
		Classifier:  sentiment.NewClassifier(scorer),
		Recommender: music.NewMapper(scorer),
		Generator:   gen,
		Escalator:   safety.NewHandler(repo, nil, time.Second),
		Turns:       repo,
		History:     repo,
	}
	orch, err := NewOrchestrator(deps)
	require.NoError(t, err)

	f := &fixture{orch: orch, repo: repo, score: score}
	if fg, ok := gen.(*fakeGenerator); ok {
		f.gen = fg
	}
	return f
}

func TestSubmitTurn_RiskEscalates(t *testing.T) {
	gen := &fakeGenerator{reply: "should not be used"}
	f := newFixture(t, polarities{"I can't go on": -0.7}, gen)

	out, err := f.orch.SubmitTurn(context.Background(), Request{UserID: "u1", Message: "I can't go on"})
	require.NoError(t, err)

	assert.Equal(t, safety.SupportMessage, out.BotResponse)
	assert.Equal(t, StateEscalated, out.State)
	assert.True(t, out.Sentiment.RiskFlag)
	assert.Nil(t, out.MusicRecommendation)
	assert.Empty(t, gen.calls, "generator must not run on the risk path")
	assert.Equal(t, 0, f.repo.TurnCount(), "no turn is persisted on the risk path")

	alerts := f.repo.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "u1", alerts[0].UserID)
	assert.Equal(t, chat.AlertTriggered, alerts[0].Status)
}

func TestSubmitTurn_RiskBoundaryIsInclusive(t *testing.T) {
	gen := &fakeGenerator{reply: "x"}
	f := newFixture(t, polarities{"edge": -0.5, "just above": -0.4999}, gen)

	out, err := f.orch.SubmitTurn(context.Background(), Request{UserID: "u1", Message: "edge"})
	require.NoError(t, err)
	assert.Equal(t, StateEscalated, out.State)

	out, err = f.orch.SubmitTurn(context.Background(), Request{UserID: "u1", Message: "just above"})
	require.NoError(t, err)
	assert.Equal(t, StateResponded, out.State)
	assert.Len(t, gen.calls, 1)
}

func TestSubmitTurn_HappyPathPersistsMapperMood(t *testing.T) {
	gen := &fakeGenerator{reply: "That's wonderful!"}
	f := newFixture(t, polarities{"I got the job": 0.5}, gen)

	out, err := f.orch.SubmitTurn(context.Background(), Request{UserID: "u1", Message: "I got the job"})
	require.NoError(t, err)

	assert.Equal(t, "That's wonderful!", out.BotResponse)
	assert.Equal(t, StateResponded, out.State)
	assert.True(t, out.Persisted)
	assert.Equal(t, chat.MoodHappy, out.Mood)
	require.NotNil(t, out.MusicRecommendation)
	assert.Equal(t, "https://open.spotify.com/playlist/37i9dQZF1DXdPec7aLTmlC", *out.MusicRecommendation)
	assert.Equal(t, []chat.Mood{chat.MoodHappy}, gen.calls)

	turns, err := f.repo.FetchRecent(context.Background(), "u1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, chat.MoodHappy, turns[0].Mood)
	assert.Equal(t, "I got the job", turns[0].UserMessage)
	assert.Equal(t, "That's wonderful!", turns[0].BotResponse)
	assert.Empty(t, f.repo.Alerts())
}

func TestSubmitTurn_DualMoodDerivation(t *testing.T) {
	// -0.3: classifier says Sad for the prompt, mapper says Depressed for music.
	gen := &fakeGenerator{reply: "I'm here"}
	f := newFixture(t, polarities{"rough week": -0.3}, gen)

	out, err := f.orch.SubmitTurn(context.Background(), Request{UserID: "u1", Message: "rough week"})
	require.NoError(t, err)

	assert.Equal(t, []chat.Mood{chat.MoodSad}, gen.calls)
	assert.Equal(t, chat.MoodDepressed, out.Mood)
	assert.Nil(t, out.MusicRecommendation, "Depressed has no playlist")
	assert.True(t, out.Persisted)
}

func TestSubmitTurn_Validation(t *testing.T) {
	gen := &fakeGenerator{reply: "x"}
	f := newFixture(t, polarities{}, gen)

	cases := []Request{
		{UserID: "", Message: "hi"},
		{UserID: "  ", Message: "hi"},
		{UserID: "u1", Message: ""},
		{UserID: "u1", Message: " \n "},
		{UserID: "u1", Message: strings.Repeat("a", MaxMessageLength+1)},
	}
	for _, req := range cases {
		_, err := f.orch.SubmitTurn(context.Background(), req)
		assert.ErrorIs(t, err, ErrValidation)
	}

	assert.Empty(t, gen.calls)
	assert.Equal(t, 0, f.repo.TurnCount())
	assert.Empty(t, f.repo.Alerts())
}

func TestSubmitTurn_ModelFailure(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("%w: timeout", ai.ErrServiceUnavailable)}
	f := newFixture(t, polarities{"hello": 0.2}, gen)

	out, err := f.orch.SubmitTurn(context.Background(), Request{UserID: "u1", Message: "hello"})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrModelService)
	assert.ErrorIs(t, err, ai.ErrServiceUnavailable)
	assert.Equal(t, 0, f.repo.TurnCount())
}

func TestSubmitTurn_NoGeneratorConfigured(t *testing.T) {
	f := newFixture(t, polarities{"hello": 0.2, "awful": -0.9}, nil)

	_, err := f.orch.SubmitTurn(context.Background(), Request{UserID: "u1", Message: "hello"})
	assert.ErrorIs(t, err, ErrModelService)

	out, err := f.orch.SubmitTurn(context.Background(), Request{UserID: "u1", Message: "awful"})
	require.NoError(t, err, "the risk path works without a model")
	assert.Equal(t, safety.SupportMessage, out.BotResponse)
}

func TestSubmitTurn_PersistFailureStillReplies(t *testing.T) {
	scorer := polarities{"hello": 0.2}.scorer()
	orch, err := NewOrchestrator(Deps{
		Classifier:  sentiment.NewClassifier(scorer),
		Recommender: music.NewMapper(scorer),
		Generator:   &fakeGenerator{reply: "hi there"},
		Escalator:   safety.NewHandler(nil, nil, time.Second),
		Turns:       failingTurns{},
	})
	require.NoError(t, err)

	out, err := orch.SubmitTurn(context.Background(), Request{UserID: "u1", Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hi there", out.BotResponse)
	assert.False(t, out.Persisted)
}

func TestSubmitTurn_PanicBecomesInternalError(t *testing.T) {
	f := newFixture(t, polarities{"hello": 0.2}, &fakeGenerator{panic: true})

	out, err := f.orch.SubmitTurn(context.Background(), Request{UserID: "u1", Message: "hello"})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestSubmitTurn_WriteSurvivesCancelledContext(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	f := newFixture(t, polarities{"hello": 0.2}, gen)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out, err := f.orch.SubmitTurn(ctx, Request{UserID: "u1", Message: "hello"})
	require.NoError(t, err)
	cancel()

	assert.True(t, out.Persisted)
	assert.Equal(t, 1, f.repo.TurnCount())
}

func TestHistory(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	f := newFixture(t, polarities{}, gen)

	turns, err := f.orch.History(context.Background(), "nobody", 20)
	require.NoError(t, err)
	assert.Empty(t, turns)

	_, err = f.orch.History(context.Background(), "", 20)
	assert.ErrorIs(t, err, ErrValidation)

	for i := 0; i < 3; i++ {
		_, err := f.orch.SubmitTurn(context.Background(), Request{UserID: "u1", Message: fmt.Sprintf("m%d", i)})
		require.NoError(t, err)
	}
	turns, err = f.orch.History(context.Background(), "u1", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "m1", turns[0].UserMessage)
	assert.Equal(t, "m2", turns[1].UserMessage)
}

type stalledHistory struct{}

func (stalledHistory) FetchRecent(ctx context.Context, _ string, _ int) ([]chat.Turn, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestHistory_StalledStoreTimesOut(t *testing.T) {
	repo := store.NewMemory()
	scorer := polarities{}.scorer()
	orch, err := NewOrchestrator(Deps{
		Classifier:  sentiment.NewClassifier(scorer),
		Recommender: music.NewMapper(scorer),
		Escalator:   safety.NewHandler(repo, nil, time.Second),
		Turns:       repo,
		History:     stalledHistory{},
		ReadTimeout: 30 * time.Millisecond,
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = orch.History(context.Background(), "u1", 20)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNewOrchestratorRequiresDeps(t *testing.T) {
	_, err := NewOrchestrator(Deps{})
	assert.Error(t, err)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StateReceived, StateScored))
	assert.True(t, CanTransition(StateScored, StateEscalated))
	assert.True(t, CanTransition(StateScored, StateResponded))
	assert.True(t, CanTransition(StateResponded, StateTerminal))
	assert.False(t, CanTransition(StateReceived, StateResponded))
	assert.False(t, CanTransition(StateEscalated, StateResponded))
	assert.False(t, CanTransition(StateTerminal, StateReceived))
}

// recordingModel is an eino chat model that captures the prompt it receives.
type recordingModel struct {
	mu    sync.Mutex
	calls [][]*schema.Message
}

func (m *recordingModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.calls = append(m.calls, in)
	m.mu.Unlock()
	return schema.AssistantMessage("reply", nil), nil
}

func (m *recordingModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, _ := m.Generate(ctx, in, opts...)
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func newPipeline(t *testing.T, score polarities, repo *store.Memory, cm *recordingModel) *Orchestrator {
	t.Helper()
	gen, err := ai.NewService(context.Background(), cm, repo, config.AIConfig{Model: "gemma2-9b-it", Timeout: time.Second})
	require.NoError(t, err)

	scorer := score.scorer()
	orch, err := NewOrchestrator(Deps{
		Classifier:  sentiment.NewClassifier(scorer),
		Recommender: music.NewMapper(scorer),
		Generator:   gen,
		Escalator:   safety.NewHandler(repo, nil, time.Second),
		Turns:       repo,
		History:     repo,
	})
	require.NoError(t, err)
	return orch
}

func TestPipeline_FirstTurnSendsSystemAndUserOnly(t *testing.T) {
	repo := store.NewMemory()
	cm := &recordingModel{}
	orch := newPipeline(t, polarities{"best day ever": 0.5}, repo, cm)

	out, err := orch.SubmitTurn(context.Background(), Request{UserID: "u1", Message: "best day ever"})
	require.NoError(t, err)
	assert.Equal(t, chat.MoodHappy, out.Mood)

	require.Len(t, cm.calls, 1)
	msgs := cm.calls[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Equal(t, "best day ever", msgs[1].Content)
	assert.Equal(t, 1, repo.TurnCount())
}

func TestPipeline_ThreePriorTurnsInOrder(t *testing.T) {
	repo := store.NewMemory()
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		require.NoError(t, repo.AppendTurn(ctx, chat.Turn{
			UserID:      "u1",
			UserMessage: fmt.Sprintf("q%d", i),
			BotResponse: fmt.Sprintf("a%d", i),
			Mood:        chat.MoodRelaxed,
		}))
	}

	cm := &recordingModel{}
	orch := newPipeline(t, polarities{"and today?": 0.2}, repo, cm)

	_, err := orch.SubmitTurn(ctx, Request{UserID: "u1", Message: "and today?"})
	require.NoError(t, err)

	require.Len(t, cm.calls, 1)
	msgs := cm.calls[0]
	require.Len(t, msgs, 8)

	wantRoles := []schema.RoleType{schema.System, schema.User, schema.Assistant, schema.User, schema.Assistant, schema.User, schema.Assistant, schema.User}
	wantContent := []string{"", "q1", "a1", "q2", "a2", "q3", "a3", "and today?"}
	for i := range msgs {
		assert.Equal(t, wantRoles[i], msgs[i].Role, "role at %d", i)
		if i > 0 {
			assert.Equal(t, wantContent[i], msgs[i].Content, "content at %d", i)
		}
	}
}

func TestPipeline_RiskNeverReachesModel(t *testing.T) {
	repo := store.NewMemory()
	cm := &recordingModel{}
	orch := newPipeline(t, polarities{"everything is hopeless": -0.7}, repo, cm)

	out, err := orch.SubmitTurn(context.Background(), Request{UserID: "u1", Message: "everything is hopeless"})
	require.NoError(t, err)

	assert.Equal(t, safety.SupportMessage, out.BotResponse)
	assert.Nil(t, out.MusicRecommendation)
	assert.Empty(t, cm.calls)
	assert.Equal(t, 0, repo.TurnCount())
	assert.Len(t, repo.Alerts(), 1)
}
