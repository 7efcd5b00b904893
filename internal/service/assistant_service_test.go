package service

import (
	"context"
	"testing"
	"time"

	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/config"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/dto"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/pkg/logger"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/repository/memory"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/cache"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/rag/history"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/rag/intent"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/rag/response"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/rag/retrieval"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/ratelimit"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSearcher struct {
	candidates []store.Candidate
}

func (s *staticSearcher) Lexical(ctx context.Context, keywords []string, rawQuery string, f retrieval.Filters, limit int) ([]store.Candidate, error) {
	return s.candidates, nil
}

func (s *staticSearcher) Vector(ctx context.Context, vector []float32, f retrieval.Filters, limit int, threshold float64) ([]store.Candidate, error) {
	return nil, nil
}

// newAssistantFixture wires the full pipeline with generation disabled:
// nil providers everywhere, so every answer is the deterministic fallback.
func newAssistantFixture(t *testing.T, modalEnabled bool, candidates []store.Candidate) IAssistantService {
	t.Helper()

	limiter := ratelimit.New(ratelimit.Config{PerMinute: 1000, Burst: 1000})
	t.Cleanup(limiter.Close)

	buffer := history.NewBuffer(history.NewSanitizer())
	resolver := intent.NewResolver(nil, cache.New(64, time.Minute), cache.New(64, time.Minute), logger.Nop(), 0, time.Second)

	engine := retrieval.NewEngine(
		nil, // no embedder: lexical-only
		&staticSearcher{candidates: candidates},
		cache.NewTiered(cache.New(64, time.Minute), nil, time.Minute),
		logger.Nop(),
		retrieval.DefaultConfig(),
	)

	composer := response.NewComposer(nil, cache.New(64, time.Minute), logger.Nop(), time.Second)

	aiCfg := &config.AIConfig{ModalEnabled: modalEnabled}

	return NewAssistantService(
		limiter,
		buffer,
		resolver,
		engine,
		composer,
		memory.NewSessionRepository(),
		logger.Nop(),
		aiCfg,
	)
}

func TestRouteConversationalWithoutGeneration(t *testing.T) {
	candidates := []store.Candidate{
		{ID: "d1", Title: "Tuition fee schedule", Content: "Tuition fees for 2026 entry", Category: "fees", SimilarityScore: 0.8},
	}
	svc := newAssistantFixture(t, false, candidates)

	res, err := svc.Route(context.Background(), "u1", "o1", &dto.RouterRequest{
		Query: "what are the tuition fees",
		Context: map[string]interface{}{
			"name":   "Priya Shah",
			"course": "BSc Nursing",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, store.KindConversational, res.Kind)
	assert.NotEmpty(t, res.AnswerMarkdown, "answer must never be empty even with generation disabled")
	assert.Contains(t, res.AnswerMarkdown, "Priya Shah")
	assert.Equal(t, intent.IntentFeesFunding, res.Intent)
	assert.NotEmpty(t, res.Actions)
	require.NotEmpty(t, res.Sources)
	assert.Equal(t, 1, res.Sources[0].Rank)
}

func TestRouteFactsOutsideAllowlistNeverSurface(t *testing.T) {
	svc := newAssistantFixture(t, false, nil)

	res, err := svc.Route(context.Background(), "u1", "o1", &dto.RouterRequest{
		Query: "tell me about this applicant",
		Context: map[string]interface{}{
			"name":         "Ade",
			"home_address": "12 Privet Drive",
		},
	})
	require.NoError(t, err)
	assert.NotContains(t, res.AnswerMarkdown, "12 Privet Drive")
}

func TestRouteModalGating(t *testing.T) {
	req := &dto.RouterRequest{
		Query:          "schedule meeting",
		UICapabilities: []string{"modal"},
	}

	t.Run("enabled with capability", func(t *testing.T) {
		svc := newAssistantFixture(t, true, nil)
		res, err := svc.Route(context.Background(), "u1", "o1", req)
		require.NoError(t, err)
		assert.Equal(t, store.KindModal, res.Kind)
		require.NotNil(t, res.Modal)
		assert.Equal(t, "meeting_scheduler", res.Modal.Type)
		assert.NotEmpty(t, res.Actions)
	})

	t.Run("flag disabled", func(t *testing.T) {
		svc := newAssistantFixture(t, false, nil)
		res, err := svc.Route(context.Background(), "u1", "o1", req)
		require.NoError(t, err)
		assert.Equal(t, store.KindConversational, res.Kind)
		assert.Nil(t, res.Modal)
	})

	t.Run("capability absent", func(t *testing.T) {
		svc := newAssistantFixture(t, true, nil)
		res, err := svc.Route(context.Background(), "u1", "o1", &dto.RouterRequest{Query: "schedule meeting"})
		require.NoError(t, err)
		assert.Equal(t, store.KindConversational, res.Kind)
	})
}

func TestRouteRateLimitSurfaces(t *testing.T) {
	svc := newAssistantFixture(t, false, nil).(*assistantService)
	tight := ratelimit.New(ratelimit.Config{PerMinute: 2, Burst: 2})
	t.Cleanup(tight.Close)
	svc.limiter = tight

	req := &dto.RouterRequest{Query: "hello"}
	for i := 0; i < 2; i++ {
		_, err := svc.Route(context.Background(), "u1", "o1", req)
		require.NoError(t, err)
	}

	_, err := svc.Route(context.Background(), "u1", "o1", req)
	assert.ErrorIs(t, err, ratelimit.ErrRateLimited)
}

func TestRouteIntentContinuity(t *testing.T) {
	svc := newAssistantFixture(t, false, nil)

	res, err := svc.Route(context.Background(), "u1", "o1", &dto.RouterRequest{
		Query:     "what are the tuition fees",
		SessionId: "s1",
	})
	require.NoError(t, err)
	require.Equal(t, intent.IntentFeesFunding, res.Intent)

	// A vague follow-up in the same session inherits the prior intent.
	res, err = svc.Route(context.Background(), "u1", "o1", &dto.RouterRequest{
		Query:     "what about next year",
		SessionId: "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, intent.IntentFeesFunding, res.Intent)

	// The same vague query in a fresh session stays general.
	res, err = svc.Route(context.Background(), "u1", "o1", &dto.RouterRequest{
		Query:     "what about next year",
		SessionId: "s2",
	})
	require.NoError(t, err)
	assert.Equal(t, intent.IntentGeneralSearch, res.Intent)
}

func TestRouteContractModePersistsAcrossTurns(t *testing.T) {
	svc := newAssistantFixture(t, false, nil).(*assistantService)

	_, err := svc.Route(context.Background(), "u1", "o1", &dto.RouterRequest{
		Query:     "draft a reply",
		SessionId: "s1",
		Context: map[string]interface{}{
			"contract": map[string]interface{}{"mode": "email"},
		},
	})
	require.NoError(t, err)

	session, ok := svc.sessions.Get("s1")
	require.True(t, ok)
	assert.Equal(t, "email", session.ContractMode)

	// The next turn carries no contract; the session's mode stays in force.
	_, err = svc.Route(context.Background(), "u1", "o1", &dto.RouterRequest{
		Query:     "thanks, anything else",
		SessionId: "s1",
	})
	require.NoError(t, err)

	session, ok = svc.sessions.Get("s1")
	require.True(t, ok)
	assert.Equal(t, "email", session.ContractMode)
}

func TestRouteModalTakeoverClearsContinuity(t *testing.T) {
	svc := newAssistantFixture(t, true, nil).(*assistantService)

	_, err := svc.Route(context.Background(), "u1", "o1", &dto.RouterRequest{
		Query:     "what are the tuition fees",
		SessionId: "s1",
	})
	require.NoError(t, err)
	_, ok := svc.sessions.Get("s1")
	require.True(t, ok)

	res, err := svc.Route(context.Background(), "u1", "o1", &dto.RouterRequest{
		Query:          "schedule meeting",
		SessionId:      "s1",
		UICapabilities: []string{"modal"},
	})
	require.NoError(t, err)
	require.Equal(t, store.KindModal, res.Kind)

	_, ok = svc.sessions.Get("s1")
	assert.False(t, ok, "structured takeover must drop continuity state")
}

func TestRouteContractEnforced(t *testing.T) {
	svc := newAssistantFixture(t, false, nil)

	res, err := svc.Route(context.Background(), "u1", "o1", &dto.RouterRequest{
		Query: "advise this applicant",
		Context: map[string]interface{}{
			"name": "Ade",
			"contract": map[string]interface{}{
				"mode": "advice",
				"must": []interface{}{"application deadline"},
			},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, res.AnswerMarkdown, "application deadline")
}
