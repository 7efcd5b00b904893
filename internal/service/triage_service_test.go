package service

import (
	"context"
	"testing"
	"time"

	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/dto"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/entity"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/pkg/logger"
	"github.com/Lbridge2222/bridge-fullstack-sub002/internal/repository/specification"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/cache"
	"github.com/Lbridge2222/bridge-fullstack-sub002/pkg/ratelimit"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLeadRepo struct {
	leads map[uuid.UUID]*entity.Lead
	calls int
}

func (f *fakeLeadRepo) Create(ctx context.Context, lead *entity.Lead) error { return nil }
func (f *fakeLeadRepo) Update(ctx context.Context, lead *entity.Lead) error { return nil }
func (f *fakeLeadRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Lead, error) {
	return nil, nil
}
func (f *fakeLeadRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Lead, error) {
	return nil, nil
}
func (f *fakeLeadRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

func (f *fakeLeadRepo) FindByIds(ctx context.Context, ids []uuid.UUID) ([]*entity.Lead, error) {
	f.calls++
	var out []*entity.Lead
	for _, id := range ids {
		if lead, ok := f.leads[id]; ok {
			out = append(out, lead)
		}
	}
	return out, nil
}

func newTriageFixture(t *testing.T, leads ...*entity.Lead) (*triageService, *fakeLeadRepo) {
	t.Helper()
	repo := &fakeLeadRepo{leads: make(map[uuid.UUID]*entity.Lead)}
	for _, l := range leads {
		repo.leads[l.Id] = l
	}
	limiter := ratelimit.New(ratelimit.Config{PerMinute: 1000, Burst: 1000})
	t.Cleanup(limiter.Close)

	svc := &triageService{
		limiter: limiter,
		leads:   repo,
		results: cache.New(64, time.Minute),
		log:     logger.Nop(),
		now:     func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	return svc, repo
}

func leadAt(stage string, lastTouch *time.Time) *entity.Lead {
	return &entity.Lead{
		Id:        uuid.New(),
		Name:      "Test Lead",
		Stage:     stage,
		LastTouch: lastTouch,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestTriageScoresBands(t *testing.T) {
	recent := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)
	stale := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	hot := leadAt("offer_made", &recent)
	warm := leadAt("applied", &stale)
	cold := leadAt("enquiry", nil)

	svc, _ := newTriageFixture(t, hot, warm, cold)

	res, err := svc.Triage(context.Background(), "u1", "o1", &dto.TriageRequest{
		LeadIds: []uuid.UUID{hot.Id, warm.Id, cold.Id},
	})
	require.NoError(t, err)
	require.Len(t, res.Results, 3)

	byID := make(map[uuid.UUID]dto.TriagedLeadDTO)
	for _, r := range res.Results {
		byID[r.LeadId] = r
	}

	assert.Equal(t, "hot", byID[hot.Id].Band)
	assert.InDelta(t, 90, byID[hot.Id].Score, 0.01)

	assert.Equal(t, "warm", byID[warm.Id].Band)
	assert.InDelta(t, 45, byID[warm.Id].Score, 0.01)

	assert.Equal(t, "cold", byID[cold.Id].Band)
	assert.InDelta(t, 30, byID[cold.Id].Score, 0.01)
}

func TestTriageActionsAreCanonical(t *testing.T) {
	recent := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)
	hot := leadAt("offer_made", &recent)
	svc, _ := newTriageFixture(t, hot)

	res, err := svc.Triage(context.Background(), "u1", "o1", &dto.TriageRequest{LeadIds: []uuid.UUID{hot.Id}})
	require.NoError(t, err)
	require.NotEmpty(t, res.Results[0].Actions)

	canonical := map[string]bool{
		"view_profile":           true,
		"open_call_console":      true,
		"open_email_composer":    true,
		"open_meeting_scheduler": true,
	}
	for _, a := range res.Results[0].Actions {
		assert.True(t, canonical[a.Action], "action %q not in closed set", a.Action)
		assert.NotEmpty(t, a.Label)
	}
}

func TestTriageResultCachedPerRevision(t *testing.T) {
	recent := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)
	lead := leadAt("interview", &recent)
	svc, _ := newTriageFixture(t, lead)

	first, err := svc.Triage(context.Background(), "u1", "o1", &dto.TriageRequest{LeadIds: []uuid.UUID{lead.Id}})
	require.NoError(t, err)
	second, err := svc.Triage(context.Background(), "u1", "o1", &dto.TriageRequest{LeadIds: []uuid.UUID{lead.Id}})
	require.NoError(t, err)

	assert.Equal(t, first.Results, second.Results)

	// A changed record revision misses the cache and re-scores.
	touched := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	lead.UpdatedAt = &touched
	lead.Stage = "offer_made"

	third, err := svc.Triage(context.Background(), "u1", "o1", &dto.TriageRequest{LeadIds: []uuid.UUID{lead.Id}})
	require.NoError(t, err)
	assert.Equal(t, "hot", third.Results[0].Band)
}

func TestTriageRateLimited(t *testing.T) {
	lead := leadAt("enquiry", nil)
	svc, _ := newTriageFixture(t, lead)

	tight := ratelimit.New(ratelimit.Config{PerMinute: 1, Burst: 1})
	t.Cleanup(tight.Close)
	svc.limiter = tight

	_, err := svc.Triage(context.Background(), "u1", "o1", &dto.TriageRequest{LeadIds: []uuid.UUID{lead.Id}})
	require.NoError(t, err)

	_, err = svc.Triage(context.Background(), "u1", "o1", &dto.TriageRequest{LeadIds: []uuid.UUID{lead.Id}})
	assert.ErrorIs(t, err, ratelimit.ErrRateLimited)
}

func TestTriageNilPublisherSafe(t *testing.T) {
	lead := leadAt("applied", nil)
	svc, _ := newTriageFixture(t, lead)
	// eventPublisher is nil in the fixture; publishing must be a no-op.
	res, err := svc.Triage(context.Background(), "u1", "o1", &dto.TriageRequest{LeadIds: []uuid.UUID{lead.Id}})
	require.NoError(t, err)
	assert.Len(t, res.Results, 1)
}
