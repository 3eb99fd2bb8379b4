package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPipeline() (*Pipeline, *store.Memory) {
	mem := store.NewMemory()
	return NewPipeline(MemoryStores(mem), zap.NewNop()), mem
}

func TestPipeline_ProtectiveOrderEndToEnd(t *testing.T) {
	ctx := context.Background()
	p, mem := newTestPipeline()
	po := newProtectiveOrder()

	report, err := p.RunBatch(ctx, po.batch())
	require.NoError(t, err)

	assert.Equal(t, domain.BatchCompleted, report.Status)
	assert.Equal(t, 7, report.Accepted)
	assert.Empty(t, report.Rejected)
	assert.Equal(t, 2, report.Affected)
	assert.Equal(t, 2, report.Scored)
	assert.Equal(t, 3, report.RelationshipsWritten)
	assert.Equal(t, 2, report.Classified)
	assert.Equal(t, 4, report.AggregatesWritten, "two documents, one filing, one party")
	assert.Equal(t, 1, report.ProfilesWritten)
	assert.NotNil(t, report.FinishedAt)

	score, err := mem.Scores.Latest(ctx, po.denial.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, score.Dimensions.TruthLie)
	assert.Equal(t, 746, score.Composite)
	assert.Equal(t, 1, score.Version)

	rel, err := mem.Relationships.Get(ctx, domain.RelationshipID(po.denial.Ref(), po.service.Ref(), domain.RelContradicts))
	require.NoError(t, err)
	assert.Equal(t, 1000, rel.Strength)
	assert.True(t, rel.Primary)

	cls, err := mem.Classifications.Latest(ctx, po.denial.ID)
	require.NoError(t, err)
	assert.True(t, cls.HasTag(domain.TagPerjuryCandidate))
	assert.True(t, cls.HasTag(domain.TagFraudOnProcess))
	assert.True(t, cls.HasTag(domain.TagEndangermentPattern))
	assert.True(t, cls.HasTag(domain.TagConcealment))
	for _, c := range cls.Candidates {
		assert.Equal(t, score.ID, c.ScoreID)
	}

	transitions, err := mem.Stages.Transitions(ctx, po.denial.ID)
	require.NoError(t, err)
	var stages []domain.Stage
	for _, tt := range transitions {
		stages = append(stages, tt.To)
	}
	assert.Equal(t, []domain.Stage{domain.StageScored, domain.StageCorrelated, domain.StageClassified}, stages)

	filing, err := mem.Aggregates.Latest(ctx, domain.ScopeFiling, po.filing.ID.String())
	require.NoError(t, err)
	assert.True(t, filing.InRange())
	assert.Equal(t, 2, filing.StatementCount)

	profile, err := mem.Profiles.Latest(ctx, respondent)
	require.NoError(t, err)
	assert.Equal(t, 2, profile.StatementCount)
	assert.Equal(t, 1, profile.ViolationCounts[domain.TagPerjuryCandidate])
}

func TestPipeline_TreatyAccessionContradictsDenial(t *testing.T) {
	ctx := context.Background()
	p, mem := newTestPipeline()
	ta := newTreatyAccession()

	report, err := p.RunBatch(ctx, ta.batch())
	require.NoError(t, err)
	assert.Equal(t, domain.BatchCompleted, report.Status)
	assert.Empty(t, report.Rejected)

	score, err := mem.Scores.Latest(ctx, ta.denial.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, score.Dimensions.TruthLie, 100)
	assert.False(t, score.LowConfidence)
	assert.Equal(t, domain.TierVerifiedFalse, score.Tier())

	rel, err := mem.Relationships.Get(ctx, domain.RelationshipID(ta.denial.Ref(), ta.record.Ref(), domain.RelContradicts))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rel.Strength, 900)
	assert.True(t, rel.Primary)
	assert.Equal(t, []domain.EntityRef{ta.record.Ref()}, rel.EvidenceRefs)

	cls, err := mem.Classifications.Latest(ctx, ta.denial.ID)
	require.NoError(t, err)
	assert.True(t, cls.HasTag(domain.TagPerjuryCandidate))
	assert.True(t, cls.HasTag(domain.TagFraudOnProcess))
	assert.False(t, cls.InsufficientEvidence)
}

func TestPipeline_RelationshipsReferenceExistingEntities(t *testing.T) {
	ctx := context.Background()
	p, mem := newTestPipeline()
	po := newProtectiveOrder()
	urgent := po.denial
	urgent.ID = uuid.New()
	urgent.Urgent = true
	urgent.Subject = "relocation"
	urgent.AssertedAt = dayPtr(20)
	b := po.batch()
	b.Statements = append(b.Statements, urgent)

	_, err := p.RunBatch(ctx, b)
	require.NoError(t, err)

	corpus, err := p.index.Snapshot(ctx)
	require.NoError(t, err)
	rels, err := mem.Relationships.ListCurrent(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, rels)
	gap := false
	for _, r := range rels {
		assert.True(t, corpus.Exists(r.Source), "source %s", r.Source)
		assert.True(t, corpus.Exists(r.Target), "target %s", r.Target)
		assert.True(t, domain.InRange(r.Strength))
		gap = gap || r.Kind == domain.RelTimelineGap
	}
	assert.True(t, gap)
}

func TestPipeline_RejectsMalformedRecords(t *testing.T) {
	ctx := context.Background()
	p, mem := newTestPipeline()
	po := newProtectiveOrder()

	orphan := claim(petitioner, "school pickup", 3)
	inflated := po.proof
	inflated.ID = uuid.New()
	inflated.Credibility = 150
	dangling := indicator(domain.StatementRef(uuid.New()), domain.StanceSupports, 50)
	b := po.batch()
	b.Statements = append(b.Statements, orphan)
	b.Indicators = append(b.Indicators, inflated, dangling)

	report, err := p.RunBatch(ctx, b)
	require.NoError(t, err)

	require.Len(t, report.Rejected, 3)
	rejected := make(map[uuid.UUID]string)
	for _, r := range report.Rejected {
		rejected[r.ID] = r.Entity
		assert.NotEmpty(t, r.Reason)
	}
	assert.Equal(t, "statement", rejected[orphan.ID])
	assert.Equal(t, "evidence_indicator", rejected[inflated.ID])
	assert.Equal(t, "evidence_indicator", rejected[dangling.ID])
	assert.Equal(t, 7, report.Accepted)

	_, err = mem.Statements.GetLatest(ctx, orphan.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPipeline_RerunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p, mem := newTestPipeline()
	po := newProtectiveOrder()

	_, err := p.RunBatch(ctx, po.batch())
	require.NoError(t, err)
	report, err := p.RunBatch(ctx, po.batch())
	require.NoError(t, err)

	assert.Equal(t, domain.BatchCompleted, report.Status)
	assert.Equal(t, 2, report.Affected)
	assert.Zero(t, report.Scored)
	assert.Zero(t, report.RelationshipsWritten)
	assert.Zero(t, report.Classified)
	assert.Zero(t, report.AggregatesWritten)
	assert.Zero(t, report.ProfilesWritten)

	history, err := mem.Scores.History(ctx, po.denial.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestPipeline_NewEvidenceWritesNewVersions(t *testing.T) {
	ctx := context.Background()
	p, mem := newTestPipeline()
	po := newProtectiveOrder()

	_, err := p.RunBatch(ctx, po.batch())
	require.NoError(t, err)

	witness := domain.EvidenceIndicator{
		ID:          uuid.New(),
		Target:      po.service.Ref(),
		Stance:      domain.StanceSupports,
		Credibility: 70,
		Type:        domain.IndicatorWitness,
	}
	report, err := p.RunBatch(ctx, &domain.Batch{ID: uuid.New(), Indicators: []domain.EvidenceIndicator{witness}})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Affected, "both statements are about the event")
	assert.Equal(t, 2, report.Scored)
	history, err := mem.Scores.History(ctx, po.denial.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.NotEqual(t, history[0].InputHash, history[1].InputHash)
	assert.Equal(t, 2, history[1].Version)
}

func TestPipeline_DriftFailsTheBatch(t *testing.T) {
	ctx := context.Background()
	p, mem := newTestPipeline()
	po := newProtectiveOrder()

	_, err := p.RunBatch(ctx, po.batch())
	require.NoError(t, err)

	stored, err := mem.Scores.Latest(ctx, po.denial.ID)
	require.NoError(t, err)
	tampered := *stored
	tampered.Composite = 10
	require.NoError(t, mem.Scores.Append(ctx, &tampered))

	report, err := p.RunBatch(ctx, po.batch())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRecomputationDrift)
	var drift *domain.DriftError
	require.True(t, errors.As(err, &drift))
	assert.Equal(t, "score", drift.Entity)
	assert.Equal(t, domain.BatchFailed, report.Status)
}

// flakyRelationships fails every append until fail is cleared.
type flakyRelationships struct {
	domain.RelationshipStore
	fail bool
}

func (f *flakyRelationships) Append(ctx context.Context, r *domain.Relationship) (bool, error) {
	if f.fail {
		return false, errors.New("connection reset")
	}
	return f.RelationshipStore.Append(ctx, r)
}

func TestPipeline_ResumesFromCheckpoint(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	stores := MemoryStores(mem)
	flaky := &flakyRelationships{RelationshipStore: mem.Relationships, fail: true}
	stores.Relationships = flaky
	p := NewPipeline(stores, zap.NewNop())
	p.ChunkSize = 1
	po := newProtectiveOrder()
	b := po.batch()

	report, err := p.RunBatch(ctx, b)
	require.Error(t, err)
	assert.Equal(t, domain.BatchFailed, report.Status)
	assert.Equal(t, 2, report.Scored)

	cp, err := mem.Checkpoints.Get(ctx, b.ID, domain.StageCorrelated)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Len(t, cp.Completed, 2)

	flaky.fail = false
	report, err = p.RunBatch(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchCompleted, report.Status)
	assert.Equal(t, 2, report.Resumed)
	assert.Zero(t, report.Scored)
	assert.Equal(t, 3, report.RelationshipsWritten)
	assert.Equal(t, 2, report.Classified)

	history, err := mem.Scores.History(ctx, po.denial.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, _ := newTestPipeline()

	report, err := p.RunBatch(ctx, newProtectiveOrder().batch())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.BatchCancelled, report.Status)
	assert.NotEmpty(t, report.Error)
}

func TestPipeline_OverrideRefreshesClassification(t *testing.T) {
	ctx := context.Background()
	p, mem := newTestPipeline()
	po := newProtectiveOrder()
	_, err := p.RunBatch(ctx, po.batch())
	require.NoError(t, err)

	review := NewReviewService(mem.Relationships, p, zap.NewNop())
	err = review.Override(ctx, &domain.RelationshipOverride{
		RelationshipID: domain.RelationshipID(po.denial.Ref(), po.service.Ref(), domain.RelContradicts),
		Suppressed:     true,
		Reviewer:       "clerk",
		Reason:         "service address disputed",
	})
	require.NoError(t, err)

	cls, err := mem.Classifications.Latest(ctx, po.denial.ID)
	require.NoError(t, err)
	assert.False(t, cls.HasTag(domain.TagEndangermentPattern))
	assert.True(t, cls.HasTag(domain.TagFraudOnProcess))

	history, err := mem.Classifications.History(ctx, po.denial.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	scores, err := mem.Scores.History(ctx, po.denial.ID)
	require.NoError(t, err)
	assert.Len(t, scores, 1, "overrides never rescore")
}

func TestChunk(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, chunk([]int{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int{{1, 2, 3}}, chunk([]int{1, 2, 3}, 0))
	assert.Nil(t, chunk([]int{}, 2))
}

func TestReconcile(t *testing.T) {
	write, err := reconcile("score", "k", "a", "b", false)
	assert.True(t, write)
	assert.NoError(t, err)

	write, err = reconcile("score", "k", "a", "a", true)
	assert.False(t, write)
	assert.NoError(t, err)

	_, err = reconcile("score", "k", "a", "a", false)
	assert.ErrorIs(t, err, domain.ErrRecomputationDrift)
}
