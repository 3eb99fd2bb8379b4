package service

import (
	"testing"
	"time"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/evidence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// denialInputs scores and correlates the denial the way the pipeline would.
func denialInputs(t *testing.T, po *protectiveOrder) (*domain.Statement, *domain.ScoreRecord, []domain.Relationship, map[uuid.UUID]*domain.Event) {
	t.Helper()
	c := po.corpus()
	denial, ok := c.Statement(po.denial.ID)
	require.True(t, ok)

	score := NewScorer(zap.NewNop()).Score(denial, c)
	score.ID = uuid.New()

	cor := NewCorrelator(zap.NewNop())
	cs := make(candidates)
	for _, st := range c.Statements() {
		for _, r := range cor.CorrelateStatement(st, c) {
			cs.add(r)
		}
	}
	var touching []domain.Relationship
	for _, r := range ResolveTies(cs.list()) {
		if r.Touches(denial.Ref()) {
			touching = append(touching, r)
		}
	}
	return denial, score, touching, c.EventsByID()
}

func TestClassifier_ProtectiveOrderDenial(t *testing.T) {
	po := newProtectiveOrder()
	denial, score, rels, events := denialInputs(t, po)

	res := NewClassifier(zap.NewNop()).Classify(denial, score, rels, events)

	require.Len(t, res.Candidates, 4)
	var ids []string
	for _, c := range res.Candidates {
		ids = append(ids, c.RuleID)
		assert.Equal(t, score.ID, c.ScoreID)
		assert.True(t, domain.InRange(c.Confidence))
	}
	assert.Equal(t, []string{"R1", "R2", "R3", "R5"}, ids)
	assert.True(t, res.HasTag(domain.TagPerjuryCandidate))
	assert.True(t, res.HasTag(domain.TagFraudOnProcess))
	assert.True(t, res.HasTag(domain.TagEndangermentPattern))
	assert.True(t, res.HasTag(domain.TagConcealment))
	assert.False(t, res.InsufficientEvidence)
	assert.Equal(t, domain.RuleTableV1.Version, res.RuleTableVersion)

	fraud := res.Candidates[1]
	assert.Len(t, fraud.Relationships, 2)
	assert.Equal(t, 1000, fraud.Confidence)
}

func TestClassifier_SuppressedRelationshipDropsCandidate(t *testing.T) {
	po := newProtectiveOrder()
	denial, score, rels, events := denialInputs(t, po)
	toEvent := domain.RelationshipID(po.denial.Ref(), po.service.Ref(), domain.RelContradicts)

	effective := domain.ApplyOverrides(rels, []domain.RelationshipOverride{{
		ID:             uuid.New(),
		RelationshipID: toEvent,
		Suppressed:     true,
		Reviewer:       "clerk",
		Reason:         "service address disputed",
	}})
	c := NewClassifier(zap.NewNop())
	before := c.Classify(denial, score, rels, events)
	after := c.Classify(denial, score, effective, events)

	assert.True(t, before.HasTag(domain.TagEndangermentPattern))
	assert.False(t, after.HasTag(domain.TagEndangermentPattern))
	assert.True(t, after.HasTag(domain.TagFraudOnProcess), "the 800 statement contradiction still qualifies")
	assert.NotEqual(t, before.InputHash, after.InputHash)
}

func TestClassifier_MissingEvidenceDefersEvidenceRules(t *testing.T) {
	tests := []struct {
		name  string
		flags []domain.ScoreFlag
		want  error
	}{
		{"no indicators", []domain.ScoreFlag{domain.FlagInsufficientEvidence}, domain.ErrInsufficientEvidence},
		{"indicators cancel out", []domain.ScoreFlag{domain.FlagConflictingIndicators}, domain.ErrConflictingIndicators},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := claim(respondent, "missed visitation", 6)
			st.UnderOath = true
			score := &domain.ScoreRecord{
				ID:            uuid.New(),
				StatementID:   st.ID,
				Dimensions:    domain.Dimensions{TruthLie: 100, LegalWeight: 900, BadFaith: 700},
				LowConfidence: true,
				Flags:         tt.flags,
			}
			require.ErrorIs(t, score.EvidenceIssue(), tt.want)

			res := NewClassifier(zap.NewNop()).Classify(&st, score, nil, nil)

			assert.True(t, res.InsufficientEvidence)
			assert.False(t, res.HasTag(domain.TagPerjuryCandidate), "evidence rules are not evaluated")
			assert.True(t, res.HasTag(domain.TagBadFaithFiling), "conduct rules still run")

			require.Len(t, res.Candidates, 2)
			deferred := res.Candidates[0]
			assert.Equal(t, domain.TagInsufficientEvidence, deferred.Tag)
			assert.Equal(t, "R1", deferred.RuleID)
			assert.Equal(t, []string{"R1", "R2", "R3"}, deferred.DeferredRules)
			assert.Equal(t, tt.want.Error(), deferred.Reason)
			assert.Equal(t, score.ID, deferred.ScoreID)
		})
	}
}

func TestClassifier_PerjuryRuleHoldsAcrossAssumptionFlags(t *testing.T) {
	assumptions := []domain.ScoreFlag{
		domain.FlagMissingAssertedDate,
		domain.FlagMissingSubject,
		domain.FlagCredibilityOutOfRange,
	}
	c := NewClassifier(zap.NewNop())
	for mask := 0; mask < 1<<len(assumptions); mask++ {
		var flags []domain.ScoreFlag
		for i, f := range assumptions {
			if mask&(1<<i) != 0 {
				flags = append(flags, f)
			}
		}
		for _, truth := range []int{0, 100, domain.PerjuryTruthCeiling - 1} {
			for _, legal := range []int{domain.PerjuryLegalFloor + 1, 800, domain.MaxScore} {
				st := claim(respondent, "treaty membership", 4)
				st.UnderOath = true
				score := &domain.ScoreRecord{
					ID:             uuid.New(),
					StatementID:    st.ID,
					Dimensions:     domain.Dimensions{TruthLie: truth, LegalWeight: legal},
					LowConfidence:  len(flags) > 0,
					Flags:          flags,
					IndicatorCount: 1,
				}

				res := c.Classify(&st, score, nil, nil)

				require.True(t, res.HasTag(domain.TagPerjuryCandidate), "flags=%v truth=%d legal=%d", flags, truth, legal)
				assert.False(t, res.InsufficientEvidence)
				assert.Equal(t, len(flags) > 0, res.Candidates[0].LowConfidence)
			}
		}
	}
}

func TestClassifier_ScoredSwornFalsehoodWithGaps(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Statement)
		flag   domain.ScoreFlag
	}{
		{"no subject", func(s *domain.Statement) { s.Subject = "" }, domain.FlagMissingSubject},
		{"no asserted date", func(s *domain.Statement) { s.AssertedAt = nil }, domain.FlagMissingAssertedDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := claim(respondent, "treaty membership", 4)
			st.Kind = domain.StatementTestimony
			st.UnderOath = true
			st.ReliedUpon = true
			tt.mutate(&st)
			record := indicator(st.Ref(), domain.StanceContradicts, 100)
			record.Type = domain.IndicatorOfficialRecord
			record.PublicRecord = true
			c := evidence.NewCorpus(evidence.Records{
				Statements: []domain.Statement{st},
				Indicators: []domain.EvidenceIndicator{record},
			})

			score := NewScorer(zap.NewNop()).Score(&st, c)
			score.ID = uuid.New()
			require.True(t, score.HasFlag(tt.flag))
			require.True(t, score.LowConfidence)
			rels := NewCorrelator(zap.NewNop()).CorrelateStatement(&st, c)

			res := NewClassifier(zap.NewNop()).Classify(&st, score, rels, c.EventsByID())

			assert.True(t, res.HasTag(domain.TagPerjuryCandidate))
			assert.False(t, res.HasTag(domain.TagInsufficientEvidence))
			assert.True(t, res.Candidates[0].LowConfidence)
		})
	}
}

func TestClassifier_NothingFires(t *testing.T) {
	st := claim(petitioner, "school pickup", 3)
	score := &domain.ScoreRecord{ID: uuid.New(), Dimensions: domain.Dimensions{TruthLie: 700}}

	res := NewClassifier(zap.NewNop()).Classify(&st, score, nil, nil)

	assert.Empty(t, res.Candidates)
	assert.NotNil(t, res.Candidates)
	assert.False(t, res.InsufficientEvidence)
}

func TestClassifier_CustomRulePriority(t *testing.T) {
	c := NewClassifier(zap.NewNop())
	always := func(domain.RuleInput) (domain.Match, bool) { return domain.Match{Confidence: 1500}, true }
	c.Rules = domain.RuleTable{
		Version: "test",
		Rules: []domain.Rule{
			{ID: "low", Tag: domain.TagConcealment, Priority: 1, Predicate: always},
			{ID: "high", Tag: domain.TagBadFaithFiling, Priority: 9, Predicate: always},
		},
	}
	st := claim(petitioner, "school pickup", 3)

	res := c.Classify(&st, &domain.ScoreRecord{ID: uuid.New()}, nil, nil)

	require.Len(t, res.Candidates, 2)
	assert.Equal(t, "high", res.Candidates[0].RuleID)
	assert.Equal(t, domain.MaxScore, res.Candidates[0].Confidence, "confidence is clamped")
	assert.Equal(t, "test", res.RuleTableVersion)
}

func TestViolationFeed(t *testing.T) {
	older := domain.ClassificationResult{
		ID:          uuid.New(),
		StatementID: uuid.New(),
		SpeakerID:   respondent,
		CreatedAt:   day(1),
		Candidates: []domain.ViolationCandidate{
			{Tag: domain.TagConcealment, RuleID: "R5", Confidence: 700},
			{Tag: domain.TagInsufficientEvidence, RuleID: "R1", DeferredRules: []string{"R1", "R2", "R3"}},
		},
	}
	newer := domain.ClassificationResult{
		ID:          uuid.New(),
		StatementID: uuid.New(),
		SpeakerID:   petitioner,
		CreatedAt:   day(1).Add(time.Hour),
		Candidates: []domain.ViolationCandidate{
			{Tag: domain.TagBadFaithFiling, RuleID: "R4", Confidence: 650},
		},
	}

	feed := ViolationFeed([]domain.ClassificationResult{older, newer}, "")
	require.Len(t, feed, 2)
	assert.Equal(t, newer.StatementID, feed[0].StatementID)
	assert.Equal(t, domain.TagConcealment, feed[1].Candidate.Tag)

	feed = ViolationFeed([]domain.ClassificationResult{older, newer}, domain.TagConcealment)
	require.Len(t, feed, 1)
	assert.Equal(t, respondent, feed[0].SpeakerID)
}
