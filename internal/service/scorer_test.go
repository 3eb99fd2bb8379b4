package service

import (
	"testing"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/evidence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func claim(speaker, subject string, asserted int) domain.Statement {
	return domain.Statement{
		ID:         uuid.New(),
		DocumentID: uuid.New(),
		SpeakerID:  speaker,
		Text:       "statement about " + subject,
		Kind:       domain.StatementClaim,
		AssertedAt: dayPtr(asserted),
		Subject:    subject,
	}
}

func indicator(target domain.EntityRef, stance domain.Stance, credibility int) domain.EvidenceIndicator {
	return domain.EvidenceIndicator{
		ID:          uuid.New(),
		Target:      target,
		Stance:      stance,
		Credibility: credibility,
		Type:        domain.IndicatorDocument,
	}
}

func TestScorer_NoIndicatorsIsNeutral(t *testing.T) {
	st := claim(petitioner, "school pickup", 3)
	c := evidence.NewCorpus(evidence.Records{Statements: []domain.Statement{st}})

	rec := NewScorer(zap.NewNop()).Score(&st, c)

	assert.Equal(t, domain.NeutralScore, rec.Dimensions.TruthLie)
	assert.Equal(t, domain.Interval{Low: 0, High: 1000}, rec.TruthInterval)
	assert.True(t, rec.LowConfidence)
	assert.Equal(t, domain.ConfidenceLow, rec.Confidence)
	assert.True(t, rec.HasFlag(domain.FlagInsufficientEvidence))
	assert.False(t, rec.AssumptionBased)
	assert.Equal(t, 0, rec.Dimensions.EvidenceQuality)
	assert.Equal(t, 0, rec.IndicatorCount)
	assert.Equal(t, domain.WeightsV1.Combine(rec.Dimensions.Projections()), rec.Composite)
	assert.True(t, rec.InRange())
}

func TestScorer_ProtectiveOrderDenial(t *testing.T) {
	po := newProtectiveOrder()
	c := po.corpus()
	denial, _ := c.Statement(po.denial.ID)

	rec := NewScorer(zap.NewNop()).Score(denial, c)

	assert.LessOrEqual(t, rec.Dimensions.TruthLie, 100)
	assert.Equal(t, 0, rec.Dimensions.TruthLie)
	assert.Equal(t, 1000, rec.Dimensions.Intent, "earlier admission plus participation in the verified event")
	assert.Equal(t, 350, rec.Dimensions.BadFaith)
	assert.Equal(t, domain.BadFaithBreakdown{Concealment: 350}, rec.BadFaith)
	assert.Equal(t, 766, rec.Dimensions.Context)
	assert.Equal(t, 1000, rec.Dimensions.EvidenceQuality)
	assert.Equal(t, 1000, rec.Dimensions.LegalWeight)
	assert.False(t, rec.LowConfidence)
	assert.Equal(t, domain.ConfidenceMedium, rec.Confidence)
	assert.Equal(t, 1, rec.IndicatorCount)
	assert.Equal(t, 746, rec.Composite)
	assert.True(t, rec.InRange())
}

func TestScorer_ProtectiveOrderAdmissionIsCorroborated(t *testing.T) {
	po := newProtectiveOrder()
	c := po.corpus()
	admission, _ := c.Statement(po.admission.ID)

	rec := NewScorer(zap.NewNop()).Score(admission, c)

	assert.Equal(t, 1000, rec.Dimensions.TruthLie)
	assert.Equal(t, 0, rec.Dimensions.Intent)
	assert.Equal(t, 0, rec.Dimensions.BadFaith)
	assert.Equal(t, 362, rec.Dimensions.Context)
	assert.Equal(t, 300, rec.Dimensions.LegalWeight)
}

func TestScorer_ConflictingIndicatorsStayNeutral(t *testing.T) {
	st := claim(petitioner, "rent payment", 4)
	c := evidence.NewCorpus(evidence.Records{
		Statements: []domain.Statement{st},
		Indicators: []domain.EvidenceIndicator{
			indicator(st.Ref(), domain.StanceSupports, 50),
			indicator(st.Ref(), domain.StanceContradicts, 50),
		},
	})

	rec := NewScorer(zap.NewNop()).Score(&st, c)

	assert.Equal(t, domain.NeutralScore, rec.Dimensions.TruthLie)
	assert.True(t, rec.HasFlag(domain.FlagConflictingIndicators))
	assert.True(t, rec.LowConfidence)
	assert.Equal(t, domain.Interval{Low: 0, High: 1000}, rec.TruthInterval, "widened interval")
}

func TestScorer_MissingAssertedDateIsAssumptionBased(t *testing.T) {
	st := claim(petitioner, "rent payment", 0)
	st.AssertedAt = nil
	ind := indicator(st.Ref(), domain.StanceSupports, 80)
	ind.Authenticated = true
	c := evidence.NewCorpus(evidence.Records{
		Statements: []domain.Statement{st},
		Indicators: []domain.EvidenceIndicator{ind},
	})

	rec := NewScorer(zap.NewNop()).Score(&st, c)

	assert.Equal(t, 756, rec.Dimensions.TruthLie)
	assert.Equal(t, 800, rec.Dimensions.EvidenceQuality)
	assert.True(t, rec.AssumptionBased)
	assert.True(t, rec.LowConfidence)
	assert.True(t, rec.HasFlag(domain.FlagMissingAssertedDate))
	assert.Equal(t, domain.Interval{Low: 402, High: 1000}, rec.TruthInterval)
}

func TestScorer_OutOfRangeCredibilityIsClamped(t *testing.T) {
	st := claim(petitioner, "rent payment", 4)
	c := evidence.NewCorpus(evidence.Records{
		Statements: []domain.Statement{st},
		Indicators: []domain.EvidenceIndicator{indicator(st.Ref(), domain.StanceSupports, 150)},
	})

	rec := NewScorer(zap.NewNop()).Score(&st, c)

	assert.Equal(t, 900, rec.Dimensions.TruthLie)
	assert.True(t, rec.HasFlag(domain.FlagCredibilityOutOfRange))
	assert.True(t, rec.AssumptionBased)
	assert.True(t, rec.InRange())
}

func TestScorer_IntentIsIndependentOfTruth(t *testing.T) {
	admission := claim(respondent, "missed visitation", 2)
	admission.Kind = domain.StatementAdmission
	later := claim(respondent, "missed visitation", 6)
	later.Negated = true

	s := NewScorer(zap.NewNop())

	with := evidence.NewCorpus(evidence.Records{Statements: []domain.Statement{admission, later}})
	rec := s.Score(&later, with)
	assert.Equal(t, 600, rec.Dimensions.Intent)
	assert.Equal(t, domain.NeutralScore, rec.Dimensions.TruthLie)
	assert.Equal(t, 350, rec.BadFaith.Concealment)

	without := evidence.NewCorpus(evidence.Records{Statements: []domain.Statement{later}})
	rec = s.Score(&later, without)
	assert.Equal(t, 0, rec.Dimensions.Intent)
	assert.Equal(t, domain.NeutralScore, rec.Dimensions.TruthLie)
}

func TestScorer_TimingAndForumAbuse(t *testing.T) {
	ruling := domain.Event{
		ID:          uuid.New(),
		OccurredAt:  day(3),
		Description: "Custody ruling against petitioner",
		Subject:     "custody ruling",
		Status:      domain.StatusVerified,
		AdverseTo:   []string{petitioner},
	}
	req := claim(petitioner, "emergency custody", 0)
	req.Kind = domain.StatementRequest
	req.Urgent = true
	req.AssertedAt = hoursAfter(day(3), 24)

	s := NewScorer(zap.NewNop())
	c := evidence.NewCorpus(evidence.Records{Statements: []domain.Statement{req}, Events: []domain.Event{ruling}})
	rec := s.Score(&req, c)
	assert.Equal(t, domain.BadFaithBreakdown{Timing: 200, ForumAbuse: 350}, rec.BadFaith)
	assert.Equal(t, 550, rec.Dimensions.BadFaith)

	emergency := domain.Event{
		ID:          uuid.New(),
		OccurredAt:  day(-5),
		Description: "Police called to the residence",
		Subject:     "emergency custody",
		Status:      domain.StatusAlleged,
		Emergency:   true,
	}
	c = evidence.NewCorpus(evidence.Records{Statements: []domain.Statement{req}, Events: []domain.Event{ruling, emergency}})
	rec = s.Score(&req, c)
	assert.Equal(t, domain.BadFaithBreakdown{Timing: 200}, rec.BadFaith)
}

func TestScorer_LegalWeight(t *testing.T) {
	tests := []struct {
		name string
		st   domain.Statement
		want int
	}{
		{"plain claim", domain.Statement{Kind: domain.StatementClaim}, 200},
		{"relied upon", domain.Statement{Kind: domain.StatementClaim, ReliedUpon: true}, 800},
		{"sworn testimony", domain.Statement{Kind: domain.StatementTestimony, UnderOath: true}, 400},
		{"everything", domain.Statement{Kind: domain.StatementAdmission, UnderOath: true, ReliedUpon: true}, 1000},
	}
	s := NewScorer(zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.legalWeight(&tt.st))
		})
	}
}

func TestScorer_InputHashIsStable(t *testing.T) {
	po := newProtectiveOrder()
	s := NewScorer(zap.NewNop())

	c := po.corpus()
	denial, _ := c.Statement(po.denial.ID)
	first := s.Score(denial, c)
	second := s.Score(denial, po.corpus())
	require.Equal(t, first.InputHash, second.InputHash)
	assert.True(t, first.SameValues(second))

	po.proof.Credibility = 90
	changed := s.Score(denial, po.corpus())
	assert.NotEqual(t, first.InputHash, changed.InputHash)

	s.IndicatorStep = 300
	tuned := s.Score(denial, c)
	assert.NotEqual(t, first.InputHash, tuned.InputHash, "parameters are part of the hash")
}

func TestScorer_SameSpeakerReversalWithoutEvidence(t *testing.T) {
	earlier := claim(respondent, "school enrollment", 1)
	later := claim(respondent, "school enrollment", 9)
	later.Negated = true
	c := evidence.NewCorpus(evidence.Records{Statements: []domain.Statement{earlier, later}})
	s := NewScorer(zap.NewNop())

	first := s.Score(&earlier, c)
	second := s.Score(&later, c)

	assert.Zero(t, first.BadFaith.Concealment)
	assert.Equal(t, s.ConcealmentPenalty, second.BadFaith.Concealment)
	assert.Greater(t, second.Dimensions.BadFaith, first.Dimensions.BadFaith)

	rels := NewCorrelator(zap.NewNop()).CorrelateStatement(&later, c)
	r, ok := findRelationship(rels, earlier.Ref(), later.Ref(), domain.RelContradicts)
	require.True(t, ok, "later denial contradicts the same speaker's earlier assertion")
	assert.True(t, r.Directed)
}
