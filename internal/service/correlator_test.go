package service

import (
	"testing"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/evidence"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCorrelator_ProtectiveOrderRelationships(t *testing.T) {
	po := newProtectiveOrder()
	c := po.corpus()
	cor := NewCorrelator(zap.NewNop())

	denial, _ := c.Statement(po.denial.ID)
	rels := cor.CorrelateStatement(denial, c)

	r, ok := findRelationship(rels, po.denial.Ref(), po.service.Ref(), domain.RelContradicts)
	require.True(t, ok, "denial contradicts the verified service event")
	assert.Equal(t, 1000, r.Strength, "public record against a relied-upon statement is uncapped")
	assert.Equal(t, []domain.EntityRef{po.proof.Ref()}, r.EvidenceRefs)
	assert.Equal(t, domain.RelationshipID(po.denial.Ref(), po.service.Ref(), domain.RelContradicts), r.ID)
	assert.True(t, r.Active)

	r, ok = findRelationship(rels, po.admission.Ref(), po.denial.Ref(), domain.RelContradicts)
	require.True(t, ok, "speaker reversed the earlier admission")
	assert.Equal(t, 800, r.Strength)
	assert.True(t, r.Directed)

	admission, _ := c.Statement(po.admission.ID)
	rels = cor.CorrelateStatement(admission, c)
	r, ok = findRelationship(rels, po.admission.Ref(), po.service.Ref(), domain.RelSupports)
	require.True(t, ok)
	assert.Equal(t, 500, r.Strength)
}

func TestCorrelator_TimelineGap(t *testing.T) {
	urgent := claim(petitioner, "unsafe home", 40)
	urgent.Urgent = true
	cor := NewCorrelator(zap.NewNop())

	t.Run("no earlier mention points at the document", func(t *testing.T) {
		c := evidence.NewCorpus(evidence.Records{Statements: []domain.Statement{urgent}})
		rels := cor.CorrelateStatement(&urgent, c)
		r, ok := findRelationship(rels, urgent.Ref(), domain.DocumentRef(urgent.DocumentID), domain.RelTimelineGap)
		require.True(t, ok)
		assert.Equal(t, 350, r.Strength)
	})

	t.Run("stale mention points at the latest one", func(t *testing.T) {
		old := claim(respondent, "unsafe home", 0)
		c := evidence.NewCorpus(evidence.Records{Statements: []domain.Statement{urgent, old}})
		rels := cor.CorrelateStatement(&urgent, c)
		r, ok := findRelationship(rels, urgent.Ref(), old.Ref(), domain.RelTimelineGap)
		require.True(t, ok)
		assert.Equal(t, 300, r.Strength)
	})

	t.Run("recent mention means no gap", func(t *testing.T) {
		recent := claim(respondent, "unsafe home", 30)
		c := evidence.NewCorpus(evidence.Records{Statements: []domain.Statement{urgent, recent}})
		for _, r := range cor.CorrelateStatement(&urgent, c) {
			assert.NotEqual(t, domain.RelTimelineGap, r.Kind)
		}
	})
}

func TestCorrelator_Precedes(t *testing.T) {
	ruling := domain.Event{
		ID:          uuid.New(),
		OccurredAt:  day(3),
		Description: "Visitation suspended",
		Status:      domain.StatusVerified,
		AdverseTo:   []string{petitioner},
	}
	req := claim(petitioner, "emergency custody", 0)
	req.Kind = domain.StatementRequest
	req.Urgent = true
	req.AssertedAt = hoursAfter(day(3), 36)
	c := evidence.NewCorpus(evidence.Records{Statements: []domain.Statement{req}, Events: []domain.Event{ruling}})

	rels := NewCorrelator(zap.NewNop()).CorrelateStatement(&req, c)

	r, ok := findRelationship(rels, ruling.Ref(), req.Ref(), domain.RelPrecedes)
	require.True(t, ok)
	assert.Equal(t, 250, r.Strength)
}

func TestCorrelator_IndicatorLinks(t *testing.T) {
	st := claim(petitioner, "school attendance", 10)
	record := domain.Event{
		ID:          uuid.New(),
		OccurredAt:  day(4),
		Description: "Attendance record",
		Status:      domain.StatusUnverified,
	}
	strong := indicator(st.Ref(), domain.StanceContradicts, 90)
	strong.DocumentedEventID = &record.ID
	weak := indicator(st.Ref(), domain.StanceContradicts, 70)

	c := evidence.NewCorpus(evidence.Records{
		Statements: []domain.Statement{st},
		Events:     []domain.Event{record},
		Indicators: []domain.EvidenceIndicator{strong, weak},
	})
	rels := NewCorrelator(zap.NewNop()).CorrelateStatement(&st, c)

	r, ok := findRelationship(rels, st.Ref(), record.Ref(), domain.RelContradicts)
	require.True(t, ok, "points at the documented event")
	assert.Equal(t, 450, r.Strength)
	_, ok = findRelationship(rels, st.Ref(), weak.Ref(), domain.RelContradicts)
	assert.False(t, ok, "below the contradiction credibility threshold")
}

func TestCorrelator_StrengthCap(t *testing.T) {
	cor := NewCorrelator(zap.NewNop())
	relied := &domain.Statement{ReliedUpon: true}
	sworn := &domain.Statement{UnderOath: true}

	assert.Equal(t, 950, cor.strength(100, false, relied))
	assert.Equal(t, 1000, cor.strength(100, true, relied))
	assert.Equal(t, 700, cor.strength(100, true, sworn))
	assert.Equal(t, 1000, cor.strength(100, true, sworn, relied))
}

func TestCorrelator_Deterministic(t *testing.T) {
	po := newProtectiveOrder()
	cor := NewCorrelator(zap.NewNop())

	forward := po.corpus()
	reversed := evidence.NewCorpus(evidence.Records{
		Documents:  []domain.Document{po.transcript, po.declaration},
		Filings:    []domain.Filing{po.filing},
		Statements: []domain.Statement{po.denial, po.admission},
		Events:     []domain.Event{po.service},
		Indicators: []domain.EvidenceIndicator{po.proof},
	})

	for _, id := range []uuid.UUID{po.admission.ID, po.denial.ID} {
		a, _ := forward.Statement(id)
		b, _ := reversed.Statement(id)
		if diff := cmp.Diff(cor.CorrelateStatement(a, forward), cor.CorrelateStatement(b, reversed)); diff != "" {
			t.Errorf("correlation depends on record order (-forward +reversed):\n%s", diff)
		}
	}
}

func TestResolveTies(t *testing.T) {
	a := domain.StatementRef(uuid.New())
	b := domain.EventRef(uuid.New())
	rel := func(src, tgt domain.EntityRef, kind domain.RelationshipKind, strength int) domain.Relationship {
		return domain.Relationship{
			ID:       domain.RelationshipID(src, tgt, kind),
			Source:   src,
			Target:   tgt,
			Kind:     kind,
			Strength: strength,
			Active:   true,
		}
	}

	out := ResolveTies([]domain.Relationship{
		rel(a, b, domain.RelSupports, 500),
		rel(b, a, domain.RelContradicts, 600),
		rel(a, b, domain.RelContradicts, 800),
	})

	require.Len(t, out, 2)
	assert.Equal(t, domain.RelContradicts, out[0].Kind)
	assert.Equal(t, 800, out[0].Strength)
	assert.True(t, out[0].Primary)
	assert.Equal(t, domain.RelSupports, out[1].Kind)
	assert.False(t, out[1].Primary, "different kinds stay as secondary")
}

func TestResolveTies_EqualStrengthOrdersByKind(t *testing.T) {
	a := domain.StatementRef(uuid.New())
	b := domain.StatementRef(uuid.New())
	out := ResolveTies([]domain.Relationship{
		{ID: domain.RelationshipID(a, b, domain.RelSupports), Source: a, Target: b, Kind: domain.RelSupports, Strength: 500},
		{ID: domain.RelationshipID(a, b, domain.RelContradicts), Source: a, Target: b, Kind: domain.RelContradicts, Strength: 500},
	})

	require.Len(t, out, 2)
	assert.Equal(t, domain.RelContradicts, out[0].Kind)
	assert.True(t, out[0].Primary)
}
