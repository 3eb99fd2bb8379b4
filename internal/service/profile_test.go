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

func TestProfileBuilder_Build(t *testing.T) {
	truthful := claim(respondent, "rent payment", 1)
	false1 := claim(respondent, "lease terms", 2)
	unsure := claim(respondent, "repairs", 3)
	c := evidence.NewCorpus(evidence.Records{Statements: []domain.Statement{truthful, false1, unsure}})

	scores := ScoreSet{
		truthful.ID: {Dimensions: domain.Dimensions{TruthLie: 800}, InputHash: "t"},
		false1.ID:   {Dimensions: domain.Dimensions{TruthLie: 100, BadFaith: 400}, IndicatorCount: 1, InputHash: "f"},
		unsure.ID:   {Dimensions: domain.Dimensions{TruthLie: 100, BadFaith: 700}, LowConfidence: true, InputHash: "u"},
	}
	classifications := ClassificationSet{
		false1.ID: {
			StatementID: false1.ID,
			Candidates: []domain.ViolationCandidate{
				{Tag: domain.TagPerjuryCandidate, RuleID: "R1"},
				{Tag: domain.TagConcealment, RuleID: "R5"},
			},
			InputHash: "c1",
		},
		unsure.ID: {
			StatementID:          unsure.ID,
			Candidates:           []domain.ViolationCandidate{{Tag: domain.TagInsufficientEvidence, RuleID: "R1"}},
			InsufficientEvidence: true,
			InputHash:            "c2",
		},
	}

	p := NewProfileBuilder(zap.NewNop()).Build(respondent, c, scores, classifications)

	require.NotNil(t, p)
	assert.Equal(t, 3, p.StatementCount)
	assert.Equal(t, 1, p.VerifiedTrueCount)
	assert.Equal(t, 1, p.VerifiedFalseCount, "low-confidence scores are not counted as verified")
	assert.InDelta(t, 1.0/3, p.TruthfulnessRate, 1e-9)
	assert.InDelta(t, 1.0/3, p.LieRate, 1e-9)
	assert.Equal(t, map[domain.ViolationTag]int{
		domain.TagPerjuryCandidate: 1,
		domain.TagConcealment:      1,
	}, p.ViolationCounts)
	assert.Equal(t, 375, p.BadFaithPattern)
	assert.Equal(t, domain.RiskScores{Flight: 550, Compliance: 317, Harm: 188}, p.Risks)
	assert.Equal(t, domain.TrendStable, p.Trend)
	assert.NotEmpty(t, p.InputHash)
}

func TestProfileBuilder_NoScoredStatements(t *testing.T) {
	st := claim(petitioner, "school pickup", 1)
	c := evidence.NewCorpus(evidence.Records{Statements: []domain.Statement{st}})

	assert.Nil(t, NewProfileBuilder(zap.NewNop()).Build(petitioner, c, ScoreSet{}, nil))
}

func TestProfileBuilder_Trend(t *testing.T) {
	tests := []struct {
		name       string
		composites []int
		want       domain.Trend
	}{
		{"too few records", []int{0, 900, 900}, domain.TrendStable},
		{"improving", []int{0, 300, 300, 300, 300, 300}, domain.TrendImproving},
		{"declining", []int{600, 300, 300, 300, 300, 300}, domain.TrendDeclining},
		{"within tolerance", []int{200, 220, 220, 220, 220, 220}, domain.TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var statements []domain.Statement
			scores := ScoreSet{}
			for i, v := range tt.composites {
				st := claim(petitioner, "topic", i+1)
				statements = append(statements, st)
				scores[st.ID] = &domain.ScoreRecord{Composite: v, InputHash: uuid.NewString()}
			}
			c := evidence.NewCorpus(evidence.Records{Statements: statements})

			p := NewProfileBuilder(zap.NewNop()).Build(petitioner, c, scores, nil)

			require.NotNil(t, p)
			assert.Equal(t, tt.want, p.Trend)
		})
	}
}

func TestProfileBuilder_HashTracksInputs(t *testing.T) {
	st := claim(petitioner, "school pickup", 1)
	c := evidence.NewCorpus(evidence.Records{Statements: []domain.Statement{st}})
	b := NewProfileBuilder(zap.NewNop())

	first := b.Build(petitioner, c, ScoreSet{st.ID: {InputHash: "a"}}, nil)
	same := b.Build(petitioner, c, ScoreSet{st.ID: {InputHash: "a"}}, nil)
	changed := b.Build(petitioner, c, ScoreSet{st.ID: {InputHash: "b"}}, nil)

	assert.Equal(t, first.InputHash, same.InputHash)
	assert.True(t, first.SameValues(same))
	assert.NotEqual(t, first.InputHash, changed.InputHash)
}

func TestProfileBuilder_TruthfulnessRateIsExact(t *testing.T) {
	var statements []domain.Statement
	scores := ScoreSet{}
	for i := range 68 {
		st := claim(respondent, "topic", i+1)
		statements = append(statements, st)
		truth := domain.NeutralScore
		if i < 12 {
			truth = 800
		}
		scores[st.ID] = &domain.ScoreRecord{Dimensions: domain.Dimensions{TruthLie: truth}, InputHash: st.ID.String()}
	}
	c := evidence.NewCorpus(evidence.Records{Statements: statements})

	p := NewProfileBuilder(zap.NewNop()).Build(respondent, c, scores, nil)

	require.NotNil(t, p)
	assert.Equal(t, 68, p.StatementCount)
	assert.Equal(t, 12, p.VerifiedTrueCount)
	assert.Equal(t, 12.0/68, p.TruthfulnessRate)
	assert.InDelta(t, 0.176, p.TruthfulnessRate, 0.001)
}

func TestProfileBuilder_CountsMatchTiers(t *testing.T) {
	truths := []int{
		domain.VerifiedTrueFloor, domain.VerifiedTrueFloor - 1,
		domain.VerifiedFalseCeiling, domain.VerifiedFalseCeiling + 1,
		domain.MaxScore, domain.MinScore,
	}
	var statements []domain.Statement
	scores := ScoreSet{}
	for i, truth := range truths {
		for _, low := range []bool{false, true} {
			st := claim(respondent, "topic", len(statements)+1)
			statements = append(statements, st)
			scores[st.ID] = &domain.ScoreRecord{
				Dimensions:    domain.Dimensions{TruthLie: truth},
				LowConfidence: low,
				InputHash:     st.ID.String() + string(rune('a'+i)),
			}
		}
	}
	c := evidence.NewCorpus(evidence.Records{Statements: statements})

	p := NewProfileBuilder(zap.NewNop()).Build(respondent, c, scores, nil)

	var verifiedTrue, verifiedFalse int
	for _, rec := range scores {
		switch rec.Tier() {
		case domain.TierVerifiedTrue:
			verifiedTrue++
		case domain.TierVerifiedFalse:
			verifiedFalse++
		}
	}
	require.NotNil(t, p)
	assert.Equal(t, 2, verifiedTrue)
	assert.Equal(t, 2, verifiedFalse)
	assert.Equal(t, verifiedTrue, p.VerifiedTrueCount)
	assert.Equal(t, verifiedFalse, p.VerifiedFalseCount)
}
