package service

import (
	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/evidence"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultTrendWindow    = 5
	DefaultTrendTolerance = 25.0
)

// ClassificationSet maps statement ids to their latest classification.
type ClassificationSet map[uuid.UUID]*domain.ClassificationResult

// ProfileBuilder rebuilds a party's credibility profile from scratch.
type ProfileBuilder struct {
	logger *zap.Logger

	TrendWindow    int
	TrendTolerance float64
}

func NewProfileBuilder(logger *zap.Logger) *ProfileBuilder {
	return &ProfileBuilder{
		logger:         logger,
		TrendWindow:    DefaultTrendWindow,
		TrendTolerance: DefaultTrendTolerance,
	}
}

// Build returns an unsaved profile, or nil when the party has no scored
// statements.
func (b *ProfileBuilder) Build(party string, corpus *evidence.Corpus, scores ScoreSet, classifications ClassificationSet) *domain.PartyProfile {
	p := &domain.PartyProfile{
		PartyID:         party,
		ViolationCounts: make(map[domain.ViolationTag]int),
	}

	var composites, badFaith, weights []float64
	var inputs []string
	for _, st := range corpus.StatementsBySpeaker(party) {
		rec, ok := scores[st.ID]
		if !ok {
			continue
		}
		p.StatementCount++
		switch rec.Tier() {
		case domain.TierVerifiedTrue:
			p.VerifiedTrueCount++
		case domain.TierVerifiedFalse:
			p.VerifiedFalseCount++
		}
		composites = append(composites, float64(rec.Composite))
		badFaith = append(badFaith, float64(rec.Dimensions.BadFaith))
		weights = append(weights, rec.EvidenceWeight())
		inputs = append(inputs, "score:"+st.ID.String()+":"+rec.InputHash)

		if cls, ok := classifications[st.ID]; ok {
			for _, cand := range cls.Candidates {
				if cand.Tag != domain.TagInsufficientEvidence {
					p.ViolationCounts[cand.Tag]++
				}
			}
			inputs = append(inputs, "classification:"+st.ID.String()+":"+cls.InputHash)
		}
	}
	if p.StatementCount == 0 {
		return nil
	}

	total := float64(p.StatementCount)
	p.TruthfulnessRate = float64(p.VerifiedTrueCount) / total
	p.LieRate = float64(p.VerifiedFalseCount) / total
	p.BadFaithPattern = domain.ClampFloat(stat.Mean(badFaith, weights))
	p.Risks = b.risks(p)
	p.Trend = b.trend(composites)

	// Statement order matters to the trend, so inputs keep corpus order.
	p.InputHash = domain.InputHash(struct {
		Party  string          `json:"party"`
		Params *ProfileBuilder `json:"params"`
		Inputs []string        `json:"inputs"`
	}{party, b, inputs})
	return p
}

func (b *ProfileBuilder) risks(p *domain.PartyProfile) domain.RiskScores {
	counts := p.ViolationCounts
	pattern := float64(p.BadFaithPattern)
	sworn := float64(counts[domain.TagPerjuryCandidate] + counts[domain.TagFraudOnProcess])
	return domain.RiskScores{
		Flight:     domain.ClampFloat(300*float64(counts[domain.TagConcealment]) + 0.4*pattern + 300*p.LieRate),
		Compliance: domain.ClampFloat(150*sworn + 500*p.LieRate),
		Harm:       domain.ClampFloat(250*float64(counts[domain.TagEndangermentPattern]) + 0.5*pattern),
	}
}

// trend compares the most recent composites with the all-time mean.
func (b *ProfileBuilder) trend(composites []float64) domain.Trend {
	if b.TrendWindow <= 0 || len(composites) <= b.TrendWindow {
		return domain.TrendStable
	}
	recent := stat.Mean(composites[len(composites)-b.TrendWindow:], nil)
	overall := stat.Mean(composites, nil)
	switch diff := recent - overall; {
	case diff > b.TrendTolerance:
		return domain.TrendImproving
	case diff < -b.TrendTolerance:
		return domain.TrendDeclining
	}
	return domain.TrendStable
}
