package domain

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

type RiskScores struct {
	Flight     int `json:"flight"`
	Compliance int `json:"compliance"`
	Harm       int `json:"harm"`
}

// PartyProfile summarizes one party's statements. Profiles are always rebuilt
// from scores and classifications, never patched.
type PartyProfile struct {
	ID                 uuid.UUID            `json:"id"`
	PartyID            string               `json:"party_id"`
	Version            int                  `json:"version"`
	StatementCount     int                  `json:"statement_count"`
	VerifiedTrueCount  int                  `json:"verified_true_count"`
	VerifiedFalseCount int                  `json:"verified_false_count"`
	TruthfulnessRate   float64              `json:"truthfulness_rate"`
	LieRate            float64              `json:"lie_rate"`
	ViolationCounts    map[ViolationTag]int `json:"violation_counts"`
	BadFaithPattern    int                  `json:"bad_faith_pattern"`
	Risks              RiskScores           `json:"risks"`
	Trend              Trend                `json:"trend"`
	InputHash          string               `json:"input_hash"`
	CreatedAt          time.Time            `json:"created_at"`
}

func (p *PartyProfile) SameValues(o *PartyProfile) bool {
	return p.PartyID == o.PartyID && p.StatementCount == o.StatementCount &&
		p.VerifiedTrueCount == o.VerifiedTrueCount && p.VerifiedFalseCount == o.VerifiedFalseCount &&
		p.TruthfulnessRate == o.TruthfulnessRate && p.LieRate == o.LieRate &&
		maps.Equal(p.ViolationCounts, o.ViolationCounts) && p.BadFaithPattern == o.BadFaithPattern &&
		p.Risks == o.Risks && p.Trend == o.Trend
}
