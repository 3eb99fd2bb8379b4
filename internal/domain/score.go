package domain

import (
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	MinScore     = 0
	MaxScore     = 1000
	NeutralScore = 500
)

// Clamp bounds a score to [MinScore, MaxScore].
func Clamp(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// ClampFloat rounds half away from zero and clamps.
func ClampFloat(v float64) int {
	if math.IsNaN(v) {
		return NeutralScore
	}
	return Clamp(int(math.Round(v)))
}

func InRange(v int) bool { return v >= MinScore && v <= MaxScore }

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

type ScoreFlag string

const (
	FlagInsufficientEvidence  ScoreFlag = "insufficient_evidence"
	FlagConflictingIndicators ScoreFlag = "conflicting_indicators"
	FlagMissingAssertedDate   ScoreFlag = "missing_asserted_date"
	FlagMissingSubject        ScoreFlag = "missing_subject"
	FlagCredibilityOutOfRange ScoreFlag = "credibility_out_of_range"
)

// Interval is the confidence interval around the truth/lie score.
type Interval struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

type BadFaithBreakdown struct {
	Timing      int `json:"timing"`
	Concealment int `json:"concealment"`
	ForumAbuse  int `json:"forum_abuse"`
}

// Dimensions are the six independent 0-1000 axes a statement is scored on.
type Dimensions struct {
	TruthLie        int `json:"truth_lie"`
	Intent          int `json:"intent"`
	BadFaith        int `json:"bad_faith"`
	Context         int `json:"context"`
	EvidenceQuality int `json:"evidence_quality"`
	LegalWeight     int `json:"legal_weight"`
}

func (d Dimensions) InRange() bool {
	return InRange(d.TruthLie) && InRange(d.Intent) && InRange(d.BadFaith) &&
		InRange(d.Context) && InRange(d.EvidenceQuality) && InRange(d.LegalWeight)
}

// Projections maps the six dimensions onto the four composite axes.
func (d Dimensions) Projections() Projections {
	return Projections{
		EvidenceStrength: float64(d.TruthLie+d.EvidenceQuality) / 2,
		LegalImpact:      float64(d.LegalWeight),
		StrategicValue:   float64(d.Context),
		IntentConduct:    float64(d.Intent+d.BadFaith) / 2,
	}
}

// Projections are the four composite axes shared by statement, document,
// filing and party level scores.
type Projections struct {
	EvidenceStrength float64 `json:"evidence_strength"`
	LegalImpact      float64 `json:"legal_impact"`
	StrategicValue   float64 `json:"strategic_value"`
	IntentConduct    float64 `json:"intent_conduct"`
}

// Rounded returns the projections as clamped integer scores.
func (p Projections) Rounded() CompositeDimensions {
	return CompositeDimensions{
		EvidenceStrength: ClampFloat(p.EvidenceStrength),
		LegalImpact:      ClampFloat(p.LegalImpact),
		StrategicValue:   ClampFloat(p.StrategicValue),
		IntentConduct:    ClampFloat(p.IntentConduct),
	}
}

type CompositeDimensions struct {
	EvidenceStrength int `json:"evidence_strength"`
	LegalImpact      int `json:"legal_impact"`
	StrategicValue   int `json:"strategic_value"`
	IntentConduct    int `json:"intent_conduct"`
}

func (c CompositeDimensions) InRange() bool {
	return InRange(c.EvidenceStrength) && InRange(c.LegalImpact) &&
		InRange(c.StrategicValue) && InRange(c.IntentConduct)
}

// CompositeWeights combines the four axes into one score.
type CompositeWeights struct {
	Version          string  `json:"version"`
	EvidenceStrength float64 `json:"evidence_strength"`
	LegalImpact      float64 `json:"legal_impact"`
	StrategicValue   float64 `json:"strategic_value"`
	IntentConduct    float64 `json:"intent_conduct"`
}

var WeightsV1 = CompositeWeights{
	Version:          "v1",
	EvidenceStrength: 0.35,
	LegalImpact:      0.35,
	StrategicValue:   0.20,
	IntentConduct:    0.10,
}

func (w CompositeWeights) Combine(p Projections) int {
	return ClampFloat(w.EvidenceStrength*p.EvidenceStrength +
		w.LegalImpact*p.LegalImpact +
		w.StrategicValue*p.StrategicValue +
		w.IntentConduct*p.IntentConduct)
}

// ScoreRecord is one immutable scoring of one statement version.
type ScoreRecord struct {
	ID               uuid.UUID         `json:"id"`
	StatementID      uuid.UUID         `json:"statement_id"`
	StatementVersion int               `json:"statement_version"`
	Version          int               `json:"version"`
	WeightsVersion   string            `json:"weights_version"`
	Dimensions       Dimensions        `json:"dimensions"`
	Composite        int               `json:"composite"`
	TruthInterval    Interval          `json:"truth_interval"`
	Confidence       ConfidenceLevel   `json:"confidence"`
	LowConfidence    bool              `json:"low_confidence"`
	AssumptionBased  bool              `json:"assumption_based"`
	Flags            []ScoreFlag       `json:"flags,omitempty"`
	BadFaith         BadFaithBreakdown `json:"bad_faith_breakdown"`
	IndicatorCount   int               `json:"indicator_count"`
	InputHash        string            `json:"input_hash"`
	CreatedAt        time.Time         `json:"created_at"`
}

func (r *ScoreRecord) HasFlag(f ScoreFlag) bool {
	return slices.Contains(r.Flags, f)
}

// EvidenceWeight is the weight a record carries in evidence-weighted means.
// EvidenceIssue reports why the evidence behind the truth/lie score cannot
// support a finding: ErrInsufficientEvidence or ErrConflictingIndicators.
// Records that are low-confidence only because of missing dates or subjects
// return nil.
func (r *ScoreRecord) EvidenceIssue() error {
	switch {
	case r.HasFlag(FlagInsufficientEvidence):
		return ErrInsufficientEvidence
	case r.HasFlag(FlagConflictingIndicators):
		return ErrConflictingIndicators
	}
	return nil
}

func (r *ScoreRecord) EvidenceWeight() float64 {
	return float64(1 + r.IndicatorCount)
}

func (r *ScoreRecord) InRange() bool {
	return r.Dimensions.InRange() && InRange(r.Composite) &&
		InRange(r.TruthInterval.Low) && InRange(r.TruthInterval.High) &&
		r.TruthInterval.Low <= r.Dimensions.TruthLie && r.Dimensions.TruthLie <= r.TruthInterval.High
}

// SameValues compares the computed content of two records, ignoring
// identity, version and timestamps.
func (r *ScoreRecord) SameValues(o *ScoreRecord) bool {
	return r.StatementID == o.StatementID && r.WeightsVersion == o.WeightsVersion &&
		r.Dimensions == o.Dimensions && r.Composite == o.Composite &&
		r.TruthInterval == o.TruthInterval && r.Confidence == o.Confidence &&
		r.LowConfidence == o.LowConfidence && r.AssumptionBased == o.AssumptionBased &&
		slices.Equal(r.Flags, o.Flags) && r.BadFaith == o.BadFaith &&
		r.IndicatorCount == o.IndicatorCount
}
