package domain

import (
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
)

type ViolationTag string

const (
	TagPerjuryCandidate     ViolationTag = "perjury_candidate"
	TagFraudOnProcess       ViolationTag = "fraud_on_process_candidate"
	TagEndangermentPattern  ViolationTag = "endangerment_pattern_candidate"
	TagBadFaithFiling       ViolationTag = "bad_faith_filing_candidate"
	TagConcealment          ViolationTag = "concealment_candidate"
	TagInsufficientEvidence ViolationTag = "insufficient_evidence"
)

func ValidViolationTag(s string) bool {
	switch ViolationTag(s) {
	case TagPerjuryCandidate, TagFraudOnProcess, TagEndangermentPattern,
		TagBadFaithFiling, TagConcealment, TagInsufficientEvidence:
		return true
	}
	return false
}

// RuleInput is everything a rule predicate may look at for one statement.
type RuleInput struct {
	Statement     *Statement
	Score         *ScoreRecord
	Relationships []Relationship
	Events        map[uuid.UUID]*Event
}

// Related returns the effective relationships of the given kind touching the
// statement.
func (in RuleInput) Related(kind RelationshipKind) []Relationship {
	ref := in.Statement.Ref()
	var out []Relationship
	for _, r := range in.Relationships {
		if r.Kind == kind && r.Touches(ref) {
			out = append(out, r)
		}
	}
	return out
}

// Match is what a predicate reports when it fires: the confidence and the
// relationships that made it fire.
type Match struct {
	Confidence    int
	Relationships []uuid.UUID
}

// Rule is one declarative classification rule.
type Rule struct {
	ID               string       `json:"id"`
	Tag              ViolationTag `json:"tag"`
	Priority         int          `json:"priority"`
	RequiresEvidence bool         `json:"requires_evidence"`
	Description      string       `json:"description"`

	Predicate func(RuleInput) (Match, bool) `json:"-"`
}

// RuleTable is a versioned set of rules evaluated in priority order.
type RuleTable struct {
	Version string `json:"version"`
	Rules   []Rule `json:"rules"`
}

// Ordered returns the rules sorted by descending priority, then id.
func (t RuleTable) Ordered() []Rule {
	rules := slices.Clone(t.Rules)
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})
	return rules
}

// Thresholds used by RuleTableV1.
const (
	PerjuryTruthCeiling       = 200
	PerjuryLegalFloor         = 600
	FraudStrengthFloor        = 800
	EndangermentStrengthFloor = 600
	BadFaithFloor             = 600
	ConcealmentIntentFloor    = 600
)

// RuleTableV1 is the default rule table.
var RuleTableV1 = RuleTable{
	Version: "v1",
	Rules: []Rule{
		{
			ID:               "R1",
			Tag:              TagPerjuryCandidate,
			Priority:         100,
			RequiresEvidence: true,
			Description:      "sworn statement scored false with high legal weight",
			Predicate: func(in RuleInput) (Match, bool) {
				d := in.Score.Dimensions
				if d.TruthLie < PerjuryTruthCeiling && in.Statement.UnderOath && d.LegalWeight > PerjuryLegalFloor {
					return Match{Confidence: MaxScore - d.TruthLie}, true
				}
				return Match{}, false
			},
		},
		{
			ID:               "R2",
			Tag:              TagFraudOnProcess,
			Priority:         90,
			RequiresEvidence: true,
			Description:      "relied-upon statement with a strong primary contradiction",
			Predicate: func(in RuleInput) (Match, bool) {
				if !in.Statement.ReliedUpon {
					return Match{}, false
				}
				var m Match
				for _, r := range in.Related(RelContradicts) {
					if r.Primary && r.Strength >= FraudStrengthFloor {
						m.Relationships = append(m.Relationships, r.ID)
						m.Confidence = max(m.Confidence, r.Strength)
					}
				}
				return m, len(m.Relationships) > 0
			},
		},
		{
			ID:               "R3",
			Tag:              TagEndangermentPattern,
			Priority:         80,
			RequiresEvidence: true,
			Description:      "contradicts a verified safety event, or urgent request with a timeline gap and bad faith",
			Predicate: func(in RuleInput) (Match, bool) {
				var m Match
				for _, r := range in.Related(RelContradicts) {
					if r.Strength < EndangermentStrengthFloor {
						continue
					}
					other := r.Other(in.Statement.Ref())
					if other.Type != EntityEvent {
						continue
					}
					if ev, ok := in.Events[other.ID]; ok && ev.Status == StatusVerified && ev.IsSafety() {
						m.Relationships = append(m.Relationships, r.ID)
						m.Confidence = max(m.Confidence, r.Strength)
					}
				}
				s := in.Statement
				if s.Kind == StatementRequest && s.Urgent && in.Score.Dimensions.BadFaith >= BadFaithFloor {
					for _, r := range in.Related(RelTimelineGap) {
						if r.Source == s.Ref() {
							m.Relationships = append(m.Relationships, r.ID)
							m.Confidence = max(m.Confidence, in.Score.Dimensions.BadFaith)
						}
					}
				}
				return m, len(m.Relationships) > 0
			},
		},
		{
			ID:               "R4",
			Tag:              TagBadFaithFiling,
			Priority:         70,
			RequiresEvidence: false,
			Description:      "bad-faith score at or above threshold",
			Predicate: func(in RuleInput) (Match, bool) {
				bf := in.Score.Dimensions.BadFaith
				return Match{Confidence: bf}, bf >= BadFaithFloor
			},
		},
		{
			ID:               "R5",
			Tag:              TagConcealment,
			Priority:         60,
			RequiresEvidence: false,
			Description:      "high intent with a same-speaker contradiction",
			Predicate: func(in RuleInput) (Match, bool) {
				if in.Score.Dimensions.Intent < ConcealmentIntentFloor {
					return Match{}, false
				}
				var m Match
				for _, r := range in.Related(RelContradicts) {
					if r.Source.Type == EntityStatement && r.Target.Type == EntityStatement {
						m.Relationships = append(m.Relationships, r.ID)
						m.Confidence = in.Score.Dimensions.Intent
					}
				}
				return m, len(m.Relationships) > 0
			},
		},
	},
}

// ViolationCandidate is an advisory tag. It always needs human sign-off.
// An insufficient_evidence candidate names every rule it deferred in
// DeferredRules, with RuleID set to the highest-priority one.
type ViolationCandidate struct {
	Tag           ViolationTag `json:"tag"`
	RuleID        string       `json:"rule_id"`
	Confidence    int          `json:"confidence"`
	ScoreID       uuid.UUID    `json:"score_id"`
	Relationships []uuid.UUID  `json:"relationships,omitempty"`
	LowConfidence bool         `json:"low_confidence,omitempty"`
	DeferredRules []string     `json:"deferred_rules,omitempty"`
	Reason        string       `json:"reason,omitempty"`
}

// ClassificationResult is one immutable classification of one statement.
type ClassificationResult struct {
	ID                   uuid.UUID            `json:"id"`
	StatementID          uuid.UUID            `json:"statement_id"`
	SpeakerID            string               `json:"speaker_id"`
	Version              int                  `json:"version"`
	RuleTableVersion     string               `json:"rule_table_version"`
	Candidates           []ViolationCandidate `json:"candidates"`
	InsufficientEvidence bool                 `json:"insufficient_evidence"`
	InputHash            string               `json:"input_hash"`
	CreatedAt            time.Time            `json:"created_at"`
}

func (c *ClassificationResult) HasTag(tag ViolationTag) bool {
	for _, cand := range c.Candidates {
		if cand.Tag == tag {
			return true
		}
	}
	return false
}

func (c *ClassificationResult) SameValues(o *ClassificationResult) bool {
	if c.StatementID != o.StatementID || c.RuleTableVersion != o.RuleTableVersion ||
		c.InsufficientEvidence != o.InsufficientEvidence || len(c.Candidates) != len(o.Candidates) {
		return false
	}
	for i := range c.Candidates {
		a, b := c.Candidates[i], o.Candidates[i]
		if a.Tag != b.Tag || a.RuleID != b.RuleID || a.Confidence != b.Confidence ||
			a.ScoreID != b.ScoreID || !slices.Equal(a.Relationships, b.Relationships) ||
			a.LowConfidence != b.LowConfidence || !slices.Equal(a.DeferredRules, b.DeferredRules) ||
			a.Reason != b.Reason {
			return false
		}
	}
	return true
}
