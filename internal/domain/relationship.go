package domain

import (
	"time"

	"github.com/google/uuid"
)

type RelationshipKind string

const (
	RelContradicts RelationshipKind = "contradicts"
	RelSupports    RelationshipKind = "supports"
	RelCauses      RelationshipKind = "causes"
	RelPrecedes    RelationshipKind = "precedes"
	RelSameThread  RelationshipKind = "same-thread"
	RelTimelineGap RelationshipKind = "timeline-gap"
)

func ValidRelationshipKind(k string) bool {
	switch RelationshipKind(k) {
	case RelContradicts, RelSupports, RelCauses, RelPrecedes, RelSameThread, RelTimelineGap:
		return true
	}
	return false
}

// relationshipNamespace seeds the name-based UUIDs that identify relationships.
var relationshipNamespace = uuid.MustParse("6f1c9a52-3d0e-5b7a-9c44-2e8d1f0b7a13")

// Relationship is a typed, weighted link between two entities. Its ID is
// derived from (source, target, kind) so rediscovering the same link always
// lands on the same record.
type Relationship struct {
	ID           uuid.UUID        `json:"id"`
	Version      int              `json:"version"`
	Source       EntityRef        `json:"source"`
	Target       EntityRef        `json:"target"`
	Kind         RelationshipKind `json:"kind"`
	Strength     int              `json:"strength"`
	Directed     bool             `json:"directed"`
	Primary      bool             `json:"primary"`
	Active       bool             `json:"active"`
	Explanation  string           `json:"explanation"`
	EvidenceRefs []EntityRef      `json:"evidence_refs,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// RelationshipID returns the identity-derived ID for a relationship.
func RelationshipID(source, target EntityRef, kind RelationshipKind) uuid.UUID {
	return uuid.NewSHA1(relationshipNamespace, []byte(IdentityKey(source, target, kind)))
}

func IdentityKey(source, target EntityRef, kind RelationshipKind) string {
	return source.String() + "|" + target.String() + "|" + string(kind)
}

func (r *Relationship) IdentityKey() string {
	return IdentityKey(r.Source, r.Target, r.Kind)
}

// PairKey identifies the unordered pair of endpoints.
func (r *Relationship) PairKey() string {
	a, b := r.Source.String(), r.Target.String()
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// Touches reports whether ref is either endpoint.
func (r *Relationship) Touches(ref EntityRef) bool {
	return r.Source == ref || r.Target == ref
}

// Other returns the endpoint opposite ref.
func (r *Relationship) Other(ref EntityRef) EntityRef {
	if r.Source == ref {
		return r.Target
	}
	return r.Source
}

// SameState reports whether a recomputed relationship would change nothing.
func (r *Relationship) SameState(o *Relationship) bool {
	return r.Strength == o.Strength && r.Primary == o.Primary && r.Active == o.Active
}

// RelationshipOverride is a human review decision on a relationship. Overrides
// are the only way a relationship's effective value changes outside correlation.
type RelationshipOverride struct {
	ID             uuid.UUID `json:"id"`
	RelationshipID uuid.UUID `json:"relationship_id"`
	Strength       *int      `json:"strength,omitempty"`
	Suppressed     bool      `json:"suppressed"`
	Reviewer       string    `json:"reviewer"`
	Reason         string    `json:"reason"`
	CreatedAt      time.Time `json:"created_at"`
}

func (o *RelationshipOverride) Validate() error {
	var fields []string
	if o.RelationshipID == uuid.Nil {
		fields = append(fields, "relationship_id")
	}
	if o.Strength != nil && (*o.Strength < MinScore || *o.Strength > MaxScore) {
		fields = append(fields, "strength")
	}
	if o.Reviewer == "" {
		fields = append(fields, "reviewer")
	}
	if o.Reason == "" {
		fields = append(fields, "reason")
	}
	if len(fields) > 0 {
		return &MalformedInputError{Entity: "relationship_override", ID: o.ID, Fields: fields}
	}
	return nil
}

// ApplyOverrides returns the effective relationships: inactive and suppressed
// links are dropped and the latest override strength replaces the computed one.
// overrides must be ordered oldest first.
func ApplyOverrides(rels []Relationship, overrides []RelationshipOverride) []Relationship {
	latest := make(map[uuid.UUID]RelationshipOverride, len(overrides))
	for _, o := range overrides {
		latest[o.RelationshipID] = o
	}
	out := make([]Relationship, 0, len(rels))
	for _, r := range rels {
		if !r.Active {
			continue
		}
		if o, ok := latest[r.ID]; ok {
			if o.Suppressed {
				continue
			}
			if o.Strength != nil {
				r.Strength = *o.Strength
			}
		}
		out = append(out, r)
	}
	return out
}
