package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EntityType names the kind of record an EntityRef points at.
type EntityType string

const (
	EntityStatement EntityType = "statement"
	EntityEvent     EntityType = "event"
	EntityEvidence  EntityType = "evidence"
	EntityDocument  EntityType = "document"
)

func ValidEntityType(t string) bool {
	switch EntityType(t) {
	case EntityStatement, EntityEvent, EntityEvidence, EntityDocument:
		return true
	}
	return false
}

// EntityRef is a typed pointer to a statement, event, evidence indicator or document.
type EntityRef struct {
	Type EntityType `json:"type"`
	ID   uuid.UUID  `json:"id"`
}

func StatementRef(id uuid.UUID) EntityRef { return EntityRef{Type: EntityStatement, ID: id} }
func EventRef(id uuid.UUID) EntityRef     { return EntityRef{Type: EntityEvent, ID: id} }
func EvidenceRef(id uuid.UUID) EntityRef  { return EntityRef{Type: EntityEvidence, ID: id} }
func DocumentRef(id uuid.UUID) EntityRef  { return EntityRef{Type: EntityDocument, ID: id} }

func (r EntityRef) String() string {
	return fmt.Sprintf("%s:%s", r.Type, r.ID)
}

func (r EntityRef) IsZero() bool {
	return r.Type == "" && r.ID == uuid.Nil
}

// ParseEntityRef parses the "type:id" form produced by String.
func ParseEntityRef(s string) (EntityRef, error) {
	typ, id, ok := strings.Cut(s, ":")
	if !ok || !ValidEntityType(typ) {
		return EntityRef{}, fmt.Errorf("invalid entity ref %q", s)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return EntityRef{}, fmt.Errorf("invalid entity ref %q: %w", s, err)
	}
	return EntityRef{Type: EntityType(typ), ID: parsed}, nil
}

// NormalizeSubject folds a topic key to lower case with single spaces so that
// extraction variants of the same subject compare equal.
func NormalizeSubject(subject string) string {
	return strings.ToLower(strings.Join(strings.Fields(subject), " "))
}
