package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type StatementKind string

const (
	StatementClaim     StatementKind = "claim"
	StatementAdmission StatementKind = "admission"
	StatementDenial    StatementKind = "denial"
	StatementTestimony StatementKind = "testimony"
	StatementRequest   StatementKind = "request"
)

func ValidStatementKind(k string) bool {
	switch StatementKind(k) {
	case StatementClaim, StatementAdmission, StatementDenial, StatementTestimony, StatementRequest:
		return true
	}
	return false
}

// Sworn reports whether the kind carries the legal weight of an admission
// or testimony.
func (k StatementKind) Sworn() bool {
	return k == StatementAdmission || k == StatementTestimony
}

// Statement is a discrete factual assertion made by one speaker inside one
// document. Revisions are stored as new versions of the same ID.
type Statement struct {
	ID              uuid.UUID     `json:"id"`
	Version         int           `json:"version"`
	PreviousVersion int           `json:"previous_version,omitempty"`
	DocumentID      uuid.UUID     `json:"document_id"`
	Locator         string        `json:"locator,omitempty"`
	SpeakerID       string        `json:"speaker_id"`
	Text            string        `json:"text"`
	Kind            StatementKind `json:"kind"`
	AssertedAt      *time.Time    `json:"asserted_at,omitempty"`
	UnderOath       bool          `json:"under_oath"`
	Subject         string        `json:"subject,omitempty"`
	Negated         bool          `json:"negated"`
	Urgent          bool          `json:"urgent"`
	ReliedUpon      bool          `json:"relied_upon"`
	Embedding       []float32     `json:"embedding,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

func (s *Statement) Ref() EntityRef { return StatementRef(s.ID) }

// SubjectKey is the normalized subject, empty when extraction gave none.
func (s *Statement) SubjectKey() string { return NormalizeSubject(s.Subject) }

// Before reports whether s was asserted strictly before other. Unknown dates
// never order.
func (s *Statement) Before(other *Statement) bool {
	if s.AssertedAt == nil || other.AssertedAt == nil {
		return false
	}
	return s.AssertedAt.Before(*other.AssertedAt)
}

func (s *Statement) Validate() error {
	var fields []string
	if s.ID == uuid.Nil {
		fields = append(fields, "id")
	}
	if s.DocumentID == uuid.Nil {
		fields = append(fields, "document_id")
	}
	if strings.TrimSpace(s.SpeakerID) == "" {
		fields = append(fields, "speaker_id")
	}
	if strings.TrimSpace(s.Text) == "" {
		fields = append(fields, "text")
	}
	if !ValidStatementKind(string(s.Kind)) {
		fields = append(fields, "kind")
	}
	if len(fields) > 0 {
		return &MalformedInputError{Entity: "statement", ID: s.ID, Fields: fields}
	}
	return nil
}

// SameContent reports whether two versions carry identical extracted content.
func (s *Statement) SameContent(o *Statement) bool {
	if s.DocumentID != o.DocumentID || s.Locator != o.Locator || s.SpeakerID != o.SpeakerID ||
		s.Text != o.Text || s.Kind != o.Kind || s.UnderOath != o.UnderOath ||
		s.Subject != o.Subject || s.Negated != o.Negated || s.Urgent != o.Urgent ||
		s.ReliedUpon != o.ReliedUpon {
		return false
	}
	if !sameTime(s.AssertedAt, o.AssertedAt) {
		return false
	}
	if len(s.Embedding) != len(o.Embedding) {
		return false
	}
	for i := range s.Embedding {
		if s.Embedding[i] != o.Embedding[i] {
			return false
		}
	}
	return true
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
