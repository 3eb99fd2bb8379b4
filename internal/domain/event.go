package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

type VerificationStatus string

const (
	StatusVerified   VerificationStatus = "verified"
	StatusAlleged    VerificationStatus = "alleged"
	StatusDisputed   VerificationStatus = "disputed"
	StatusUnverified VerificationStatus = "unverified"
	StatusDisproven  VerificationStatus = "disproven"
)

func ValidVerificationStatus(s string) bool {
	switch VerificationStatus(s) {
	case StatusVerified, StatusAlleged, StatusDisputed, StatusUnverified, StatusDisproven:
		return true
	}
	return false
}

const EventCategorySafety = "safety"

// Event is an entry in the curated timeline. Status changes and corrections
// produce new versions; earlier versions stay queryable.
type Event struct {
	ID              uuid.UUID          `json:"id"`
	Version         int                `json:"version"`
	PreviousVersion int                `json:"previous_version,omitempty"`
	OccurredAt      time.Time          `json:"occurred_at"`
	VerifiedAt      *time.Time         `json:"verified_at,omitempty"`
	Description     string             `json:"description"`
	Subject         string             `json:"subject,omitempty"`
	Negated         bool               `json:"negated"`
	Status          VerificationStatus `json:"status"`
	Category        string             `json:"category,omitempty"`
	Participants    []string           `json:"participants,omitempty"`
	AdverseTo       []string           `json:"adverse_to,omitempty"`
	Emergency       bool               `json:"emergency"`
	EvidenceRefs    []string           `json:"evidence_refs,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}

func (e *Event) Ref() EntityRef { return EventRef(e.ID) }

func (e *Event) SubjectKey() string { return NormalizeSubject(e.Subject) }

// Fact returns the established truth value of the event's subject. A verified
// event establishes its subject (or its negation); a disproven event
// establishes the opposite. Other statuses establish nothing.
func (e *Event) Fact() (value bool, known bool) {
	switch e.Status {
	case StatusVerified:
		return !e.Negated, true
	case StatusDisproven:
		return e.Negated, true
	}
	return false, false
}

// KnownAt is when the event's fact became established.
func (e *Event) KnownAt() time.Time {
	if e.VerifiedAt != nil {
		return *e.VerifiedAt
	}
	return e.OccurredAt
}

func (e *Event) InvolvesParty(party string) bool {
	return slices.Contains(e.Participants, party)
}

func (e *Event) AdverseToParty(party string) bool {
	return slices.Contains(e.AdverseTo, party)
}

func (e *Event) IsSafety() bool {
	return strings.EqualFold(e.Category, EventCategorySafety)
}

func (e *Event) Validate() error {
	var fields []string
	if e.ID == uuid.Nil {
		fields = append(fields, "id")
	}
	if e.OccurredAt.IsZero() {
		fields = append(fields, "occurred_at")
	}
	if strings.TrimSpace(e.Description) == "" {
		fields = append(fields, "description")
	}
	if !ValidVerificationStatus(string(e.Status)) {
		fields = append(fields, "status")
	}
	if len(fields) > 0 {
		return &MalformedInputError{Entity: "event", ID: e.ID, Fields: fields}
	}
	return nil
}

func (e *Event) SameContent(o *Event) bool {
	return e.OccurredAt.Equal(o.OccurredAt) && sameTime(e.VerifiedAt, o.VerifiedAt) &&
		e.Description == o.Description && e.Subject == o.Subject && e.Negated == o.Negated &&
		e.Status == o.Status && e.Category == o.Category && e.Emergency == o.Emergency &&
		slices.Equal(e.Participants, o.Participants) && slices.Equal(e.AdverseTo, o.AdverseTo) &&
		slices.Equal(e.EvidenceRefs, o.EvidenceRefs)
}
