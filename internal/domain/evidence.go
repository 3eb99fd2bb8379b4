package domain

import (
	"time"

	"github.com/google/uuid"
)

type Stance string

const (
	StanceSupports    Stance = "supports"
	StanceContradicts Stance = "contradicts"
)

func ValidStance(s string) bool {
	return Stance(s) == StanceSupports || Stance(s) == StanceContradicts
}

type IndicatorType string

const (
	IndicatorDocument       IndicatorType = "document"
	IndicatorWitness        IndicatorType = "witness"
	IndicatorPhysical       IndicatorType = "physical"
	IndicatorDigital        IndicatorType = "digital"
	IndicatorExpert         IndicatorType = "expert"
	IndicatorTimestamp      IndicatorType = "timestamp"
	IndicatorOfficialRecord IndicatorType = "official_record"
	IndicatorTestimony      IndicatorType = "testimony"
	IndicatorOther          IndicatorType = "other"
)

func ValidIndicatorType(t string) bool {
	switch IndicatorType(t) {
	case IndicatorDocument, IndicatorWitness, IndicatorPhysical, IndicatorDigital, IndicatorExpert,
		IndicatorTimestamp, IndicatorOfficialRecord, IndicatorTestimony, IndicatorOther:
		return true
	}
	return false
}

const (
	MinCredibility = 0
	MaxCredibility = 100
)

// EvidenceIndicator is a piece of evidence bearing on a statement or event.
// Indicators are append-only.
type EvidenceIndicator struct {
	ID                uuid.UUID     `json:"id"`
	Target            EntityRef     `json:"target"`
	Stance            Stance        `json:"stance"`
	Credibility       int           `json:"credibility"`
	Type              IndicatorType `json:"type"`
	Authenticated     bool          `json:"authenticated"`
	PublicRecord      bool          `json:"public_record"`
	DocumentedEventID *uuid.UUID    `json:"documented_event_id,omitempty"`
	SourceRef         string        `json:"source_ref,omitempty"`
	Description       string        `json:"description,omitempty"`
	RecordedAt        time.Time     `json:"recorded_at"`
}

func (i *EvidenceIndicator) Ref() EntityRef { return EvidenceRef(i.ID) }

// Reliable reports whether the indicator was authenticated or can be checked
// against a public record.
func (i *EvidenceIndicator) Reliable() bool {
	return i.Authenticated || i.PublicRecord
}

func (i *EvidenceIndicator) Validate() error {
	var fields []string
	if i.ID == uuid.Nil {
		fields = append(fields, "id")
	}
	if i.Target.ID == uuid.Nil || (i.Target.Type != EntityStatement && i.Target.Type != EntityEvent) {
		fields = append(fields, "target")
	}
	if !ValidStance(string(i.Stance)) {
		fields = append(fields, "stance")
	}
	if i.Credibility < MinCredibility || i.Credibility > MaxCredibility {
		fields = append(fields, "credibility")
	}
	if !ValidIndicatorType(string(i.Type)) {
		fields = append(fields, "type")
	}
	if len(fields) > 0 {
		return &MalformedInputError{Entity: "evidence", ID: i.ID, Fields: fields}
	}
	return nil
}
