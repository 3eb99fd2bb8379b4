package domain

import (
	"time"

	"github.com/google/uuid"
)

type DocumentKind string

const (
	DocumentDeclaration DocumentKind = "declaration"
	DocumentTranscript  DocumentKind = "transcript"
	DocumentMessage     DocumentKind = "message"
	DocumentOrder       DocumentKind = "order"
	DocumentReport      DocumentKind = "report"
	DocumentOther       DocumentKind = "other"
)

func ValidDocumentKind(k string) bool {
	switch DocumentKind(k) {
	case DocumentDeclaration, DocumentTranscript, DocumentMessage, DocumentOrder, DocumentReport, DocumentOther:
		return true
	}
	return false
}

// Document is the source a statement was extracted from. Documents are
// immutable once recorded.
type Document struct {
	ID        uuid.UUID    `json:"id"`
	FilingID  *uuid.UUID   `json:"filing_id,omitempty"`
	Kind      DocumentKind `json:"kind"`
	Title     string       `json:"title"`
	FiledAt   *time.Time   `json:"filed_at,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

func (d *Document) Validate() error {
	var fields []string
	if d.ID == uuid.Nil {
		fields = append(fields, "id")
	}
	if !ValidDocumentKind(string(d.Kind)) {
		fields = append(fields, "kind")
	}
	if len(fields) > 0 {
		return &MalformedInputError{Entity: "document", ID: d.ID, Fields: fields}
	}
	return nil
}

type FilingKind string

const (
	FilingMotion   FilingKind = "motion"
	FilingBrief    FilingKind = "brief"
	FilingResponse FilingKind = "response"
	FilingOther    FilingKind = "other"
)

func ValidFilingKind(k string) bool {
	switch FilingKind(k) {
	case FilingMotion, FilingBrief, FilingResponse, FilingOther:
		return true
	}
	return false
}

// OutcomeStats is the historical record for comparable filings.
type OutcomeStats struct {
	Granted int `json:"granted"`
	Total   int `json:"total"`
}

// SuccessRate returns the granted share and false when there is no history.
func (o *OutcomeStats) SuccessRate() (float64, bool) {
	if o == nil || o.Total <= 0 {
		return 0, false
	}
	granted := o.Granted
	if granted > o.Total {
		granted = o.Total
	}
	if granted < 0 {
		granted = 0
	}
	return float64(granted) / float64(o.Total), true
}

// Filing groups documents submitted together. RequiredElements lists the
// subject keys the filing has to evidence.
type Filing struct {
	ID               uuid.UUID     `json:"id"`
	Kind             FilingKind    `json:"kind"`
	Title            string        `json:"title"`
	FiledAt          *time.Time    `json:"filed_at,omitempty"`
	RequiredElements []string      `json:"required_elements,omitempty"`
	Outcomes         *OutcomeStats `json:"outcomes,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

func (f *Filing) Validate() error {
	var fields []string
	if f.ID == uuid.Nil {
		fields = append(fields, "id")
	}
	if !ValidFilingKind(string(f.Kind)) {
		fields = append(fields, "kind")
	}
	if f.Outcomes != nil && (f.Outcomes.Total < 0 || f.Outcomes.Granted < 0) {
		fields = append(fields, "outcomes")
	}
	if len(fields) > 0 {
		return &MalformedInputError{Entity: "filing", ID: f.ID, Fields: fields}
	}
	return nil
}
