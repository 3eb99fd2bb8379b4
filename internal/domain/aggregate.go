package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type ScopeType string

const (
	ScopeDocument ScopeType = "document"
	ScopeFiling   ScopeType = "filing"
	ScopeParty    ScopeType = "party"
)

func ValidScopeType(s string) bool {
	switch ScopeType(s) {
	case ScopeDocument, ScopeFiling, ScopeParty:
		return true
	}
	return false
}

// Filing-level components.
const (
	ComponentDocumentAverage  = "document_average"
	ComponentLegalSufficiency = "legal_sufficiency"
	ComponentCorroboration    = "corroboration"
	ComponentPredictedSuccess = "predicted_success"
)

// FilingWeights are the filing-level component weights before renormalization.
var FilingWeights = map[string]float64{
	ComponentDocumentAverage:  0.35,
	ComponentLegalSufficiency: 0.35,
	ComponentCorroboration:    0.20,
	ComponentPredictedSuccess: 0.10,
}

// FilingComponentOrder fixes the iteration order of filing components.
var FilingComponentOrder = []string{
	ComponentDocumentAverage,
	ComponentLegalSufficiency,
	ComponentCorroboration,
	ComponentPredictedSuccess,
}

// AggregateScore rolls statement scores up to a document, filing or party.
// ScopeID is a UUID string for documents and filings and the party id for
// parties.
type AggregateScore struct {
	ID                uuid.UUID           `json:"id"`
	Scope             ScopeType           `json:"scope"`
	ScopeID           string              `json:"scope_id"`
	Version           int                 `json:"version"`
	WeightsVersion    string              `json:"weights_version"`
	Dimensions        CompositeDimensions `json:"dimensions"`
	Composite         int                 `json:"composite"`
	Components        map[string]int      `json:"components,omitempty"`
	OmittedComponents []string            `json:"omitted_components,omitempty"`
	StatementCount    int                 `json:"statement_count"`
	InputHash         string              `json:"input_hash"`
	CreatedAt         time.Time           `json:"created_at"`
}

func (a *AggregateScore) InRange() bool {
	if !a.Dimensions.InRange() || !InRange(a.Composite) {
		return false
	}
	for _, v := range a.Components {
		if !InRange(v) {
			return false
		}
	}
	return true
}

func (a *AggregateScore) SameValues(o *AggregateScore) bool {
	if a.Scope != o.Scope || a.ScopeID != o.ScopeID || a.WeightsVersion != o.WeightsVersion ||
		a.Dimensions != o.Dimensions || a.Composite != o.Composite ||
		a.StatementCount != o.StatementCount || !slices.Equal(a.OmittedComponents, o.OmittedComponents) {
		return false
	}
	if len(a.Components) != len(o.Components) {
		return false
	}
	for k, v := range a.Components {
		if ov, ok := o.Components[k]; !ok || ov != v {
			return false
		}
	}
	return true
}
