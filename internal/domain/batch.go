package domain

import (
	"time"

	"github.com/google/uuid"
)

// Batch is a unit of ingestion handed over by the extraction subsystem.
type Batch struct {
	ID         uuid.UUID           `json:"id"`
	Documents  []Document          `json:"documents,omitempty"`
	Filings    []Filing            `json:"filings,omitempty"`
	Statements []Statement         `json:"statements,omitempty"`
	Events     []Event             `json:"events,omitempty"`
	Indicators []EvidenceIndicator `json:"indicators,omitempty"`
}

func (b *Batch) Empty() bool {
	return len(b.Documents)+len(b.Filings)+len(b.Statements)+len(b.Events)+len(b.Indicators) == 0
}

type BatchStatus string

const (
	BatchQueued    BatchStatus = "queued"
	BatchRunning   BatchStatus = "running"
	BatchCompleted BatchStatus = "completed"
	BatchFailed    BatchStatus = "failed"
	BatchCancelled BatchStatus = "cancelled"
)

// RejectedRecord is an input record refused at ingestion.
type RejectedRecord struct {
	Entity string    `json:"entity"`
	ID     uuid.UUID `json:"id"`
	Reason string    `json:"reason"`
}

// BatchReport summarizes what a pipeline run did.
type BatchReport struct {
	BatchID              uuid.UUID        `json:"batch_id"`
	Status               BatchStatus      `json:"status"`
	Accepted             int              `json:"accepted"`
	Rejected             []RejectedRecord `json:"rejected,omitempty"`
	Affected             int              `json:"affected"`
	Scored               int              `json:"scored"`
	Resumed              int              `json:"resumed"`
	RelationshipsWritten int              `json:"relationships_written"`
	Classified           int              `json:"classified"`
	AggregatesWritten    int              `json:"aggregates_written"`
	ProfilesWritten      int              `json:"profiles_written"`
	Error                string           `json:"error,omitempty"`
	StartedAt            time.Time        `json:"started_at"`
	FinishedAt           *time.Time       `json:"finished_at,omitempty"`
}
