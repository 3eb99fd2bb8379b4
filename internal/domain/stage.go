package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stage is where a statement sits in the evaluation pipeline.
type Stage string

const (
	StageUnevaluated Stage = "unevaluated"
	StageScored      Stage = "scored"
	StageCorrelated  Stage = "correlated"
	StageClassified  Stage = "classified"
)

func ValidStage(s string) bool {
	switch Stage(s) {
	case StageUnevaluated, StageScored, StageCorrelated, StageClassified:
		return true
	}
	return false
}

// CanTransition enforces unevaluated → scored → correlated → classified.
// Rescoring restarts the cycle from any stage.
func CanTransition(from, to Stage) bool {
	switch to {
	case StageScored:
		return true
	case StageCorrelated:
		return from == StageScored
	case StageClassified:
		return from == StageCorrelated
	}
	return false
}

// StageTransition is an append-only log entry of a statement changing stage.
type StageTransition struct {
	StatementID uuid.UUID `json:"statement_id"`
	BatchID     uuid.UUID `json:"batch_id"`
	From        Stage     `json:"from"`
	To          Stage     `json:"to"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Checkpoint records the progress of one pipeline stage for one batch.
type Checkpoint struct {
	BatchID       uuid.UUID      `json:"batch_id"`
	Stage         Stage          `json:"stage"`
	Completed     []uuid.UUID    `json:"completed"`
	Relationships []Relationship `json:"relationships,omitempty"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// CompletedSet returns the completed statement ids as a set.
func (c *Checkpoint) CompletedSet() map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(c.Completed))
	for _, id := range c.Completed {
		set[id] = true
	}
	return set
}
