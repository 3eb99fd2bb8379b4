package domain

import (
	"context"

	"github.com/google/uuid"
)

type DocumentStore interface {
	// SaveDocument records a document; saving an existing id is a no-op.
	SaveDocument(ctx context.Context, d *Document) error
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)
	ListDocuments(ctx context.Context) ([]Document, error)
	SaveFiling(ctx context.Context, f *Filing) error
	GetFiling(ctx context.Context, id uuid.UUID) (*Filing, error)
	ListFilings(ctx context.Context) ([]Filing, error)
}

// StatementStore keeps every version of every statement. Append writes a new
// version only when the content differs from the latest one.
type StatementStore interface {
	Append(ctx context.Context, s *Statement) (bool, error)
	GetLatest(ctx context.Context, id uuid.UUID) (*Statement, error)
	ListLatest(ctx context.Context) ([]Statement, error)
	History(ctx context.Context, id uuid.UUID) ([]Statement, error)
}

type EventStore interface {
	Append(ctx context.Context, e *Event) (bool, error)
	GetLatest(ctx context.Context, id uuid.UUID) (*Event, error)
	ListLatest(ctx context.Context) ([]Event, error)
	History(ctx context.Context, id uuid.UUID) ([]Event, error)
}

// EvidenceStore is append-only. Create reports false when the id exists.
type EvidenceStore interface {
	Create(ctx context.Context, i *EvidenceIndicator) (bool, error)
	Get(ctx context.Context, id uuid.UUID) (*EvidenceIndicator, error)
	List(ctx context.Context) ([]EvidenceIndicator, error)
	ListByTarget(ctx context.Context, target EntityRef) ([]EvidenceIndicator, error)
}

type RelationshipStore interface {
	// Append writes a new version when strength, primary or active changed.
	Append(ctx context.Context, r *Relationship) (bool, error)
	Get(ctx context.Context, id uuid.UUID) (*Relationship, error)
	ListCurrent(ctx context.Context) ([]Relationship, error)
	ListByEntity(ctx context.Context, ref EntityRef) ([]Relationship, error)
	History(ctx context.Context, id uuid.UUID) ([]Relationship, error)
	CreateOverride(ctx context.Context, o *RelationshipOverride) error
	ListOverrides(ctx context.Context) ([]RelationshipOverride, error)
}

type ScoreStore interface {
	Append(ctx context.Context, r *ScoreRecord) error
	Latest(ctx context.Context, statementID uuid.UUID) (*ScoreRecord, error)
	ListLatest(ctx context.Context) ([]ScoreRecord, error)
	History(ctx context.Context, statementID uuid.UUID) ([]ScoreRecord, error)
}

type AggregateStore interface {
	Append(ctx context.Context, a *AggregateScore) error
	Latest(ctx context.Context, scope ScopeType, scopeID string) (*AggregateScore, error)
	ListLatest(ctx context.Context) ([]AggregateScore, error)
	History(ctx context.Context, scope ScopeType, scopeID string) ([]AggregateScore, error)
}

type ClassificationStore interface {
	Append(ctx context.Context, c *ClassificationResult) error
	Latest(ctx context.Context, statementID uuid.UUID) (*ClassificationResult, error)
	ListLatest(ctx context.Context) ([]ClassificationResult, error)
	History(ctx context.Context, statementID uuid.UUID) ([]ClassificationResult, error)
}

type ProfileStore interface {
	Append(ctx context.Context, p *PartyProfile) error
	Latest(ctx context.Context, partyID string) (*PartyProfile, error)
	ListLatest(ctx context.Context) ([]PartyProfile, error)
	History(ctx context.Context, partyID string) ([]PartyProfile, error)
}

type StageStore interface {
	Record(ctx context.Context, t *StageTransition) error
	// Current returns StageUnevaluated for statements with no transitions.
	Current(ctx context.Context, statementID uuid.UUID) (Stage, error)
	Transitions(ctx context.Context, statementID uuid.UUID) ([]StageTransition, error)
}

type CheckpointStore interface {
	Save(ctx context.Context, c *Checkpoint) error
	// Get returns nil and no error when no checkpoint exists.
	Get(ctx context.Context, batchID uuid.UUID, stage Stage) (*Checkpoint, error)
}
