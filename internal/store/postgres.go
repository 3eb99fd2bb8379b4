package store

import (
	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	_ domain.DocumentStore       = (*DocumentStore)(nil)
	_ domain.StatementStore      = (*StatementStore)(nil)
	_ domain.EventStore          = (*EventStore)(nil)
	_ domain.EvidenceStore       = (*EvidenceStore)(nil)
	_ domain.RelationshipStore   = (*RelationshipStore)(nil)
	_ domain.ScoreStore          = (*ScoreStore)(nil)
	_ domain.AggregateStore      = (*AggregateStore)(nil)
	_ domain.ClassificationStore = (*ClassificationStore)(nil)
	_ domain.ProfileStore        = (*ProfileStore)(nil)
	_ domain.StageStore          = (*StageStore)(nil)
	_ domain.CheckpointStore     = (*CheckpointStore)(nil)
)

// Postgres bundles the pgx-backed stores sharing one pool.
type Postgres struct {
	Documents       *DocumentStore
	Statements      *StatementStore
	Events          *EventStore
	Evidence        *EvidenceStore
	Relationships   *RelationshipStore
	Scores          *ScoreStore
	Aggregates      *AggregateStore
	Classifications *ClassificationStore
	Profiles        *ProfileStore
	Stages          *StageStore
	Checkpoints     *CheckpointStore
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{
		Documents:       NewDocumentStore(db),
		Statements:      NewStatementStore(db),
		Events:          NewEventStore(db),
		Evidence:        NewEvidenceStore(db),
		Relationships:   NewRelationshipStore(db),
		Scores:          NewScoreStore(db),
		Aggregates:      NewAggregateStore(db),
		Classifications: NewClassificationStore(db),
		Profiles:        NewProfileStore(db),
		Stages:          NewStageStore(db),
		Checkpoints:     NewCheckpointStore(db),
	}
}
