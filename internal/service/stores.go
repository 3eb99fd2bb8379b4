package service

import (
	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/store"
)

// Stores is the persistence the services work against.
type Stores struct {
	Documents       domain.DocumentStore
	Statements      domain.StatementStore
	Events          domain.EventStore
	Evidence        domain.EvidenceStore
	Relationships   domain.RelationshipStore
	Scores          domain.ScoreStore
	Aggregates      domain.AggregateStore
	Classifications domain.ClassificationStore
	Profiles        domain.ProfileStore
	Stages          domain.StageStore
	Checkpoints     domain.CheckpointStore
}

func MemoryStores(m *store.Memory) Stores {
	return Stores{
		Documents:       m.Documents,
		Statements:      m.Statements,
		Events:          m.Events,
		Evidence:        m.Evidence,
		Relationships:   m.Relationships,
		Scores:          m.Scores,
		Aggregates:      m.Aggregates,
		Classifications: m.Classifications,
		Profiles:        m.Profiles,
		Stages:          m.Stages,
		Checkpoints:     m.Checkpoints,
	}
}

func PostgresStores(p *store.Postgres) Stores {
	return Stores{
		Documents:       p.Documents,
		Statements:      p.Statements,
		Events:          p.Events,
		Evidence:        p.Evidence,
		Relationships:   p.Relationships,
		Scores:          p.Scores,
		Aggregates:      p.Aggregates,
		Classifications: p.Classifications,
		Profiles:        p.Profiles,
		Stages:          p.Stages,
		Checkpoints:     p.Checkpoints,
	}
}
