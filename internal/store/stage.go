package store

import (
	"context"
	"errors"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StageStore struct {
	db *pgxpool.Pool
}

func NewStageStore(db *pgxpool.Pool) *StageStore {
	return &StageStore{db: db}
}

func (s *StageStore) Record(ctx context.Context, t *domain.StageTransition) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO stage_transitions (statement_id, batch_id, from_stage, to_stage)
		 VALUES ($1, $2, $3, $4)
		 RETURNING occurred_at`,
		t.StatementID, t.BatchID, t.From, t.To,
	).Scan(&t.OccurredAt)
}

func (s *StageStore) Current(ctx context.Context, statementID uuid.UUID) (domain.Stage, error) {
	var stage domain.Stage
	err := s.db.QueryRow(ctx,
		`SELECT to_stage FROM stage_transitions WHERE statement_id = $1 ORDER BY id DESC LIMIT 1`,
		statementID,
	).Scan(&stage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StageUnevaluated, nil
		}
		return "", err
	}
	return stage, nil
}

func (s *StageStore) Transitions(ctx context.Context, statementID uuid.UUID) ([]domain.StageTransition, error) {
	rows, err := s.db.Query(ctx,
		`SELECT statement_id, batch_id, from_stage, to_stage, occurred_at
		 FROM stage_transitions WHERE statement_id = $1 ORDER BY id`,
		statementID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StageTransition
	for rows.Next() {
		var t domain.StageTransition
		if err := rows.Scan(&t.StatementID, &t.BatchID, &t.From, &t.To, &t.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type CheckpointStore struct {
	db *pgxpool.Pool
}

func NewCheckpointStore(db *pgxpool.Pool) *CheckpointStore {
	return &CheckpointStore{db: db}
}

func (s *CheckpointStore) Save(ctx context.Context, c *domain.Checkpoint) error {
	completed := c.Completed
	if completed == nil {
		completed = []uuid.UUID{}
	}
	rels := c.Relationships
	if rels == nil {
		rels = []domain.Relationship{}
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO batch_checkpoints (batch_id, stage, completed, relationships)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (batch_id, stage) DO UPDATE
		 SET completed = EXCLUDED.completed, relationships = EXCLUDED.relationships, updated_at = NOW()
		 RETURNING updated_at`,
		c.BatchID, c.Stage, completed, rels,
	).Scan(&c.UpdatedAt)
}

func (s *CheckpointStore) Get(ctx context.Context, batchID uuid.UUID, stage domain.Stage) (*domain.Checkpoint, error) {
	c := &domain.Checkpoint{}
	err := s.db.QueryRow(ctx,
		`SELECT batch_id, stage, completed, relationships, updated_at
		 FROM batch_checkpoints WHERE batch_id = $1 AND stage = $2`,
		batchID, stage,
	).Scan(&c.BatchID, &c.Stage, &c.Completed, &c.Relationships, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}
