package store

import (
	"context"
	"errors"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RelationshipStore struct {
	db *pgxpool.Pool
}

func NewRelationshipStore(db *pgxpool.Pool) *RelationshipStore {
	return &RelationshipStore{db: db}
}

const relationshipColumns = `id, version, source_type, source_id, target_type, target_id, kind, strength,
	directed, is_primary, active, explanation, evidence_refs, created_at`

func scanRelationship(row pgx.Row) (*domain.Relationship, error) {
	r := &domain.Relationship{}
	err := row.Scan(&r.ID, &r.Version, &r.Source.Type, &r.Source.ID, &r.Target.Type, &r.Target.ID,
		&r.Kind, &r.Strength, &r.Directed, &r.Primary, &r.Active, &r.Explanation, &r.EvidenceRefs, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *RelationshipStore) Append(ctx context.Context, r *domain.Relationship) (bool, error) {
	prev, err := s.Get(ctx, r.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if prev != nil && prev.SameState(r) {
		r.Version, r.CreatedAt = prev.Version, prev.CreatedAt
		return false, nil
	}
	r.Version = 1
	if prev != nil {
		r.Version = prev.Version + 1
	}
	refs := r.EvidenceRefs
	if refs == nil {
		refs = []domain.EntityRef{}
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO relationships (id, version, source_type, source_id, target_type, target_id, kind, strength,
		     directed, is_primary, active, explanation, evidence_refs)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING created_at`,
		r.ID, r.Version, r.Source.Type, r.Source.ID, r.Target.Type, r.Target.ID, r.Kind, r.Strength,
		r.Directed, r.Primary, r.Active, r.Explanation, refs,
	).Scan(&r.CreatedAt)
	if err != nil {
		return false, mapWriteErr(err)
	}
	return true, nil
}

func (s *RelationshipStore) Get(ctx context.Context, id uuid.UUID) (*domain.Relationship, error) {
	r, err := scanRelationship(s.db.QueryRow(ctx,
		`SELECT `+relationshipColumns+` FROM relationships WHERE id = $1 ORDER BY version DESC LIMIT 1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *RelationshipStore) ListCurrent(ctx context.Context) ([]domain.Relationship, error) {
	return s.list(ctx,
		`SELECT DISTINCT ON (id) `+relationshipColumns+` FROM relationships ORDER BY id, version DESC`)
}

func (s *RelationshipStore) ListByEntity(ctx context.Context, ref domain.EntityRef) ([]domain.Relationship, error) {
	return s.list(ctx,
		`SELECT DISTINCT ON (id) `+relationshipColumns+` FROM relationships
		 WHERE (source_type = $1 AND source_id = $2) OR (target_type = $1 AND target_id = $2)
		 ORDER BY id, version DESC`,
		ref.Type, ref.ID)
}

func (s *RelationshipStore) History(ctx context.Context, id uuid.UUID) ([]domain.Relationship, error) {
	return s.list(ctx, `SELECT `+relationshipColumns+` FROM relationships WHERE id = $1 ORDER BY version`, id)
}

func (s *RelationshipStore) list(ctx context.Context, query string, args ...any) ([]domain.Relationship, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Relationship
	for rows.Next() {
		r, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *RelationshipStore) CreateOverride(ctx context.Context, o *domain.RelationshipOverride) error {
	var exists bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM relationships WHERE id = $1)`, o.RelationshipID,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO relationship_overrides (relationship_id, strength, suppressed, reviewer, reason)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		o.RelationshipID, o.Strength, o.Suppressed, o.Reviewer, o.Reason,
	).Scan(&o.ID, &o.CreatedAt)
}

func (s *RelationshipStore) ListOverrides(ctx context.Context) ([]domain.RelationshipOverride, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, relationship_id, strength, suppressed, reviewer, reason, created_at
		 FROM relationship_overrides ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RelationshipOverride
	for rows.Next() {
		var o domain.RelationshipOverride
		if err := rows.Scan(&o.ID, &o.RelationshipID, &o.Strength, &o.Suppressed, &o.Reviewer, &o.Reason, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
