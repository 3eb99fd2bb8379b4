package store

import (
	"context"
	"errors"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EvidenceStore struct {
	db *pgxpool.Pool
}

func NewEvidenceStore(db *pgxpool.Pool) *EvidenceStore {
	return &EvidenceStore{db: db}
}

const evidenceColumns = `id, target_type, target_id, stance, credibility, type, authenticated, public_record,
	documented_event_id, source_ref, description, recorded_at`

func scanIndicator(row pgx.Row) (*domain.EvidenceIndicator, error) {
	i := &domain.EvidenceIndicator{}
	err := row.Scan(&i.ID, &i.Target.Type, &i.Target.ID, &i.Stance, &i.Credibility, &i.Type,
		&i.Authenticated, &i.PublicRecord, &i.DocumentedEventID, &i.SourceRef, &i.Description, &i.RecordedAt)
	if err != nil {
		return nil, err
	}
	return i, nil
}

func (s *EvidenceStore) Create(ctx context.Context, i *domain.EvidenceIndicator) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`INSERT INTO evidence_indicators (id, target_type, target_id, stance, credibility, type, authenticated,
		     public_record, documented_event_id, source_ref, description, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, COALESCE($12, NOW()))
		 ON CONFLICT (id) DO NOTHING`,
		i.ID, i.Target.Type, i.Target.ID, i.Stance, i.Credibility, i.Type, i.Authenticated,
		i.PublicRecord, i.DocumentedEventID, i.SourceRef, i.Description, nullTime(i.RecordedAt),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *EvidenceStore) Get(ctx context.Context, id uuid.UUID) (*domain.EvidenceIndicator, error) {
	i, err := scanIndicator(s.db.QueryRow(ctx,
		`SELECT `+evidenceColumns+` FROM evidence_indicators WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return i, nil
}

func (s *EvidenceStore) List(ctx context.Context) ([]domain.EvidenceIndicator, error) {
	return s.list(ctx, `SELECT `+evidenceColumns+` FROM evidence_indicators ORDER BY id`)
}

func (s *EvidenceStore) ListByTarget(ctx context.Context, target domain.EntityRef) ([]domain.EvidenceIndicator, error) {
	return s.list(ctx,
		`SELECT `+evidenceColumns+` FROM evidence_indicators
		 WHERE target_type = $1 AND target_id = $2 ORDER BY id`,
		target.Type, target.ID)
}

func (s *EvidenceStore) list(ctx context.Context, query string, args ...any) ([]domain.EvidenceIndicator, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EvidenceIndicator
	for rows.Next() {
		i, err := scanIndicator(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *i)
	}
	return out, rows.Err()
}
