package store

import (
	"context"
	"errors"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ClassificationStore struct {
	db *pgxpool.Pool
}

func NewClassificationStore(db *pgxpool.Pool) *ClassificationStore {
	return &ClassificationStore{db: db}
}

const classificationColumns = `id, statement_id, speaker_id, version, rule_table_version, candidates,
	insufficient_evidence, input_hash, created_at`

func scanClassification(row pgx.Row) (*domain.ClassificationResult, error) {
	c := &domain.ClassificationResult{}
	err := row.Scan(&c.ID, &c.StatementID, &c.SpeakerID, &c.Version, &c.RuleTableVersion, &c.Candidates,
		&c.InsufficientEvidence, &c.InputHash, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ClassificationStore) Append(ctx context.Context, c *domain.ClassificationResult) error {
	candidates := c.Candidates
	if candidates == nil {
		candidates = []domain.ViolationCandidate{}
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO classification_results (statement_id, speaker_id, version, rule_table_version, candidates,
		     insufficient_evidence, input_hash)
		 SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3, $4, $5, $6
		 FROM classification_results WHERE statement_id = $1
		 RETURNING id, version, created_at`,
		c.StatementID, c.SpeakerID, c.RuleTableVersion, candidates, c.InsufficientEvidence, c.InputHash,
	).Scan(&c.ID, &c.Version, &c.CreatedAt)
	return mapWriteErr(err)
}

func (s *ClassificationStore) Latest(ctx context.Context, statementID uuid.UUID) (*domain.ClassificationResult, error) {
	c, err := scanClassification(s.db.QueryRow(ctx,
		`SELECT `+classificationColumns+` FROM classification_results
		 WHERE statement_id = $1 ORDER BY version DESC LIMIT 1`,
		statementID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *ClassificationStore) ListLatest(ctx context.Context) ([]domain.ClassificationResult, error) {
	return s.list(ctx,
		`SELECT DISTINCT ON (statement_id) `+classificationColumns+` FROM classification_results
		 ORDER BY statement_id, version DESC`)
}

func (s *ClassificationStore) History(ctx context.Context, statementID uuid.UUID) ([]domain.ClassificationResult, error) {
	return s.list(ctx,
		`SELECT `+classificationColumns+` FROM classification_results WHERE statement_id = $1 ORDER BY version`,
		statementID)
}

func (s *ClassificationStore) list(ctx context.Context, query string, args ...any) ([]domain.ClassificationResult, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ClassificationResult
	for rows.Next() {
		c, err := scanClassification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
