package store

import (
	"context"
	"errors"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type StatementStore struct {
	db *pgxpool.Pool
}

func NewStatementStore(db *pgxpool.Pool) *StatementStore {
	return &StatementStore{db: db}
}

const statementColumns = `id, version, previous_version, document_id, locator, speaker_id, text, kind,
	asserted_at, under_oath, subject, negated, urgent, relied_upon, embedding::text, created_at`

func scanStatement(row pgx.Row) (*domain.Statement, error) {
	st := &domain.Statement{}
	var embedding *string
	err := row.Scan(&st.ID, &st.Version, &st.PreviousVersion, &st.DocumentID, &st.Locator, &st.SpeakerID,
		&st.Text, &st.Kind, &st.AssertedAt, &st.UnderOath, &st.Subject, &st.Negated, &st.Urgent,
		&st.ReliedUpon, &embedding, &st.CreatedAt)
	if err != nil {
		return nil, err
	}
	if embedding != nil {
		var v pgvector.Vector
		if err := v.Scan(*embedding); err != nil {
			return nil, err
		}
		st.Embedding = v.Slice()
	}
	return st, nil
}

func (s *StatementStore) Append(ctx context.Context, st *domain.Statement) (bool, error) {
	prev, err := s.GetLatest(ctx, st.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if prev != nil && prev.SameContent(st) {
		st.Version, st.PreviousVersion, st.CreatedAt = prev.Version, prev.PreviousVersion, prev.CreatedAt
		return false, nil
	}
	st.Version, st.PreviousVersion = 1, 0
	if prev != nil {
		st.Version, st.PreviousVersion = prev.Version+1, prev.Version
	}

	var embedding *pgvector.Vector
	if len(st.Embedding) > 0 {
		v := pgvector.NewVector(st.Embedding)
		embedding = &v
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO statements (id, version, previous_version, document_id, locator, speaker_id, text, kind,
		     asserted_at, under_oath, subject, negated, urgent, relied_upon, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING created_at`,
		st.ID, st.Version, st.PreviousVersion, st.DocumentID, st.Locator, st.SpeakerID, st.Text, st.Kind,
		st.AssertedAt, st.UnderOath, st.Subject, st.Negated, st.Urgent, st.ReliedUpon, embedding,
	).Scan(&st.CreatedAt)
	if err != nil {
		return false, mapWriteErr(err)
	}
	return true, nil
}

func (s *StatementStore) GetLatest(ctx context.Context, id uuid.UUID) (*domain.Statement, error) {
	st, err := scanStatement(s.db.QueryRow(ctx,
		`SELECT `+statementColumns+` FROM statements WHERE id = $1 ORDER BY version DESC LIMIT 1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return st, nil
}

func (s *StatementStore) ListLatest(ctx context.Context) ([]domain.Statement, error) {
	return s.list(ctx,
		`SELECT DISTINCT ON (id) `+statementColumns+` FROM statements ORDER BY id, version DESC`)
}

func (s *StatementStore) History(ctx context.Context, id uuid.UUID) ([]domain.Statement, error) {
	return s.list(ctx,
		`SELECT `+statementColumns+` FROM statements WHERE id = $1 ORDER BY version`, id)
}

func (s *StatementStore) list(ctx context.Context, query string, args ...any) ([]domain.Statement, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Statement
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}
