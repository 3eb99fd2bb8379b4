package store

import (
	"context"
	"errors"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DocumentStore struct {
	db *pgxpool.Pool
}

func NewDocumentStore(db *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) SaveDocument(ctx context.Context, d *domain.Document) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO documents (id, filing_id, kind, title, filed_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET id = documents.id
		 RETURNING created_at`,
		d.ID, d.FilingID, d.Kind, d.Title, d.FiledAt,
	).Scan(&d.CreatedAt)
	return mapWriteErr(err)
}

func (s *DocumentStore) GetDocument(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	d := &domain.Document{}
	err := s.db.QueryRow(ctx,
		`SELECT id, filing_id, kind, title, filed_at, created_at FROM documents WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.FilingID, &d.Kind, &d.Title, &d.FiledAt, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *DocumentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, filing_id, kind, title, filed_at, created_at FROM documents ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.FilingID, &d.Kind, &d.Title, &d.FiledAt, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *DocumentStore) SaveFiling(ctx context.Context, f *domain.Filing) error {
	var granted, total *int
	if f.Outcomes != nil {
		granted, total = &f.Outcomes.Granted, &f.Outcomes.Total
	}
	elements := f.RequiredElements
	if elements == nil {
		elements = []string{}
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO filings (id, kind, title, filed_at, required_elements, outcomes_granted, outcomes_total)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET id = filings.id
		 RETURNING created_at`,
		f.ID, f.Kind, f.Title, f.FiledAt, elements, granted, total,
	).Scan(&f.CreatedAt)
	return mapWriteErr(err)
}

const filingColumns = `id, kind, title, filed_at, required_elements, outcomes_granted, outcomes_total, created_at`

func scanFiling(row pgx.Row) (*domain.Filing, error) {
	f := &domain.Filing{}
	var granted, total *int
	if err := row.Scan(&f.ID, &f.Kind, &f.Title, &f.FiledAt, &f.RequiredElements, &granted, &total, &f.CreatedAt); err != nil {
		return nil, err
	}
	if total != nil {
		f.Outcomes = &domain.OutcomeStats{Total: *total}
		if granted != nil {
			f.Outcomes.Granted = *granted
		}
	}
	return f, nil
}

func (s *DocumentStore) GetFiling(ctx context.Context, id uuid.UUID) (*domain.Filing, error) {
	f, err := scanFiling(s.db.QueryRow(ctx, `SELECT `+filingColumns+` FROM filings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *DocumentStore) ListFilings(ctx context.Context) ([]domain.Filing, error) {
	rows, err := s.db.Query(ctx, `SELECT `+filingColumns+` FROM filings ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var filings []domain.Filing
	for rows.Next() {
		f, err := scanFiling(rows)
		if err != nil {
			return nil, err
		}
		filings = append(filings, *f)
	}
	return filings, rows.Err()
}
