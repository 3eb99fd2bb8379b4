package store

import (
	"context"
	"errors"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventStore struct {
	db *pgxpool.Pool
}

func NewEventStore(db *pgxpool.Pool) *EventStore {
	return &EventStore{db: db}
}

const eventColumns = `id, version, previous_version, occurred_at, verified_at, description, subject, negated,
	status, category, participants, adverse_to, emergency, evidence_refs, created_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	e := &domain.Event{}
	err := row.Scan(&e.ID, &e.Version, &e.PreviousVersion, &e.OccurredAt, &e.VerifiedAt, &e.Description,
		&e.Subject, &e.Negated, &e.Status, &e.Category, &e.Participants, &e.AdverseTo, &e.Emergency,
		&e.EvidenceRefs, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EventStore) Append(ctx context.Context, e *domain.Event) (bool, error) {
	prev, err := s.GetLatest(ctx, e.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if prev != nil && prev.SameContent(e) {
		e.Version, e.PreviousVersion, e.CreatedAt = prev.Version, prev.PreviousVersion, prev.CreatedAt
		return false, nil
	}
	e.Version, e.PreviousVersion = 1, 0
	if prev != nil {
		e.Version, e.PreviousVersion = prev.Version+1, prev.Version
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO events (id, version, previous_version, occurred_at, verified_at, description, subject,
		     negated, status, category, participants, adverse_to, emergency, evidence_refs)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING created_at`,
		e.ID, e.Version, e.PreviousVersion, e.OccurredAt, e.VerifiedAt, e.Description, e.Subject,
		e.Negated, e.Status, e.Category, orEmpty(e.Participants), orEmpty(e.AdverseTo), e.Emergency,
		orEmpty(e.EvidenceRefs),
	).Scan(&e.CreatedAt)
	if err != nil {
		return false, mapWriteErr(err)
	}
	return true, nil
}

func (s *EventStore) GetLatest(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	e, err := scanEvent(s.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 ORDER BY version DESC LIMIT 1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *EventStore) ListLatest(ctx context.Context) ([]domain.Event, error) {
	return s.list(ctx, `SELECT DISTINCT ON (id) `+eventColumns+` FROM events ORDER BY id, version DESC`)
}

func (s *EventStore) History(ctx context.Context, id uuid.UUID) ([]domain.Event, error) {
	return s.list(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 ORDER BY version`, id)
}

func (s *EventStore) list(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
