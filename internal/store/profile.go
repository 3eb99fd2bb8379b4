package store

import (
	"context"
	"errors"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfileStore struct {
	db *pgxpool.Pool
}

func NewProfileStore(db *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{db: db}
}

const profileColumns = `id, party_id, version, statement_count, verified_true_count, verified_false_count,
	truthfulness_rate, lie_rate, violation_counts, bad_faith_pattern, risk_flight, risk_compliance, risk_harm,
	trend, input_hash, created_at`

func scanProfile(row pgx.Row) (*domain.PartyProfile, error) {
	p := &domain.PartyProfile{}
	err := row.Scan(&p.ID, &p.PartyID, &p.Version, &p.StatementCount, &p.VerifiedTrueCount,
		&p.VerifiedFalseCount, &p.TruthfulnessRate, &p.LieRate, &p.ViolationCounts, &p.BadFaithPattern,
		&p.Risks.Flight, &p.Risks.Compliance, &p.Risks.Harm, &p.Trend, &p.InputHash, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProfileStore) Append(ctx context.Context, p *domain.PartyProfile) error {
	counts := p.ViolationCounts
	if counts == nil {
		counts = map[domain.ViolationTag]int{}
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO party_profiles (party_id, version, statement_count, verified_true_count, verified_false_count,
		     truthfulness_rate, lie_rate, violation_counts, bad_faith_pattern, risk_flight, risk_compliance,
		     risk_harm, trend, input_hash)
		 SELECT $1, COALESCE(MAX(version), 0) + 1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		 FROM party_profiles WHERE party_id = $1
		 RETURNING id, version, created_at`,
		p.PartyID, p.StatementCount, p.VerifiedTrueCount, p.VerifiedFalseCount, p.TruthfulnessRate, p.LieRate,
		counts, p.BadFaithPattern, p.Risks.Flight, p.Risks.Compliance, p.Risks.Harm, p.Trend, p.InputHash,
	).Scan(&p.ID, &p.Version, &p.CreatedAt)
	return mapWriteErr(err)
}

func (s *ProfileStore) Latest(ctx context.Context, partyID string) (*domain.PartyProfile, error) {
	p, err := scanProfile(s.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM party_profiles WHERE party_id = $1 ORDER BY version DESC LIMIT 1`,
		partyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *ProfileStore) ListLatest(ctx context.Context) ([]domain.PartyProfile, error) {
	return s.list(ctx,
		`SELECT DISTINCT ON (party_id) `+profileColumns+` FROM party_profiles ORDER BY party_id, version DESC`)
}

func (s *ProfileStore) History(ctx context.Context, partyID string) ([]domain.PartyProfile, error) {
	return s.list(ctx,
		`SELECT `+profileColumns+` FROM party_profiles WHERE party_id = $1 ORDER BY version`, partyID)
}

func (s *ProfileStore) list(ctx context.Context, query string, args ...any) ([]domain.PartyProfile, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PartyProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
