package store

import (
	"context"
	"errors"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ScoreStore struct {
	db *pgxpool.Pool
}

func NewScoreStore(db *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{db: db}
}

const scoreColumns = `id, statement_id, statement_version, version, weights_version, truth_lie, intent, bad_faith,
	context, evidence_quality, legal_weight, composite, truth_low, truth_high, confidence, low_confidence,
	assumption_based, flags, bad_faith_breakdown, indicator_count, input_hash, created_at`

func scanScore(row pgx.Row) (*domain.ScoreRecord, error) {
	r := &domain.ScoreRecord{}
	var flags []string
	d := &r.Dimensions
	err := row.Scan(&r.ID, &r.StatementID, &r.StatementVersion, &r.Version, &r.WeightsVersion,
		&d.TruthLie, &d.Intent, &d.BadFaith, &d.Context, &d.EvidenceQuality, &d.LegalWeight,
		&r.Composite, &r.TruthInterval.Low, &r.TruthInterval.High, &r.Confidence, &r.LowConfidence,
		&r.AssumptionBased, &flags, &r.BadFaith, &r.IndicatorCount, &r.InputHash, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	for _, f := range flags {
		r.Flags = append(r.Flags, domain.ScoreFlag(f))
	}
	return r, nil
}

// Append inserts the next version for the statement in one statement so two
// writers racing on the same statement surface as ErrConflict.
func (s *ScoreStore) Append(ctx context.Context, r *domain.ScoreRecord) error {
	flags := make([]string, 0, len(r.Flags))
	for _, f := range r.Flags {
		flags = append(flags, string(f))
	}
	d := r.Dimensions
	err := s.db.QueryRow(ctx,
		`INSERT INTO score_records (statement_id, statement_version, version, weights_version, truth_lie, intent,
		     bad_faith, context, evidence_quality, legal_weight, composite, truth_low, truth_high, confidence,
		     low_confidence, assumption_based, flags, bad_faith_breakdown, indicator_count, input_hash)
		 SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		     $14, $15, $16, $17, $18, $19
		 FROM score_records WHERE statement_id = $1
		 RETURNING id, version, created_at`,
		r.StatementID, r.StatementVersion, r.WeightsVersion, d.TruthLie, d.Intent, d.BadFaith, d.Context,
		d.EvidenceQuality, d.LegalWeight, r.Composite, r.TruthInterval.Low, r.TruthInterval.High, r.Confidence,
		r.LowConfidence, r.AssumptionBased, flags, r.BadFaith, r.IndicatorCount, r.InputHash,
	).Scan(&r.ID, &r.Version, &r.CreatedAt)
	return mapWriteErr(err)
}

func (s *ScoreStore) Latest(ctx context.Context, statementID uuid.UUID) (*domain.ScoreRecord, error) {
	r, err := scanScore(s.db.QueryRow(ctx,
		`SELECT `+scoreColumns+` FROM score_records WHERE statement_id = $1 ORDER BY version DESC LIMIT 1`,
		statementID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *ScoreStore) ListLatest(ctx context.Context) ([]domain.ScoreRecord, error) {
	return s.list(ctx,
		`SELECT DISTINCT ON (statement_id) `+scoreColumns+` FROM score_records ORDER BY statement_id, version DESC`)
}

func (s *ScoreStore) History(ctx context.Context, statementID uuid.UUID) ([]domain.ScoreRecord, error) {
	return s.list(ctx,
		`SELECT `+scoreColumns+` FROM score_records WHERE statement_id = $1 ORDER BY version`, statementID)
}

func (s *ScoreStore) list(ctx context.Context, query string, args ...any) ([]domain.ScoreRecord, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ScoreRecord
	for rows.Next() {
		r, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
