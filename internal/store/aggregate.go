package store

import (
	"context"
	"errors"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AggregateStore struct {
	db *pgxpool.Pool
}

func NewAggregateStore(db *pgxpool.Pool) *AggregateStore {
	return &AggregateStore{db: db}
}

const aggregateColumns = `id, scope, scope_id, version, weights_version, evidence_strength, legal_impact,
	strategic_value, intent_conduct, composite, components, omitted_components, statement_count, input_hash,
	created_at`

func scanAggregate(row pgx.Row) (*domain.AggregateScore, error) {
	a := &domain.AggregateScore{}
	d := &a.Dimensions
	err := row.Scan(&a.ID, &a.Scope, &a.ScopeID, &a.Version, &a.WeightsVersion, &d.EvidenceStrength,
		&d.LegalImpact, &d.StrategicValue, &d.IntentConduct, &a.Composite, &a.Components,
		&a.OmittedComponents, &a.StatementCount, &a.InputHash, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(a.Components) == 0 {
		a.Components = nil
	}
	if len(a.OmittedComponents) == 0 {
		a.OmittedComponents = nil
	}
	return a, nil
}

func (s *AggregateStore) Append(ctx context.Context, a *domain.AggregateScore) error {
	components := a.Components
	if components == nil {
		components = map[string]int{}
	}
	d := a.Dimensions
	err := s.db.QueryRow(ctx,
		`INSERT INTO aggregate_scores (scope, scope_id, version, weights_version, evidence_strength, legal_impact,
		     strategic_value, intent_conduct, composite, components, omitted_components, statement_count, input_hash)
		 SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		 FROM aggregate_scores WHERE scope = $1 AND scope_id = $2
		 RETURNING id, version, created_at`,
		a.Scope, a.ScopeID, a.WeightsVersion, d.EvidenceStrength, d.LegalImpact, d.StrategicValue,
		d.IntentConduct, a.Composite, components, orEmpty(a.OmittedComponents), a.StatementCount, a.InputHash,
	).Scan(&a.ID, &a.Version, &a.CreatedAt)
	return mapWriteErr(err)
}

func (s *AggregateStore) Latest(ctx context.Context, scope domain.ScopeType, scopeID string) (*domain.AggregateScore, error) {
	a, err := scanAggregate(s.db.QueryRow(ctx,
		`SELECT `+aggregateColumns+` FROM aggregate_scores
		 WHERE scope = $1 AND scope_id = $2 ORDER BY version DESC LIMIT 1`,
		scope, scopeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *AggregateStore) ListLatest(ctx context.Context) ([]domain.AggregateScore, error) {
	return s.list(ctx,
		`SELECT DISTINCT ON (scope, scope_id) `+aggregateColumns+` FROM aggregate_scores
		 ORDER BY scope, scope_id, version DESC`)
}

func (s *AggregateStore) History(ctx context.Context, scope domain.ScopeType, scopeID string) ([]domain.AggregateScore, error) {
	return s.list(ctx,
		`SELECT `+aggregateColumns+` FROM aggregate_scores WHERE scope = $1 AND scope_id = $2 ORDER BY version`,
		scope, scopeID)
}

func (s *AggregateStore) list(ctx context.Context, query string, args ...any) ([]domain.AggregateScore, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AggregateScore
	for rows.Next() {
		a, err := scanAggregate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
