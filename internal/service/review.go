package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dondada876/ASEAGI-sub007/internal/domain"
	"github.com/dondada876/ASEAGI-sub007/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrRelationshipNotFound = errors.New("relationship not found")

// Refresher recomputes downstream results for statements whose effective
// relationships changed.
type Refresher interface {
	Refresh(ctx context.Context, statementIDs []uuid.UUID) (*domain.BatchReport, error)
}

// ReviewService records human review decisions on relationships.
type ReviewService struct {
	relationships domain.RelationshipStore
	refresher     Refresher
	logger        *zap.Logger
}

func NewReviewService(relationships domain.RelationshipStore, refresher Refresher, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		relationships: relationships,
		refresher:     refresher,
		logger:        logger,
	}
}

// Override stores a review decision and refreshes the classifications that
// depend on the relationship.
func (s *ReviewService) Override(ctx context.Context, o *domain.RelationshipOverride) error {
	if err := o.Validate(); err != nil {
		return err
	}
	rel, err := s.relationships.Get(ctx, o.RelationshipID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRelationshipNotFound
		}
		return fmt.Errorf("get relationship: %w", err)
	}
	if err := s.relationships.CreateOverride(ctx, o); err != nil {
		return fmt.Errorf("create override: %w", err)
	}

	s.logger.Info("relationship override recorded",
		zap.String("relationship_id", rel.ID.String()),
		zap.String("reviewer", o.Reviewer),
		zap.Bool("suppressed", o.Suppressed))

	var statements []uuid.UUID
	for _, ref := range []domain.EntityRef{rel.Source, rel.Target} {
		if ref.Type == domain.EntityStatement {
			statements = append(statements, ref.ID)
		}
	}
	if len(statements) == 0 || s.refresher == nil {
		return nil
	}
	if _, err := s.refresher.Refresh(ctx, statements); err != nil {
		return fmt.Errorf("refresh after override: %w", err)
	}
	return nil
}

// Overrides returns the review decisions for one relationship, oldest first.
func (s *ReviewService) Overrides(ctx context.Context, relationshipID uuid.UUID) ([]domain.RelationshipOverride, error) {
	all, err := s.relationships.ListOverrides(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.RelationshipOverride
	for _, o := range all {
		if o.RelationshipID == relationshipID {
			out = append(out, o)
		}
	}
	return out, nil
}
