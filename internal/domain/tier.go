package domain

import "fmt"

type CredibilityTier string

const (
	TierVerifiedTrue  CredibilityTier = "verified_true"
	TierLikelyTrue    CredibilityTier = "likely_true"
	TierIndeterminate CredibilityTier = "indeterminate"
	TierLikelyFalse   CredibilityTier = "likely_false"
	TierVerifiedFalse CredibilityTier = "verified_false"
)

// Tier boundaries on the truth/lie scale. Party profiles count verified
// statements with the same boundaries.
const (
	VerifiedTrueFloor    = 700
	LikelyTrueFloor      = 551
	IndeterminateFloor   = 450
	LikelyFalseFloor     = 301
	VerifiedFalseCeiling = LikelyFalseFloor - 1
)

// ComputeTier buckets a truth/lie score. Low-confidence records never reach
// the verified tiers.
func ComputeTier(truth int, lowConfidence bool) CredibilityTier {
	switch {
	case truth >= VerifiedTrueFloor:
		if lowConfidence {
			return TierLikelyTrue
		}
		return TierVerifiedTrue
	case truth >= LikelyTrueFloor:
		return TierLikelyTrue
	case truth >= IndeterminateFloor:
		return TierIndeterminate
	case truth >= LikelyFalseFloor:
		return TierLikelyFalse
	default:
		if lowConfidence {
			return TierLikelyFalse
		}
		return TierVerifiedFalse
	}
}

// Tier buckets the record's truth/lie score.
func (r *ScoreRecord) Tier() CredibilityTier {
	return ComputeTier(r.Dimensions.TruthLie, r.LowConfidence)
}

func TierReason(truth int, lowConfidence bool) string {
	switch ComputeTier(truth, lowConfidence) {
	case TierVerifiedTrue:
		return fmt.Sprintf("truth >= %d with adequate evidence", VerifiedTrueFloor)
	case TierLikelyTrue:
		if truth >= VerifiedTrueFloor {
			return fmt.Sprintf("truth >= %d but low confidence", VerifiedTrueFloor)
		}
		return fmt.Sprintf("%d <= truth < %d", LikelyTrueFloor, VerifiedTrueFloor)
	case TierIndeterminate:
		return fmt.Sprintf("%d <= truth < %d", IndeterminateFloor, LikelyTrueFloor)
	case TierLikelyFalse:
		if truth <= VerifiedFalseCeiling {
			return fmt.Sprintf("truth <= %d but low confidence", VerifiedFalseCeiling)
		}
		return fmt.Sprintf("%d <= truth < %d", LikelyFalseFloor, IndeterminateFloor)
	default:
		return fmt.Sprintf("truth <= %d with adequate evidence", VerifiedFalseCeiling)
	}
}
