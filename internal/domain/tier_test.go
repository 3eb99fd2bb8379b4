package domain

import "testing"

func TestComputeTier(t *testing.T) {
	tests := []struct {
		name  string
		truth int
		low   bool
		want  CredibilityTier
	}{
		{"verified true - 1000", 1000, false, TierVerifiedTrue},
		{"verified true boundary - 700", 700, false, TierVerifiedTrue},
		{"low confidence caps at likely true", 900, true, TierLikelyTrue},
		{"likely true - 699", 699, false, TierLikelyTrue},
		{"likely true boundary - 551", 551, false, TierLikelyTrue},
		{"indeterminate - 550", 550, false, TierIndeterminate},
		{"indeterminate - neutral", 500, true, TierIndeterminate},
		{"indeterminate boundary - 450", 450, false, TierIndeterminate},
		{"likely false - 449", 449, false, TierLikelyFalse},
		{"likely false boundary - 301", 301, false, TierLikelyFalse},
		{"verified false - 300", 300, false, TierVerifiedFalse},
		{"verified false - 0", 0, false, TierVerifiedFalse},
		{"low confidence caps at likely false", 100, true, TierLikelyFalse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTier(tt.truth, tt.low)
			if got != tt.want {
				t.Errorf("ComputeTier(%v, %v) = %v, want %v", tt.truth, tt.low, got, tt.want)
			}
		})
	}
}

func TestTierBoundariesAreContiguous(t *testing.T) {
	prev := ComputeTier(MinScore, false)
	changes := 0
	for score := MinScore + 1; score <= MaxScore; score++ {
		tier := ComputeTier(score, false)
		if tier != prev {
			changes++
			switch score {
			case LikelyFalseFloor, IndeterminateFloor, LikelyTrueFloor, VerifiedTrueFloor:
			default:
				t.Errorf("tier changed from %v to %v at %d, not at a declared boundary", prev, tier, score)
			}
		}
		prev = tier
	}
	if changes != 4 {
		t.Errorf("got %d tier changes, want 4", changes)
	}
	if ComputeTier(VerifiedFalseCeiling, false) != TierVerifiedFalse {
		t.Errorf("VerifiedFalseCeiling is not verified false")
	}
}

func TestTierReason(t *testing.T) {
	for _, truth := range []int{0, 250, 400, 500, 600, 800, 1000} {
		if TierReason(truth, false) == "" {
			t.Errorf("TierReason(%v) returned empty string", truth)
		}
	}
	if got := TierReason(900, true); got != "truth >= 700 but low confidence" {
		t.Errorf("TierReason(900, true) = %q", got)
	}
}
