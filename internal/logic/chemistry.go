package logic

import (
	"github.com/cardkick/league-engine/internal/models"
)

const (
	chemistryColors   = 3
	chemistryMinCount = 2
	chemistryMaxCount = 7
)

// ChemistryResult reports a roster's color-distribution evaluation.
// An invalid roster carries a zero bonus and a human-readable reason.
type ChemistryResult struct {
	Valid      bool                 `json:"valid"`
	TotalBonus int                  `json:"total_bonus"`
	PerColor   map[models.Color]int `json:"per_color,omitempty"`
	Reason     string               `json:"reason,omitempty"`
}

// EvaluateChemistry scores a roster's color distribution. A roster is
// chemistry-valid iff it spans exactly 3 distinct colors and every one of
// them appears at least twice. Each valid color contributes count squared.
// Counts above 7 are out of range and fail validation. Partial rosters are
// accepted for preview purposes. Pure function, no side effects.
func EvaluateChemistry(colors []models.Color) ChemistryResult {
	counts := make(map[models.Color]int, chemistryColors)
	for _, c := range colors {
		counts[c]++
	}

	if len(counts) != chemistryColors {
		return ChemistryResult{Reason: "must have exactly 3 distinct colors"}
	}

	perColor := make(map[models.Color]int, chemistryColors)
	total := 0
	for color, count := range counts {
		if count < chemistryMinCount {
			return ChemistryResult{Reason: "every color must appear in at least 2 players"}
		}
		if count > chemistryMaxCount {
			return ChemistryResult{Reason: "color count out of range"}
		}
		bonus := count * count
		perColor[color] = bonus
		total += bonus
	}

	return ChemistryResult{Valid: true, TotalBonus: total, PerColor: perColor}
}
