package logic

import (
	"testing"

	"github.com/cardkick/league-engine/internal/models"
)

func colorList(counts map[models.Color]int) []models.Color {
	var colors []models.Color
	for color, n := range counts {
		for i := 0; i < n; i++ {
			colors = append(colors, color)
		}
	}
	return colors
}

func TestEvaluateChemistry(t *testing.T) {
	tests := []struct {
		name      string
		counts    map[models.Color]int
		wantValid bool
		wantBonus int
	}{
		{
			name:      "BalancedEleven",
			counts:    map[models.Color]int{models.ColorRed: 4, models.ColorBlue: 4, models.ColorGreen: 3},
			wantValid: true,
			wantBonus: 4*4 + 4*4 + 3*3,
		},
		{
			name:      "MaxSkew",
			counts:    map[models.Color]int{models.ColorRed: 7, models.ColorBlue: 2, models.ColorGreen: 2},
			wantValid: true,
			wantBonus: 49 + 4 + 4,
		},
		{
			name:      "PartialRosterPreview",
			counts:    map[models.Color]int{models.ColorRed: 2, models.ColorBlue: 2, models.ColorGold: 2},
			wantValid: true,
			wantBonus: 12,
		},
		{
			name:      "TwoColors",
			counts:    map[models.Color]int{models.ColorRed: 6, models.ColorBlue: 5},
			wantValid: false,
		},
		{
			name:      "FourColors",
			counts:    map[models.Color]int{models.ColorRed: 3, models.ColorBlue: 3, models.ColorGreen: 3, models.ColorGold: 2},
			wantValid: false,
		},
		{
			name:      "SingletonColor",
			counts:    map[models.Color]int{models.ColorRed: 6, models.ColorBlue: 4, models.ColorGreen: 1},
			wantValid: false,
		},
		{
			name:      "CountAboveRange",
			counts:    map[models.Color]int{models.ColorRed: 8, models.ColorBlue: 2, models.ColorGreen: 2},
			wantValid: false,
		},
		{
			name:      "Empty",
			counts:    map[models.Color]int{},
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateChemistry(colorList(tt.counts))
			if got.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v (reason %q)", got.Valid, tt.wantValid, got.Reason)
			}
			if !tt.wantValid {
				if got.TotalBonus != 0 {
					t.Errorf("invalid roster bonus = %d, want 0", got.TotalBonus)
				}
				if got.Reason == "" {
					t.Error("invalid roster must carry a reason")
				}
				return
			}
			if got.TotalBonus != tt.wantBonus {
				t.Errorf("TotalBonus = %d, want %d", got.TotalBonus, tt.wantBonus)
			}
			sum := 0
			for _, b := range got.PerColor {
				sum += b
			}
			if sum != got.TotalBonus {
				t.Errorf("per-color bonuses sum to %d, total is %d", sum, got.TotalBonus)
			}
		})
	}
}

// Exhaustive sweep over every 3-color split of 11 players.
func TestEvaluateChemistryElevenPlayerSplits(t *testing.T) {
	for a := 2; a <= 7; a++ {
		for b := 2; b <= 7; b++ {
			c := 11 - a - b
			if c < 2 || c > 7 {
				continue
			}
			got := EvaluateChemistry(colorList(map[models.Color]int{
				models.ColorRed:   a,
				models.ColorBlue:  b,
				models.ColorGreen: c,
			}))
			if !got.Valid {
				t.Fatalf("split %d/%d/%d unexpectedly invalid: %s", a, b, c, got.Reason)
			}
			if want := a*a + b*b + c*c; got.TotalBonus != want {
				t.Errorf("split %d/%d/%d bonus = %d, want %d", a, b, c, got.TotalBonus, want)
			}
		}
	}
}
