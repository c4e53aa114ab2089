package logic

import (
	"testing"

	"go.uber.org/zap"

	"github.com/cardkick/league-engine/internal/models"
)

func rosterWithColors(points []int, colors []models.Color) []models.Player {
	players := make([]models.Player, len(points))
	for i := range points {
		players[i] = models.Player{Points: points[i], Color: colors[i%len(colors)]}
	}
	return players
}

func TestComputeTeamStrength(t *testing.T) {
	svc := NewStrengthService(zap.NewNop())

	t.Run("ValidChemistry", func(t *testing.T) {
		// 4 red, 4 blue, 3 green: chemistry 16+16+9 = 41.
		players := make([]models.Player, 0, 11)
		for i := 0; i < 4; i++ {
			players = append(players, models.Player{Points: 80, Color: models.ColorRed})
		}
		for i := 0; i < 4; i++ {
			players = append(players, models.Player{Points: 70, Color: models.ColorBlue})
		}
		for i := 0; i < 3; i++ {
			players = append(players, models.Player{Points: 60, Color: models.ColorGreen})
		}
		got := svc.ComputeTeamStrength(&models.Team{Players: players})

		wantPlayer := 4*80 + 4*70 + 3*60
		if got.PlayerPoints != wantPlayer {
			t.Errorf("PlayerPoints = %d, want %d", got.PlayerPoints, wantPlayer)
		}
		if got.ChemistryPoints != 41 {
			t.Errorf("ChemistryPoints = %d, want 41", got.ChemistryPoints)
		}
		if got.Total != wantPlayer+41 {
			t.Errorf("Total = %d, want %d", got.Total, wantPlayer+41)
		}
	})

	t.Run("InvalidChemistryDegradesToZero", func(t *testing.T) {
		players := rosterWithColors(
			[]int{90, 90, 90, 90, 90, 90, 90, 90, 90, 90, 90},
			[]models.Color{models.ColorRed, models.ColorBlue}, // only 2 colors
		)
		got := svc.ComputeTeamStrength(&models.Team{Players: players})
		if got.ChemistryPoints != 0 {
			t.Errorf("ChemistryPoints = %d, want 0 for invalid chemistry", got.ChemistryPoints)
		}
		if got.Total != got.PlayerPoints {
			t.Errorf("Total = %d, want PlayerPoints %d", got.Total, got.PlayerPoints)
		}
	})

	t.Run("PartialRosterPaddedWithFillers", func(t *testing.T) {
		players := []models.Player{
			{Points: 50, Color: models.ColorRed},
			{Points: 40, Color: models.ColorRed},
		}
		got := svc.ComputeTeamStrength(&models.Team{Players: players})
		if got.PlayerPoints != 90 {
			t.Errorf("PlayerPoints = %d, want 90 (fillers score zero)", got.PlayerPoints)
		}
		// Fillers carry no color, so the padded roster cannot be valid.
		if got.ChemistryPoints != 0 {
			t.Errorf("ChemistryPoints = %d, want 0 for padded roster", got.ChemistryPoints)
		}
	})
}

func TestCompleteRoster(t *testing.T) {
	padded := CompleteRoster([]models.Player{{Points: 10}})
	if len(padded) != models.RosterSize {
		t.Fatalf("padded roster has %d slots, want %d", len(padded), models.RosterSize)
	}
	for i := 1; i < len(padded); i++ {
		if padded[i].Points != 0 {
			t.Errorf("filler slot %d has %d points, want 0", i, padded[i].Points)
		}
	}

	full := make([]models.Player, models.RosterSize)
	if got := CompleteRoster(full); len(got) != models.RosterSize {
		t.Errorf("full roster resized to %d slots", len(got))
	}
}
