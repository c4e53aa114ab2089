package logic

import (
	"go.uber.org/zap"

	"github.com/cardkick/league-engine/internal/models"
)

// TeamStrength combines raw roster points with the chemistry bonus.
type TeamStrength struct {
	PlayerPoints    int `json:"player_points"`
	ChemistryPoints int `json:"chemistry_points"`
	Total           int `json:"total"`
}

type strengthService struct {
	logger *zap.SugaredLogger
}

func NewStrengthService(logger *zap.Logger) StrengthService {
	return &strengthService{logger: logger.Sugar()}
}

// ComputeTeamStrength sums the roster's point values and adds the chemistry
// bonus. Incomplete rosters are padded with zero-strength fillers so every
// team enters simulation with a full lineup. An invalid chemistry
// distribution degrades to a zero bonus and is never propagated as an error.
func (s *strengthService) ComputeTeamStrength(team *models.Team) TeamStrength {
	roster := CompleteRoster(team.Players)

	playerPoints := 0
	for _, p := range roster {
		playerPoints += p.Points
	}

	colors := make([]models.Color, 0, len(roster))
	for _, p := range roster {
		colors = append(colors, p.Color)
	}

	chemistryPoints := 0
	chem := EvaluateChemistry(colors)
	if chem.Valid {
		chemistryPoints = chem.TotalBonus
	} else {
		s.logger.Warnw("Chemistry invalid, scoring zero bonus",
			"team", team.ID,
			"reason", chem.Reason,
		)
	}

	return TeamStrength{
		PlayerPoints:    playerPoints,
		ChemistryPoints: chemistryPoints,
		Total:           playerPoints + chemistryPoints,
	}
}

// CompleteRoster pads a partial lineup with filler players up to the full
// roster size. Rosters already at (or above) size are returned as-is.
func CompleteRoster(players []models.Player) []models.Player {
	if len(players) >= models.RosterSize {
		return players
	}
	roster := make([]models.Player, 0, models.RosterSize)
	roster = append(roster, players...)
	for len(roster) < models.RosterSize {
		roster = append(roster, models.FillerPlayer())
	}
	return roster
}
