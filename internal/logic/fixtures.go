package logic

import (
	"errors"

	"github.com/cardkick/league-engine/internal/models"
)

// ErrInvalidCohortSize is returned when fixture generation is asked for a
// cohort that is not exactly 4 teams. The size is a hard domain constant.
var ErrInvalidCohortSize = errors.New("cohort must have exactly 4 teams")

// Pairing is one fixture of the round robin: an unordered pair of teams
// with a sequential match number. The lower-indexed team plays at home.
type Pairing struct {
	MatchNumber int         `json:"match_number"`
	Home        models.Team `json:"home"`
	Away        models.Team `json:"away"`
}

// GenerateFixtures produces all C(4,2) = 6 unique pairings for a 4-team
// cohort, numbered 1 through 6. Every unordered pair appears exactly once.
func GenerateFixtures(teams []models.Team) ([]Pairing, error) {
	if len(teams) != models.CohortSize {
		return nil, ErrInvalidCohortSize
	}

	pairings := make([]Pairing, 0, 6)
	number := 1
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			pairings = append(pairings, Pairing{
				MatchNumber: number,
				Home:        teams[i],
				Away:        teams[j],
			})
			number++
		}
	}
	return pairings, nil
}
