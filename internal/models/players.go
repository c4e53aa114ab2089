package models

import (
	"github.com/google/uuid"
)

// RosterSize is the number of formation slots every team fields.
const RosterSize = 11

// CohortSize is the fixed number of competitors sharing a league instance.
const CohortSize = 4

// Card colors drive the chemistry bonus.
type Color string

const (
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorGold   Color = "gold"
	ColorSilver Color = "silver"
)

// Player is a collectible card. Immutable once created except for
// draw-weight rebalancing.
type Player struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Points   int       `json:"points"`
	Position string    `json:"position"`
	Color    Color     `json:"color"`
	Weight   float64   `json:"weight"` // pack draw weight, percent
}

// FillerPlayer returns the zero-strength placeholder used to pad an
// incomplete roster up to RosterSize before simulation.
func FillerPlayer() Player {
	return Player{Name: "Filler", Points: 0}
}

// Team is a competitor's lineup: an ordered list of RosterSize player
// references, one per formation slot.
type Team struct {
	ID           uuid.UUID `json:"id"`
	CohortID     uuid.UUID `json:"cohort_id"`
	CompetitorID uuid.UUID `json:"competitor_id"`
	Name         string    `json:"name"`
	Formation    string    `json:"formation"`
	Players      []Player  `json:"players"`
}

// Colors returns the color tag of every rostered player, in slot order.
func (t Team) Colors() []Color {
	colors := make([]Color, 0, len(t.Players))
	for _, p := range t.Players {
		colors = append(colors, p.Color)
	}
	return colors
}

// Competitor is a cohort member.
type Competitor struct {
	ID       uuid.UUID `json:"id"`
	CohortID uuid.UUID `json:"cohort_id"`
	Name     string    `json:"name"`
	Coins    int64     `json:"coins"`
	Active   bool      `json:"active"`
}
