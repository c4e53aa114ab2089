package logic

import (
	"context"

	"github.com/google/uuid"

	"github.com/cardkick/league-engine/internal/models"
)

// TeamStore loads the lineups the simulator runs against.
type TeamStore interface {
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
}

// ResultStore applies a finished simulation: scoreline, played flag and
// league-table increments as one atomic unit.
type ResultStore interface {
	ApplyResult(ctx context.Context, match *models.Match, result *SimulationResult) error
}

// EventSink receives the goal timeline of simulated matches for the
// stats/history surface.
type EventSink interface {
	Enqueue(event models.GoalEvent) bool
}

// StrengthService turns a lineup into its combined strength value.
type StrengthService interface {
	ComputeTeamStrength(team *models.Team) TeamStrength
}

// MatchService drives a single fixture through its one-shot simulation.
type MatchService interface {
	PlayMatch(ctx context.Context, match *models.Match) (*SimulationResult, error)
}
