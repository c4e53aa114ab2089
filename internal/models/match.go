package models

import (
	"time"

	"github.com/google/uuid"
)

// Side identifies which half of a pairing scored.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Match is one fixture of a cohort's round-robin matchday.
// Lifecycle: created unplayed, simulated exactly once, then played=true
// permanently.
type Match struct {
	ID          uuid.UUID  `json:"id"`
	CohortID    uuid.UUID  `json:"cohort_id"`
	Matchday    int        `json:"matchday"`
	MatchNumber int        `json:"match_number"`
	HomeTeamID  uuid.UUID  `json:"home_team_id"`
	AwayTeamID  uuid.UUID  `json:"away_team_id"`
	Played      bool       `json:"played"`
	HomeGoals   int        `json:"home_goals"`
	AwayGoals   int        `json:"away_goals"`
	CreatedAt   time.Time  `json:"created_at"`
	PlayedAt    *time.Time `json:"played_at,omitempty"`
}

// GoalEvent is one entry of a simulated match's event timeline.
type GoalEvent struct {
	MatchID    uuid.UUID `json:"match_id"`
	CohortID   uuid.UUID `json:"cohort_id"`
	Matchday   int       `json:"matchday"`
	Minute     int       `json:"minute"`
	Side       Side      `json:"side"`
	TeamID     uuid.UUID `json:"team_id"`
	PlayerID   uuid.UUID `json:"player_id"`
	PlayerName string    `json:"player_name"`
}

// TableEntry is the per (cohort, competitor, matchday) league aggregate.
// Created lazily with zeroes when a matchday is executed, then incremented
// as results come in.
type TableEntry struct {
	CohortID     uuid.UUID `json:"cohort_id"`
	CompetitorID uuid.UUID `json:"competitor_id"`
	Matchday     int       `json:"matchday"`
	Points       int       `json:"points"`
	GoalsFor     int       `json:"goals_for"`
	GoalsAgainst int       `json:"goals_against"`
	Wins         int       `json:"wins"`
	Draws        int       `json:"draws"`
	Losses       int       `json:"losses"`
}
