package logic

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sort"

	"github.com/cardkick/league-engine/internal/models"
)

// Simulation tuning. Each side runs scoringChances independent trials; the
// per-chance probability is the base plus an asymmetric modifier for being
// above or below the average of the two strengths, floored so no side is
// ever locked out entirely.
const (
	scoringChances  = 100
	baseChanceProb  = 0.04
	aboveAvgBoost   = 0.30
	belowAvgPenalty = 0.20
	minChanceProb   = 0.001
	matchMinutes    = 90
)

// League points per standard football scoring.
const (
	PointsWin  = 3
	PointsDraw = 1
	PointsLoss = 0
)

// SimulationResult is a stochastic scoreline with its cosmetic event
// timeline and the league points each side earned.
type SimulationResult struct {
	HomeGoals  int                `json:"home_goals"`
	AwayGoals  int                `json:"away_goals"`
	HomePoints int                `json:"home_points"`
	AwayPoints int                `json:"away_points"`
	Events     []models.GoalEvent `json:"events"`
}

// Simulator turns two team strengths into a scoreline. The random source
// is injected so tests can run seeded and deterministic.
type Simulator struct {
	rng *rand.Rand
}

func NewSimulator(rng *rand.Rand) *Simulator {
	return &Simulator{rng: rng}
}

// NewEntropySimulator returns a Simulator seeded from crypto-grade entropy,
// the production default.
func NewEntropySimulator() *Simulator {
	var seed [8]byte
	if _, err := crand.Read(seed[:]); err != nil {
		// Degenerate fallback, still a usable source.
		return NewSimulator(rand.New(rand.NewSource(1)))
	}
	return NewSimulator(rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(seed[:])))))
}

// Simulate runs the full chance model for a fixture and produces the
// scoreline, timeline and league points. It always terminates; rejecting
// already-played matches is the caller's job.
func (s *Simulator) Simulate(match *models.Match, home, away *models.Team, homeStrength, awayStrength TeamStrength) *SimulationResult {
	homeProb := s.ChanceProbability(homeStrength.Total, awayStrength.Total)
	awayProb := s.ChanceProbability(awayStrength.Total, homeStrength.Total)

	result := &SimulationResult{
		HomeGoals: s.runChances(homeProb),
		AwayGoals: s.runChances(awayProb),
	}
	result.HomePoints, result.AwayPoints = leaguePoints(result.HomeGoals, result.AwayGoals)
	result.Events = s.buildTimeline(match, home, away, result.HomeGoals, result.AwayGoals)

	return result
}

// ChanceProbability computes one side's per-chance scoring probability from
// its own and the opponent's total strength. A side above the average of
// the two strengths gains proportionally to its excess, a side below loses
// proportionally to its deficit, with asymmetric coefficients. Equal (or
// both zero) strengths leave the base probability untouched.
func (s *Simulator) ChanceProbability(own, opponent int) float64 {
	total := float64(own + opponent)
	share := 0.5
	if total > 0 {
		share = float64(own) / total
	}

	prob := baseChanceProb
	switch {
	case share > 0.5:
		prob += aboveAvgBoost * (share - 0.5)
	case share < 0.5:
		prob -= belowAvgPenalty * (0.5 - share)
	}
	if prob < minChanceProb {
		prob = minChanceProb
	}
	return prob
}

// runChances counts successes over the fixed number of Bernoulli trials.
func (s *Simulator) runChances(prob float64) int {
	goals := 0
	for i := 0; i < scoringChances; i++ {
		if s.rng.Float64() < prob {
			goals++
		}
	}
	return goals
}

// buildTimeline draws one random minute per goal, sorts them ascending and
// hands each to a scoring side and a random player of that side's roster.
// The assignment is consistent with the final tally per side, not with any
// causal order.
func (s *Simulator) buildTimeline(match *models.Match, home, away *models.Team, homeGoals, awayGoals int) []models.GoalEvent {
	total := homeGoals + awayGoals
	if total == 0 {
		return nil
	}

	minutes := make([]int, total)
	for i := range minutes {
		minutes[i] = s.rng.Intn(matchMinutes) + 1
	}
	sort.Ints(minutes)

	sides := make([]models.Side, 0, total)
	for i := 0; i < homeGoals; i++ {
		sides = append(sides, models.SideHome)
	}
	for i := 0; i < awayGoals; i++ {
		sides = append(sides, models.SideAway)
	}
	s.rng.Shuffle(len(sides), func(i, j int) {
		sides[i], sides[j] = sides[j], sides[i]
	})

	events := make([]models.GoalEvent, 0, total)
	for i, minute := range minutes {
		team := home
		if sides[i] == models.SideAway {
			team = away
		}
		scorer := s.randomScorer(team)
		events = append(events, models.GoalEvent{
			MatchID:    match.ID,
			CohortID:   match.CohortID,
			Matchday:   match.Matchday,
			Minute:     minute,
			Side:       sides[i],
			TeamID:     team.ID,
			PlayerID:   scorer.ID,
			PlayerName: scorer.Name,
		})
	}
	return events
}

func (s *Simulator) randomScorer(team *models.Team) models.Player {
	roster := CompleteRoster(team.Players)
	return roster[s.rng.Intn(len(roster))]
}

func leaguePoints(homeGoals, awayGoals int) (home, away int) {
	switch {
	case homeGoals > awayGoals:
		return PointsWin, PointsLoss
	case homeGoals < awayGoals:
		return PointsLoss, PointsWin
	default:
		return PointsDraw, PointsDraw
	}
}
