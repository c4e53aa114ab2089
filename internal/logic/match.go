package logic

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cardkick/league-engine/internal/models"
)

// ErrMatchAlreadyPlayed guards the simulate-exactly-once lifecycle: a match
// carries its result permanently after the first simulation.
var ErrMatchAlreadyPlayed = errors.New("match has already been played")

type matchService struct {
	teams    TeamStore
	results  ResultStore
	sink     EventSink
	strength StrengthService
	sim      *Simulator
	logger   *zap.SugaredLogger
}

func NewMatchService(teams TeamStore, results ResultStore, sink EventSink, strength StrengthService, sim *Simulator, logger *zap.Logger) MatchService {
	return &matchService{
		teams:    teams,
		results:  results,
		sink:     sink,
		strength: strength,
		sim:      sim,
		logger:   logger.Sugar(),
	}
}

// PlayMatch loads both lineups, simulates the fixture and applies the
// result. The played flag is checked up front and enforced again by the
// store's conditional update, so a concurrent second attempt observes
// "already done" instead of a double result.
func (s *matchService) PlayMatch(ctx context.Context, match *models.Match) (*SimulationResult, error) {
	if match.Played {
		return nil, ErrMatchAlreadyPlayed
	}

	var home, away *models.Team
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.teams.GetTeam(gctx, match.HomeTeamID)
		if err != nil {
			return fmt.Errorf("home team: %w", err)
		}
		home = t
		return nil
	})
	g.Go(func() error {
		t, err := s.teams.GetTeam(gctx, match.AwayTeamID)
		if err != nil {
			return fmt.Errorf("away team: %w", err)
		}
		away = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	homeStrength := s.strength.ComputeTeamStrength(home)
	awayStrength := s.strength.ComputeTeamStrength(away)

	result := s.sim.Simulate(match, home, away, homeStrength, awayStrength)

	if err := s.results.ApplyResult(ctx, match, result); err != nil {
		return nil, fmt.Errorf("apply result: %w", err)
	}

	for _, event := range result.Events {
		if !s.sink.Enqueue(event) {
			s.logger.Warnw("Goal event dropped by sink",
				"match", match.ID,
				"minute", event.Minute,
			)
		}
	}

	s.logger.Infow("Match simulated",
		"match", match.ID,
		"matchday", match.Matchday,
		"homeGoals", result.HomeGoals,
		"awayGoals", result.AwayGoals,
		"homeStrength", homeStrength.Total,
		"awayStrength", awayStrength.Total,
	)

	return result, nil
}
