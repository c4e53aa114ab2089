// Package store is the persistence adapter the engine's components read
// from and write to. Every read-check-write sequence the domain requires
// (matchday execution, match results, pack draws) runs inside a single
// transaction with a conditional update, so concurrent attempts collapse
// into one winner and graceful no-ops.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cardkick/league-engine/internal/logic"
	"github.com/cardkick/league-engine/internal/models"
)

var (
	// ErrAlreadyExecuted reports a lost compare-and-set on a scheduled
	// matchday: another run flipped the executed flag first.
	ErrAlreadyExecuted = errors.New("scheduled matchday already executed")

	// ErrInsufficientCoins rejects a pack draw the competitor cannot pay.
	ErrInsufficientCoins = errors.New("not enough coins")

	// ErrNotFound reports a missing record.
	ErrNotFound = errors.New("record not found")
)

type Store struct {
	pg     *pgxpool.Pool
	cache  *TableCache
	logger *zap.SugaredLogger
}

func New(pg *pgxpool.Pool, cache *TableCache, logger *zap.Logger) *Store {
	return &Store{pg: pg, cache: cache, logger: logger.Sugar()}
}

// GetTeam loads a lineup with its players in slot order.
func (s *Store) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	team := &models.Team{}
	err := s.pg.QueryRow(ctx, `
		SELECT id, cohort_id, competitor_id, name, formation
		FROM teams
		WHERE id = $1
	`, id).Scan(&team.ID, &team.CohortID, &team.CompetitorID, &team.Name, &team.Formation)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("team %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.pg.Query(ctx, `
		SELECT p.id, p.name, p.points, p.position, p.color, p.weight
		FROM team_players tp
		JOIN players p ON p.id = tp.player_id
		WHERE tp.team_id = $1
		ORDER BY tp.slot
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.Points, &p.Position, &p.Color, &p.Weight); err != nil {
			return nil, err
		}
		team.Players = append(team.Players, p)
	}
	return team, rows.Err()
}

// ApplyResult writes a simulated scoreline and the league-table increments
// for both sides in one transaction. The played flag is flipped with a
// conditional update; a second attempt observes the conflict and fails
// with logic.ErrMatchAlreadyPlayed without touching the table.
func (s *Store) ApplyResult(ctx context.Context, match *models.Match, result *logic.SimulationResult) error {
	tx, err := s.pg.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	playedAt := time.Now().UTC()
	tag, err := tx.Exec(ctx, `
		UPDATE matches
		SET played = true, home_goals = $2, away_goals = $3, played_at = $4
		WHERE id = $1 AND played = false
	`, match.ID, result.HomeGoals, result.AwayGoals, playedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return logic.ErrMatchAlreadyPlayed
	}

	sides := []struct {
		teamID       uuid.UUID
		goalsFor     int
		goalsAgainst int
		points       int
	}{
		{match.HomeTeamID, result.HomeGoals, result.AwayGoals, result.HomePoints},
		{match.AwayTeamID, result.AwayGoals, result.HomeGoals, result.AwayPoints},
	}
	for _, side := range sides {
		var competitorID uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT competitor_id FROM teams WHERE id = $1`, side.teamID).Scan(&competitorID); err != nil {
			return fmt.Errorf("competitor for team %s: %w", side.teamID, err)
		}

		win, draw, loss := 0, 0, 0
		switch side.points {
		case logic.PointsWin:
			win = 1
		case logic.PointsDraw:
			draw = 1
		default:
			loss = 1
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO league_table
				(cohort_id, competitor_id, matchday, points, goals_for, goals_against, wins, draws, losses)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (cohort_id, competitor_id, matchday) DO UPDATE SET
				points        = league_table.points + EXCLUDED.points,
				goals_for     = league_table.goals_for + EXCLUDED.goals_for,
				goals_against = league_table.goals_against + EXCLUDED.goals_against,
				wins          = league_table.wins + EXCLUDED.wins,
				draws         = league_table.draws + EXCLUDED.draws,
				losses        = league_table.losses + EXCLUDED.losses
		`, match.CohortID, competitorID, match.Matchday,
			side.points, side.goalsFor, side.goalsAgainst, win, draw, loss)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	match.Played = true
	match.HomeGoals = result.HomeGoals
	match.AwayGoals = result.AwayGoals
	match.PlayedAt = &playedAt

	if s.cache != nil {
		s.cache.Invalidate(ctx, match.CohortID, match.Matchday)
	}
	return nil
}

// DuePending lists unexecuted records whose target time has passed.
func (s *Store) DuePending(ctx context.Context, before time.Time) ([]models.ScheduledMatchday, error) {
	return s.pendingWhere(ctx, `scheduled_at <= $1`, before)
}

// PendingBetween lists unexecuted records inside the recovery window.
func (s *Store) PendingBetween(ctx context.Context, from, to time.Time) ([]models.ScheduledMatchday, error) {
	return s.pendingWhere(ctx, `scheduled_at >= $1 AND scheduled_at <= $2`, from, to)
}

// StalePending lists unexecuted records older than the lookback window.
func (s *Store) StalePending(ctx context.Context, before time.Time) ([]models.ScheduledMatchday, error) {
	return s.pendingWhere(ctx, `scheduled_at < $1`, before)
}

func (s *Store) pendingWhere(ctx context.Context, cond string, args ...any) ([]models.ScheduledMatchday, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT id, cohort_id, matchday, scheduled_at, executed, executed_at
		FROM scheduled_matchdays
		WHERE executed = false AND `+cond+`
		ORDER BY scheduled_at
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ScheduledMatchday
	for rows.Next() {
		var r models.ScheduledMatchday
		if err := rows.Scan(&r.ID, &r.CohortID, &r.Matchday, &r.ScheduledAt, &r.Executed, &r.ExecutedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// CohortTeams lists the lineups of a cohort's active competitors.
func (s *Store) CohortTeams(ctx context.Context, cohortID uuid.UUID) ([]models.Team, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT t.id, t.cohort_id, t.competitor_id, t.name, t.formation
		FROM teams t
		JOIN competitors c ON c.id = t.competitor_id
		WHERE t.cohort_id = $1 AND c.active = true
		ORDER BY t.name
	`, cohortID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.CohortID, &t.CompetitorID, &t.Name, &t.Formation); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// ExecuteMatchday flips the record's executed flag, zero-initializes the
// matchday's league-table rows, creates the matchday's fixtures and
// inserts the follow-up record, all in one transaction. The flag
// transition is a conditional update: losing the race rolls everything
// back and reports ErrAlreadyExecuted.
func (s *Store) ExecuteMatchday(ctx context.Context, record models.ScheduledMatchday, pairings []logic.Pairing, next models.ScheduledMatchday, now time.Time) error {
	tx, err := s.pg.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE scheduled_matchdays
		SET executed = true, executed_at = $2
		WHERE id = $1 AND executed = false
	`, record.ID, now.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExecuted
	}

	members := map[uuid.UUID]bool{}
	for _, p := range pairings {
		members[p.Home.CompetitorID] = true
		members[p.Away.CompetitorID] = true
	}
	for member := range members {
		_, err := tx.Exec(ctx, `
			INSERT INTO league_table
				(cohort_id, competitor_id, matchday, points, goals_for, goals_against, wins, draws, losses)
			VALUES ($1, $2, $3, 0, 0, 0, 0, 0, 0)
			ON CONFLICT (cohort_id, competitor_id, matchday) DO NOTHING
		`, record.CohortID, member, record.Matchday)
		if err != nil {
			return err
		}
	}

	for _, p := range pairings {
		_, err := tx.Exec(ctx, `
			INSERT INTO matches (id, cohort_id, matchday, match_number, home_team_id, away_team_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.New(), record.CohortID, record.Matchday, p.MatchNumber, p.Home.ID, p.Away.ID, now.UTC())
		if err != nil {
			return err
		}
	}

	if err := s.insertScheduled(ctx, tx, next); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CreateScheduled persists a manually scheduled matchday record.
func (s *Store) CreateScheduled(ctx context.Context, record models.ScheduledMatchday) error {
	tx, err := s.pg.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := s.insertScheduled(ctx, tx, record); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) insertScheduled(ctx context.Context, tx pgx.Tx, record models.ScheduledMatchday) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO scheduled_matchdays (id, cohort_id, matchday, scheduled_at, executed)
		VALUES ($1, $2, $3, $4, false)
	`, record.ID, record.CohortID, record.Matchday, record.ScheduledAt.UTC())
	return err
}

// LeagueTable reads a matchday's standings, cache first.
func (s *Store) LeagueTable(ctx context.Context, cohortID uuid.UUID, matchday int) ([]models.TableEntry, error) {
	if s.cache != nil {
		if entries, ok := s.cache.Get(ctx, cohortID, matchday); ok {
			return entries, nil
		}
	}

	rows, err := s.pg.Query(ctx, `
		SELECT cohort_id, competitor_id, matchday, points, goals_for, goals_against, wins, draws, losses
		FROM league_table
		WHERE cohort_id = $1 AND matchday = $2
		ORDER BY points DESC, goals_for - goals_against DESC, goals_for DESC
	`, cohortID, matchday)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.TableEntry
	for rows.Next() {
		var e models.TableEntry
		if err := rows.Scan(&e.CohortID, &e.CompetitorID, &e.Matchday,
			&e.Points, &e.GoalsFor, &e.GoalsAgainst, &e.Wins, &e.Draws, &e.Losses); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, cohortID, matchday, entries)
	}
	return entries, nil
}
