package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Seeds a demo cohort: 4 competitors with full lineups, a starter pack and
// the first scheduled matchday. Intended for local development against an
// empty database.

var starterColors = []string{"red", "red", "red", "red", "blue", "blue", "blue", "blue", "green", "green", "green"}

var positions = []string{"GK", "LB", "CB", "CB", "RB", "LM", "CM", "CM", "RM", "ST", "ST"}

func main() {
	url := os.Getenv("POSTGRES_URL")
	if url == "" {
		log.Fatal("POSTGRES_URL is required")
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer conn.Close(ctx)

	cohortID := uuid.New()
	if _, err := conn.Exec(ctx, `
		INSERT INTO cohorts (id, name, created_at) VALUES ($1, $2, $3)
	`, cohortID, "demo-cohort", time.Now().UTC()); err != nil {
		log.Fatalf("cohort: %v", err)
	}

	for i := 0; i < 4; i++ {
		competitorID := uuid.New()
		if _, err := conn.Exec(ctx, `
			INSERT INTO competitors (id, cohort_id, name, coins, active)
			VALUES ($1, $2, $3, 1000, true)
		`, competitorID, cohortID, fmt.Sprintf("competitor-%d", i+1)); err != nil {
			log.Fatalf("competitor %d: %v", i, err)
		}

		teamID := uuid.New()
		if _, err := conn.Exec(ctx, `
			INSERT INTO teams (id, cohort_id, competitor_id, name, formation)
			VALUES ($1, $2, $3, $4, '4-4-2')
		`, teamID, cohortID, competitorID, fmt.Sprintf("team-%d", i+1)); err != nil {
			log.Fatalf("team %d: %v", i, err)
		}

		for slot := 0; slot < 11; slot++ {
			playerID := uuid.New()
			if _, err := conn.Exec(ctx, `
				INSERT INTO players (id, name, points, position, color, weight)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, playerID, fmt.Sprintf("player-%d-%d", i+1, slot+1),
				60+slot*3, positions[slot], starterColors[slot], 0.05); err != nil {
				log.Fatalf("player %d/%d: %v", i, slot, err)
			}
			if _, err := conn.Exec(ctx, `
				INSERT INTO team_players (team_id, player_id, slot) VALUES ($1, $2, $3)
			`, teamID, playerID, slot); err != nil {
				log.Fatalf("team player %d/%d: %v", i, slot, err)
			}
		}
	}

	packID := uuid.New()
	if _, err := conn.Exec(ctx, `
		INSERT INTO packs (id, name, price, disabled, exhausted)
		VALUES ($1, 'starter-pack', 100, false, false)
	`, packID); err != nil {
		log.Fatalf("pack: %v", err)
	}
	for i := 0; i < 10; i++ {
		playerID := uuid.New()
		if _, err := conn.Exec(ctx, `
			INSERT INTO players (id, name, points, position, color, weight)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, playerID, fmt.Sprintf("pack-player-%d", i+1),
			70+i*2, positions[i%len(positions)], starterColors[i%len(starterColors)], 0.1); err != nil {
			log.Fatalf("pack player %d: %v", i, err)
		}
		if _, err := conn.Exec(ctx, `
			INSERT INTO pack_items (id, pack_id, kind, player_id, weight, position)
			VALUES ($1, $2, 'player', $3, $4, $5)
		`, uuid.New(), packID, playerID, 0.1, i); err != nil {
			log.Fatalf("pack item %d: %v", i, err)
		}
	}

	firstMatchday := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	if _, err := conn.Exec(ctx, `
		INSERT INTO scheduled_matchdays (id, cohort_id, matchday, scheduled_at, executed)
		VALUES ($1, $2, 1, $3, false)
	`, uuid.New(), cohortID, firstMatchday); err != nil {
		log.Fatalf("scheduled matchday: %v", err)
	}

	fmt.Printf("Seeded cohort %s, first matchday at %s\n", cohortID, firstMatchday)
}
