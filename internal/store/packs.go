package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cardkick/league-engine/internal/logic"
	"github.com/cardkick/league-engine/internal/models"
)

// DrawFromPack draws one item for a competitor: select, remove, mark
// exhaustion and charge the pack price in one transaction. The items are
// locked for the duration, so two concurrent draws can never both take the
// pool's last item.
func (s *Store) DrawFromPack(ctx context.Context, packID, competitorID uuid.UUID, draw *logic.PackService) (*models.PackItem, error) {
	tx, err := s.pg.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	pack, err := s.lockPack(ctx, tx, packID)
	if err != nil {
		return nil, err
	}

	selected, remaining, err := draw.Draw(pack)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM pack_items WHERE id = $1`, selected.ID); err != nil {
		return nil, err
	}
	if len(remaining) == 0 {
		if _, err := tx.Exec(ctx, `UPDATE packs SET exhausted = true WHERE id = $1`, packID); err != nil {
			return nil, err
		}
	}

	tag, err := tx.Exec(ctx, `
		UPDATE competitors SET coins = coins - $2 WHERE id = $1 AND coins >= $2
	`, competitorID, pack.Price)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrInsufficientCoins
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO collection_items (id, competitor_id, kind, player_id, formation, drawn_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), competitorID, selected.Kind, nullableID(selected.PlayerID), selected.Formation, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.Infow("Pack item drawn",
		"pack", packID,
		"competitor", competitorID,
		"item", selected.ID,
		"kind", selected.Kind,
		"remaining", len(remaining),
	)
	return &selected, nil
}

// RebalancePack rescales the pool's weights to the target total, keeping
// proportions. Fails on a zero-weight pool instead of dividing by zero.
func (s *Store) RebalancePack(ctx context.Context, packID uuid.UUID, targetTotal float64) error {
	tx, err := s.pg.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	pack, err := s.lockPack(ctx, tx, packID)
	if err != nil {
		return err
	}

	rebalanced, err := logic.RebalancePool(pack.Items, targetTotal)
	if err != nil {
		return err
	}
	for _, item := range rebalanced {
		if _, err := tx.Exec(ctx, `UPDATE pack_items SET weight = $2 WHERE id = $1`, item.ID, item.Weight); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// lockPack loads a pack and its items under FOR UPDATE row locks.
func (s *Store) lockPack(ctx context.Context, tx pgx.Tx, packID uuid.UUID) (*models.Pack, error) {
	pack := &models.Pack{}
	err := tx.QueryRow(ctx, `
		SELECT id, name, price, disabled, exhausted
		FROM packs
		WHERE id = $1
		FOR UPDATE
	`, packID).Scan(&pack.ID, &pack.Name, &pack.Price, &pack.Disabled, &pack.Exhausted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("pack %s: %w", packID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, kind, COALESCE(player_id, '00000000-0000-0000-0000-000000000000'), COALESCE(formation, ''), weight
		FROM pack_items
		WHERE pack_id = $1
		ORDER BY position
		FOR UPDATE
	`, packID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.PackItem
		if err := rows.Scan(&item.ID, &item.Kind, &item.PlayerID, &item.Formation, &item.Weight); err != nil {
			return nil, err
		}
		pack.Items = append(pack.Items, item)
	}
	return pack, rows.Err()
}

func nullableID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
