package models

import (
	"github.com/google/uuid"
)

// PackItemKind distinguishes what a pool item unlocks when drawn.
type PackItemKind string

const (
	PackItemPlayer    PackItemKind = "player"
	PackItemFormation PackItemKind = "formation"
)

// PackItem is one weighted entry of a pack's reward pool. Weights need
// not sum to 1 across the pool.
type PackItem struct {
	ID        uuid.UUID    `json:"id"`
	Kind      PackItemKind `json:"kind"`
	PlayerID  uuid.UUID    `json:"player_id,omitempty"`
	Formation string       `json:"formation,omitempty"`
	Weight    float64      `json:"weight"`
}

// Pack is a shrinking pool of weighted reward items. Pool membership only
// ever shrinks: a drawn item never returns.
type Pack struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Price     int64      `json:"price"`
	Disabled  bool       `json:"disabled"`
	Exhausted bool       `json:"exhausted"`
	Items     []PackItem `json:"items"`
}

// Available reports whether the pack can currently be drawn from.
func (p Pack) Available() bool {
	return !p.Disabled && !p.Exhausted && len(p.Items) > 0
}
