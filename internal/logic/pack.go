package logic

import (
	"errors"
	"math/rand"

	"github.com/cardkick/league-engine/internal/models"
)

var (
	// ErrPackNotAvailable is returned when drawing from an exhausted or
	// disabled pack, before any weight is summed.
	ErrPackNotAvailable = errors.New("pack is not available")

	// ErrPoolMisconfigured is returned when the pool's weights sum to a
	// non-positive total.
	ErrPoolMisconfigured = errors.New("pool weights must sum to a positive total")
)

// PackService performs weighted sampling without replacement over a pack's
// shrinking reward pool. The selection step is pure; persisting the removal
// (and charging the pack price) belongs to the store, in one transaction.
type PackService struct {
	rng *rand.Rand
}

func NewPackService(rng *rand.Rand) *PackService {
	return &PackService{rng: rng}
}

// Draw selects one item from the pack and returns it along with the
// remaining pool. The pack itself is not mutated. Drawing from a pack that
// is disabled, exhausted or empty fails with ErrPackNotAvailable.
func (s *PackService) Draw(pack *models.Pack) (models.PackItem, []models.PackItem, error) {
	if !pack.Available() {
		return models.PackItem{}, nil, ErrPackNotAvailable
	}
	return s.DrawFromPool(pack.Items)
}

// DrawFromPool runs the weighted selection over an ordered pool: draw r
// uniformly in [0, total) and take the first item whose cumulative weight
// reaches r. If floating-point rounding leaves no item selected, the first
// remaining item is taken deterministically. The selected item is excluded
// from the returned remainder, never to be drawn again.
func (s *PackService) DrawFromPool(items []models.PackItem) (models.PackItem, []models.PackItem, error) {
	total := 0.0
	for _, item := range items {
		total += item.Weight
	}
	if total <= 0 {
		return models.PackItem{}, nil, ErrPoolMisconfigured
	}

	r := s.rng.Float64() * total
	selected := 0
	cumulative := 0.0
	found := false
	for i, item := range items {
		cumulative += item.Weight
		if cumulative >= r {
			selected = i
			found = true
			break
		}
	}
	if !found {
		// Rounding fallback: the cumulative sum came up short of r.
		selected = 0
	}

	remaining := make([]models.PackItem, 0, len(items)-1)
	remaining = append(remaining, items[:selected]...)
	remaining = append(remaining, items[selected+1:]...)
	return items[selected], remaining, nil
}

// RebalancePool rescales every weight by targetTotal/currentTotal so that
// proportions are preserved and the new sum equals the target. A zero
// current total cannot be rescaled and fails.
func RebalancePool(items []models.PackItem, targetTotal float64) ([]models.PackItem, error) {
	current := 0.0
	for _, item := range items {
		current += item.Weight
	}
	if current == 0 {
		return nil, ErrPoolMisconfigured
	}

	factor := targetTotal / current
	rebalanced := make([]models.PackItem, len(items))
	for i, item := range items {
		item.Weight *= factor
		rebalanced[i] = item
	}
	return rebalanced, nil
}
