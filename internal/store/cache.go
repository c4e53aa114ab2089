package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cardkick/league-engine/internal/models"
)

const tableCacheTTL = 5 * time.Minute

// TableCache keeps league standings in redis between result writes. Cache
// failures are log-only: the caller falls through to Postgres.
type TableCache struct {
	client *redis.Client
	logger *zap.SugaredLogger
}

func NewTableCache(client *redis.Client, logger *zap.Logger) *TableCache {
	return &TableCache{client: client, logger: logger.Sugar()}
}

func tableKey(cohortID uuid.UUID, matchday int) string {
	return fmt.Sprintf("league:table:%s:%d", cohortID, matchday)
}

func (c *TableCache) Get(ctx context.Context, cohortID uuid.UUID, matchday int) ([]models.TableEntry, bool) {
	raw, err := c.client.Get(ctx, tableKey(cohortID, matchday)).Bytes()
	if err != nil {
		return nil, false
	}
	var entries []models.TableEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.logger.Warnw("Corrupt league table cache entry", "cohort", cohortID, "matchday", matchday, "error", err)
		return nil, false
	}
	return entries, true
}

func (c *TableCache) Set(ctx context.Context, cohortID uuid.UUID, matchday int, entries []models.TableEntry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, tableKey(cohortID, matchday), raw, tableCacheTTL).Err(); err != nil {
		c.logger.Warnw("League table cache write failed", "cohort", cohortID, "error", err)
	}
}

func (c *TableCache) Invalidate(ctx context.Context, cohortID uuid.UUID, matchday int) {
	if err := c.client.Del(ctx, tableKey(cohortID, matchday)).Err(); err != nil {
		c.logger.Warnw("League table cache invalidation failed", "cohort", cohortID, "error", err)
	}
}
