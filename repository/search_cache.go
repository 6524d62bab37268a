package repository

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yashrajoria/materials-storefront/models"
	"go.uber.org/zap"
)

const SearchCachePrefix = "search:online:"

// SearchCache caches live online-search results per source scope and
// normalized query. Entries are shared by every workspace: they hold public
// listings, and the scrape token only authorizes the fetch.
// A nil *SearchCache is valid and never hits.
type SearchCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewSearchCache(client *redis.Client, ttl time.Duration) *SearchCache {
	if client == nil {
		return nil
	}
	return &SearchCache{redis: client, ttl: ttl}
}

// Key is the redis key for query within scope, e.g. the set of sites the
// listings were scraped from.
func Key(scope, query string) string {
	return SearchCachePrefix + scope + ":" + strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

func (sc *SearchCache) Get(ctx context.Context, scope, query string) ([]models.Material, bool) {
	if sc == nil {
		return nil, false
	}
	data, err := sc.redis.Get(ctx, Key(scope, query)).Bytes()
	if err != nil {
		if err != redis.Nil {
			zap.L().Warn("search cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var materials []models.Material
	if err := json.Unmarshal(data, &materials); err != nil {
		zap.L().Warn("Failed to unmarshal cached search results", zap.Error(err))
		return nil, false
	}
	return materials, true
}

func (sc *SearchCache) Set(ctx context.Context, scope, query string, materials []models.Material) {
	if sc == nil {
		return
	}
	data, err := json.Marshal(materials)
	if err != nil {
		zap.L().Warn("Failed to marshal search results for cache", zap.Error(err))
		return
	}
	if err := sc.redis.Set(ctx, Key(scope, query), data, sc.ttl).Err(); err != nil {
		zap.L().Warn("Failed to cache search results", zap.Error(err), zap.String("query", query))
	}
}
