package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"VibeFM/logger"
	"VibeFM/model"

	"github.com/redis/go-redis/v9"
)

const (
	recentKeyPrefix = "vibefm:recent:"
	analyticsKey    = "vibefm:analytics"

	recentTTL    = 2 * time.Minute
	analyticsTTL = 5 * time.Minute
)

// AnalysisCache keeps hot read paths (recent list, analytics) in Redis.
// A nil *AnalysisCache is a no-op, so callers never branch on whether
// caching is configured.
type AnalysisCache struct {
	client *redis.Client
}

func NewAnalysisCache(client *redis.Client) *AnalysisCache {
	if client == nil {
		return nil
	}
	return &AnalysisCache{client: client}
}

func (c *AnalysisCache) GetRecent(ctx context.Context, limit int) ([]*model.AnalysisRecord, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, recentKey(limit)).Bytes()
	if err != nil {
		return nil, false
	}
	var records []*model.AnalysisRecord
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Warn("Failed to decode cached recent analyses", logger.ErrorField(err))
		return nil, false
	}
	return records, true
}

func (c *AnalysisCache) SetRecent(ctx context.Context, limit int, records []*model.AnalysisRecord) {
	if c == nil {
		return
	}
	data, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, recentKey(limit), data, recentTTL).Err(); err != nil {
		logger.Warn("Failed to cache recent analyses", logger.ErrorField(err))
	}
}

func (c *AnalysisCache) GetAnalytics(ctx context.Context) (*model.Analytics, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, analyticsKey).Bytes()
	if err != nil {
		return nil, false
	}
	var analytics model.Analytics
	if err := json.Unmarshal(data, &analytics); err != nil {
		logger.Warn("Failed to decode cached analytics", logger.ErrorField(err))
		return nil, false
	}
	return &analytics, true
}

func (c *AnalysisCache) SetAnalytics(ctx context.Context, analytics *model.Analytics) {
	if c == nil {
		return
	}
	data, err := json.Marshal(analytics)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, analyticsKey, data, analyticsTTL).Err(); err != nil {
		logger.Warn("Failed to cache analytics", logger.ErrorField(err))
	}
}

// InvalidateAll drops every cached view. Called after any write.
func (c *AnalysisCache) InvalidateAll(ctx context.Context) {
	if c == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, recentKeyPrefix+"*", 100).Iterator()
	keys := []string{analyticsKey}
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("Failed to invalidate analysis cache", logger.ErrorField(err))
	}
}

func recentKey(limit int) string {
	return fmt.Sprintf("%s%d", recentKeyPrefix, limit)
}
