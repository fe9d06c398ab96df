package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"interview-coach-go/internal/model"
	"interview-coach-go/pkg/errs"
)

// ResultCache 缓存面试结果，结果一经创建便不可变，因此缓存无需失效逻辑。
type ResultCache interface {
	Get(ctx context.Context, sessionID string) (*model.InterviewResult, error)
	Set(ctx context.Context, result *model.InterviewResult, ttl time.Duration) error
}

type redisResultCache struct {
	redisClient *redis.Client
}

// NewResultCache 创建一个新的基于 Redis 的 ResultCache 实例。
func NewResultCache(redisClient *redis.Client) ResultCache {
	return &redisResultCache{redisClient: redisClient}
}

func resultKey(sessionID string) string {
	return fmt.Sprintf("interview:result:%s", sessionID)
}

// Get 未命中时返回 errs.ErrNotFound。
func (c *redisResultCache) Get(ctx context.Context, sessionID string) (*model.InterviewResult, error) {
	data, err := c.redisClient.Get(ctx, resultKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached result: %w", err)
	}
	var result model.InterviewResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached result: %w", err)
	}
	return &result, nil
}

func (c *redisResultCache) Set(ctx context.Context, result *model.InterviewResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return c.redisClient.Set(ctx, resultKey(result.SessionID), data, ttl).Err()
}
