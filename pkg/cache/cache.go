package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL 상수 정의
const (
	TTLHistory = 5 * time.Minute // 리비전 이력 (쓰기 시 무효화)
	TTLShort   = 1 * time.Minute
	TTLDefault = 5 * time.Minute
)

// 캐시 키 접두사
const (
	PrefixHistory = "cms:revisions:"
)

// ErrMiss is returned by Get when the key does not exist
var ErrMiss = redis.Nil

// Service Redis 캐시 서비스 인터페이스
type Service interface {
	// 기본 캐시 연산
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	// 리비전 이력 캐시 (subject = "type:id")
	GetHistory(ctx context.Context, subject string, limit int, dest interface{}) error
	SetHistory(ctx context.Context, subject string, limit int, data interface{}, ttl time.Duration) error
	InvalidateHistory(ctx context.Context, subject string) error

	// 유틸리티
	IsAvailable() bool
	Ping(ctx context.Context) error
}

// redisCache Redis 기반 캐시 구현
type redisCache struct {
	client *redis.Client
}

// NewService 새로운 캐시 서비스 생성. client가 nil이면 모든 연산이 no-op
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

// IsAvailable Redis 연결 가능 여부
func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

// Ping Redis 연결 테스트
func (c *redisCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return c.client.Ping(ctx).Err()
}

// Get 캐시에서 값 조회
func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrMiss
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

// Set 캐시에 값 저장
func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil // Redis 없으면 무시
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete 캐시 삭제
func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Exists 캐시 존재 여부 확인
func (c *redisCache) Exists(ctx context.Context, key string) (bool, error) {
	if c.client == nil {
		return false, nil
	}
	n, err := c.client.Exists(ctx, key).Result()
	return n > 0, err
}

// ========================================
// 리비전 이력 캐시
// ========================================

// HistoryKey builds the cache key of one history page
func HistoryKey(subject string, limit int) string {
	return fmt.Sprintf("%s%s:%d", PrefixHistory, subject, limit)
}

func (c *redisCache) GetHistory(ctx context.Context, subject string, limit int, dest interface{}) error {
	return c.Get(ctx, HistoryKey(subject, limit), dest)
}

func (c *redisCache) SetHistory(ctx context.Context, subject string, limit int, data interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = TTLHistory
	}
	return c.Set(ctx, HistoryKey(subject, limit), data, ttl)
}

// InvalidateHistory drops every cached page of subject's history
func (c *redisCache) InvalidateHistory(ctx context.Context, subject string) error {
	if c.client == nil {
		return nil
	}
	return c.deleteByPattern(ctx, PrefixHistory+subject+":*")
}

// ========================================
// 내부 유틸리티
// ========================================

func (c *redisCache) deleteByPattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
