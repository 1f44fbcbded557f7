package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL 상수 정의
const (
	TTLMemberGroups = 5 * time.Minute // 회원 그룹 (권한 판정마다 조회)
	TTLDefault      = 5 * time.Minute
)

// 캐시 키 접두사
const (
	PrefixMemberGroups = "member_groups:"
)

// Service Redis 캐시 서비스 인터페이스
type Service interface {
	// 기본 캐시 연산
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// 회원 그룹 캐시
	GetMemberGroups(ctx context.Context, memberID uint64) ([]uint64, error)
	SetMemberGroups(ctx context.Context, memberID uint64, groupIDs []uint64) error
	InvalidateMember(ctx context.Context, memberID uint64) error

	// 유틸리티
	IsAvailable() bool
	Ping(ctx context.Context) error
}

// NewRedisClient Redis 클라이언트 생성 (host가 비어 있으면 nil, 캐시 비활성)
func NewRedisClient(host string, port int, password string, db int, poolSize int) (*redis.Client, error) {
	if host == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})

	// 연결 테스트
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// redisCache Redis 기반 캐시 구현
type redisCache struct {
	client *redis.Client
}

// NewService 새로운 캐시 서비스 생성 (client가 nil이면 모든 조회가 miss)
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
		return redis.Nil
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
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// ========================================
// 회원 그룹 캐시
// ========================================

func memberGroupsKey(memberID uint64) string {
	return PrefixMemberGroups + strconv.FormatUint(memberID, 10)
}

func (c *redisCache) GetMemberGroups(ctx context.Context, memberID uint64) ([]uint64, error) {
	var ids []uint64
	if err := c.Get(ctx, memberGroupsKey(memberID), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *redisCache) SetMemberGroups(ctx context.Context, memberID uint64, groupIDs []uint64) error {
	return c.Set(ctx, memberGroupsKey(memberID), groupIDs, TTLMemberGroups)
}

func (c *redisCache) InvalidateMember(ctx context.Context, memberID uint64) error {
	return c.Delete(ctx, memberGroupsKey(memberID))
}
