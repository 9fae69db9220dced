package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcdev12/impostor/go/internal/models"
	"github.com/mcdev12/impostor/go/internal/room"
)

const redisKeyPrefix = "room:"

// RedisStore keeps each room under room:<code> and lets Redis expire it.
type RedisStore struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisStore(rdb redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func redisKey(code string) string {
	return redisKeyPrefix + code
}

func (s *RedisStore) Get(ctx context.Context, code string) (*models.Room, error) {
	data, err := s.rdb.Get(ctx, redisKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, room.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room %s: %w", code, err)
	}
	return decode(data)
}

func (s *RedisStore) Create(ctx context.Context, r *models.Room) error {
	data, err := encode(r)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, redisKey(r.Code), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to create room %s: %w", r.Code, err)
	}
	if !ok {
		return room.ErrDuplicateCode
	}
	return nil
}

func (s *RedisStore) Put(ctx context.Context, r *models.Room) error {
	data, err := encode(r)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, redisKey(r.Code), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save room %s: %w", r.Code, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, code string) error {
	if err := s.rdb.Del(ctx, redisKey(code)).Err(); err != nil {
		return fmt.Errorf("failed to delete room %s: %w", code, err)
	}
	return nil
}
