package redis_memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coursebuddy/coursebuddy/internal/memory"
	"github.com/coursebuddy/coursebuddy/models"
)

// Store keeps session histories as JSON values with Redis-managed TTLs.
type Store struct {
	client *redis.Client
}

// NewRedisMemoryStore connects a session store to Redis.
func NewRedisMemoryStore(addr, password string, db int) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Store{client: rdb}
}

// Ping verifies the connection at startup.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Get(ctx context.Context, courseID int, sessionID string) ([]models.ConversationTurn, error) {
	val, err := s.client.Get(ctx, memory.Key(courseID, sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("memory get: %w", err)
	}
	var turns []models.ConversationTurn
	if err := json.Unmarshal([]byte(val), &turns); err != nil {
		return nil, fmt.Errorf("memory decode: %w", err)
	}
	return turns, nil
}

func (s *Store) Save(ctx context.Context, courseID int, sessionID string, turns []models.ConversationTurn, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = memory.DefaultTTL
	}
	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("memory encode: %w", err)
	}
	if err := s.client.Set(ctx, memory.Key(courseID, sessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("memory save: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, courseID int, sessionID string) error {
	if err := s.client.Del(ctx, memory.Key(courseID, sessionID)).Err(); err != nil {
		return fmt.Errorf("memory clear: %w", err)
	}
	return nil
}
