package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"go-medscan/pkg/models"
)

// RedisOptions configures the redis-backed store.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisStore keeps session previews in redis with a per-key TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects and pings the server before returning.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return &RedisStore{client: client, ttl: opts.TTL}, nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (models.SessionImageState, bool, error) {
	if err := validateID(sessionID); err != nil {
		return models.SessionImageState{}, false, err
	}

	data, err := s.client.Get(ctx, Key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.SessionImageState{}, false, nil
	}
	if err != nil {
		return models.SessionImageState{}, false, fmt.Errorf("redis get: %w", err)
	}

	state, err := decodeState(data)
	if err != nil {
		return models.SessionImageState{}, false, err
	}
	return state, true, nil
}

func (s *RedisStore) Set(ctx context.Context, sessionID string, state models.SessionImageState) error {
	if err := validateID(sessionID); err != nil {
		return err
	}

	data, err := encodeState(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, Key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
