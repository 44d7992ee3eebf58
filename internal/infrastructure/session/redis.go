package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirillkom/resumind-client/internal/core/domain"
)

const defaultKeyPrefix = "resumind:session:"

// RedisStore shares a snapshot between processes of the same session id.
// Entries expire after ttl; every Save extends it.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	SessionID string
	KeyPrefix string
	TTL       time.Duration
}

func NewRedisClient(opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

func NewRedisStore(client *redis.Client, opts RedisOptions) *RedisStore {
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = "default"
	}
	return &RedisStore{
		client: client,
		key:    prefix + sessionID,
		ttl:    opts.TTL,
	}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Save(ctx context.Context, snapshot domain.SessionSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal session snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "redis save session", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (*domain.SessionSnapshot, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "redis load session", err)
	}
	return decode(data)
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "redis clear session", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
