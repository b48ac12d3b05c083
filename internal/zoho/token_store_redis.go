package zoho

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const credentialKeyPrefix = "zoho:credential:"

// RedisTokenStore shares access credentials between server instances. Entries
// expire together with the credential they hold.
type RedisTokenStore struct {
	redis *redis.Client
	now   func() time.Time
}

// NewRedisTokenStore wraps an existing client.
func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	if client == nil {
		panic("zoho: redis client required")
	}
	return &RedisTokenStore{redis: client, now: time.Now}
}

func (s *RedisTokenStore) Load(ctx context.Context, key string) (*AccessCredential, error) {
	data, err := s.redis.Get(ctx, credentialKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("zoho: redis get credential: %w", err)
	}
	var cred AccessCredential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("zoho: decode cached credential: %w", err)
	}
	return &cred, nil
}

func (s *RedisTokenStore) Save(ctx context.Context, key string, cred *AccessCredential) error {
	if cred == nil {
		return nil
	}
	ttl := cred.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("zoho: encode credential: %w", err)
	}
	if err := s.redis.Set(ctx, credentialKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("zoho: redis set credential: %w", err)
	}
	return nil
}

func (s *RedisTokenStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, credentialKey(key)).Err(); err != nil {
		return fmt.Errorf("zoho: redis delete credential: %w", err)
	}
	return nil
}

func credentialKey(key string) string {
	return credentialKeyPrefix + key
}
