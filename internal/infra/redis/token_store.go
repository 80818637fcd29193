package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenKey = "mini-quiz:opentdb:token"

// TokenStore keeps the OpenTDB session token in Redis so it survives restarts
// of the client. The key expires with the service's inactivity window.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

func (s *TokenStore) Token(ctx context.Context) (string, bool, error) {
	tok, err := s.client.Get(ctx, tokenKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return tok, tok != "", nil
}

func (s *TokenStore) SaveToken(ctx context.Context, token string) error {
	return s.client.Set(ctx, tokenKey, token, s.ttl).Err()
}

func (s *TokenStore) DeleteToken(ctx context.Context) error {
	return s.client.Del(ctx, tokenKey).Err()
}
