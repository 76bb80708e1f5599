package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps payment sessions. A zero ttl on Save keeps the current expiry.
type SessionStore interface {
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Session, error)
	FindByRef(ctx context.Context, provider Provider, ref string) (*Session, error)
}

// RedisSessionStore stores sessions as JSON under payment:session:<id>,
// with a payment:ref:<provider>:<ref> index carrying the same expiry.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: "payment"}
}

func (r *RedisSessionStore) sessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, id)
}

func (r *RedisSessionStore) refKey(provider Provider, ref string) string {
	return fmt.Sprintf("%s:ref:%s:%s", r.prefix, provider, ref)
}

func (r *RedisSessionStore) Save(ctx context.Context, s *Session, ttl time.Duration) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	expiry := ttl
	if expiry <= 0 {
		expiry = redis.KeepTTL
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(s.ID), payload, expiry)
		if s.ProviderRef != "" {
			pipe.Set(ctx, r.refKey(s.Provider, s.ProviderRef), s.ID, expiry)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save payment session %s: %w", s.ID, err)
	}
	return nil
}

func (r *RedisSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	payload, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("decode payment session %s: %w", id, err)
	}
	return &s, nil
}

func (r *RedisSessionStore) FindByRef(ctx context.Context, provider Provider, ref string) (*Session, error) {
	id, err := r.client.Get(ctx, r.refKey(provider, ref)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return r.Get(ctx, id)
}
