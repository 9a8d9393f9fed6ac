package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/shared"
)

const defaultRedisPrefix = "playlister:"

// RedisOptions configures a [RedisSessionStore].
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // TTL is refreshed on every write; zero keeps keys forever
	Prefix   string
}

// RedisSessionStore implements [models.SessionStore] on Redis.
//
// Each session is a JSON string under "<prefix>session:<id>"; the set
// "<prefix>sessions" indexes ids for [RedisSessionStore.List].
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisSessionStore connects lazily; call [RedisSessionStore.Ping] to check the server.
func NewRedisSessionStore(opts RedisOptions) *RedisSessionStore {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisSessionStoreWithClient(client, opts.TTL, opts.Prefix)
}

// NewRedisSessionStoreWithClient wraps an existing client.
func NewRedisSessionStoreWithClient(client *redis.Client, ttl time.Duration, prefix string) *RedisSessionStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisSessionStore{client: client, ttl: ttl, prefix: prefix}
}

func (r *RedisSessionStore) sessionKey(id string) string {
	return r.prefix + "session:" + id
}

func (r *RedisSessionStore) indexKey() string {
	return r.prefix + "sessions"
}

// Ping checks connectivity.
func (r *RedisSessionStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis: %v", shared.ErrServiceUnavailable, err)
	}
	return nil
}

func (r *RedisSessionStore) Close() error {
	return r.client.Close()
}

func (r *RedisSessionStore) Create(ctx context.Context, session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidSession, err)
	}

	if session.ID == "" {
		session.ID = shared.GenerateID()
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.sessionKey(session.ID), data, r.ttl)
		p.SAdd(ctx, r.indexKey(), session.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	return decodeSession(data)
}

// Update only writes when the key still exists so an expired session is not resurrected.
func (r *RedisSessionStore) Update(ctx context.Context, session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidSession, err)
	}

	prev := session.UpdatedAt
	session.UpdatedAt = time.Now()

	data, err := json.Marshal(session)
	if err != nil {
		session.UpdatedAt = prev
		return fmt.Errorf("failed to encode session: %w", err)
	}

	ok, err := r.client.SetXX(ctx, r.sessionKey(session.ID), data, r.ttl).Result()
	if err != nil {
		session.UpdatedAt = prev
		return fmt.Errorf("failed to update session: %w", err)
	}
	if !ok {
		session.UpdatedAt = prev
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, session.ID)
	}
	return nil
}

// Touch bumps UpdatedAt and the key TTL. The key is watched; losing the race to a
// concurrent Update is fine since that write moved UpdatedAt as well.
func (r *RedisSessionStore) Touch(ctx context.Context, id string) error {
	key := r.sessionKey(id)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("failed to read session: %w", err)
		}

		session, err := decodeSession(data)
		if err != nil {
			return err
		}
		session.UpdatedAt = time.Now()
		out, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("failed to encode session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.SetXX(ctx, key, out, r.ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.sessionKey(id))
		p.SRem(ctx, r.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List returns live sessions and drops index entries whose keys have expired.
func (r *RedisSessionStore) List(ctx context.Context) ([]*models.Session, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.sessionKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	var (
		sessions []*models.Session
		stale    []any
	)
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		s, err := decodeSession([]byte(raw))
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	if len(stale) > 0 {
		if err := r.client.SRem(ctx, r.indexKey(), stale...).Err(); err != nil {
			return nil, fmt.Errorf("failed to clean session index: %w", err)
		}
	}

	sortSessions(sessions)
	return sessions, nil
}

func (r *RedisSessionStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	sessions, err := r.List(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, s := range sessions {
		if !s.UpdatedAt.Before(before) {
			continue
		}
		if err := r.Delete(ctx, s.ID); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func decodeSession(data []byte) (*models.Session, error) {
	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidSession, err)
	}
	return &s, nil
}

var _ models.SessionStore = (*RedisSessionStore)(nil)
