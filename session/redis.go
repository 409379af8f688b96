package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/medicare-ai/medassist/config"
)

const (
	fieldMedicine = "last_medicine"
	fieldCID      = "doc_cid"
	fieldFilename = "doc_filename"
	fieldText     = "doc_text"
)

// RedisStore persists contexts as Redis hashes.
// Data model:
//   - key prefix+"ctx:"+id => HASH{last_medicine, doc_cid, doc_filename, doc_text} with TTL
//
// Every write refreshes the TTL.
type RedisStore struct {
	rc     *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(cfg config.RedisConfig, ttl time.Duration) (*RedisStore, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address is required")
	}
	rc := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("connect redis %s failed, err: %w", cfg.Address, err)
	}
	return newRedisStore(rc, cfg.Prefix, ttl), nil
}

func newRedisStore(rc *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if prefix == "" {
		prefix = "medassist:sess:"
	}
	return &RedisStore{rc: rc, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(id string) string { return s.prefix + "ctx:" + id }

func (s *RedisStore) Get(ctx context.Context, sessionID string) (Context, error) {
	m, err := s.rc.HGetAll(ctx, s.key(sessionID)).Result()
	if err != nil {
		return Context{}, fmt.Errorf("load session %s failed, err: %w", sessionID, err)
	}
	c := Context{LastMedicine: m[fieldMedicine]}
	if m[fieldText] != "" {
		c.Document = &Document{CID: m[fieldCID], Filename: m[fieldFilename], Text: m[fieldText]}
	}
	return c, nil
}

func (s *RedisStore) write(ctx context.Context, sessionID string, fn func(pipe redis.Pipeliner, key string)) error {
	key := s.key(sessionID)
	_, err := s.rc.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fn(pipe, key)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("update session %s failed, err: %w", sessionID, err)
	}
	return nil
}

func (s *RedisStore) SetLastMedicine(ctx context.Context, sessionID, medicine string) error {
	return s.write(ctx, sessionID, func(pipe redis.Pipeliner, key string) {
		pipe.HSet(ctx, key, fieldMedicine, medicine)
	})
}

func (s *RedisStore) SetDocument(ctx context.Context, sessionID string, doc Document) error {
	return s.write(ctx, sessionID, func(pipe redis.Pipeliner, key string) {
		pipe.HSet(ctx, key, fieldCID, doc.CID, fieldFilename, doc.Filename, fieldText, doc.Text)
	})
}

func (s *RedisStore) ClearDocument(ctx context.Context, sessionID string) error {
	return s.write(ctx, sessionID, func(pipe redis.Pipeliner, key string) {
		pipe.HDel(ctx, key, fieldCID, fieldFilename, fieldText)
	})
}

// Close releases the connection pool.
func (s *RedisStore) Close() error { return s.rc.Close() }
