package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"carddeps/application/ports"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultPrefix namespaces every key written by the store
const DefaultPrefix = "carddeps"

// RelationStore implements ports.RelationStore on Redis strings holding JSON arrays
type RelationStore struct {
	rdb    goredis.Cmdable
	prefix string
	logger *zap.Logger
}

// NewClient dials Redis and verifies the connection
func NewClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewRelationStore creates a Redis backed relation store
func NewRelationStore(rdb goredis.Cmdable, prefix string, logger *zap.Logger) *RelationStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelationStore{rdb: rdb, prefix: prefix, logger: logger}
}

// Get reads one slot; a missing key is reported as not found
func (s *RelationStore) Get(ctx context.Context, key ports.SlotKey) ([]string, bool, error) {
	if err := key.Validate(); err != nil {
		return nil, false, err
	}

	raw, err := s.rdb.Get(ctx, s.redisKey(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, false, fmt.Errorf("decode slot %s: %w", key, err)
	}
	if values == nil {
		values = []string{}
	}
	return values, true, nil
}

// Put replaces the slot value
func (s *RelationStore) Put(ctx context.Context, key ports.SlotKey, values []string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if values == nil {
		values = []string{}
	}

	b, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode slot %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, s.redisKey(key), b, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection
func (s *RelationStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RelationStore) redisKey(key ports.SlotKey) string {
	if key.Scope == ports.ScopePrivate {
		return fmt.Sprintf("%s:%s:%s:%s:%s", s.prefix, key.Scope, key.Viewer, key.ItemID, key.Key)
	}
	return fmt.Sprintf("%s:%s:%s:%s", s.prefix, key.Scope, key.ItemID, key.Key)
}
