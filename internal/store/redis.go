package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each document as a JSON string value. Collection names
// are tracked in a set and each collection keeps a sorted index of its ids
// by creation time.
//
// Key layout (prefix is "<name>:" when a name is configured):
//
//	<prefix>collections            SET of collection names
//	<prefix><collection>           ZSET of ids scored by creation time (ms)
//	<prefix><collection>:<id>      document JSON
type RedisStore struct {
	client *redis.Client
	name   string
	prefix string
}

// NewRedis connects to Redis.
func NewRedis(ctx context.Context, redisURL, name string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Connection pool settings
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return NewRedisFromClient(client, name), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client, name string) *RedisStore {
	prefix := ""
	if name != "" {
		prefix = name + ":"
	} else {
		name = "db" + strconv.Itoa(client.Options().DB)
	}
	return &RedisStore{client: client, name: name, prefix: prefix}
}

func (s *RedisStore) collectionsKey() string {
	return s.prefix + "collections"
}

func (s *RedisStore) indexKey(collection string) string {
	return s.prefix + collection
}

func (s *RedisStore) documentKey(collection, id string) string {
	return s.prefix + collection + ":" + id
}

// Create writes the document, its index entry and the collection name in
// one MULTI/EXEC transaction.
func (s *RedisStore) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := ValidateCollection(collection); err != nil {
		return "", err
	}

	now := time.Now()
	id := NewID()
	doc := stamp(fields, now)
	doc["id"] = id

	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.documentKey(collection, id), payload, 0)
		pipe.ZAdd(ctx, s.indexKey(collection), redis.Z{Score: float64(now.UnixMilli()), Member: id})
		pipe.SAdd(ctx, s.collectionsKey(), collection)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to store document in %s: %w", collection, err)
	}

	return id, nil
}

// Get returns a stored document.
func (s *RedisStore) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	raw, err := s.client.Get(ctx, s.documentKey(collection, id)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return doc, nil
}

// ListCollections returns collection names in sorted order.
func (s *RedisStore) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.collectionsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Name returns the configured name, or the logical database number.
func (s *RedisStore) Name() string {
	return s.name
}

// Ping checks Redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
