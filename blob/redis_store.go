package blob

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces object keys in Redis.
const DefaultRedisPrefix = "chunkyard:object:"

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 256

// RedisStore is a Store backed by Redis string values.
type RedisStore struct {
	client *goredis.Client
	prefix string
}

// NewRedisStore connects to the Redis instance at url.
// Format: redis://[:password@]host:port[/db]. An empty prefix uses
// DefaultRedisPrefix.
func NewRedisStore(url, prefix string) (*RedisStore, error) {
	if url == "" {
		return nil, errors.New("redis store requires a URL")
	}
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis store: invalid URL: %w", err)
	}
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: goredis.NewClient(opts), prefix: prefix}, nil
}

func (s *RedisStore) redisKey(key string) string {
	return s.prefix + key
}

// Put writes data under key with no expiry.
func (s *RedisStore) Put(ctx context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	return wrap("put", key, s.client.Set(ctx, s.redisKey(key), data, 0).Err())
}

// Get reads the object stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	data, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, notFound("get", key)
	}
	if err != nil {
		return nil, wrap("get", key, err)
	}
	return data, nil
}

// Delete removes key and reports whether it existed.
func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	n, err := s.client.Del(ctx, s.redisKey(key)).Result()
	if err != nil {
		return false, wrap("delete", key, err)
	}
	return n > 0, nil
}

// Exists reports whether key is present.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	n, err := s.client.Exists(ctx, s.redisKey(key)).Result()
	if err != nil {
		return false, wrap("exists", key, err)
	}
	return n > 0, nil
}

// Size returns the object length. STRLEN reports 0 for missing keys, so
// existence is checked explicitly to tell an empty object from no object.
func (s *RedisStore) Size(ctx context.Context, key string) (int64, error) {
	if err := ValidateKey(key); err != nil {
		return 0, err
	}
	n, err := s.client.StrLen(ctx, s.redisKey(key)).Result()
	if err != nil {
		return 0, wrap("size", key, err)
	}
	if n == 0 {
		exists, err := s.Exists(ctx, key)
		if err != nil {
			return 0, err
		}
		if !exists {
			return 0, notFound("size", key)
		}
	}
	return n, nil
}

// List scans for keys under prefix and returns them sorted.
func (s *RedisStore) List(ctx context.Context, prefix string) ([]string, error) {
	match := s.redisKey(prefix) + "*"
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return nil, wrap("list", prefix, err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, s.prefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Verify RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
