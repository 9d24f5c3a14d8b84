package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/stockhealth/backend-go/internal/config"
	"github.com/redis/go-redis/v9"
)

const (
	defaultCacheTTL = 5 * time.Minute
	scanBatchSize   = 100
	pingTimeout     = 5 * time.Second
)

// redisStore is a JSON key space under one prefix with a fixed TTL.
type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func newRedisStore(cfg config.CacheConfig, prefix string) (*redisStore, error) {
	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	ttl := cfg.ViewTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisStore{client: client, prefix: prefix, ttl: ttl}, nil
}

func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(orDefault(cfg.RedisHost, "127.0.0.1"), orDefault(cfg.RedisPort, "6379")),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// get decodes the entry at key into dst; false means a miss.
func (s *redisStore) get(ctx context.Context, key string, dst interface{}) (bool, error) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return true, nil
}

func (s *redisStore) set(ctx context.Context, key string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// clear deletes every key under the store prefix, scanning in batches.
func (s *redisStore) clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+":*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", s.prefix, err)
		}
		if len(keys) > 0 {
			if err := s.client.Unlink(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis unlink: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// outletHash returns a stable digest of an outlet selection; order and
// duplicates do not matter.
func outletHash(outlets []string) string {
	set := make(map[string]struct{}, len(outlets))
	normalized := make([]string, 0, len(outlets))
	for _, o := range outlets {
		o = strings.ToUpper(strings.TrimSpace(o))
		if o == "" {
			continue
		}
		if _, dup := set[o]; dup {
			continue
		}
		set[o] = struct{}{}
		normalized = append(normalized, o)
	}
	if len(normalized) == 0 {
		return "all"
	}
	sort.Strings(normalized)
	sum := sha1.Sum([]byte(strings.Join(normalized, ",")))
	return hex.EncodeToString(sum[:])
}
