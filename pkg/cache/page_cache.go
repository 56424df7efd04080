package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	operationTimeout = 5 * time.Second

	keyPrefix     = "site:page:"
	generationKey = keyPrefix + "generation"
	defaultTTL    = 30 * time.Minute
)

var (
	ErrCacheMiss     = errors.New("page not cached")
	ErrCacheDisabled = errors.New("page cache disabled")
)

// PageCache stores rendered public pages keyed by template and slug.
// Invalidation bumps a generation counter instead of deleting keys; pages
// written under an older generation are never read again and expire by TTL.
type PageCache struct {
	backend pageBackend
	ttl     time.Duration
}

type pageBackend interface {
	get(ctx context.Context, key string) (string, error)
	set(ctx context.Context, key, html string, ttl time.Duration) error
	generation(ctx context.Context) (int64, error)
	bump(ctx context.Context) error
	close() error
}

// Disabled returns a cache that stores nothing.
func Disabled() *PageCache {
	return &PageCache{}
}

// NewRedis connects to addr and verifies the connection.
func NewRedis(addr string) (*PageCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing Redis client.
func NewWithClient(client *redis.Client) *PageCache {
	if client == nil {
		return Disabled()
	}
	return &PageCache{backend: &redisBackend{client: client}, ttl: defaultTTL}
}

// NewMemory keeps pages in process. It suits a single instance without Redis.
func NewMemory(ttl time.Duration) *PageCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &PageCache{backend: &memoryBackend{entries: make(map[string]memoryEntry)}, ttl: ttl}
}

func (c *PageCache) Enabled() bool {
	return c != nil && c.backend != nil
}

// Get returns the cached HTML of a page rendered with template.
func (c *PageCache) Get(ctx context.Context, template, slug string) (string, error) {
	if !c.Enabled() {
		return "", ErrCacheDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	key, err := c.key(ctx, template, slug)
	if err != nil {
		return "", err
	}
	return c.backend.get(ctx, key)
}

// Put stores the HTML of a page rendered with template.
func (c *PageCache) Put(ctx context.Context, template, slug, html string) error {
	if !c.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	key, err := c.key(ctx, template, slug)
	if err != nil {
		return err
	}
	return c.backend.set(ctx, key, html, c.ttl)
}

// InvalidateAll makes every cached page unreachable.
func (c *PageCache) InvalidateAll(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()
	return c.backend.bump(ctx)
}

func (c *PageCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.backend.close()
}

func (c *PageCache) key(ctx context.Context, template, slug string) (string, error) {
	gen, err := c.backend.generation(ctx)
	if err != nil {
		return "", err
	}
	return PageKey(gen, template, slug), nil
}

// PageKey is the storage key of a page within a cache generation. An empty
// template means the one the site currently uses.
func PageKey(generation int64, template, slug string) string {
	template = strings.ToLower(strings.TrimSpace(template))
	if template == "" {
		template = "active"
	}
	slug = strings.ToLower(strings.TrimSpace(slug))
	return keyPrefix + strconv.FormatInt(generation, 10) + ":" + template + ":" + slug
}

type redisBackend struct {
	client *redis.Client
}

func (b *redisBackend) get(ctx context.Context, key string) (string, error) {
	html, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return html, err
}

func (b *redisBackend) set(ctx context.Context, key, html string, ttl time.Duration) error {
	return b.client.Set(ctx, key, html, ttl).Err()
}

func (b *redisBackend) generation(ctx context.Context) (int64, error) {
	gen, err := b.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (b *redisBackend) bump(ctx context.Context) error {
	return b.client.Incr(ctx, generationKey).Err()
}

func (b *redisBackend) close() error {
	return b.client.Close()
}

type memoryEntry struct {
	html    string
	expires time.Time
}

type memoryBackend struct {
	mu      sync.Mutex
	gen     int64
	entries map[string]memoryEntry
}

func (b *memoryBackend) get(_ context.Context, key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[key]
	if !ok {
		return "", ErrCacheMiss
	}
	if time.Now().After(entry.expires) {
		delete(b.entries, key)
		return "", ErrCacheMiss
	}
	return entry.html, nil
}

func (b *memoryBackend) set(_ context.Context, key, html string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = memoryEntry{html: html, expires: time.Now().Add(ttl)}
	return nil
}

func (b *memoryBackend) generation(context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen, nil
}

// bump drops stale entries outright since nothing else would reclaim them.
func (b *memoryBackend) bump(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gen++
	b.entries = make(map[string]memoryEntry)
	return nil
}

func (b *memoryBackend) close() error {
	return nil
}
