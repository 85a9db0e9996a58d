package easee

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"golang.org/x/sync/singleflight"
)

// TokenStore caches the encrypted token pair. Fetch returns the cached blob
// or calls onMiss, stores its result and returns it. Read never calls back and
// returns a nil blob for a missing or expired key. An expiresIn of zero means
// the store's default lifetime.
type TokenStore interface {
	Fetch(ctx context.Context, key string, onMiss func(ctx context.Context) ([]byte, error)) ([]byte, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, blob []byte, expiresIn time.Duration) error
}

const (
	expiryHeaderSize = 8

	// DefaultTokenStoreLifetime applies to entries written without an expiry.
	DefaultTokenStoreLifetime = 30 * 24 * time.Hour
)

// BigCacheTokenStore keeps token blobs in memory. Concurrent misses for the
// same key share a single onMiss call.
type BigCacheTokenStore struct {
	cache *bigcache.BigCache
	group singleflight.Group
	Time  Time
}

// NewBigCacheTokenStore creates an in-memory store whose entries live for
// lifetime unless written with a shorter expiry.
func NewBigCacheTokenStore(ctx context.Context, lifetime time.Duration) (*BigCacheTokenStore, error) {
	if lifetime <= 0 {
		lifetime = DefaultTokenStoreLifetime
	}
	config := bigcache.DefaultConfig(lifetime)
	config.CleanWindow = 1 * time.Minute
	config.HardMaxCacheSize = 8
	config.Shards = 16
	config.MaxEntriesInWindow = 1024
	config.MaxEntrySize = 1024

	cache, err := bigcache.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("could not create token cache: %w", err)
	}
	return &BigCacheTokenStore{
		cache: cache,
		Time:  new(RealTime),
	}, nil
}

func (s *BigCacheTokenStore) Fetch(ctx context.Context, key string, onMiss func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if blob, ok := s.Get(key); ok {
		return blob, nil
	}
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		if blob, ok := s.Get(key); ok {
			return blob, nil
		}
		blob, err := onMiss(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.Write(ctx, key, blob, 0); err != nil {
			return nil, err
		}
		return blob, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (s *BigCacheTokenStore) Read(ctx context.Context, key string) ([]byte, error) {
	blob, _ := s.Get(key)
	return blob, nil
}

func (s *BigCacheTokenStore) Write(ctx context.Context, key string, blob []byte, expiresIn time.Duration) error {
	entry := make([]byte, expiryHeaderSize+len(blob))
	if expiresIn > 0 {
		expiresAt := s.Time.UTCNow().Add(expiresIn).UnixNano()
		binary.BigEndian.PutUint64(entry, uint64(expiresAt))
	}
	copy(entry[expiryHeaderSize:], blob)
	return s.cache.Set(key, entry)
}

// Get returns the cached blob for key if present and not expired.
func (s *BigCacheTokenStore) Get(key string) ([]byte, bool) {
	entry, err := s.cache.Get(key)
	if err != nil {
		return nil, false
	}
	if len(entry) < expiryHeaderSize {
		return nil, false
	}
	expiresAt := int64(binary.BigEndian.Uint64(entry))
	if expiresAt != 0 && s.Time.UTCNow().UnixNano() >= expiresAt {
		s.cache.Delete(key)
		return nil, false
	}
	return entry[expiryHeaderSize:], true
}

func (s *BigCacheTokenStore) Delete(key string) {
	s.cache.Delete(key)
}

func (s *BigCacheTokenStore) Close() error {
	return s.cache.Close()
}
