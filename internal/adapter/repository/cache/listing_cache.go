package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jrybusiness/stylerental-backend/internal/listing/domain"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "listing:"
	fencePrefix = "listing-fence:"
)

// setScript writes the entry unless its version is older than the fence.
var setScript = redis.NewScript(`
local fence = tonumber(redis.call('GET', KEYS[2]) or '0')
if tonumber(ARGV[2]) < fence then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// deleteScript raises the fence to at least ARGV[1] and drops the entry.
var deleteScript = redis.NewScript(`
local fence = tonumber(redis.call('GET', KEYS[2]) or '0')
if tonumber(ARGV[1]) > fence then
	redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[2])
else
	redis.call('PEXPIRE', KEYS[2], ARGV[2])
end
redis.call('DEL', KEYS[1])
return 1
`)

type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return client, nil
}

func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ListingCache{client: client, ttl: ttl}
}

func listingKey(id string) string { return keyPrefix + id }
func fenceKey(id string) string   { return fencePrefix + id }

// GetListing returns (nil, nil) on a miss.
func (c *ListingCache) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	data, err := c.client.Get(ctx, listingKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", id, err)
	}
	var listing domain.Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		// A payload from an older layout is treated as a miss.
		_ = c.client.Del(ctx, listingKey(id)).Err()
		return nil, nil
	}
	return &listing, nil
}

func (c *ListingCache) SetListing(ctx context.Context, listing *domain.Listing) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", listing.ID, err)
	}
	keys := []string{listingKey(listing.ID), fenceKey(listing.ID)}
	if err := setScript.Run(ctx, c.client, keys, data, listing.Version, c.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", listing.ID, err)
	}
	return nil
}

// DeleteListing drops the entry and keeps fills older than version out for one TTL.
func (c *ListingCache) DeleteListing(ctx context.Context, id string, version int64) error {
	keys := []string{listingKey(id), fenceKey(id)}
	if err := deleteScript.Run(ctx, c.client, keys, version, c.ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", id, err)
	}
	return nil
}
