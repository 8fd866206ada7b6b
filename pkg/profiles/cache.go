// The profiles package caches author metadata (kind:0 events) keyed by
// pubkey. The cache is shared across every query scope: it is read-mostly
// and eventually consistent, and redundant concurrent fetches for the
// same key are harmless (last writer wins).
package profiles

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cashumints/directory/pkg/models"
	"github.com/cashumints/directory/pkg/utils/logger"
	"github.com/nbd-wtf/go-nostr"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL     = 30 * time.Minute
	DefaultMaxSize = 10000

	fetchTimeout = 8 * time.Second
)

// DefaultRelays is the relay set used for profile discovery. Profiles
// live on the big general-purpose relays, not on the mint relay.
var DefaultRelays = []string{
	"wss://relay.cashumints.space",
	"wss://relay.damus.io",
	"wss://nos.lol",
	"wss://relay.snort.social",
	"wss://relay.primal.net",
	"wss://relay.azzamo.net",
}

// Subscriber is the part of the relay pool the cache needs: a bounded
// fan-out fetch that completes on EOSE.
type Subscriber interface {
	FetchEose(ctx context.Context, filters nostr.Filters) <-chan nostr.RelayEvent
}

type entry struct {
	profile   *models.Profile
	createdAt int64 // kind:0 event timestamp, newest wins
	expiresAt time.Time
}

// redisProfile is the Redis hash layout of a cached profile.
type redisProfile struct {
	Name        string `redis:"name"`
	DisplayName string `redis:"displayName"`
	Picture     string `redis:"picture"`
	About       string `redis:"about"`
	NIP05       string `redis:"nip05"`
}

// Cache is a bounded, TTL-based profile cache with an optional Redis
// backing layer. All state is held explicitly; there are no package-level
// mutable maps.
type Cache struct {
	sub Subscriber
	log *logger.Aggregate

	mem      *xsync.MapOf[string, entry]
	inflight *xsync.MapOf[string, struct{}]
	ttl      time.Duration
	maxSize  int

	rdb *redis.Client // nil means memory-only
}

// NewCache returns a profile cache backed by the given subscriber.
// rdb may be nil, in which case profiles only live in memory.
func NewCache(sub Subscriber, rdb *redis.Client, log *logger.Aggregate) *Cache {
	return &Cache{
		sub:      sub,
		log:      log,
		mem:      xsync.NewMapOf[string, entry](),
		inflight: xsync.NewMapOf[string, struct{}](),
		ttl:      DefaultTTL,
		maxSize:  DefaultMaxSize,
		rdb:      rdb,
	}
}

// Get returns the cached profile of a pubkey, if present and fresh.
func (c *Cache) Get(pubkey string) (*models.Profile, bool) {
	e, ok := c.mem.Load(pubkey)
	if ok && time.Now().Before(e.expiresAt) {
		return e.profile, true
	}

	if ok {
		c.mem.Delete(pubkey)
	}

	if profile := c.loadRedis(context.Background(), pubkey); profile != nil {
		c.put(pubkey, profile, time.Now().Unix())
		return profile, true
	}

	return nil, false
}

// Size returns the number of profiles held in memory.
func (c *Cache) Size() int {
	return c.mem.Size()
}

// Resolve fetches the kind:0 metadata of every pubkey not already cached
// or being fetched, in one batched subscription. Multiple events for the
// same author keep the newest. Failures leave the cache untouched; a
// profile is cosmetic, never load-bearing.
func (c *Cache) Resolve(ctx context.Context, pubkeys []string) {
	missing := make([]string, 0, len(pubkeys))
	for _, pubkey := range pubkeys {
		if _, ok := c.Get(pubkey); ok {
			continue
		}

		// skip keys some other caller is already fetching
		if _, loaded := c.inflight.LoadOrStore(pubkey, struct{}{}); loaded {
			continue
		}

		missing = append(missing, pubkey)
	}

	if len(missing) == 0 {
		return
	}

	defer func() {
		for _, pubkey := range missing {
			c.inflight.Delete(pubkey)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	filters := nostr.Filters{{
		Kinds:   []int{nostr.KindProfileMetadata},
		Authors: missing,
	}}

	count := 0
	for event := range c.sub.FetchEose(ctx, filters) {
		if event.Event == nil {
			continue
		}

		profile := parseProfile(event.Event)
		if profile == nil {
			continue
		}

		if c.put(profile.PubKey, profile, event.CreatedAt.Time().Unix()) {
			count++
		}
	}

	c.log.Info("profile cache: resolved %d/%d authors", count, len(missing))
}

// put stores a profile unless a newer kind:0 for the same pubkey is
// already cached. It reports whether the cache changed.
func (c *Cache) put(pubkey string, profile *models.Profile, createdAt int64) bool {
	if existing, ok := c.mem.Load(pubkey); ok && existing.createdAt > createdAt {
		return false
	}

	// crude bound: refuse new keys once full, refreshes still go through
	if _, ok := c.mem.Load(pubkey); !ok && c.mem.Size() >= c.maxSize {
		return false
	}

	c.mem.Store(pubkey, entry{
		profile:   profile,
		createdAt: createdAt,
		expiresAt: time.Now().Add(c.ttl),
	})

	c.storeRedis(context.Background(), pubkey, profile)
	return true
}

func (c *Cache) loadRedis(ctx context.Context, pubkey string) *models.Profile {
	if c.rdb == nil {
		return nil
	}

	cmd := c.rdb.HGetAll(ctx, keyProfile(pubkey))
	if cmd.Err() != nil || len(cmd.Val()) == 0 {
		return nil
	}

	var fields redisProfile
	if err := cmd.Scan(&fields); err != nil {
		return nil
	}

	return &models.Profile{
		PubKey:      pubkey,
		Name:        fields.Name,
		DisplayName: fields.DisplayName,
		Picture:     fields.Picture,
		About:       fields.About,
		NIP05:       fields.NIP05,
	}
}

func (c *Cache) storeRedis(ctx context.Context, pubkey string, profile *models.Profile) {
	if c.rdb == nil {
		return
	}

	key := keyProfile(pubkey)
	fields := redisProfile{
		Name:        profile.Name,
		DisplayName: profile.DisplayName,
		Picture:     profile.Picture,
		About:       profile.About,
		NIP05:       profile.NIP05,
	}

	if err := c.rdb.HSet(ctx, key, fields).Err(); err != nil {
		c.log.Warn("profile cache: redis write for %s failed: %v", pubkey, err)
		return
	}

	c.rdb.Expire(ctx, key, c.ttl)
}

// parseProfile decodes the JSON content of a kind:0 event. Malformed
// profiles are dropped.
func parseProfile(event *nostr.Event) *models.Profile {
	var profile models.Profile
	if err := json.Unmarshal([]byte(event.Content), &profile); err != nil {
		return nil
	}

	profile.PubKey = event.PubKey
	return &profile
}

// keyProfile returns the Redis key of a pubkey's cached profile.
func keyProfile(pubkey string) string {
	return "profile:" + pubkey
}
