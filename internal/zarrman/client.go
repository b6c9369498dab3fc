package zarrman

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v2"
	"github.com/rs/zerolog"

	"github.com/dandidav/dandidav-go/internal/httpclient"
	"github.com/dandidav/dandidav-go/internal/paths"
)

// IdleExpiry is how long a manifest may sit unused in the cache before it is
// evicted. It is a time-to-idle, not a time-to-live: every cache hit resets
// the clock, so hot manifests stay resident indefinitely.
const IdleExpiry = 5 * time.Minute

// Client fetches directory listings and Zarr manifests from an external
// manifest tree, caching parsed manifests in a size-weighted, idle-expiring
// cache.
type Client struct {
	http            *httpclient.Client
	manifestRootURL *url.URL
	log             zerolog.Logger

	cache     *ttlcache.Cache
	maxWeight int64

	mu      sync.Mutex
	weights map[string]int64
	order   []string // insertion order, oldest first; used for weight-based eviction
}

// New builds a Client fetching from manifestRootURL, with a manifest cache
// capped at maxWeight bytes (as estimated by Manifest.HeapSize).
func New(manifestRootURL *url.URL, maxWeight int64, log zerolog.Logger) *Client {
	cache := ttlcache.NewCache()
	cache.SetTTL(IdleExpiry)
	cache.SkipTTLExtensionOnHit(false) // a Get() refreshes the TTL: idle-based, not age-based

	c := &Client{
		http:            httpclient.New(log),
		manifestRootURL: manifestRootURL,
		log:             log,
		cache:           cache,
		maxWeight:       maxWeight,
		weights:         make(map[string]int64),
	}

	// The loader is installed once, not per FetchManifest call: ttlcache/v2
	// holds a single loader for the whole cache, so a loader closing over a
	// particular call's path/ctx would race with concurrent FetchManifest
	// calls for other keys. The manifest path is instead recovered from the
	// loader's own key argument, and the fetch runs against
	// context.Background() rather than any one caller's request context,
	// matching internal/objectstore.Client's LoaderFunc.
	cache.SetLoaderFunction(c.loadManifest)

	cache.SetExpirationReasonCallback(func(key string, reason ttlcache.EvictionReason, value interface{}) {
		c.mu.Lock()
		size := c.weights[key]
		delete(c.weights, key)
		c.removeFromOrderLocked(key)
		c.mu.Unlock()
		log.Debug().
			Str("cache_event", "evict").
			Str("cache", "zarr-manifests").
			Str("manifest", key).
			Int64("manifest_size", size).
			Str("cause", evictionReasonString(reason)).
			Msg("Zarr manifest evicted from cache")
	})

	return c
}

func evictionReasonString(r ttlcache.EvictionReason) string {
	switch r {
	case ttlcache.EvictionReasonExpired:
		return "expired"
	case ttlcache.EvictionReasonRemoved:
		return "removed"
	case ttlcache.EvictionReasonCapacityReached:
		return "capacity"
	default:
		return "unknown"
	}
}

// FetchIndex retrieves the directory listing at dir (or the manifest root
// itself, when dir is nil).
func (c *Client) FetchIndex(ctx context.Context, dir *paths.PureDirPath) (Index, error) {
	u := *c.manifestRootURL
	if dir != nil && !dir.IsRoot() {
		u2 := httpclient.JoinPathSlashed(&u, componentStrings(dir.Parts())...)
		u = *u2
	}
	var idx Index
	if err := c.http.GetJSON(ctx, &u, &idx); err != nil {
		return Index{}, err
	}
	return idx, nil
}

func componentStrings(cs []paths.Component) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

// FetchManifest retrieves the parsed manifest at path, from the cache if
// present, otherwise via HTTP. Concurrent calls for the same missing path
// coalesce into a single fetch, courtesy of ttlcache's loader semantics.
func (c *Client) FetchManifest(ctx context.Context, path ManifestPath) (*Manifest, error) {
	key := path.String()

	v, err := c.cache.Get(key)
	if err != nil {
		return nil, err
	}
	man := v.(*Manifest)
	c.log.Debug().
		Str("cache_event", "hit").
		Str("cache", "zarr-manifests").
		Str("manifest", key).
		Msg("Fetched Zarr manifest from cache")
	return man, nil
}

// loadManifest is the cache's single loader, installed once in New. It is
// invoked on a cache miss for key (a ManifestPath.String()) and must derive
// everything it needs from key alone: the cache holds one loader for all
// keys, so it cannot close over any particular FetchManifest call's path or
// context without racing concurrent misses on other keys. It fetches against
// context.Background() rather than a caller's request context, since the
// fetch it performs may outlive, or be shared by, the requests that triggered
// it.
func (c *Client) loadManifest(key string) (interface{}, time.Duration, error) {
	path, err := ParseManifestPath(key)
	if err != nil {
		return nil, 0, err
	}
	traceID := uuid.New()

	c.log.Debug().
		Str("cache_event", "miss_pre").
		Str("cache", "zarr-manifests").
		Str("manifest", key).
		Str("fetch_id", traceID.String()).
		Msg("Cache miss for Zarr manifest; about to fetch from repository")

	u := httpclient.JoinPathSlashed(c.manifestRootURL, componentStrings(manifestPathComponents(path))...)
	resp, err := c.http.Get(context.Background(), u)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	var man Manifest
	if err := json.NewDecoder(resp.Body).Decode(&man); err != nil {
		return nil, 0, fmt.Errorf("zarrman: failed to parse manifest at %s: %w", key, err)
	}

	size := man.HeapSize()
	c.mu.Lock()
	c.weights[key] = size
	c.appendOrderLocked(key)
	c.enforceWeightLocked()
	c.mu.Unlock()

	c.log.Debug().
		Str("cache_event", "miss_post").
		Str("cache", "zarr-manifests").
		Str("manifest", key).
		Int64("manifest_size", size).
		Msg("Fetched Zarr manifest from repository")
	return &man, IdleExpiry, nil
}

func manifestPathComponents(p ManifestPath) []paths.Component {
	parts := append([]paths.Component{}, p.Prefix.Parts()...)
	parts = append(parts, paths.MustComponent(p.ZarrID), paths.MustComponent(p.Checksum+".zarr"))
	return parts
}

// enforceWeightLocked evicts the oldest-inserted manifests until the total
// estimated weight is at or under maxWeight. Must be called with c.mu held.
//
// ttlcache/v2 does not support a size-weighted eviction policy natively (only
// idle-based TTL and an optional entry-count cap), so the weight cap is
// enforced here against the insertion-order list rather than true
// least-recently-used order.
func (c *Client) enforceWeightLocked() {
	if c.maxWeight <= 0 {
		return
	}
	total := int64(0)
	for _, w := range c.weights {
		total += w
	}
	for total > c.maxWeight && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		total -= c.weights[oldest]
		delete(c.weights, oldest)
		c.mu.Unlock()
		_ = c.cache.Remove(oldest)
		c.mu.Lock()
	}
}

func (c *Client) appendOrderLocked(key string) {
	c.removeFromOrderLocked(key)
	c.order = append(c.order, key)
}

func (c *Client) removeFromOrderLocked(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// InstallPeriodicDump starts a goroutine that logs the cache's current
// (path, size) contents at the given period until ctx is canceled.
func (c *Client) InstallPeriodicDump(ctx context.Context, period time.Duration) {
	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.logCache()
			}
		}
	}()
}

type entryStat struct {
	ManifestPath string `json:"manifest_path"`
	Size         int64  `json:"size"`
}

func (c *Client) logCache() {
	c.mu.Lock()
	stats := make([]entryStat, 0, len(c.weights))
	for path, size := range c.weights {
		stats = append(stats, entryStat{ManifestPath: path, Size: size})
	}
	c.mu.Unlock()

	entriesJSON, err := json.Marshal(stats)
	if err != nil {
		c.log.Warn().
			Str("cache_event", "dump-error").
			Str("cache", "zarr-manifests").
			Err(err).
			Msg("Failed to serialize cache contents as JSON")
		return
	}
	c.log.Debug().
		Str("cache_event", "dump").
		Str("cache", "zarr-manifests").
		Str("entries_json", string(entriesJSON)).
		Msg("Dumping cached manifests and their sizes")
}
