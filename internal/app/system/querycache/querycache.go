// Package querycache is the read cache in front of the backend API.
//
// Identical keys in flight share one call. Completed values are kept until
// their TTL passes, the entry is evicted or the resource is invalidated.
// Failures reach only the callers waiting on that call unless FailureTTL is
// set. Mutations never write into the cache; they invalidate the resource
// names whose data they changed.
package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrDisabled is returned by Fetch when the query is not enabled. It means
// "not loaded yet", not a failure.
var ErrDisabled = errors.New("querycache: query disabled")

// Resource names.
const (
	CurrentUser              = "currentUser"
	CurrentOrganization      = "currentOrganization"
	OrganizationProfile      = "organizationProfile"
	Organizations            = "organizations"
	HighlightedOrganizations = "highlightedOrganizations"
	Sectors                  = "sectors"
	Sector                   = "sector"
	Subsectors               = "subsectors"
	HomePage                 = "homePage"
	AboutPage                = "aboutPage"
	ThemesPage               = "themesPage"
)

// Key identifies one cached query: a resource name plus its parameters.
type Key struct {
	Resource string
	Params   []any
}

// K is shorthand for Key{resource, params}.
func K(resource string, params ...any) Key {
	return Key{Resource: resource, Params: params}
}

// String is the canonical form of k. Equal keys always render equally.
func (k Key) String() string {
	if len(k.Params) == 0 {
		return k.Resource
	}
	parts := make([]string, 0, len(k.Params)+1)
	parts = append(parts, k.Resource)
	for _, p := range k.Params {
		parts = append(parts, canonical(p))
	}
	return strings.Join(parts, "\x1f")
}

func canonical(p any) string {
	switch v := p.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	}
	if raw, err := json.Marshal(p); err == nil {
		return string(raw)
	}
	return fmt.Sprintf("%#v", p)
}

// Config configures a Cache.
type Config struct {
	TTL          time.Duration // lifetime of a successful result
	FailureTTL   time.Duration // lifetime of a failed result; zero never stores failures
	MaxEntries   int
	FetchTimeout time.Duration // bound on a detached fetch
	Logger       *zap.Logger
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Collapsed     uint64 `json:"collapsed"`
	Discarded     uint64 `json:"discarded"`
	Invalidations uint64 `json:"invalidations"`
	Entries       int    `json:"entries"`
}

// Cache is safe for concurrent use.
type Cache struct {
	cfg    Config
	logger *zap.Logger
	group  singleflight.Group

	mu      sync.Mutex
	entries *lru.Cache
	gen     map[string]uint64 // resource → generation
	stats   Stats
	now     func() time.Time
}

type entry struct {
	val     any
	err     error
	gen     uint64
	expires time.Time
}

// New returns an empty Cache.
func New(cfg Config) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1000
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		cfg:     cfg,
		logger:  logger.Named("querycache"),
		entries: lru.New(cfg.MaxEntries),
		gen:     make(map[string]uint64),
		now:     time.Now,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Fetch                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

type fetchOptions struct {
	enabled bool
	ttl     time.Duration
}

// Option adjusts one Fetch.
type Option func(*fetchOptions)

// Enabled gates the query; a disabled query makes no call and returns
// ErrDisabled.
func Enabled(on bool) Option {
	return func(o *fetchOptions) { o.enabled = on }
}

// TTL overrides the success TTL for this fetch.
func TTL(d time.Duration) Option {
	return func(o *fetchOptions) { o.ttl = d }
}

// Fetch returns the cached result for key, or runs fetch once for all
// concurrent callers and caches what it returns. When ctx ends first the
// caller gets ctx.Err() while the fetch runs on, detached, and its result is
// still cached.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error), opts ...Option) (T, error) {
	var zero T
	o := fetchOptions{enabled: true, ttl: c.cfg.TTL}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.enabled {
		return zero, ErrDisabled
	}

	ks := key.String()

	c.mu.Lock()
	if e, ok := c.lookup(key.Resource, ks); ok {
		if v, isT := e.val.(T); isT || e.err != nil {
			c.stats.Hits++
			c.mu.Unlock()
			return v, e.err
		}
	}
	c.stats.Misses++
	gen := c.gen[key.Resource]
	c.mu.Unlock()

	// Callers arriving after an invalidation must not join a call that
	// started before it.
	flightKey := ks + "\x1e" + strconv.FormatUint(gen, 10)

	ch := c.group.DoChan(flightKey, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.FetchTimeout)
		defer cancel()
		v, err := fetch(fctx)
		c.store(key.Resource, ks, gen, v, err, o.ttl)
		return v, err
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.mu.Lock()
			c.stats.Collapsed++
			c.mu.Unlock()
		}
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// lookup returns a live entry. c.mu must be held.
func (c *Cache) lookup(resource, ks string) (*entry, bool) {
	raw, ok := c.entries.Get(ks)
	if !ok {
		return nil, false
	}
	e := raw.(*entry)
	if e.gen != c.gen[resource] || !c.now().Before(e.expires) {
		c.entries.Remove(ks)
		return nil, false
	}
	return e, true
}

func (c *Cache) store(resource, ks string, gen uint64, v any, err error, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen[resource] {
		c.stats.Discarded++
		c.logger.Debug("discarding result invalidated in flight", zap.String("key", printable(ks)))
		return
	}
	if err != nil {
		if c.cfg.FailureTTL <= 0 {
			return
		}
		ttl = c.cfg.FailureTTL
	}
	c.entries.Add(ks, &entry{val: v, err: err, gen: gen, expires: c.now().Add(ttl)})
}

/*─────────────────────────────────────────────────────────────────────────────*
| Invalidation                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// Invalidate marks every entry under each resource stale. Fetches already in
// flight for them complete but their results are not stored.
func (c *Cache) Invalidate(resources ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range resources {
		c.gen[r]++
		c.stats.Invalidations++
	}
	c.logger.Debug("invalidated", zap.Strings("resources", resources))
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = c.entries.Len()
	return s
}

func printable(ks string) string {
	return strings.ReplaceAll(ks, "\x1f", " ")
}
