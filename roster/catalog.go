/*
Package roster caches the member and shift directory.

PURPOSE:
The console needs the roster on nearly every screen (assignment pickers,
request listings, the weekly grid header) but the directory changes
rarely. Catalog fetches it once, keeps it for a TTL, and optionally
persists it through a Store so a restart does not need the network
before first paint.

KEY CONCEPTS:
  - Directory: where fresh data comes from (the REST client).
  - Store: optional persistence between runs (store/sqlite).
  - Staleness: expired cache triggers a refetch; if the refetch fails
    the stale copy is served so the console degrades instead of dying.
*/
package roster

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/meridian/shiftboard/client"
)

// DefaultTTL is how long a fetched roster is trusted.
const DefaultTTL = 5 * time.Minute

// Directory serves fresh roster data. *client.Client satisfies this.
type Directory interface {
	ListMembers(ctx context.Context) ([]client.Member, error)
	ListShifts(ctx context.Context) ([]client.ShiftTemplate, error)
}

// Store persists a fetched roster between console runs.
type Store interface {
	LoadCatalog() ([]client.Member, []client.ShiftTemplate, time.Time, error)
	SaveCatalog(members []client.Member, shifts []client.ShiftTemplate, fetchedAt time.Time) error
}

// Catalog is a TTL cache over a Directory. Safe for concurrent use.
type Catalog struct {
	dir   Directory
	store Store
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time

	mu        sync.Mutex
	members   []client.Member
	shifts    []client.ShiftTemplate
	fetchedAt time.Time
	primed    bool
}

// Option tweaks a Catalog at construction time.
type Option func(*Catalog)

// WithStore persists fetched rosters and seeds the cache on startup.
func WithStore(s Store) Option { return func(c *Catalog) { c.store = s } }

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) Option { return func(c *Catalog) { c.ttl = ttl } }

// WithLogger attaches a logger; nil stays a no-op.
func WithLogger(log *zap.Logger) Option {
	return func(c *Catalog) {
		if log != nil {
			c.log = log
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(c *Catalog) { c.now = now } }

// NewCatalog builds a catalog over a directory. If a store is attached
// its persisted copy seeds the cache immediately, stale or not.
func NewCatalog(dir Directory, opts ...Option) *Catalog {
	c := &Catalog{
		dir: dir,
		ttl: DefaultTTL,
		log: zap.NewNop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store != nil {
		if members, shifts, fetchedAt, err := c.store.LoadCatalog(); err == nil && !fetchedAt.IsZero() {
			c.members = members
			c.shifts = shifts
			c.fetchedAt = fetchedAt
			c.primed = true
		} else if err != nil {
			c.log.Warn("catalog store load failed", zap.Error(err))
		}
	}
	return c
}

// Members returns the cached roster, refetching when the TTL expired.
func (c *Catalog) Members(ctx context.Context) ([]client.Member, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]client.Member, len(c.members))
	copy(out, c.members)
	return out, nil
}

// Shifts returns the cached shift templates, refetching when stale.
func (c *Catalog) Shifts(ctx context.Context) ([]client.ShiftTemplate, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]client.ShiftTemplate, len(c.shifts))
	copy(out, c.shifts)
	return out, nil
}

// MemberByID looks one member up in the cached roster.
func (c *Catalog) MemberByID(ctx context.Context, id string) (client.Member, bool, error) {
	members, err := c.Members(ctx)
	if err != nil {
		return client.Member{}, false, err
	}
	for _, m := range members {
		if m.ID == id {
			return m, true, nil
		}
	}
	return client.Member{}, false, nil
}

// Invalidate drops the cache so the next read refetches.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.primed = false
	c.fetchedAt = time.Time{}
}

// ensureFresh refetches when the cache is unset or expired. A fetch
// failure with a primed cache falls back to the stale copy.
func (c *Catalog) ensureFresh(ctx context.Context) error {
	c.mu.Lock()
	fresh := c.primed && c.now().Sub(c.fetchedAt) < c.ttl
	c.mu.Unlock()
	if fresh {
		return nil
	}

	members, merr := c.dir.ListMembers(ctx)
	if merr == nil {
		shifts, serr := c.dir.ListShifts(ctx)
		if serr == nil {
			fetchedAt := c.now()
			c.mu.Lock()
			c.members = members
			c.shifts = shifts
			c.fetchedAt = fetchedAt
			c.primed = true
			c.mu.Unlock()
			if c.store != nil {
				if err := c.store.SaveCatalog(members, shifts, fetchedAt); err != nil {
					c.log.Warn("catalog store save failed", zap.Error(err))
				}
			}
			return nil
		}
		merr = serr
	}

	c.mu.Lock()
	primed := c.primed
	c.mu.Unlock()
	if primed {
		c.log.Warn("roster refresh failed, serving stale catalog", zap.Error(merr))
		return nil
	}
	return merr
}
