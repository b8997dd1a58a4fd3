package supply

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/openfroyo/plancore/pkg/core"
	"github.com/openfroyo/plancore/pkg/telemetry"
)

// ReclamationPolicy decides what happens to a supply whose active count reaches zero.
type ReclamationPolicy string

const (
	// ReclamationEager drops and destroys the supply as soon as its count reaches zero.
	ReclamationEager ReclamationPolicy = "eager"

	// ReclamationDeferred keeps the supply cached until Close. A later demand reuses it.
	ReclamationDeferred ReclamationPolicy = "deferred"
)

// Hook observes supplies entering or leaving the cache. Hooks run outside the cache lock.
type Hook func(d Demand, s Supply)

type entry struct {
	once   sync.Once
	supply Supply
	active int
}

// Cache is the Manager implementation. It is safe for concurrent use: every
// Demand and Cancel runs its read-check-write in one critical section.
type Cache struct {
	mu      sync.Mutex
	entries map[Demand]*entry
	closed  bool

	policy    ReclamationPolicy
	onCreate  []Hook
	onDestroy []Hook
	logger    zerolog.Logger
	metrics   *telemetry.Metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithReclamation sets the reclamation policy. The default is ReclamationEager.
func WithReclamation(p ReclamationPolicy) Option {
	return func(c *Cache) {
		if p != "" {
			c.policy = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger.With().Str("component", "supply-cache").Logger()
	}
}

// WithMetrics records demands and cancels on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithCreateHook registers a hook called after a supply is created.
func WithCreateHook(h Hook) Option {
	return func(c *Cache) {
		c.onCreate = append(c.onCreate, h)
	}
}

// WithDestroyHook registers a hook called after a supply leaves the cache.
func WithDestroyHook(h Hook) Option {
	return func(c *Cache) {
		c.onDestroy = append(c.onDestroy, h)
	}
}

// NewCache creates an empty cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[Demand]*entry),
		policy:  ReclamationEager,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the reclamation policy.
func (c *Cache) Policy() ReclamationPolicy {
	return c.policy
}

// Demand implements Manager.
func (c *Cache) Demand(d Demand) (Supply, error) {
	if err := checkDemand(d); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, core.NewUsageError("supply cache is closed", nil).
			WithCode(core.ErrCodeClosed).
			WithOperation("demand")
	}
	e, ok := c.entries[d]
	if !ok {
		e = &entry{}
		c.entries[d] = e
	}
	e.active++
	c.mu.Unlock()

	// Concurrent demanders of the same entry block here until the first one built it.
	created := false
	e.once.Do(func() {
		e.supply = d.CreateExternalizedSupply(c)
		created = true
	})

	c.metrics.RecordSupplyDemand(created)
	if created {
		c.logger.Debug().Str("demand", describeDemand(d)).Msg("Supply created")
		for _, h := range c.onCreate {
			h(d, e.supply)
		}
	}
	return e.supply, nil
}

// Cancel implements Manager.
func (c *Cache) Cancel(d Demand) bool {
	if checkDemand(d) != nil {
		return false
	}

	c.mu.Lock()
	e, ok := c.entries[d]
	if !ok || e.active == 0 {
		c.mu.Unlock()
		return false
	}
	e.active--
	reclaim := e.active == 0 && c.policy == ReclamationEager
	if reclaim {
		delete(c.entries, d)
	}
	c.mu.Unlock()

	c.metrics.RecordSupplyCancel(reclaim)
	if reclaim {
		c.destroy(d, e)
	}
	return true
}

// ActiveCount implements Manager.
func (c *Cache) ActiveCount(d Demand) int {
	if checkDemand(d) != nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[d]; ok {
		return e.active
	}
	return 0
}

// Len returns the number of cached supplies, including deferred ones with no holds.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close destroys every cached supply. Later demands fail. Close is idempotent.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	entries := c.entries
	c.entries = make(map[Demand]*entry)
	c.mu.Unlock()

	for d, e := range entries {
		c.destroy(d, e)
	}
	c.metrics.RecordSuppliesDestroyed(len(entries))
	c.logger.Debug().Int("supplies", len(entries)).Msg("Supply cache closed")
}

func (c *Cache) destroy(d Demand, e *entry) {
	// wait for a creation still in flight
	e.once.Do(func() {})
	if e.supply == nil {
		return
	}
	if x, ok := e.supply.(Destroyable); ok {
		x.Destroy()
	}
	c.logger.Debug().Str("demand", describeDemand(d)).Msg("Supply destroyed")
	for _, h := range c.onDestroy {
		h(d, e.supply)
	}
}

func checkDemand(d Demand) error {
	if d == nil {
		return core.NewUsageError("demand is nil", nil).WithOperation("demand")
	}
	if !core.IsComparable(d) {
		return core.NewUsageError(fmt.Sprintf("demand %T is not comparable", d), nil).
			WithCode(core.ErrCodeNonComparable).
			WithOperation("demand")
	}
	return nil
}

func describeDemand(d Demand) string {
	if s, ok := d.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", d)
}
