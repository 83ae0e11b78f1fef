// Package querycache holds the latest known server state per collection key
// and notifies subscribers when it changes.
//
// The visible value of a key is its authoritative value (the last Set or
// fetch result) with optimistic layers folded on top in the order they were
// applied. Layers belong to in-flight or recently confirmed mutations; a
// failed mutation removes only its own layer, so later layers survive.
package querycache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jordanlanch/salescrm/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// Updater is a pure transformation of a cached value. It must not modify
// its argument in place.
type Updater func(current any) any

// Fetcher reads the authoritative value of a key from the store.
type Fetcher func(ctx context.Context) (any, error)

// Observer receives fetch timings. Implemented by the metrics package.
type Observer interface {
	ObserveFetch(key string, duration time.Duration, err error)
}

// State is a point-in-time read of a key.
type State struct {
	Key     string
	Data    any
	Loaded  bool
	Loading bool
	Stale   bool
	Err     error
	// Version increases on every change visible to subscribers.
	Version uint64
	// Pending counts optimistic layers not yet confirmed by the store.
	Pending int
}

// Layer identifies one optimistic patch applied through Apply.
type Layer struct {
	key string
	seq uint64
}

type layer struct {
	seq       uint64
	update    Updater
	settled   bool
	settledAt uint64
}

type subscriber struct {
	id   uint64
	fn   func(State)
	sent *watermark
}

// watermark serializes deliveries to one subscriber and remembers the
// highest Version it was handed.
type watermark struct {
	mu      sync.Mutex
	version uint64
}

type entry struct {
	base      any
	visible   any
	loaded    bool
	inflight  int
	stale     bool
	err       error
	version   uint64
	fetchedAt uint64
	layers    []*layer
	subs      []subscriber
	fetcher   Fetcher
}

// Cache is a process-wide, key-addressed store of collection snapshots.
// Create one per session with New; instances are independent.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	clock   uint64

	group    singleflight.Group
	closed   bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	logger   logger.Logger
	observer Observer
	timeout  time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the cache logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// WithObserver reports fetch timings to o.
func WithObserver(o Observer) Option {
	return func(c *Cache) { c.observer = o }
}

// WithFetchTimeout bounds background refetches.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) { c.timeout = d }
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		entries: make(map[string]*entry),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.Discard(),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "querycache")
	return c
}

// Close stops background refetches and waits for them to exit.
func (c *Cache) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Cache) entry(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

func (c *Cache) tick() uint64 {
	c.clock++
	return c.clock
}

// Get returns the current state of key. ok is false until the key has been
// loaded at least once.
func (c *Cache) Get(key string) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key]
	if !exists {
		return State{Key: key}, false
	}
	return e.state(key), e.loaded
}

// Set replaces the authoritative value of key and notifies subscribers.
// Confirmed optimistic layers are dropped; pending ones stay on top.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	e := c.entry(key)
	e.base = value
	e.loaded = true
	e.stale = false
	e.err = nil
	e.fetchedAt = c.tick()
	e.dropSettled(e.fetchedAt)
	e.recompute()
	st, subs := e.changed(key)
	c.mu.Unlock()

	notify(subs, st)
}

// Patch applies fn to the authoritative value of key. It does nothing and
// returns false when key was never loaded.
func (c *Cache) Patch(key string, fn Updater) bool {
	c.mu.Lock()
	e, exists := c.entries[key]
	if !exists || !e.loaded {
		c.mu.Unlock()
		return false
	}
	e.base = fn(e.base)
	e.recompute()
	st, subs := e.changed(key)
	c.mu.Unlock()

	notify(subs, st)
	return true
}

// SetError records a read failure for key. Previously cached data stays
// visible.
func (c *Cache) SetError(key string, err error) {
	c.mu.Lock()
	e := c.entry(key)
	e.err = err
	st, subs := e.changed(key)
	c.mu.Unlock()

	notify(subs, st)
}

// Invalidate marks key stale without clearing it. When a fetcher is
// registered and someone is subscribed, a refetch starts in the background.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	e := c.entry(key)
	e.stale = true
	refetch := e.fetcher != nil && len(e.subs) > 0
	st, subs := e.changed(key)
	c.mu.Unlock()

	notify(subs, st)
	if refetch {
		c.refetchAsync(key)
	}
}

// Subscribe registers fn to be called after every change to key. The
// returned function removes the subscription and is safe to call twice.
//
// Deliveries happen outside the cache lock but never overlap for one
// subscription, and a state older than one fn already received is dropped,
// so fn sees strictly increasing Versions. fn must not change key itself.
func (c *Cache) Subscribe(key string, fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	e := c.entry(key)
	id := c.tick()
	e.subs = append(e.subs, subscriber{id: id, fn: fn, sent: &watermark{}})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range e.subs {
				if s.id == id {
					e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Register sets the fetcher used by Load and background refetches.
func (c *Cache) Register(key string, fetch Fetcher) {
	c.mu.Lock()
	c.entry(key).fetcher = fetch
	c.mu.Unlock()
}

type fetchResult struct {
	value     any
	startedAt uint64
}

// Load fetches key from the store and stores the result. Concurrent loads
// of the same key share one fetch. On failure the error is recorded on the
// key and returned; cached data is left in place.
func (c *Cache) Load(ctx context.Context, key string) (State, error) {
	c.mu.Lock()
	e := c.entry(key)
	fetch := e.fetcher
	if fetch == nil {
		c.mu.Unlock()
		return State{Key: key}, fmt.Errorf("no fetcher registered for %q", key)
	}
	e.inflight++
	st, subs := e.changed(key)
	c.mu.Unlock()
	notify(subs, st)

	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.Lock()
		startedAt := c.tick()
		c.mu.Unlock()

		start := time.Now()
		value, err := fetch(ctx)
		if c.observer != nil {
			c.observer.ObserveFetch(key, time.Since(start), err)
		}
		if err != nil {
			return nil, err
		}
		return fetchResult{value: value, startedAt: startedAt}, nil
	})
	if err != nil {
		c.logger.Warn("Collection load failed", "key", key, "error", err)
		c.mu.Lock()
		e.inflight--
		e.err = err
		st, subs := e.changed(key)
		c.mu.Unlock()
		notify(subs, st)
		return st, err
	}

	res := v.(fetchResult)
	again := c.resolve(key, res)
	if again {
		c.refetchAsync(key)
	}
	st, _ = c.Get(key)
	return st, nil
}

// resolve stores a fetch result unless a newer value already landed. It
// reports whether confirmed layers survived, meaning the fetch may predate
// their writes and another refetch is needed.
func (c *Cache) resolve(key string, res fetchResult) bool {
	c.mu.Lock()
	e := c.entry(key)
	e.inflight--
	if e.loaded && e.fetchedAt >= res.startedAt {
		st, subs := e.changed(key)
		c.mu.Unlock()
		notify(subs, st)
		return false
	}
	e.base = res.value
	e.loaded = true
	e.stale = false
	e.err = nil
	e.fetchedAt = res.startedAt
	e.dropSettled(res.startedAt)
	e.recompute()
	again := e.hasSettled()
	st, subs := e.changed(key)
	c.mu.Unlock()

	notify(subs, st)
	return again
}

// LoadAfter loads key until l no longer contributes to the visible value.
// A Load can join a fetch that started before l was settled; that result
// keeps l on top of a base that may already contain the write, so the key
// is fetched again. Layers that were rolled back or never applied return
// after the first Load.
func (c *Cache) LoadAfter(ctx context.Context, l Layer) (State, error) {
	const attempts = 3
	var (
		st  State
		err error
	)
	for i := 0; i < attempts; i++ {
		if i > 0 {
			c.group.Forget(l.key)
		}
		st, err = c.Load(ctx, l.key)
		if err != nil || !c.holds(l) {
			return st, err
		}
	}
	return st, fmt.Errorf("confirmed layer on %q outlived %d fetches", l.key, attempts)
}

// holds reports whether l is still layered on its key.
func (c *Cache) holds(l Layer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, exists := c.entries[l.key]
	if !exists {
		return false
	}
	for _, ly := range e.layers {
		if ly.seq == l.seq {
			return true
		}
	}
	return false
}

// Ensure starts a background load when key is unloaded or stale and no
// load is running, and returns the current state either way.
func (c *Cache) Ensure(key string) State {
	c.mu.Lock()
	e := c.entry(key)
	need := e.fetcher != nil && e.inflight == 0 && (!e.loaded || e.stale)
	st := e.state(key)
	c.mu.Unlock()

	if need {
		c.refetchAsync(key)
		st.Loading = true
	}
	return st
}

func (c *Cache) refetchAsync(key string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
		defer cancel()
		if _, err := c.Load(ctx, key); err != nil {
			c.logger.Debug("Background refetch failed", "key", key, "error", err)
		}
	}()
}

// Apply layers fn on top of key's visible value. It returns the value
// visible just before the layer was added. ok is false when key was never
// loaded, in which case nothing is applied.
func (c *Cache) Apply(key string, fn Updater) (l Layer, snapshot any, ok bool) {
	c.mu.Lock()
	e, exists := c.entries[key]
	if !exists || !e.loaded {
		c.mu.Unlock()
		return Layer{}, nil, false
	}
	snapshot = e.visible
	seq := c.tick()
	e.layers = append(e.layers, &layer{seq: seq, update: fn})
	e.visible = fn(e.visible)
	st, subs := e.changed(key)
	c.mu.Unlock()

	notify(subs, st)
	return Layer{key: key, seq: seq}, snapshot, true
}

// Rollback removes l and returns the recomputed visible value. Layers
// applied after l are replayed over what remains.
func (c *Cache) Rollback(l Layer) any {
	c.mu.Lock()
	e, exists := c.entries[l.key]
	if !exists {
		c.mu.Unlock()
		return nil
	}
	removed := false
	for i, ly := range e.layers {
		if ly.seq == l.seq {
			e.layers = append(e.layers[:i:i], e.layers[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		v := e.visible
		c.mu.Unlock()
		return v
	}
	e.recompute()
	v := e.visible
	st, subs := e.changed(l.key)
	c.mu.Unlock()

	notify(subs, st)
	return v
}

// Settle marks l as confirmed by the store. The layer stays visible until a
// fetch that started after this point replaces it.
func (c *Cache) Settle(l Layer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[l.key]
	if !exists {
		return
	}
	for _, ly := range e.layers {
		if ly.seq == l.seq {
			ly.settled = true
			ly.settledAt = c.tick()
			return
		}
	}
}

func (e *entry) recompute() {
	v := e.base
	for _, ly := range e.layers {
		v = ly.update(v)
	}
	e.visible = v
}

func (e *entry) dropSettled(before uint64) {
	kept := e.layers[:0:0]
	for _, ly := range e.layers {
		if ly.settled && ly.settledAt < before {
			continue
		}
		kept = append(kept, ly)
	}
	e.layers = kept
}

func (e *entry) hasSettled() bool {
	for _, ly := range e.layers {
		if ly.settled {
			return true
		}
	}
	return false
}

func (e *entry) state(key string) State {
	pending := 0
	for _, ly := range e.layers {
		if !ly.settled {
			pending++
		}
	}
	return State{
		Key:     key,
		Data:    e.visible,
		Loaded:  e.loaded,
		Loading: e.inflight > 0,
		Stale:   e.stale,
		Err:     e.err,
		Version: e.version,
		Pending: pending,
	}
}

// changed bumps the version and returns what to deliver once the lock is
// released.
func (e *entry) changed(key string) (State, []subscriber) {
	e.version++
	subs := make([]subscriber, len(e.subs))
	copy(subs, e.subs)
	return e.state(key), subs
}

func notify(subs []subscriber, st State) {
	for _, s := range subs {
		s.sent.deliver(s.fn, st)
	}
}

func (w *watermark) deliver(fn func(State), st State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if st.Version <= w.version {
		return
	}
	w.version = st.Version
	fn(st)
}
