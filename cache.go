package identitycache

import (
	"iter"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/karupanerura/identity-cache/expiration"
	"github.com/karupanerura/identity-cache/index"
	"github.com/karupanerura/identity-cache/internal/iterutil"
	"github.com/karupanerura/identity-cache/internal/shardmap"
)

type entry[V ValueConstraint] struct {
	value V

	// identities are the identity keys indexed for this entry.
	// Put leaves exactly one. PutIfAbsent on a present key may add another.
	identities []IdentityKey

	// timer is the token of the armed expiration, or zero.
	timer expiration.Token

	// expiresAt is the deadline of the armed expiration, or zero.
	expiresAt time.Time
}

func (e *entry[V]) matches(match func([]string) bool) bool {
	for _, id := range e.identities {
		if match(id) {
			return true
		}
	}
	return false
}

// Cache is a thread-safe cache that indexes every value by the identity key derived from it,
// so entries can be evicted by identity token regardless of the primary key they are stored under.
//
// Lock order is primary store shard, then secondary index shard, then the expiration queue.
type Cache[K KeyConstraint, V ValueConstraint] struct {
	store     *shardmap.Map[K, *entry[V]]
	index     *index.Index[K]
	scheduler *expiration.Scheduler[K]
	ttl       time.Duration
	clock     Clock
	closed    atomic.Bool
	cloner    ValueCloner[V]
	logger    *slog.Logger
	listener  EvictionListener[K, V]
}

// New creates a new cache.
// When a time-to-live is configured, a background goroutine runs the expirations until Close is called.
func New[K KeyConstraint, V ValueConstraint](opts ...Option[K, V]) *Cache[K, V] {
	options := defaultOptions[K, V]()
	for _, opt := range opts {
		opt.apply(&options)
	}

	storeOpts := []shardmap.Option[K]{
		shardmap.WithBucketsSize[K](options.shardsSize),
		shardmap.WithCapacity[K](options.capacity),
	}
	if options.hashKey != nil {
		storeOpts = append(storeOpts, shardmap.WithKeyHash(options.hashKey))
	}

	c := &Cache[K, V]{
		store:    shardmap.New[K, *entry[V]](storeOpts...),
		index:    index.New[K](index.WithBucketsSize(options.shardsSize), index.WithCapacity(options.capacity)),
		ttl:      options.ttl,
		clock:    options.clock,
		cloner:   options.cloner,
		logger:   options.logger,
		listener: options.listener,
	}
	if c.ttl > 0 {
		c.scheduler = expiration.NewScheduler(
			c.expire,
			expiration.WithNow(options.clock.Now),
			expiration.WithCapacity(options.capacity),
			expiration.WithPanicHandler(func(err error) {
				c.logger.Error("panic in expiration worker", slog.Any("error", err))
			}),
		)
	}
	return c
}

// Put stores the value under the key and indexes it by its identity key.
// It returns a clone of the previous value, if any. A previous value past its deadline
// counts as expired and is not returned.
// If the identity key cannot be derived, Put returns an error matching ErrNotIdentifiable and changes nothing.
func (c *Cache[K, V]) Put(key K, value V) (old V, loaded bool, err error) {
	identity, err := c.derive(key, value)
	if err != nil {
		return old, false, err
	}

	stored := c.cloner.CloneValue(value)
	var expired *entry[V]
	c.store.Compute(key, func(prev *entry[V], ok bool) (*entry[V], shardmap.Op) {
		c.index.Add(identity, key)
		if ok {
			for _, id := range prev.identities {
				if !id.Equal(identity) {
					c.index.Remove(id, key)
				}
			}
			if c.live(prev) {
				old, loaded = c.cloner.CloneValue(prev.value), true
			} else {
				expired = prev
			}
		}
		timer, at := c.arm(key)
		return &entry[V]{
			value:      stored,
			identities: []IdentityKey{identity},
			timer:      timer,
			expiresAt:  at,
		}, shardmap.Store
	})
	if expired != nil {
		c.notify(key, expired.value, EvictionReasonExpired)
	}
	return old, loaded, nil
}

// PutIfAbsent stores the value only if the key is absent.
// It returns the present value when the key already exists.
//
// The identity key of the given value is indexed and the time-to-live is re-armed even when
// the key already exists. The present entry then answers to both its own identity tokens
// and those of the rejected value. A present entry past its deadline counts as absent.
// If the identity key cannot be derived, PutIfAbsent returns an error matching ErrNotIdentifiable and changes nothing.
func (c *Cache[K, V]) PutIfAbsent(key K, value V) (actual V, loaded bool, err error) {
	identity, err := c.derive(key, value)
	if err != nil {
		return actual, false, err
	}

	stored := c.cloner.CloneValue(value)
	var expired *entry[V]
	c.store.Compute(key, func(prev *entry[V], ok bool) (*entry[V], shardmap.Op) {
		if ok && !c.live(prev) {
			c.unindex(key, prev)
			expired, ok = prev, false
		}
		c.index.Add(identity, key)
		timer, at := c.arm(key)
		if !ok {
			return &entry[V]{
				value:      stored,
				identities: []IdentityKey{identity},
				timer:      timer,
				expiresAt:  at,
			}, shardmap.Store
		}

		actual, loaded = c.cloner.CloneValue(prev.value), true
		identities := prev.identities
		if !slices.ContainsFunc(identities, identity.Equal) {
			identities = append(slices.Clip(identities), identity)
		}
		return &entry[V]{
			value:      prev.value,
			identities: identities,
			timer:      timer,
			expiresAt:  at,
		}, shardmap.Store
	})
	if expired != nil {
		c.notify(key, expired.value, EvictionReasonExpired)
	}
	return actual, loaded, nil
}

// Get returns the value stored under the key.
// It does not extend the time-to-live. An entry past its deadline is a miss,
// even before the expiration worker removed it.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	e, ok := c.store.Load(key)
	if !ok || !c.live(e) {
		var zero V
		return zero, false
	}
	return c.cloner.CloneValue(e.value), true
}

// Remove removes the key together with its identity index entries and its pending expiration.
// It reports whether the key was present. An entry past its deadline is removed
// as expired and reported as absent.
func (c *Cache[K, V]) Remove(key K) bool {
	var removed *entry[V]
	c.store.Compute(key, func(prev *entry[V], ok bool) (*entry[V], shardmap.Op) {
		if !ok {
			return nil, shardmap.Keep
		}
		c.unindex(key, prev)
		c.disarm(key, prev)
		removed = prev
		return nil, shardmap.Delete
	})
	if removed == nil {
		return false
	}

	if !c.live(removed) {
		c.logger.Debug("entry expired", slog.Any("key", key))
		c.notify(key, removed.value, EvictionReasonExpired)
		return false
	}
	c.logger.Debug("entry removed", slog.Any("key", key))
	c.notify(key, removed.value, EvictionReasonRemoved)
	return true
}

// EvictByIdentity evicts every entry whose identity key contains the token.
// It returns the number of evicted entries.
func (c *Cache[K, V]) EvictByIdentity(token string) int {
	return c.EvictByIdentities(token)
}

// EvictByIdentities evicts every entry whose identity key contains at least one of the tokens.
// It returns the number of evicted entries.
func (c *Cache[K, V]) EvictByIdentities(tokens ...string) int {
	if len(tokens) == 0 {
		return 0
	}

	match := index.ContainsAny(tokens...)
	matches := c.index.Scan(match)
	keys := iterutil.Uniq(iterutil.FlatMap(slices.Values(matches), func(m index.Match[K]) iter.Seq[K] {
		return slices.Values(m.PrimaryKeys)
	}))

	evicted := 0
	for key := range keys {
		var e *entry[V]
		c.store.Compute(key, func(prev *entry[V], ok bool) (*entry[V], shardmap.Op) {
			// the entry may have been rewritten with another identity since the scan
			if !ok || !prev.matches(match) {
				return prev, shardmap.Keep
			}
			c.unindex(key, prev)
			c.disarm(key, prev)
			e = prev
			return nil, shardmap.Delete
		})
		if e == nil {
			continue
		}

		evicted++
		c.logger.Debug("entry evicted by identity", slog.Any("key", key), slog.Any("tokens", tokens))
		c.notify(key, e.value, EvictionReasonIdentity)
	}
	return evicted
}

// Len returns the number of entries.
// It counts entries past their deadline until the expiration worker removed them.
func (c *Cache[K, V]) Len() int {
	return c.store.Len()
}

// All returns an iterator over the entries.
// The entries are read shard by shard, and the cache may be modified while iterating.
func (c *Cache[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for key, e := range c.store.All() {
			if !c.live(e) {
				continue
			}
			if !yield(key, c.cloner.CloneValue(e.value)) {
				return
			}
		}
	}
}

// Close stops the expiration worker and cancels every pending expiration.
// The cache stays usable afterwards, but entries no longer expire.
// Close must not be called from an eviction listener.
func (c *Cache[K, V]) Close() error {
	c.closed.Store(true)
	if c.scheduler != nil {
		c.scheduler.Close()
	}
	return nil
}

func (c *Cache[K, V]) derive(key K, value V) (IdentityKey, error) {
	identity, err := DeriveIdentityKey(value)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("identity key derived", slog.Any("key", key), slog.String("identity", identity.String()))
	return identity, nil
}

// arm must be called with the key's store shard locked.
func (c *Cache[K, V]) arm(key K) (expiration.Token, time.Time) {
	if c.scheduler == nil {
		return 0, time.Time{}
	}

	at := c.clock.Now().Add(c.ttl)
	token := c.scheduler.ScheduleAt(key, at)
	if token == 0 {
		return 0, time.Time{}
	}
	c.logger.Debug("expiration armed", slog.Any("key", key), slog.Time("at", at))
	return token, at
}

// live reports whether the entry is before its deadline.
// An entry seen past its deadline wakes the expiration worker,
// so a clock that does not follow wall time still drives expirations.
func (c *Cache[K, V]) live(e *entry[V]) bool {
	if e.expiresAt.IsZero() || c.closed.Load() {
		return true
	}
	if c.clock.Now().Before(e.expiresAt) {
		return true
	}
	c.scheduler.Wake()
	return false
}

// disarm must be called with the key's store shard locked.
func (c *Cache[K, V]) disarm(key K, e *entry[V]) {
	if c.scheduler == nil || e.timer == 0 {
		return
	}
	if c.scheduler.Cancel(key) {
		c.logger.Debug("expiration cancelled", slog.Any("key", key))
	}
}

// unindex must be called with the key's store shard locked.
func (c *Cache[K, V]) unindex(key K, e *entry[V]) {
	for _, id := range e.identities {
		c.index.Remove(id, key)
	}
}

// expire runs on the expiration worker.
func (c *Cache[K, V]) expire(key K, token expiration.Token) {
	var expired *entry[V]
	c.store.Compute(key, func(prev *entry[V], ok bool) (*entry[V], shardmap.Op) {
		// a write after the task was picked up re-armed the key with a new token
		if !ok || prev.timer != token {
			return prev, shardmap.Keep
		}
		c.unindex(key, prev)
		expired = prev
		return nil, shardmap.Delete
	})
	if expired == nil {
		return
	}

	c.logger.Debug("entry expired", slog.Any("key", key))
	c.notify(key, expired.value, EvictionReasonExpired)
}

func (c *Cache[K, V]) notify(key K, value V, reason EvictionReason) {
	if c.listener != nil {
		c.listener(key, value, reason)
	}
}
