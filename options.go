package identitycache

import (
	"log/slog"
	"time"
)

// DefaultShardsSize is the default number of shards of the primary store and the secondary index.
var DefaultShardsSize = 64

// Option is the interface for the options of the cache.
type Option[K KeyConstraint, V ValueConstraint] interface {
	apply(*options[K, V])
}

type optionFunc[K KeyConstraint, V ValueConstraint] func(*options[K, V])

func (f optionFunc[K, V]) apply(o *options[K, V]) {
	f(o)
}

// WithCapacity sets the expected number of entries.
// It is only a hint for the initial size of the internal maps.
func WithCapacity[K KeyConstraint, V ValueConstraint](capacity int) Option[K, V] {
	if capacity < 0 {
		panic("capacity must not be negative")
	}
	return optionFunc[K, V](func(o *options[K, V]) {
		o.capacity = capacity
	})
}

// WithTTL sets the time-to-live of every entry.
// Each write re-arms a one-shot expiration for its key. Zero disables expiration.
func WithTTL[K KeyConstraint, V ValueConstraint](ttl time.Duration) Option[K, V] {
	if ttl < 0 {
		panic("ttl must not be negative")
	}
	return optionFunc[K, V](func(o *options[K, V]) {
		o.ttl = ttl
	})
}

// WithShardsSize sets the number of shards of the primary store and the secondary index.
// The number of shards must be a natural number.
func WithShardsSize[K KeyConstraint, V ValueConstraint](shardsSize int) Option[K, V] {
	if shardsSize <= 0 {
		panic("shardsSize must be natural number")
	}
	return optionFunc[K, V](func(o *options[K, V]) {
		o.shardsSize = shardsSize
	})
}

// WithKeyHash sets the hash function used to pick the shard of a primary key.
func WithKeyHash[K KeyConstraint, V ValueConstraint](f func(K) int) Option[K, V] {
	return optionFunc[K, V](func(o *options[K, V]) {
		o.hashKey = f
	})
}

// WithClock sets the clock used for time-to-live deadlines.
// Get, PutIfAbsent and the other accessors read it on every access, so an entry is gone
// as soon as the clock passes its deadline, even when the clock is moved by hand.
// The expiration worker then removes the entry and notifies the eviction listener.
func WithClock[K KeyConstraint, V ValueConstraint](clock Clock) Option[K, V] {
	return optionFunc[K, V](func(o *options[K, V]) {
		o.clock = clock
	})
}

// WithCloner sets the value cloner.
func WithCloner[K KeyConstraint, V ValueConstraint](cloner ValueCloner[V]) Option[K, V] {
	return optionFunc[K, V](func(o *options[K, V]) {
		o.cloner = cloner
	})
}

// WithLogger sets the logger. Cache activity is logged at debug level,
// and panics recovered in the background expiration worker at error level.
func WithLogger[K KeyConstraint, V ValueConstraint](logger *slog.Logger) Option[K, V] {
	return optionFunc[K, V](func(o *options[K, V]) {
		o.logger = logger
	})
}

// WithEvictionListener sets the function called for every entry that leaves the cache.
// It is called after the cache released its locks, on the goroutine that caused the eviction
// or on the expiration worker.
func WithEvictionListener[K KeyConstraint, V ValueConstraint](listener EvictionListener[K, V]) Option[K, V] {
	return optionFunc[K, V](func(o *options[K, V]) {
		o.listener = listener
	})
}

type options[K KeyConstraint, V ValueConstraint] struct {
	capacity   int
	ttl        time.Duration
	shardsSize int
	hashKey    func(K) int
	clock      Clock
	cloner     ValueCloner[V]
	logger     *slog.Logger
	listener   EvictionListener[K, V]
}

func defaultOptions[K KeyConstraint, V ValueConstraint]() options[K, V] {
	return options[K, V]{
		shardsSize: DefaultShardsSize,
		clock:      SystemClock,
		cloner:     DefaultValueCloner[V](),
		logger:     slog.New(slog.DiscardHandler),
	}
}
