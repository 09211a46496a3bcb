package shardmap

import "github.com/karupanerura/identity-cache/internal/keyhash"

// DefaultBucketsSize is the default number of buckets in the map.
var DefaultBucketsSize = 64

// Option is the interface for the options of the sharded map.
type Option[K comparable] interface {
	apply(*options[K])
}

type optionFunc[K comparable] func(*options[K])

func (f optionFunc[K]) apply(o *options[K]) {
	f(o)
}

// WithKeyHash sets the key hash function to the map.
func WithKeyHash[K comparable](f func(K) int) Option[K] {
	return optionFunc[K](func(o *options[K]) {
		o.hashKey = func(key any) int {
			return f(key.(K))
		}
	})
}

// WithBucketsSize sets the number of buckets in the map.
// The number of buckets must be a natural number.
func WithBucketsSize[K comparable](bucketsSize int) Option[K] {
	if bucketsSize <= 0 {
		panic("bucketsSize must be natural number")
	}
	return optionFunc[K](func(o *options[K]) {
		o.bucketsSize = bucketsSize
	})
}

// WithCapacity sets the expected number of entries.
// It is only a hint for the initial size of each bucket.
func WithCapacity[K comparable](capacity int) Option[K] {
	if capacity < 0 {
		panic("capacity must not be negative")
	}
	return optionFunc[K](func(o *options[K]) {
		o.capacity = capacity
	})
}

type options[K comparable] struct {
	hashKey     func(any) int
	bucketsSize int
	capacity    int
}

func defaultOptions[K comparable]() options[K] {
	return options[K]{
		hashKey:     keyhash.GetOrCreateKeyHash[K](),
		bucketsSize: DefaultBucketsSize,
	}
}
