package index

import "github.com/karupanerura/identity-cache/internal/shardmap"

// Option is the interface for the options of the index.
type Option interface {
	apply(*[]shardmap.Option[string])
}

type optionFunc func(*[]shardmap.Option[string])

func (f optionFunc) apply(o *[]shardmap.Option[string]) {
	f(o)
}

// WithBucketsSize sets the number of buckets in the index.
// The number of buckets must be a natural number.
func WithBucketsSize(bucketsSize int) Option {
	opt := shardmap.WithBucketsSize[string](bucketsSize)
	return optionFunc(func(o *[]shardmap.Option[string]) {
		*o = append(*o, opt)
	})
}

// WithCapacity sets the expected number of identity keys.
func WithCapacity(capacity int) Option {
	opt := shardmap.WithCapacity[string](capacity)
	return optionFunc(func(o *[]shardmap.Option[string]) {
		*o = append(*o, opt)
	})
}
