package shardmap_test

import (
	"testing"

	"github.com/karupanerura/identity-cache/internal/shardmap"
)

func TestWithBucketsSize(t *testing.T) {
	t.Parallel()

	t.Run("panic on negative buckets", func(t *testing.T) {
		t.Parallel()

		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic for negative buckets, but did not panic")
			}
		}()
		shardmap.WithBucketsSize[uint8](-1)
	})

	t.Run("panic on zero buckets", func(t *testing.T) {
		t.Parallel()

		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic for zero buckets, but did not panic")
			}
		}()
		shardmap.WithBucketsSize[uint8](0)
	})
}

func TestWithCapacity(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic for negative capacity, but did not panic")
		}
	}()
	shardmap.WithCapacity[uint8](-1)
}
