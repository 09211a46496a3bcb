package iterutil

import (
	"iter"
)

// Uniq returns a new iterator that yields the first occurrence of every value from the input iterator.
// The order of the output is the same as the input.
func Uniq[V comparable](seq iter.Seq[V]) iter.Seq[V] {
	return func(yield func(V) bool) {
		seen := map[V]struct{}{}
		for v := range seq {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			if !yield(v) {
				return
			}
		}
	}
}

// FlatMap returns a new iterator that yields every value of the sequences produced by f for each input value.
func FlatMap[V, R any](seq iter.Seq[V], f func(V) iter.Seq[R]) iter.Seq[R] {
	return func(yield func(R) bool) {
		for v := range seq {
			for r := range f(v) {
				if !yield(r) {
					return
				}
			}
		}
	}
}
