package index

import (
	"slices"
	"strconv"
	"strings"

	"github.com/karupanerura/identity-cache/internal/shardmap"
)

// Match is an index entry selected by Scan.
type Match[PrimaryKey comparable] struct {
	// PrimaryKeys are the primary keys indexed under the matched identity key.
	PrimaryKeys []PrimaryKey
}

type entry[PrimaryKey comparable] struct {
	tokens []string
	pks    []PrimaryKey
}

// Index maps identity keys to primary keys.
// It is safe for concurrent use.
type Index[PrimaryKey comparable] struct {
	m *shardmap.Map[string, *entry[PrimaryKey]]
}

// New creates a new empty index.
func New[PrimaryKey comparable](opts ...Option) *Index[PrimaryKey] {
	var mapOpts []shardmap.Option[string]
	for _, opt := range opts {
		opt.apply(&mapOpts)
	}
	return &Index[PrimaryKey]{
		m: shardmap.New[string, *entry[PrimaryKey]](mapOpts...),
	}
}

// Encode returns the map key of the given identity key.
// Every token is length-prefixed, so distinct token sequences never collide.
func Encode(tokens []string) string {
	n := 0
	for _, t := range tokens {
		n += len(t) + 4
	}

	var b strings.Builder
	b.Grow(n)
	for _, t := range tokens {
		b.WriteString(strconv.Itoa(len(t)))
		b.WriteByte(':')
		b.WriteString(t)
	}
	return b.String()
}

// Add indexes the primary key under the identity key.
// Adding a pair that is already indexed is a no-op.
func (i *Index[PrimaryKey]) Add(tokens []string, pk PrimaryKey) {
	i.m.Compute(Encode(tokens), func(old *entry[PrimaryKey], loaded bool) (*entry[PrimaryKey], shardmap.Op) {
		if !loaded {
			return &entry[PrimaryKey]{
				tokens: slices.Clone(tokens),
				pks:    []PrimaryKey{pk},
			}, shardmap.Store
		}
		if slices.Contains(old.pks, pk) {
			return old, shardmap.Keep
		}
		return &entry[PrimaryKey]{
			tokens: old.tokens,
			pks:    append(slices.Clip(old.pks), pk),
		}, shardmap.Store
	})
}

// Remove removes the primary key from the identity key.
// The identity key itself is dropped once no primary key is left.
// It reports whether the pair was indexed.
func (i *Index[PrimaryKey]) Remove(tokens []string, pk PrimaryKey) (removed bool) {
	i.m.Compute(Encode(tokens), func(old *entry[PrimaryKey], loaded bool) (*entry[PrimaryKey], shardmap.Op) {
		if !loaded {
			return nil, shardmap.Keep
		}

		at := slices.Index(old.pks, pk)
		if at < 0 {
			return old, shardmap.Keep
		}
		removed = true
		if len(old.pks) == 1 {
			return nil, shardmap.Delete
		}
		return &entry[PrimaryKey]{
			tokens: old.tokens,
			pks:    slices.Delete(slices.Clone(old.pks), at, at+1),
		}, shardmap.Store
	})
	return
}

// Lookup returns the primary keys indexed under the identity key.
func (i *Index[PrimaryKey]) Lookup(tokens []string) []PrimaryKey {
	e, ok := i.m.Load(Encode(tokens))
	if !ok {
		return nil
	}
	return slices.Clone(e.pks)
}

// Scan returns every entry whose identity key satisfies match.
// match is called with bucket read locks held and must not use the index.
func (i *Index[PrimaryKey]) Scan(match func(tokens []string) bool) []Match[PrimaryKey] {
	var matches []Match[PrimaryKey]
	i.m.Range(func(_ string, e *entry[PrimaryKey]) bool {
		if match(e.tokens) {
			matches = append(matches, Match[PrimaryKey]{
				PrimaryKeys: slices.Clone(e.pks),
			})
		}
		return true
	})
	return matches
}

// ContainsAny returns a Scan predicate selecting identity keys that contain at least one of the tokens.
func ContainsAny(tokens ...string) func([]string) bool {
	return func(identity []string) bool {
		return slices.ContainsFunc(identity, func(t string) bool {
			return slices.Contains(tokens, t)
		})
	}
}

// Len returns the number of identity keys in the index.
func (i *Index[PrimaryKey]) Len() int {
	return i.m.Len()
}
