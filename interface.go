package identitycache

// KeyConstraint is an interface for primary key constraints.
type KeyConstraint interface {
	comparable
}

// ValueConstraint is an interface for value constraints.
type ValueConstraint interface {
	any
}

// Identifiable is implemented by values that expose a stable identity.
// Values stored in the cache must implement it, or be a slice, array or map of values implementing it.
type Identifiable interface {
	// Identity returns the identity token of the value.
	// It must return the same token for the lifetime of the cached value.
	Identity() string
}

// EvictionReason tells why an entry left the cache.
type EvictionReason int

const (
	// EvictionReasonRemoved means the entry was removed by Remove.
	EvictionReasonRemoved EvictionReason = iota + 1

	// EvictionReasonIdentity means the entry was evicted by one of its identity tokens.
	EvictionReasonIdentity

	// EvictionReasonExpired means the entry's time-to-live elapsed.
	EvictionReasonExpired
)

// String returns the name of the reason.
func (r EvictionReason) String() string {
	switch r {
	case EvictionReasonRemoved:
		return "removed"
	case EvictionReasonIdentity:
		return "identity"
	case EvictionReasonExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// EvictionListener is called once for every entry that leaves the cache.
// Replacing a value with Put does not count as an eviction.
type EvictionListener[K KeyConstraint, V ValueConstraint] func(key K, value V, reason EvictionReason)
