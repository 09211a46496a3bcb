package identitycache

// ValueCloner is an interface for cloning values.
// The cache clones a value when it is stored and again whenever it is handed out,
// so callers never share mutable state with the cache.
type ValueCloner[V ValueConstraint] interface {
	CloneValue(V) V
}

// ValueClonerFunc is a function type that implements the ValueCloner interface.
type ValueClonerFunc[V ValueConstraint] func(v V) V

// CloneValue calls the function.
func (f ValueClonerFunc[V]) CloneValue(v V) V {
	return f(v)
}

// NopValueCloner is a value cloner that does not clone values.
// Cached identifiable objects are then shared between the cache and its callers.
type NopValueCloner[V ValueConstraint] struct{}

// CloneValue returns the input value.
func (NopValueCloner[V]) CloneValue(v V) V {
	return v
}

// DefaultValueCloner returns the default cloner for the value type.
// It uses the Clone or DeepCopy method of the value type when one exists,
// and falls back to NopValueCloner otherwise.
func DefaultValueCloner[V ValueConstraint]() ValueCloner[V] {
	var zero V
	switch any(zero).(type) {
	case interface{ Clone() V }:
		return ValueClonerFunc[V](func(v V) V {
			return any(v).(interface{ Clone() V }).Clone()
		})
	case interface{ DeepCopy() V }:
		return ValueClonerFunc[V](func(v V) V {
			return any(v).(interface{ DeepCopy() V }).DeepCopy()
		})
	default:
		return NopValueCloner[V]{}
	}
}
