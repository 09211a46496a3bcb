package identitycache

import (
	"fmt"
	"slices"
	"strings"

	"github.com/goccy/go-reflect"
)

// IdentityKey is the ordered sequence of identity tokens derived from a value.
// A single identifiable value has exactly one token; a container has one token per element.
type IdentityKey []string

// Contains reports whether token is one of the tokens of the key.
func (k IdentityKey) Contains(token string) bool {
	return slices.Contains(k, token)
}

// Equal reports whether both keys have the same tokens in the same order.
func (k IdentityKey) Equal(other IdentityKey) bool {
	return slices.Equal(k, other)
}

// String returns the tokens joined with commas.
func (k IdentityKey) String() string {
	return "[" + strings.Join(k, ",") + "]"
}

// DeriveIdentityKey derives the identity key of the value.
//
// A value implementing Identifiable yields a single token, even when its type is a container.
// A slice or array yields one token per element in index order. A map yields one token per
// map value, sorted, because maps have no iteration order.
// Derivation fails with ErrNotIdentifiable when the value, or any element of it, does not
// implement Identifiable, is nil, or is an empty container. No partial key is returned.
func DeriveIdentityKey(value any) (IdentityKey, error) {
	if token, ok := identityOf(value); ok {
		return IdentityKey{token}, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return nil, &NotIdentifiableError{Type: typeName(value), Position: -1, Empty: true}
		}

		key := make(IdentityKey, rv.Len())
		for i := range key {
			elem := rv.Index(i).Interface()
			token, ok := identityOf(elem)
			if !ok {
				return nil, &NotIdentifiableError{Type: typeName(elem), Position: i}
			}
			key[i] = token
		}
		return key, nil

	case reflect.Map:
		if rv.Len() == 0 {
			return nil, &NotIdentifiableError{Type: typeName(value), Position: -1, Empty: true}
		}

		key := make(IdentityKey, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			elem := iter.Value().Interface()
			token, ok := identityOf(elem)
			if !ok {
				return nil, &NotIdentifiableError{Type: typeName(elem), Position: len(key)}
			}
			key = append(key, token)
		}
		slices.Sort(key)
		return key, nil

	default:
		return nil, &NotIdentifiableError{Type: typeName(value), Position: -1}
	}
}

func identityOf(value any) (string, bool) {
	id, ok := value.(Identifiable)
	if !ok || isNil(value) {
		return "", false
	}
	return id.Identity(), true
}

func isNil(value any) bool {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

func typeName(value any) string {
	if value == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", value)
}
