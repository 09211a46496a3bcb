package identitycache

import (
	"errors"
	"fmt"
)

// ErrNotIdentifiable is returned when an identity key cannot be derived from a value.
var ErrNotIdentifiable = errors.New("value is not identifiable")

// NotIdentifiableError describes the value that has no identity.
// It matches ErrNotIdentifiable with errors.Is.
type NotIdentifiableError struct {
	// Type is the type of the offending value, or "<nil>".
	Type string

	// Position is the position of the offending element in a container value.
	// It is -1 when the value itself is not identifiable.
	Position int

	// Empty is true when the value is a container without elements.
	Empty bool
}

func (e *NotIdentifiableError) Error() string {
	switch {
	case e.Empty:
		return fmt.Sprintf("%s: empty %s has no identity key", ErrNotIdentifiable, e.Type)
	case e.Position >= 0:
		return fmt.Sprintf("%s: element %d of type %s must implement identitycache.Identifiable", ErrNotIdentifiable, e.Position, e.Type)
	default:
		return fmt.Sprintf("%s: %s must implement identitycache.Identifiable", ErrNotIdentifiable, e.Type)
	}
}

// Is reports whether target is ErrNotIdentifiable.
func (e *NotIdentifiableError) Is(target error) bool {
	return target == ErrNotIdentifiable
}
