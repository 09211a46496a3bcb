package identitycache_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	identitycache "github.com/karupanerura/identity-cache"
)

type user struct {
	ID   string
	Name string
}

func (u *user) Identity() string {
	return "user:" + u.ID
}

type tag string

func (t tag) Identity() string {
	return "tag:" + string(t)
}

// team is a container type that identifies itself.
type team []*user

func (t team) Identity() string {
	return "team"
}

func TestDeriveIdentityKey(t *testing.T) {
	t.Parallel()

	var nilUser *user
	for _, tt := range []struct {
		name  string
		value any
		want  identitycache.IdentityKey
	}{
		{
			name:  "pointer value",
			value: &user{ID: "1"},
			want:  identitycache.IdentityKey{"user:1"},
		},
		{
			name:  "non-pointer value",
			value: tag("go"),
			want:  identitycache.IdentityKey{"tag:go"},
		},
		{
			name:  "slice keeps order",
			value: []*user{{ID: "2"}, {ID: "1"}},
			want:  identitycache.IdentityKey{"user:2", "user:1"},
		},
		{
			name:  "slice of interface",
			value: []identitycache.Identifiable{&user{ID: "1"}, tag("go")},
			want:  identitycache.IdentityKey{"user:1", "tag:go"},
		},
		{
			name:  "slice of any",
			value: []any{tag("a"), tag("b")},
			want:  identitycache.IdentityKey{"tag:a", "tag:b"},
		},
		{
			name:  "array",
			value: [2]tag{"a", "b"},
			want:  identitycache.IdentityKey{"tag:a", "tag:b"},
		},
		{
			name:  "map is sorted",
			value: map[int]tag{1: "c", 2: "a", 3: "b"},
			want:  identitycache.IdentityKey{"tag:a", "tag:b", "tag:c"},
		},
		{
			name:  "identifiable container is a single element",
			value: team{{ID: "1"}, {ID: "2"}},
			want:  identitycache.IdentityKey{"team"},
		},
		{
			name:  "duplicates are kept",
			value: []tag{"a", "a"},
			want:  identitycache.IdentityKey{"tag:a", "tag:a"},
		},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := identitycache.DeriveIdentityKey(tt.value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("unexpected identity key (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("typed nil in slice", func(t *testing.T) {
		t.Parallel()

		_, err := identitycache.DeriveIdentityKey([]*user{{ID: "1"}, nilUser})
		var nie *identitycache.NotIdentifiableError
		if !errors.As(err, &nie) || nie.Position != 1 {
			t.Errorf("expected error at position 1, got %v", err)
		}
	})
}

func TestDeriveIdentityKey_NotIdentifiable(t *testing.T) {
	t.Parallel()

	var nilUser *user
	for _, tt := range []struct {
		name  string
		value any
		want  identitycache.NotIdentifiableError
	}{
		{
			name:  "string",
			value: "not identifiable value",
			want:  identitycache.NotIdentifiableError{Type: "string", Position: -1},
		},
		{
			name:  "nil",
			value: nil,
			want:  identitycache.NotIdentifiableError{Type: "<nil>", Position: -1},
		},
		{
			name:  "typed nil",
			value: nilUser,
			want:  identitycache.NotIdentifiableError{Type: "*identitycache_test.user", Position: -1},
		},
		{
			name:  "struct without pointer receiver",
			value: user{ID: "1"},
			want:  identitycache.NotIdentifiableError{Type: "identitycache_test.user", Position: -1},
		},
		{
			name:  "mixed slice",
			value: []any{&user{ID: "1"}, "123123"},
			want:  identitycache.NotIdentifiableError{Type: "string", Position: 1},
		},
		{
			name:  "empty slice",
			value: []*user{},
			want:  identitycache.NotIdentifiableError{Type: "[]*identitycache_test.user", Position: -1, Empty: true},
		},
		{
			name:  "nil slice",
			value: []tag(nil),
			want:  identitycache.NotIdentifiableError{Type: "[]identitycache_test.tag", Position: -1, Empty: true},
		},
		{
			name:  "empty map",
			value: map[string]tag{},
			want:  identitycache.NotIdentifiableError{Type: "map[string]identitycache_test.tag", Position: -1, Empty: true},
		},
		{
			name:  "map with non-identifiable value",
			value: map[string]int{"a": 1},
			want:  identitycache.NotIdentifiableError{Type: "int", Position: 0},
		},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := identitycache.DeriveIdentityKey(tt.value)
			if got != nil {
				t.Errorf("no partial key may be returned: %v", got)
			}
			if !errors.Is(err, identitycache.ErrNotIdentifiable) {
				t.Fatalf("expected ErrNotIdentifiable, got %v", err)
			}
			var nie *identitycache.NotIdentifiableError
			if !errors.As(err, &nie) {
				t.Fatalf("expected *NotIdentifiableError, got %T", err)
			}
			if diff := cmp.Diff(tt.want, *nie); diff != "" {
				t.Errorf("unexpected error (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNotIdentifiableError_Error(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		err  *identitycache.NotIdentifiableError
		want string
	}{
		{
			err:  &identitycache.NotIdentifiableError{Type: "string", Position: -1},
			want: "value is not identifiable: string must implement identitycache.Identifiable",
		},
		{
			err:  &identitycache.NotIdentifiableError{Type: "int", Position: 2},
			want: "value is not identifiable: element 2 of type int must implement identitycache.Identifiable",
		},
		{
			err:  &identitycache.NotIdentifiableError{Type: "[]int", Position: -1, Empty: true},
			want: "value is not identifiable: empty []int has no identity key",
		},
	} {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("unexpected message: got %q, want %q", got, tt.want)
		}
	}
}

func TestIdentityKey(t *testing.T) {
	t.Parallel()

	key := identitycache.IdentityKey{"a", "b"}
	if !key.Contains("b") || key.Contains("c") {
		t.Error("unexpected Contains result")
	}
	if !key.Equal(identitycache.IdentityKey{"a", "b"}) || key.Equal(identitycache.IdentityKey{"b", "a"}) {
		t.Error("unexpected Equal result")
	}
	if got := key.String(); got != "[a,b]" {
		t.Errorf("unexpected String result: %q", got)
	}
}
