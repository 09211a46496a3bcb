package keyhash_test

import (
	"reflect"
	"testing"

	"github.com/karupanerura/identity-cache/internal/keyhash"
)

const (
	intSize = 32 << (^uint(0) >> 63)
)

func TestGetOrCreateKeyHash(t *testing.T) {
	t.Parallel()
	if intSize == 32 {
		t.Skip("reference values are computed for 64-bit platforms")
	}

	for _, tt := range []struct {
		name     string
		hashFunc func(any) int
		value    any
		want     uint64
	}{
		{"int", keyhash.GetOrCreateKeyHash[int](), int(-42), 0x8cf5318bfca3af52},
		{"int8", keyhash.GetOrCreateKeyHash[int8](), int8(-42), 0xaf648b4c860315e9},
		{"int16", keyhash.GetOrCreateKeyHash[int16](), int16(-42), 0xa99f007b6f689a8},
		{"int32", keyhash.GetOrCreateKeyHash[int32](), int32(-42), 0x994f4d653e29f3a6},
		{"int64", keyhash.GetOrCreateKeyHash[int64](), int64(-42), 0x8cf5318bfca3af52},
		{"uint8", keyhash.GetOrCreateKeyHash[uint8](), uint8(42), 0xaf63a74c8601927d},
		{"uint16", keyhash.GetOrCreateKeyHash[uint16](), uint16(42), 0x8329e07b4eb954f},
		{"uint32", keyhash.GetOrCreateKeyHash[uint32](), uint32(42), 0x4d255c7f9dcde7c7},
		{"uint64", keyhash.GetOrCreateKeyHash[uint64](), uint64(42), 0xa8c7de32281a0d97},
		{"float32", keyhash.GetOrCreateKeyHash[float32](), float32(42.0), 0xe64108a69be87c0f},
		{"float64", keyhash.GetOrCreateKeyHash[float64](), float64(42.0), 0xe17c3355bfbe5a7e},
		{"string", keyhash.GetOrCreateKeyHash[string](), "test", 0xf9e6e6ef197c2b25},
	} {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.hashFunc(tt.value)
			if uint64(got) != tt.want {
				t.Errorf("expected %x, got %x", tt.want, uint64(got))
			}
		})
	}
}

func TestGetOrCreateKeyHash_ReturnsSameFunctionForSameType(t *testing.T) {
	t.Parallel()

	hashFunc1 := keyhash.GetOrCreateKeyHash[int]()
	hashFunc2 := keyhash.GetOrCreateKeyHash[int]()
	hashFunc3 := keyhash.GetOrCreateKeyHash[int64]()

	if reflect.ValueOf(hashFunc1).Pointer() != reflect.ValueOf(hashFunc2).Pointer() {
		t.Errorf("expected the same function for the same type, but got different functions")
	}
	if reflect.ValueOf(hashFunc1).Pointer() == reflect.ValueOf(hashFunc3).Pointer() {
		t.Errorf("expected different functions for different types, but got the same function")
	}
}

func TestGetOrCreateKeyHash_Comparable(t *testing.T) {
	t.Parallel()

	type compositeKey struct {
		Tenant string
		ID     int
	}

	t.Run("struct", func(t *testing.T) {
		t.Parallel()

		hashFunc := keyhash.GetOrCreateKeyHash[compositeKey]()
		a := hashFunc(compositeKey{Tenant: "acme", ID: 1})
		b := hashFunc(compositeKey{Tenant: "acme", ID: 1})
		if a != b {
			t.Errorf("expected equal keys to hash equally: %x != %x", a, b)
		}
	})

	t.Run("interface", func(t *testing.T) {
		t.Parallel()

		hashFunc := keyhash.GetOrCreateKeyHash[any]()
		if hashFunc("x") != hashFunc("x") {
			t.Error("expected equal keys to hash equally")
		}
	})
}
