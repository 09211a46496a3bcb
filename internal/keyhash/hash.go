package keyhash

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"hash/maphash"
	"math"
	"sync"

	"github.com/goccy/go-reflect"
)

const (
	// intSize is the size of an int in bits.
	intSize = 32 << (^uint(0) >> 63)
)

var (
	// defaultKeyHashMapMutex is a mutex for the defaultKeyHashMap.
	defaultKeyHashMapMutex = sync.RWMutex{}

	// defaultKeyHashMap is a map that stores hash functions for different types.
	defaultKeyHashMap = map[string]func(any) int{}
)

// GetOrCreateKeyHash returns a hash function for the given key type.
// Primitive types are hashed with FNV-1a so the result is stable across processes.
// Any other comparable type (structs, arrays, pointers, interfaces) falls back to hash/maphash.
func GetOrCreateKeyHash[K comparable]() func(any) int {
	var zero K
	if any(zero) == nil {
		// K is an interface type, so there is no static type name to cache by.
		return comparableHash[K]()
	}

	name := reflect.TypeOf(zero).String()

	defaultKeyHashMapMutex.RLock()
	if f, ok := defaultKeyHashMap[name]; ok {
		defaultKeyHashMapMutex.RUnlock()
		return f
	}

	defaultKeyHashMapMutex.RUnlock()
	defaultKeyHashMapMutex.Lock()
	defer defaultKeyHashMapMutex.Unlock()
	if f, ok := defaultKeyHashMap[name]; ok {
		return f
	}

	f := createKeyHashAny(zero)
	if f == nil {
		f = comparableHash[K]()
	}
	defaultKeyHashMap[name] = f
	return f
}

// seed is shared by every maphash based function in the process.
var seed = maphash.MakeSeed()

func comparableHash[K comparable]() func(any) int {
	return func(v any) int {
		return int(maphash.Comparable(seed, v.(K)))
	}
}

// createKeyHashAny creates a hash function for the given type.
// It returns nil when the type is not a primitive type.
func createKeyHashAny(t any) func(any) int {
	hash := hash64
	if intSize == 32 {
		hash = hash32
	}

	switch t.(type) {
	case int:
		return func(v any) int {
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], uint64(v.(int)))
			return hash(b[:])
		}
	case int8:
		return func(v any) int {
			return hash([]byte{uint8(v.(int8))})
		}
	case int16:
		return func(v any) int {
			var b [2]byte
			binary.BigEndian.PutUint16(b[:], uint16(v.(int16)))
			return hash(b[:])
		}
	case int32:
		return func(v any) int {
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], uint32(v.(int32)))
			return hash(b[:])
		}
	case int64:
		return func(v any) int {
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], uint64(v.(int64)))
			return hash(b[:])
		}
	case uint:
		return func(v any) int {
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], uint64(v.(uint)))
			return hash(b[:])
		}
	case uint8:
		return func(v any) int {
			return hash([]byte{v.(uint8)})
		}
	case uint16:
		return func(v any) int {
			var b [2]byte
			binary.BigEndian.PutUint16(b[:], v.(uint16))
			return hash(b[:])
		}
	case uint32:
		return func(v any) int {
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], v.(uint32))
			return hash(b[:])
		}
	case uint64:
		return func(v any) int {
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], v.(uint64))
			return hash(b[:])
		}
	case float32:
		return func(v any) int {
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], math.Float32bits(v.(float32)))
			return hash(b[:])
		}
	case float64:
		return func(v any) int {
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], math.Float64bits(v.(float64)))
			return hash(b[:])
		}
	case string:
		return func(v any) int {
			return hash([]byte(v.(string)))
		}
	default:
		return nil
	}
}

// hash32Pool is a pool for 32-bit FNV-1a hash objects.
var hash32Pool = &resettablePool[hash.Hash32]{
	pool: sync.Pool{
		New: func() any {
			return fnv.New32a()
		},
	},
}

// hash64Pool is a pool for 64-bit FNV-1a hash objects.
var hash64Pool = &resettablePool[hash.Hash64]{
	pool: sync.Pool{
		New: func() any {
			return fnv.New64a()
		},
	},
}

// resetter is an interface that defines a Reset method.
type resetter interface {
	Reset()
}

// resettablePool is a generic pool for objects that implement the resetter interface.
// Objects are reset before being reused.
type resettablePool[H resetter] struct {
	pool sync.Pool
}

// Put adds an object to the pool after resetting it.
func (p *resettablePool[H]) Put(h H) {
	h.Reset()
	p.pool.Put(h)
}

// Get retrieves an object from the pool.
func (p *resettablePool[H]) Get() H {
	return p.pool.Get().(H)
}

// hash32 computes a 32-bit FNV-1a hash of the given byte slice.
func hash32(b []byte) int {
	h := hash32Pool.Get()
	defer hash32Pool.Put(h)
	_, _ = h.Write(b)
	return int(h.Sum32())
}

// hash64 computes a 64-bit FNV-1a hash of the given byte slice.
func hash64(b []byte) int {
	h := hash64Pool.Get()
	defer hash64Pool.Put(h)
	_, _ = h.Write(b)
	return int(h.Sum64())
}
