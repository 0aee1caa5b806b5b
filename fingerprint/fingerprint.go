// Package fingerprint computes a structural digest of a Go type, used by the
// wire codec to detect protocol drift between a Publisher and a Subscriber
// without ever inspecting a value.
//
// The original design hashes the sequence of calls a serde Deserializer
// would receive while decoding the type, rather than hashing any particular
// encoded bytes — two processes built from identical type definitions
// always agree on the fingerprint, even across compiler versions, because
// the digest only depends on field names, field order, and primitive
// widths. This package reproduces that idea over Go's reflect.Type instead
// of a serde Deserializer: Of[T] walks T's shape and feeds a canonical
// token stream into an xxhash.Digest.
package fingerprint

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// enumVariants is implemented by types that model a tagged union (see
// wire.PersistentID). The method must be exported: an unexported interface
// method declared in this package could only be satisfied by types declared
// in this package, which would make every tagged union in the data model
// live here instead of in wire.
type enumVariants interface {
	Variants() []string
}

var enumVariantsType = reflect.TypeOf((*enumVariants)(nil)).Elem()

var cache sync.Map // map[reflect.Type]uint64

// Of returns the structural fingerprint of T, computing it once per type and
// caching the result for the lifetime of the process.
func Of[T any]() uint64 {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if v, ok := cache.Load(typ); ok {
		return v.(uint64)
	}
	h := xxhash.New()
	walk(typ, h)
	sum := h.Sum64()
	actual, _ := cache.LoadOrStore(typ, sum)
	return actual.(uint64)
}

func walk(t reflect.Type, h *xxhash.Digest) {
	if t.Implements(enumVariantsType) {
		writeEnum(t, h)
		return
	}

	switch t.Kind() {
	case reflect.Bool:
		writeToken(h, "bool")
	case reflect.Int8:
		writeToken(h, "i8")
	case reflect.Int16:
		writeToken(h, "i16")
	case reflect.Int32:
		writeToken(h, "i32")
	case reflect.Int64, reflect.Int:
		writeToken(h, "i64")
	case reflect.Uint8:
		writeToken(h, "u8")
	case reflect.Uint16:
		writeToken(h, "u16")
	case reflect.Uint32:
		writeToken(h, "u32")
	case reflect.Uint64, reflect.Uint:
		writeToken(h, "u64")
	case reflect.Float32:
		writeToken(h, "f32")
	case reflect.Float64:
		writeToken(h, "f64")
	case reflect.String:
		writeToken(h, "string")
	case reflect.Ptr:
		writeToken(h, "option")
		walk(t.Elem(), h)
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			writeToken(h, "bytes")
			return
		}
		writeToken(h, "seq")
		walk(t.Elem(), h)
	case reflect.Array:
		writeToken(h, "tuple")
		writeU32(h, t.Len())
		walk(t.Elem(), h)
	case reflect.Struct:
		writeStruct(t, h)
	default:
		panic(fmt.Sprintf("fingerprint: type %s is not fingerprintable (kind %s)", t, t.Kind()))
	}
}

func writeStruct(t reflect.Type, h *xxhash.Digest) {
	writeToken(h, "struct")
	n := 0
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).PkgPath == "" {
			n++
		}
	}
	writeU32(h, n)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue // unexported field: not part of the wire shape
		}
		writeStr(h, f.Name)
		walk(f.Type, h)
	}
}

func writeEnum(t reflect.Type, h *xxhash.Digest) {
	variants := reflect.Zero(t).Interface().(enumVariants).Variants()
	writeToken(h, "enum")
	writeU32(h, len(variants))
	for _, v := range variants {
		writeStr(h, v)
	}
}

func writeToken(h *xxhash.Digest, name string) {
	writeStr(h, name)
}

func writeStr(h *xxhash.Digest, s string) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	h.Write(lenBuf[:])
	h.Write([]byte(s))
}

func writeU32(h *xxhash.Digest, n int) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(n))
	h.Write(buf[:])
}
