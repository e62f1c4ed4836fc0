package nbor

import (
	"fmt"
	"reflect"

	"github.com/puzpuzpuz/xsync/v4"
)

// union is the variant table for one interface type: a bijection between
// single-byte discriminants and concrete variant types.
type union struct {
	variants map[uint8]reflect.Type
	tags     map[reflect.Type]uint8
}

// unionRegistry maps interface types to their variant tables. Registration
// happens at init time; lookups happen on every interface encode/decode.
var unionRegistry = xsync.NewMap[reflect.Type, *union]()

// RegisterUnion registers the concrete variant types of the interface I as
// a tagged union, assigning discriminants sequentially from 0 in argument
// order. Any discriminant the variant types might otherwise suggest is
// ignored; the argument order alone is the wire contract.
//
// Registration errors are programming errors, not data errors, and panic:
// the Go analog of failing the build.
func RegisterUnion[I any](variants ...I) {
	table := make([]reflect.Type, len(variants))
	for i, v := range variants {
		rv := reflect.ValueOf(v)
		if !rv.IsValid() {
			panic(fmt.Sprintf("nbor: RegisterUnion: variant %d of %v is nil", i, reflect.TypeFor[I]()))
		}
		table[i] = rv.Type()
	}
	registerUnion[I](table, nil)
}

// RegisterUnionTags registers the variants of the interface I with
// explicit discriminants. Each discriminant must be distinct; the tag
// space is the full unsigned byte range.
func RegisterUnionTags[I any](variants map[uint8]I) {
	iface := reflect.TypeFor[I]()
	table := make(map[uint8]reflect.Type, len(variants))
	for tag, v := range variants {
		rv := reflect.ValueOf(v)
		if !rv.IsValid() {
			panic(fmt.Sprintf("nbor: RegisterUnionTags: variant %d of %v is nil", tag, iface))
		}
		table[tag] = rv.Type()
	}
	registerUnion[I](nil, table)
}

func registerUnion[I any](ordered []reflect.Type, tagged map[uint8]reflect.Type) {
	iface := reflect.TypeFor[I]()
	if iface.Kind() != reflect.Interface {
		panic(fmt.Sprintf("nbor: union type %v is not an interface", iface))
	}

	u := &union{
		variants: make(map[uint8]reflect.Type),
		tags:     make(map[reflect.Type]uint8),
	}
	add := func(tag uint8, t reflect.Type) {
		if prev, dup := u.tags[t]; dup {
			panic(fmt.Sprintf("nbor: variant %v of %v registered twice (tags %d and %d)", t, iface, prev, tag))
		}
		u.variants[tag] = t
		u.tags[t] = tag
	}

	switch {
	case ordered != nil:
		if len(ordered) > 256 {
			panic(fmt.Sprintf("nbor: union %v has %d variants, discriminants are a single byte", iface, len(ordered)))
		}
		for i, t := range ordered {
			add(uint8(i), t)
		}
	default:
		for tag, t := range tagged {
			add(tag, t)
		}
	}

	if _, loaded := unionRegistry.LoadOrStore(iface, u); loaded {
		panic(fmt.Sprintf("nbor: union %v registered twice", iface))
	}
}

// UnionVariants returns the discriminant table registered for an
// interface type, for read-only introspection (the schema layer). The
// returned map is a copy; mutating it has no effect on the codec.
func UnionVariants(iface reflect.Type) (map[uint8]reflect.Type, bool) {
	u, ok := unionRegistry.Load(iface)
	if !ok {
		return nil, false
	}
	out := make(map[uint8]reflect.Type, len(u.variants))
	for tag, t := range u.variants {
		out[tag] = t
	}
	return out, true
}
