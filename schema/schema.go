// Package schema is a read-only reflection layer over the nbor type set.
// It emits stable declaration names and structural definitions for
// introspection and IDL generation. Nothing here affects how values
// encode or decode.
package schema

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/nbor-dev/nbor"
)

// Kind discriminates the structural shape of a definition.
type Kind string

const (
	KindPrimitive Kind = "primitive"
	KindSequence  Kind = "sequence"
	KindArray     Kind = "array"
	KindOption    Kind = "option"
	KindMap       Kind = "map"
	KindSet       Kind = "set"
	KindStruct    Kind = "struct"
	KindEnum      Kind = "enum"
)

// Field is one named member of a struct definition, in wire order.
type Field struct {
	Name        string
	Declaration string
}

// Variant is one member of an enum definition with its discriminant.
type Variant struct {
	Tag         uint8
	Name        string
	Declaration string
}

// Definition is the structural shape of one declared type. Which members
// are meaningful depends on Kind.
type Definition struct {
	Kind     Kind
	Elem     string    // sequence/array/option elements, set keys
	Len      int       // array length
	Key      string    // map keys
	Value    string    // map values
	Fields   []Field   // struct members, wire order
	Variants []Variant // enum members, ascending tag order
}

var emptyStruct = reflect.TypeOf(struct{}{})

// Declaration returns the stable declaration name of a type. Names follow
// the wire shape, not the Go spelling: platform-width integers declare as
// their canonical 64-bit form, pointers declare as options.
func Declaration(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Bool:
		return "bool"
	case reflect.Uint8:
		return "u8"
	case reflect.Uint16:
		return "u16"
	case reflect.Uint32:
		return "u32"
	case reflect.Uint64, reflect.Uint:
		return "u64"
	case reflect.Int8:
		return "i8"
	case reflect.Int16:
		return "i16"
	case reflect.Int32:
		return "i32"
	case reflect.Int64, reflect.Int:
		return "i64"
	case reflect.Float32:
		return "f32"
	case reflect.Float64:
		return "f64"
	case reflect.String:
		return "String"
	case reflect.Slice:
		return "Vec<" + Declaration(t.Elem()) + ">"
	case reflect.Array:
		return fmt.Sprintf("[%s; %d]", Declaration(t.Elem()), t.Len())
	case reflect.Pointer:
		return "Option<" + Declaration(t.Elem()) + ">"
	case reflect.Map:
		if t.Elem() == emptyStruct {
			return "HashSet<" + Declaration(t.Key()) + ">"
		}
		return "HashMap<" + Declaration(t.Key()) + ", " + Declaration(t.Elem()) + ">"
	case reflect.Struct, reflect.Interface:
		if name := t.Name(); name != "" {
			return name
		}
		return strings.ReplaceAll(t.String(), " ", "")
	default:
		return t.String()
	}
}

// Definitions populates defs with the structural definition of t and,
// recursively, of every type it contains, keyed by declaration name.
// Interface types must be registered unions.
func Definitions(t reflect.Type, defs map[string]Definition) error {
	decl := Declaration(t)
	if _, done := defs[decl]; done {
		return nil
	}

	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		defs[decl] = Definition{Kind: KindPrimitive}
		return nil

	case reflect.Slice:
		defs[decl] = Definition{Kind: KindSequence, Elem: Declaration(t.Elem())}
		return Definitions(t.Elem(), defs)

	case reflect.Array:
		defs[decl] = Definition{Kind: KindArray, Elem: Declaration(t.Elem()), Len: t.Len()}
		return Definitions(t.Elem(), defs)

	case reflect.Pointer:
		defs[decl] = Definition{Kind: KindOption, Elem: Declaration(t.Elem())}
		return Definitions(t.Elem(), defs)

	case reflect.Map:
		if t.Elem() == emptyStruct {
			defs[decl] = Definition{Kind: KindSet, Elem: Declaration(t.Key())}
			return Definitions(t.Key(), defs)
		}
		defs[decl] = Definition{Kind: KindMap, Key: Declaration(t.Key()), Value: Declaration(t.Elem())}
		if err := Definitions(t.Key(), defs); err != nil {
			return err
		}
		return Definitions(t.Elem(), defs)

	case reflect.Struct:
		def := Definition{Kind: KindStruct}
		// Mark the declaration before recursing so self-referential types
		// terminate.
		defs[decl] = def
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() || f.Tag.Get("nbor") == "-" {
				continue
			}
			def.Fields = append(def.Fields, Field{Name: f.Name, Declaration: Declaration(f.Type)})
			if err := Definitions(f.Type, defs); err != nil {
				return err
			}
		}
		defs[decl] = def
		return nil

	case reflect.Interface:
		variants, ok := nbor.UnionVariants(t)
		if !ok {
			return fmt.Errorf("schema: %v is not a registered union", t)
		}
		def := Definition{Kind: KindEnum}
		defs[decl] = def
		tags := make([]int, 0, len(variants))
		for tag := range variants {
			tags = append(tags, int(tag))
		}
		sort.Ints(tags)
		for _, tag := range tags {
			vt := variants[uint8(tag)]
			def.Variants = append(def.Variants, Variant{
				Tag:         uint8(tag),
				Name:        Declaration(vt),
				Declaration: Declaration(vt),
			})
			if err := Definitions(vt, defs); err != nil {
				return err
			}
		}
		defs[decl] = def
		return nil

	default:
		return fmt.Errorf("schema: unsupported type %v", t)
	}
}

// DefinitionsFor is a convenience wrapper deriving the definitions map of
// a value's type in one call.
func DefinitionsFor(v any) (map[string]Definition, error) {
	defs := make(map[string]Definition)
	if err := Definitions(reflect.TypeOf(v), defs); err != nil {
		return nil, err
	}
	return defs, nil
}
