package nbor

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/puzpuzpuz/xsync/v4"
)

// typeCodec is the derived encode/decode pair for one Go type. Derivation
// happens once per type; the result is cached for the life of the process.
type typeCodec struct {
	enc func(w *Writer, v reflect.Value)
	dec func(r *Reader, v reflect.Value)
}

// codecCache avoids re-deriving a type's codec on every call. Using a
// concurrent map makes derivation safe from concurrent Marshal/Unmarshal
// calls.
var codecCache = xsync.NewMap[reflect.Type, *typeCodec]()

var marshalerType = reflect.TypeFor[Marshaler]()
var unmarshalerType = reflect.TypeFor[Unmarshaler]()

func encodeValue(w *Writer, v reflect.Value) {
	if w.err != nil {
		return
	}
	if !v.IsValid() {
		w.setError(fmt.Errorf("%w: cannot encode untyped nil", ErrUnsupportedType))
		return
	}
	codecFor(v.Type()).enc(w, v)
}

func decodeValue(r *Reader, v reflect.Value) {
	if r.err != nil {
		return
	}
	codecFor(v.Type()).dec(r, v)
}

// codecFor returns the cached codec for t, deriving it on first use.
// Recursive types are handled by publishing a forwarding codec before
// derivation starts. The forwarded functions block until derivation
// completes, so a concurrent first use of the same type waits for the
// deriving goroutine instead of observing a half-built codec.
func codecFor(t reflect.Type) *typeCodec {
	if c, ok := codecCache.Load(t); ok {
		return c
	}
	done := make(chan struct{})
	var built *typeCodec
	wrapper := &typeCodec{
		enc: func(w *Writer, v reflect.Value) { <-done; built.enc(w, v) },
		dec: func(r *Reader, v reflect.Value) { <-done; built.dec(r, v) },
	}
	if actual, loaded := codecCache.LoadOrStore(t, wrapper); loaded {
		return actual
	}
	built = buildCodec(t)
	close(done)
	codecCache.Store(t, built)
	return built
}

func unsupportedCodec(t reflect.Type) *typeCodec {
	err := fmt.Errorf("%w: %v", ErrUnsupportedType, t)
	return &typeCodec{
		enc: func(w *Writer, _ reflect.Value) { w.setError(err) },
		dec: func(r *Reader, _ reflect.Value) { r.setError(err) },
	}
}

func zeroSizedCodec() *typeCodec {
	return &typeCodec{
		enc: func(w *Writer, _ reflect.Value) { w.setError(ErrZeroSizedElement) },
		dec: func(r *Reader, _ reflect.Value) { r.setError(ErrZeroSizedElement) },
	}
}

func buildCodec(t reflect.Type) *typeCodec {
	c := derivedCodec(t)
	if t.Kind() == reflect.Pointer {
		// A pointer is the optional-value wrapper; hooks apply to the
		// wrapped value instead.
		return c
	}
	// Custom implementations take precedence over derivation, each
	// direction independently: a type may hook only its encode or only
	// its decode and derive the other.
	if t.Implements(marshalerType) || reflect.PointerTo(t).Implements(marshalerType) {
		c.enc = hookEncoder(t)
	}
	if reflect.PointerTo(t).Implements(unmarshalerType) {
		c.dec = hookDecoder()
	}
	return c
}

func derivedCodec(t reflect.Type) *typeCodec {
	switch t.Kind() {
	case reflect.Bool:
		return &typeCodec{
			enc: func(w *Writer, v reflect.Value) { w.WriteBool(v.Bool()) },
			dec: func(r *Reader, v reflect.Value) {
				var b bool
				r.ReadBool(&b)
				if r.err == nil {
					v.SetBool(b)
				}
			},
		}
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return intCodec(t.Kind())
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return uintCodec(t.Kind())
	case reflect.Float32:
		return &typeCodec{
			enc: func(w *Writer, v reflect.Value) { w.WriteFloat32(float32(v.Float())) },
			dec: func(r *Reader, v reflect.Value) {
				var f float32
				r.ReadFloat32(&f)
				if r.err == nil {
					v.SetFloat(float64(f))
				}
			},
		}
	case reflect.Float64:
		return &typeCodec{
			enc: func(w *Writer, v reflect.Value) { w.WriteFloat64(v.Float()) },
			dec: func(r *Reader, v reflect.Value) {
				var f float64
				r.ReadFloat64(&f)
				if r.err == nil {
					v.SetFloat(f)
				}
			},
		}
	case reflect.String:
		return &typeCodec{
			enc: func(w *Writer, v reflect.Value) { w.WriteString(v.String()) },
			dec: func(r *Reader, v reflect.Value) {
				var s string
				r.ReadString(&s)
				if r.err == nil {
					v.SetString(s)
				}
			},
		}
	case reflect.Pointer:
		return pointerCodec(t)
	case reflect.Slice:
		return sliceCodec(t)
	case reflect.Array:
		return arrayCodec(t)
	case reflect.Map:
		return mapCodec(t)
	case reflect.Struct:
		return structCodec(t)
	case reflect.Interface:
		return interfaceCodec(t)
	default:
		return unsupportedCodec(t)
	}
}

// hookEncoder defers to the type's own MarshalNBOR.
func hookEncoder(t reflect.Type) func(w *Writer, v reflect.Value) {
	valueMarshaler := t.Implements(marshalerType)
	return func(w *Writer, v reflect.Value) {
		var m Marshaler
		switch {
		case valueMarshaler:
			m = v.Interface().(Marshaler)
		case v.CanAddr():
			m = v.Addr().Interface().(Marshaler)
		default:
			// Pointer-receiver marshaler on a non-addressable value:
			// encode a copy.
			tmp := reflect.New(t)
			tmp.Elem().Set(v)
			m = tmp.Interface().(Marshaler)
		}
		w.setError(m.MarshalNBOR(w))
	}
}

// hookDecoder defers to the type's own UnmarshalNBOR. Decode targets
// are always addressable: they come from reflect.New or from fields
// reached through a pointer.
func hookDecoder() func(r *Reader, v reflect.Value) {
	return func(r *Reader, v reflect.Value) {
		u := v.Addr().Interface().(Unmarshaler)
		r.setError(u.UnmarshalNBOR(r))
	}
}

func intCodec(kind reflect.Kind) *typeCodec {
	return &typeCodec{
		enc: func(w *Writer, v reflect.Value) {
			switch kind {
			case reflect.Int8:
				w.WriteInt8(int8(v.Int()))
			case reflect.Int16:
				w.WriteInt16(int16(v.Int()))
			case reflect.Int32:
				w.WriteInt32(int32(v.Int()))
			case reflect.Int64:
				w.WriteInt64(v.Int())
			case reflect.Int:
				w.WriteInt(int(v.Int()))
			}
		},
		dec: func(r *Reader, v reflect.Value) {
			var out int64
			switch kind {
			case reflect.Int8:
				var x int8
				r.ReadInt8(&x)
				out = int64(x)
			case reflect.Int16:
				var x int16
				r.ReadInt16(&x)
				out = int64(x)
			case reflect.Int32:
				var x int32
				r.ReadInt32(&x)
				out = int64(x)
			case reflect.Int64:
				r.ReadInt64(&out)
			case reflect.Int:
				var x int
				r.ReadInt(&x)
				out = int64(x)
			}
			if r.err == nil {
				v.SetInt(out)
			}
		},
	}
}

func uintCodec(kind reflect.Kind) *typeCodec {
	return &typeCodec{
		enc: func(w *Writer, v reflect.Value) {
			switch kind {
			case reflect.Uint8:
				w.WriteUint8(uint8(v.Uint()))
			case reflect.Uint16:
				w.WriteUint16(uint16(v.Uint()))
			case reflect.Uint32:
				w.WriteUint32(uint32(v.Uint()))
			case reflect.Uint64:
				w.WriteUint64(v.Uint())
			case reflect.Uint:
				w.WriteUint(uint(v.Uint()))
			}
		},
		dec: func(r *Reader, v reflect.Value) {
			var out uint64
			switch kind {
			case reflect.Uint8:
				var x uint8
				r.ReadUint8(&x)
				out = uint64(x)
			case reflect.Uint16:
				var x uint16
				r.ReadUint16(&x)
				out = uint64(x)
			case reflect.Uint32:
				var x uint32
				r.ReadUint32(&x)
				out = uint64(x)
			case reflect.Uint64:
				r.ReadUint64(&out)
			case reflect.Uint:
				var x uint
				r.ReadUint(&x)
				out = uint64(x)
			}
			if r.err == nil {
				v.SetUint(out)
			}
		},
	}
}

// pointerCodec maps Go pointers onto the optional-value wire shape: a tag
// byte, 0 for nil, 1 followed by the pointee. A decoded pointee is always
// a fresh value; aliasing between pointers that shared a pointee before
// encoding is never reconstructed.
func pointerCodec(t reflect.Type) *typeCodec {
	elem := t.Elem()
	return &typeCodec{
		enc: func(w *Writer, v reflect.Value) {
			if v.IsNil() {
				_ = w.WriteByte(0)
				return
			}
			_ = w.WriteByte(1)
			encodeValue(w, v.Elem())
		},
		dec: func(r *Reader, v reflect.Value) {
			tag, err := r.ReadByte()
			if err != nil {
				return
			}
			switch tag {
			case 0:
				v.Set(reflect.Zero(t))
			case 1:
				p := reflect.New(elem)
				decodeValue(r, p.Elem())
				if r.err == nil {
					v.Set(p)
				}
			default:
				r.setError(fmt.Errorf("%w: got %d", ErrInvalidOption, tag))
			}
		},
	}
}

func sliceCodec(t reflect.Type) *typeCodec {
	elem := t.Elem()
	if elem.Size() == 0 {
		return zeroSizedCodec()
	}
	if elem.Kind() == reflect.Uint8 {
		// Bulk fast path for byte payloads. Observable results are identical
		// to the per-element loop; only the read strategy differs.
		return &typeCodec{
			enc: func(w *Writer, v reflect.Value) {
				w.WriteLen(v.Len())
				w.WriteBytes(v.Bytes())
			},
			dec: func(r *Reader, v reflect.Value) {
				n := r.ReadLen()
				if r.err != nil {
					return
				}
				buf := r.ReadPayload(n)
				if r.err != nil {
					return
				}
				if buf == nil {
					buf = []byte{}
				}
				v.SetBytes(buf)
			},
		}
	}
	return &typeCodec{
		enc: func(w *Writer, v reflect.Value) {
			w.WriteLen(v.Len())
			for i := 0; i < v.Len(); i++ {
				if w.err != nil {
					return
				}
				encodeValue(w, v.Index(i))
			}
		},
		dec: func(r *Reader, v reflect.Value) {
			n := r.ReadLen()
			if r.err != nil {
				return
			}
			out := reflect.MakeSlice(t, 0, elemCapacity(n, elem.Size()))
			for i := 0; i < n; i++ {
				ev := reflect.New(elem).Elem()
				decodeValue(r, ev)
				if r.err != nil {
					return
				}
				out = reflect.Append(out, ev)
			}
			v.Set(out)
		},
	}
}

// arrayCodec handles fixed-size aggregates: no length prefix, each of the
// N elements in order. A failure partway through leaves the destination
// partially written; the caller's decode aborts and the garbage collector
// reclaims whatever was built.
func arrayCodec(t reflect.Type) *typeCodec {
	n := t.Len()
	byteElem := t.Elem().Kind() == reflect.Uint8
	return &typeCodec{
		enc: func(w *Writer, v reflect.Value) {
			for i := 0; i < n; i++ {
				if w.err != nil {
					return
				}
				encodeValue(w, v.Index(i))
			}
		},
		dec: func(r *Reader, v reflect.Value) {
			if byteElem && v.CanAddr() {
				r.ReadBytesTo(v.Slice(0, n).Bytes())
				return
			}
			for i := 0; i < n; i++ {
				decodeValue(r, v.Index(i))
				if r.err != nil {
					return
				}
			}
		},
	}
}

// keyLess returns the ascending comparison for a map key type, or nil if
// the kind has no canonical order on the wire. Float keys are excluded:
// NaN ordering is undefined and NaN payloads are rejected anyway.
func keyLess(t reflect.Type) func(a, b reflect.Value) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(a, b reflect.Value) bool { return a.Int() < b.Int() }
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(a, b reflect.Value) bool { return a.Uint() < b.Uint() }
	case reflect.String:
		return func(a, b reflect.Value) bool { return a.String() < b.String() }
	default:
		return nil
	}
}

func mapCodec(t reflect.Type) *typeCodec {
	key, val := t.Key(), t.Elem()
	if key.Size() == 0 {
		return zeroSizedCodec()
	}
	less := keyLess(key)
	if less == nil {
		return unsupportedCodec(t)
	}
	return &typeCodec{
		enc: func(w *Writer, v reflect.Value) {
			// Hash iteration order is not the canonical order: materialize
			// and sort the keys before writing.
			keys := v.MapKeys()
			sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
			w.WriteLen(len(keys))
			for _, k := range keys {
				if w.err != nil {
					return
				}
				encodeValue(w, k)
				encodeValue(w, v.MapIndex(k))
			}
		},
		dec: func(r *Reader, v reflect.Value) {
			n := r.ReadLen()
			if r.err != nil {
				return
			}
			out := reflect.MakeMapWithSize(t, elemCapacity(n, key.Size()+val.Size()))
			var prev reflect.Value
			for i := 0; i < n; i++ {
				kv := reflect.New(key).Elem()
				vv := reflect.New(val).Elem()
				decodeValue(r, kv)
				decodeValue(r, vv)
				if r.err != nil {
					return
				}
				if r.strict && i > 0 && !less(prev, kv) {
					r.setError(ErrUnsortedKeys)
					return
				}
				prev = kv
				// Relaxed mode: the last occurrence of a duplicate key wins.
				out.SetMapIndex(kv, vv)
			}
			v.Set(out)
		},
	}
}

// structCodec encodes exported fields in declaration order with no padding
// or alignment bytes. A field tagged `nbor:"-"` contributes no bytes on
// encode and keeps its zero value on decode; the skip is resolved here,
// at derivation time, not per call.
func structCodec(t reflect.Type) *typeCodec {
	var fields []int
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Tag.Get("nbor") == "-" {
			continue
		}
		fields = append(fields, i)
	}
	return &typeCodec{
		enc: func(w *Writer, v reflect.Value) {
			for _, i := range fields {
				if w.err != nil {
					return
				}
				encodeValue(w, v.Field(i))
			}
		},
		dec: func(r *Reader, v reflect.Value) {
			for _, i := range fields {
				decodeValue(r, v.Field(i))
				if r.err != nil {
					return
				}
			}
		},
	}
}

// interfaceCodec dispatches through the union registry: a single
// discriminant byte ahead of the concrete variant's payload.
func interfaceCodec(t reflect.Type) *typeCodec {
	return &typeCodec{
		enc: func(w *Writer, v reflect.Value) {
			u, ok := unionRegistry.Load(t)
			if !ok {
				w.setError(fmt.Errorf("%w: %v", ErrUnregisteredUnion, t))
				return
			}
			if v.IsNil() {
				w.setError(fmt.Errorf("%w: cannot encode nil %v", ErrUnregisteredUnion, t))
				return
			}
			concrete := v.Elem()
			tag, ok := u.tags[concrete.Type()]
			if !ok {
				w.setError(fmt.Errorf("%w: %v is not a variant of %v", ErrUnregisteredUnion, concrete.Type(), t))
				return
			}
			_ = w.WriteByte(tag)
			encodeValue(w, concrete)
		},
		dec: func(r *Reader, v reflect.Value) {
			u, ok := unionRegistry.Load(t)
			if !ok {
				r.setError(fmt.Errorf("%w: %v", ErrUnregisteredUnion, t))
				return
			}
			tag, err := r.ReadByte()
			if err != nil {
				return
			}
			variant, ok := u.variants[tag]
			if !ok {
				r.setError(fmt.Errorf("%w: tag %d does not match any variant of %v", ErrInvalidDiscriminant, tag, t))
				return
			}
			nv := reflect.New(variant).Elem()
			decodeValue(r, nv)
			if r.err == nil {
				v.Set(nv)
			}
		},
	}
}
