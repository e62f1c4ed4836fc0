package nbor

import (
	"fmt"
	"reflect"

	"golang.org/x/exp/constraints"
)

// EncodeFn writes one value of type T through w.
type EncodeFn[T any] func(w *Writer, v T)

// DecodeFn reads one value of type T from r into dest. On failure the
// Reader latches the error and dest is left untouched.
type DecodeFn[T any] func(r *Reader, dest *T)

// EncodeOption writes an optional value: a tag byte, 0 for absent and 1
// for present, followed by the inner value when present.
func EncodeOption[T any](w *Writer, v *T, enc EncodeFn[T]) {
	if v == nil {
		_ = w.WriteByte(0)
		return
	}
	_ = w.WriteByte(1)
	enc(w, *v)
}

// DecodeOption reads an optional value. Any tag byte other than 0 or 1
// fails the decode, naming the offending byte.
func DecodeOption[T any](r *Reader, dec DecodeFn[T]) *T {
	tag, err := r.ReadByte()
	if err != nil {
		return nil
	}
	switch tag {
	case 0:
		return nil
	case 1:
		v := new(T)
		dec(r, v)
		if r.err != nil {
			return nil
		}
		return v
	default:
		r.setError(fmt.Errorf("%w: got %d", ErrInvalidOption, tag))
		return nil
	}
}

// Result is a two-branch union holding either a success value or a
// failure value. The branch order on the wire is fixed: tag 0 carries the
// failure payload, tag 1 the success payload.
type Result[T any, E any] struct {
	ok    bool
	value T
	fault E
}

// OkResult returns a Result holding a success value.
func OkResult[T any, E any](v T) Result[T, E] {
	return Result[T, E]{ok: true, value: v}
}

// ErrResult returns a Result holding a failure value.
func ErrResult[T any, E any](e E) Result[T, E] {
	return Result[T, E]{fault: e}
}

// Ok returns the success value and whether the Result holds one.
func (res Result[T, E]) Ok() (T, bool) {
	return res.value, res.ok
}

// Err returns the failure value and whether the Result holds one.
func (res Result[T, E]) Err() (E, bool) {
	return res.fault, !res.ok
}

// EncodeResult writes a Result: tag 0 plus the failure payload, or tag 1
// plus the success payload.
func EncodeResult[T any, E any](w *Writer, res Result[T, E], encT EncodeFn[T], encE EncodeFn[E]) {
	if res.ok {
		_ = w.WriteByte(1)
		encT(w, res.value)
		return
	}
	_ = w.WriteByte(0)
	encE(w, res.fault)
}

// DecodeResult reads a Result, failing on any tag byte other than 0 or 1.
func DecodeResult[T any, E any](r *Reader, decT DecodeFn[T], decE DecodeFn[E]) Result[T, E] {
	var res Result[T, E]
	tag, err := r.ReadByte()
	if err != nil {
		return res
	}
	switch tag {
	case 0:
		decE(r, &res.fault)
	case 1:
		res.ok = true
		decT(r, &res.value)
	default:
		r.setError(fmt.Errorf("%w: got %d", ErrInvalidResult, tag))
	}
	return res
}

// zeroSized reports whether T occupies no memory, and therefore no bytes
// on the wire.
func zeroSized[T any]() bool {
	return reflect.TypeFor[T]().Size() == 0
}

// entrySize is the in-memory footprint of one map entry, for capacity hints.
func entrySize[K any, V any]() uintptr {
	return reflect.TypeFor[K]().Size() + reflect.TypeFor[V]().Size()
}

// elemCapacity bounds the speculative capacity for a decoded element slice.
// The declared count is untrusted, so the initial capacity never exceeds a
// few KiB worth of elements regardless of what the prefix claims.
func elemCapacity(n int, elemSize uintptr) int {
	if elemSize == 0 {
		elemSize = 1
	}
	budget := capacityBudget / int(elemSize)
	if budget < 1 {
		budget = 1
	}
	return min(n, budget)
}

// EncodeSlice writes a dynamic sequence: a 4-byte length prefix followed
// by each element in order. Zero-sized element types are rejected: their
// count has no corresponding byte cost on the wire.
func EncodeSlice[T any](w *Writer, items []T, enc EncodeFn[T]) {
	if zeroSized[T]() {
		w.setError(ErrZeroSizedElement)
		return
	}
	w.WriteLen(len(items))
	for i := range items {
		if w.err != nil {
			return
		}
		enc(w, items[i])
	}
}

// DecodeSlice reads a dynamic sequence. The declared length only bounds
// the loop; allocation grows with the elements actually decoded.
func DecodeSlice[T any](r *Reader, dec DecodeFn[T]) []T {
	if zeroSized[T]() {
		r.setError(ErrZeroSizedElement)
		return nil
	}
	n := r.ReadLen()
	if r.err != nil || n == 0 {
		return nil
	}
	items := make([]T, 0, elemCapacity(n, reflect.TypeFor[T]().Size()))
	for i := 0; i < n; i++ {
		var item T
		dec(r, &item)
		if r.err != nil {
			return nil
		}
		items = append(items, item)
	}
	return items
}

// EncodeBytes writes a length-prefixed raw byte payload. This is the bulk
// fast path for byte sequences; the bytes are identical to encoding each
// byte through EncodeSlice.
func EncodeBytes(w *Writer, b []byte) {
	w.WriteLen(len(b))
	w.WriteBytes(b)
}

// DecodeBytes reads a length-prefixed byte payload through the bounded
// payload reader.
func DecodeBytes(r *Reader) []byte {
	n := r.ReadLen()
	if r.err != nil {
		return nil
	}
	return r.ReadPayload(n)
}

// EncodeArray writes a fixed-size aggregate: each element in order with no
// length prefix. The element count is part of the type, not the wire data.
func EncodeArray[T any](w *Writer, items []T, enc EncodeFn[T]) {
	for i := range items {
		if w.err != nil {
			return
		}
		enc(w, items[i])
	}
}

// DecodeArray reads exactly n elements with no length prefix. A failure
// partway through discards the elements decoded so far.
func DecodeArray[T any](r *Reader, n int, dec DecodeFn[T]) []T {
	items := make([]T, 0, elemCapacity(n, reflect.TypeFor[T]().Size()))
	for i := 0; i < n; i++ {
		var item T
		dec(r, &item)
		if r.err != nil {
			return nil
		}
		items = append(items, item)
	}
	return items
}

// EncodeNonZero writes a non-zero-constrained integer in its fixed-width
// representation. A zero value fails the encode; it could never decode.
func EncodeNonZero[T constraints.Integer](w *Writer, v T) {
	if v == 0 {
		w.setError(ErrZeroValue)
		return
	}
	writeInteger(w, v)
}

// DecodeNonZero reads the underlying integer and rejects zero.
func DecodeNonZero[T constraints.Integer](r *Reader, dest *T) {
	var v T
	readInteger(r, &v)
	if r.err != nil {
		return
	}
	if v == 0 {
		r.setError(ErrZeroValue)
		return
	}
	*dest = v
}

// writeInteger dispatches on T's width and signedness.
func writeInteger[T constraints.Integer](w *Writer, v T) {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Int8:
		w.WriteInt8(int8(v))
	case reflect.Int16:
		w.WriteInt16(int16(v))
	case reflect.Int32:
		w.WriteInt32(int32(v))
	case reflect.Int64:
		w.WriteInt64(int64(v))
	case reflect.Int:
		w.WriteInt(int(v))
	case reflect.Uint8:
		w.WriteUint8(uint8(v))
	case reflect.Uint16:
		w.WriteUint16(uint16(v))
	case reflect.Uint32:
		w.WriteUint32(uint32(v))
	case reflect.Uint64:
		w.WriteUint64(uint64(v))
	case reflect.Uint:
		w.WriteUint(uint(v))
	default:
		w.setError(fmt.Errorf("%w: %v", ErrUnsupportedType, reflect.TypeFor[T]()))
	}
}

// readInteger dispatches on T's width and signedness.
func readInteger[T constraints.Integer](r *Reader, dest *T) {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Int8:
		var v int8
		r.ReadInt8(&v)
		if r.err == nil {
			*dest = T(v)
		}
	case reflect.Int16:
		var v int16
		r.ReadInt16(&v)
		if r.err == nil {
			*dest = T(v)
		}
	case reflect.Int32:
		var v int32
		r.ReadInt32(&v)
		if r.err == nil {
			*dest = T(v)
		}
	case reflect.Int64:
		var v int64
		r.ReadInt64(&v)
		if r.err == nil {
			*dest = T(v)
		}
	case reflect.Int:
		var v int
		r.ReadInt(&v)
		if r.err == nil {
			*dest = T(v)
		}
	case reflect.Uint8:
		var v uint8
		r.ReadUint8(&v)
		if r.err == nil {
			*dest = T(v)
		}
	case reflect.Uint16:
		var v uint16
		r.ReadUint16(&v)
		if r.err == nil {
			*dest = T(v)
		}
	case reflect.Uint32:
		var v uint32
		r.ReadUint32(&v)
		if r.err == nil {
			*dest = T(v)
		}
	case reflect.Uint64:
		var v uint64
		r.ReadUint64(&v)
		if r.err == nil {
			*dest = T(v)
		}
	case reflect.Uint:
		var v uint
		r.ReadUint(&v)
		if r.err == nil {
			*dest = T(v)
		}
	default:
		r.setError(fmt.Errorf("%w: %v", ErrUnsupportedType, reflect.TypeFor[T]()))
	}
}
