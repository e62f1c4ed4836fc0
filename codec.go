package nbor

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
)

// Marshaler is implemented by types that encode themselves. The
// implementation writes exactly the canonical bytes of the value through w
// and reports the first failure; the reflection layer defers to it before
// applying its own struct rules.
//
// Generated or hand-written implementations follow the delegation contract:
// fields in declaration order, a single tag byte ahead of every variant
// payload, no padding.
type Marshaler interface {
	MarshalNBOR(w *Writer) error
}

// Unmarshaler is implemented by types that decode themselves. The
// implementation consumes exactly the bytes a matching MarshalNBOR would
// have produced and no more.
type Unmarshaler interface {
	UnmarshalNBOR(r *Reader) error
}

// Option configures a decode entry point.
type Option func(*Reader)

// WithStrictOrder makes map and set decodes reject keys that are not in
// strictly ascending order. Duplicate keys fail the same check. Without it,
// any order is accepted and the last occurrence of a duplicate key wins.
func WithStrictOrder() Option {
	return func(r *Reader) { r.strict = true }
}

// WithMaxAlloc overrides the ceiling for speculative payload buffers.
// The default is 1 MiB. Each nested payload decode is bounded
// independently, so total memory is bounded by the sum of what the source
// actually delivers, not by the product of declared lengths.
func WithMaxAlloc(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxAlloc = n
		}
	}
}

// Marshal encodes v into its canonical byte sequence.
func Marshal(v any) ([]byte, error) {
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	w, _ := NewWriter(buf)
	encodeValue(w, reflect.ValueOf(v))
	if _, err := w.Result(); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// MarshalTo encodes v directly into dst. Any sink failure is propagated
// verbatim; no partial write is ever reported as success.
func MarshalTo(dst io.Writer, v any) error {
	w, err := NewWriter(dst)
	if err != nil {
		return err
	}
	encodeValue(w, reflect.ValueOf(v))
	_, err = w.Result()
	return err
}

// Unmarshal decodes data into v, which must be a non-nil pointer. The
// entire buffer must be consumed: trailing bytes after the value fail with
// ErrTrailingData. Nested decodes consume only their own sub-range; the
// whole-buffer rule applies to the root value only.
func Unmarshal(data []byte, v any, opts ...Option) error {
	r, _ := NewReader(bytes.NewReader(data))
	for _, opt := range opts {
		opt(r)
	}
	if err := decodeInto(r, v); err != nil {
		return err
	}
	if rest := int64(len(data)) - r.Count(); rest > 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrTrailingData, rest)
	}
	return nil
}

// UnmarshalFrom decodes a value from src into v and fails unless src is
// exactly exhausted immediately after.
func UnmarshalFrom(src io.Reader, v any, opts ...Option) error {
	r, err := NewReader(src)
	if err != nil {
		return err
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := decodeInto(r, v); err != nil {
		return err
	}
	var probe [1]byte
	switch _, err := io.ReadFull(src, probe[:]); err {
	case io.EOF:
		return nil
	case nil:
		return ErrTrailingData
	default:
		// A transport failure on the probe is an I/O error, not
		// trailing data.
		return err
	}
}

// Decode decodes a value from r into v, consuming exactly the value's
// bytes. Unlike Unmarshal and UnmarshalFrom it performs no exhaustion
// check, so sibling fields may follow on the same Reader.
func Decode(r *Reader, v any) error {
	return decodeInto(r, v)
}

// Encode encodes v through an existing Writer, for callers composing a
// value into a larger stream.
func Encode(w *Writer, v any) error {
	encodeValue(w, reflect.ValueOf(v))
	return w.Err()
}

func decodeInto(r *Reader, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: decode target must be a non-nil pointer, got %T", ErrUnsupportedType, v)
	}
	decodeValue(r, rv.Elem())
	return r.Err()
}
