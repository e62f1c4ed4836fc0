package nbor

import (
	"slices"

	"golang.org/x/exp/constraints"
)

// Canonical order for maps and sets is strictly ascending key order. Go
// maps are hash-ordered in memory, so encoding always materializes and
// sorts the keys first: two logically equal maps with different internal
// iteration order produce byte-identical output.

// EncodeMap writes a map as a length-prefixed sequence of key/value pairs
// in ascending key order.
func EncodeMap[K constraints.Ordered, V any](w *Writer, m map[K]V, encK EncodeFn[K], encV EncodeFn[V]) {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	w.WriteLen(len(keys))
	for _, k := range keys {
		if w.err != nil {
			return
		}
		encK(w, k)
		encV(w, m[k])
	}
}

// DecodeMap reads a length-prefixed sequence of key/value pairs. With
// strict ordering enabled on the Reader, any key that is not strictly
// greater than its predecessor fails the decode; this also rejects
// duplicates. In relaxed mode any order is accepted and the last
// occurrence of a duplicate key wins.
func DecodeMap[K constraints.Ordered, V any](r *Reader, decK DecodeFn[K], decV DecodeFn[V]) map[K]V {
	n := r.ReadLen()
	if r.err != nil {
		return nil
	}
	m := make(map[K]V, elemCapacity(n, entrySize[K, V]()))
	var prev K
	for i := 0; i < n; i++ {
		var k K
		var v V
		decK(r, &k)
		decV(r, &v)
		if r.err != nil {
			return nil
		}
		if r.strict && i > 0 && prev >= k {
			r.setError(ErrUnsortedKeys)
			return nil
		}
		prev = k
		m[k] = v
	}
	return m
}

// EncodeSet writes a set as a length-prefixed sequence of keys in
// ascending order. The wire format is identical to a key-ordered in-memory
// set; only the sort step differs.
func EncodeSet[K constraints.Ordered](w *Writer, s map[K]struct{}, encK EncodeFn[K]) {
	keys := make([]K, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	w.WriteLen(len(keys))
	for _, k := range keys {
		if w.err != nil {
			return
		}
		encK(w, k)
	}
}

// DecodeSet reads a length-prefixed sequence of keys, with the same
// ordering contract as DecodeMap.
func DecodeSet[K constraints.Ordered](r *Reader, decK DecodeFn[K]) map[K]struct{} {
	n := r.ReadLen()
	if r.err != nil {
		return nil
	}
	s := make(map[K]struct{}, elemCapacity(n, entrySize[K, struct{}]()))
	var prev K
	for i := 0; i < n; i++ {
		var k K
		decK(r, &k)
		if r.err != nil {
			return nil
		}
		if r.strict && i > 0 && prev >= k {
			r.setError(ErrUnsortedKeys)
			return nil
		}
		prev = k
		s[k] = struct{}{}
	}
	return s
}

// EncodeSorted writes pre-sorted entries as a length-prefixed sequence.
// It serves key-ordered in-memory structures (balanced trees and the
// like) that already iterate in ascending order, skipping the sort;
// the output format is identical to EncodeMap's.
func EncodeSorted[T any](w *Writer, entries []T, enc EncodeFn[T]) {
	if zeroSized[T]() {
		w.setError(ErrZeroSizedElement)
		return
	}
	w.WriteLen(len(entries))
	for i := range entries {
		if w.err != nil {
			return
		}
		enc(w, entries[i])
	}
}
