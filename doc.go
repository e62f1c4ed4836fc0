// Package nbor implements a deterministic, canonical binary codec.
//
// Encoding is an injective function of a value's content: no two distinct
// values share a byte sequence, and logically equal values always produce
// identical bytes regardless of in-memory layout or map iteration order.
// Decoding is total over well-formed input and rejects malformed input
// with a specific error; it never panics on hostile bytes and never
// trusts a declared length when sizing allocations.
//
// The wire format, in brief:
//
//   - Fixed-width integers: two's-complement little-endian, exactly their
//     bit width. Platform-width int/uint travel as 64 bits and are
//     range-checked on decode.
//   - Floats: raw IEEE 754 bits, little-endian. NaN is rejected in both
//     directions.
//   - bool: one byte, 0 or 1.
//   - Strings and byte slices: 4-byte little-endian length prefix, then
//     the raw bytes. Strings must be valid UTF-8.
//   - Slices: length prefix, then each element. Arrays: elements only.
//   - Pointers: optional values. One tag byte, 0 for nil, 1 then the
//     pointee.
//   - Maps and sets: length prefix, then entries in strictly ascending
//     key order. Encoding sorts; decoding optionally enforces.
//   - Structs: exported fields in declaration order, no padding.
//   - Interfaces: a registered union; one discriminant byte, then the
//     variant's payload.
//
// Encode and decode are synchronous calls over plain io.Writer/io.Reader.
// Running them on a goroutine over a net.Conn or pipe gives the
// suspension-capable mode for free: every Read/Write is a scheduling
// point and results are byte-for-byte identical to the blocking path.
// A single Writer or Reader must not be driven by more than one
// operation at a time; closing the underlying source or sink mid-call
// aborts the operation with the transport's error.
package nbor
