package nbor

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"unicode/utf8"
)

// maxPrealloc caps the initial allocation for a variable-length payload.
// The declared length of a payload is untrusted; a hostile 0xFFFFFFFF
// prefix must not force a 4 GiB allocation up front. Buffers start at
// min(declared, maxPrealloc) bytes and double as the payload actually
// arrives.
const maxPrealloc = 1 << 20 // 1 MiB

// capacityBudget bounds the speculative element-slice capacity derived
// from an untrusted length prefix, in bytes worth of elements.
const capacityBudget = 4096

// Reader provides an error-latching decoder over an io.Reader.
// It tracks the first error that occurs; after an error, all subsequent
// read operations become no-ops and leave their destinations untouched.
// A Reader must not be shared between concurrent decodes.
type Reader struct {
	r        io.Reader
	count    int64 // total bytes read
	err      error // first error encountered. Subsequent reads become no-ops.
	strict   bool  // reject unordered or duplicate map/set keys
	maxAlloc int   // ceiling for speculative payload buffers
	scratch  [8]byte
}

// NewReader creates a new Reader over r.
func NewReader(r io.Reader) (*Reader, error) {
	if r == nil {
		return nil, ErrNilIO
	}
	return &Reader{r: r, maxAlloc: maxPrealloc}, nil
}

// Count returns the total number of bytes consumed so far.
func (r *Reader) Count() int64 { return r.count }

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }

// Result returns the total bytes read and the final error state.
func (r *Reader) Result() (int64, error) {
	return r.count, r.err
}

// Strict reports whether strict key-order enforcement is enabled.
func (r *Reader) Strict() bool { return r.strict }

// Fail latches err as the Reader's error state. Hand-written Unmarshaler
// implementations use it to abort a decode with their own error.
func (r *Reader) Fail(err error) {
	r.setError(err)
}

// setError records the first non-nil error, mapping end-of-input signals
// to ErrUnexpectedLength. A value decode that runs out of bytes is a
// malformed-input condition, not a clean end-of-stream.
func (r *Reader) setError(err error) {
	if r.err != nil || err == nil {
		return
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = ErrUnexpectedLength
	}
	r.err = err
}

// readFull reads exactly len(buf) bytes into buf.
func (r *Reader) readFull(buf []byte) bool {
	if r.err != nil {
		return false
	}
	n, err := io.ReadFull(r.r, buf)
	r.count += int64(n)
	if err != nil {
		r.setError(err)
		return false
	}
	return true
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.err != nil {
		return 0, r.err
	}
	buf := r.scratch[:1]
	if !r.readFull(buf) {
		return 0, r.err
	}
	return buf[0], nil
}

// ReadBool reads a boolean byte. Any value other than 0 or 1 fails the
// decode, naming the offending byte.
func (r *Reader) ReadBool(dest *bool) {
	b, err := r.ReadByte()
	if err != nil {
		return
	}
	switch b {
	case 0:
		*dest = false
	case 1:
		*dest = true
	default:
		r.setError(fmt.Errorf("%w: %d", ErrInvalidBool, b))
	}
}

func (r *Reader) ReadUint8(dest *uint8) {
	b, err := r.ReadByte()
	if err == nil {
		*dest = b
	}
}

func (r *Reader) ReadUint16(dest *uint16) {
	buf := r.scratch[:2]
	if r.readFull(buf) {
		*dest = Order.Uint16(buf)
	}
}

func (r *Reader) ReadUint32(dest *uint32) {
	buf := r.scratch[:4]
	if r.readFull(buf) {
		*dest = Order.Uint32(buf)
	}
}

func (r *Reader) ReadUint64(dest *uint64) {
	buf := r.scratch[:8]
	if r.readFull(buf) {
		*dest = Order.Uint64(buf)
	}
}

func (r *Reader) ReadInt8(dest *int8) {
	b, err := r.ReadByte()
	if err == nil {
		*dest = int8(b)
	}
}

func (r *Reader) ReadInt16(dest *int16) {
	var v uint16
	r.ReadUint16(&v)
	if r.err == nil {
		*dest = int16(v)
	}
}

func (r *Reader) ReadInt32(dest *int32) {
	var v uint32
	r.ReadUint32(&v)
	if r.err == nil {
		*dest = int32(v)
	}
}

func (r *Reader) ReadInt64(dest *int64) {
	var v uint64
	r.ReadUint64(&v)
	if r.err == nil {
		*dest = int64(v)
	}
}

// intSize is the bit width of int/uint on the running platform.
const intSize = strconv.IntSize

// uintFits reports whether v fits an unsigned integer of the given width.
func uintFits(v uint64, bits int) bool {
	return bits >= 64 || v <= (1<<bits)-1
}

// intFits reports whether v fits a signed integer of the given width.
func intFits(v int64, bits int) bool {
	return bits >= 64 || (v >= -(1<<(bits-1)) && v <= (1<<(bits-1))-1)
}

// ReadUint reads the canonical 64-bit representation of a platform-width
// unsigned integer and range-checks it against the running platform.
func (r *Reader) ReadUint(dest *uint) {
	var v uint64
	r.ReadUint64(&v)
	if r.err != nil {
		return
	}
	if !uintFits(v, intSize) {
		r.setError(fmt.Errorf("%w: %d", ErrIntOverflow, v))
		return
	}
	*dest = uint(v)
}

// ReadInt reads the canonical 64-bit representation of a platform-width
// signed integer and range-checks it against the running platform.
func (r *Reader) ReadInt(dest *int) {
	var v int64
	r.ReadInt64(&v)
	if r.err != nil {
		return
	}
	if !intFits(v, intSize) {
		r.setError(fmt.Errorf("%w: %d", ErrIntOverflow, v))
		return
	}
	*dest = int(v)
}

// ReadFloat32 reads a raw IEEE 754 bit pattern, rejecting NaN.
func (r *Reader) ReadFloat32(dest *float32) {
	var bits uint32
	r.ReadUint32(&bits)
	if r.err != nil {
		return
	}
	v := math.Float32frombits(bits)
	if v != v {
		r.setError(ErrNaN)
		return
	}
	*dest = v
}

// ReadFloat64 reads a raw IEEE 754 bit pattern, rejecting NaN.
func (r *Reader) ReadFloat64(dest *float64) {
	var bits uint64
	r.ReadUint64(&bits)
	if r.err != nil {
		return
	}
	v := math.Float64frombits(bits)
	if v != v {
		r.setError(ErrNaN)
		return
	}
	*dest = v
}

// ReadLen reads the 4-byte length prefix of a variable-length collection.
// The returned count is untrusted: callers must size allocations through
// ReadPayload or elemCapacity, never directly from it.
func (r *Reader) ReadLen() int {
	var v uint32
	r.ReadUint32(&v)
	if r.err != nil {
		return 0
	}
	if uint64(v) > uint64(math.MaxInt) {
		r.setError(fmt.Errorf("%w: %d", ErrLengthOverflow, v))
		return 0
	}
	return int(v)
}

// ReadBytesTo reads exactly len(dest) bytes into dest.
func (r *Reader) ReadBytesTo(dest []byte) {
	if len(dest) == 0 {
		return
	}
	r.readFull(dest)
}

// ReadPayload reads a declared-length byte payload without trusting the
// declared length. The buffer starts at min(length, the allocation ceiling)
// and doubles as bytes actually arrive, so a hostile length prefix costs no
// more memory than the source can back with real bytes. A zero-byte read
// before the payload is complete is a hard failure.
func (r *Reader) ReadPayload(length int) []byte {
	if r.err != nil {
		return nil
	}
	if length <= 0 {
		return nil
	}
	buf := make([]byte, min(length, r.maxAlloc))
	pos := 0
	for pos < length {
		if pos == len(buf) {
			grown := make([]byte, min(len(buf)*2, length))
			copy(grown, buf)
			buf = grown
		}
		n, err := r.r.Read(buf[pos:])
		if n < 0 {
			r.setError(fmt.Errorf("nbor: reader returned invalid count %d from Read", n))
			return nil
		}
		pos += n
		r.count += int64(n)
		if pos >= length {
			break
		}
		if err != nil {
			r.setError(err)
			return nil
		}
		if n == 0 {
			r.setError(ErrUnexpectedLength)
			return nil
		}
	}
	return buf
}

// ReadString reads a 4-byte length prefix followed by that many bytes,
// validated as UTF-8.
func (r *Reader) ReadString(dest *string) {
	length := r.ReadLen()
	if r.err != nil {
		return
	}
	buf := r.ReadPayload(length)
	if r.err != nil {
		return
	}
	if !utf8.Valid(buf) {
		r.setError(ErrInvalidUTF8)
		return
	}
	*dest = string(buf)
}
