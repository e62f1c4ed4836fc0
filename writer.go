package nbor

import (
	"encoding/binary"
	"io"
	"math"
)

// Order is the wire byte order. The format is little-endian only.
var Order = binary.LittleEndian

// Writer provides an error-latching encoder over an io.Writer.
// It tracks the first error that occurs; after an error, all subsequent
// write operations become no-ops. The Writer never retains the underlying
// io.Writer past its own lifetime and must not be shared between
// concurrent encodes.
type Writer struct {
	w     io.Writer
	count int64 // total bytes written
	err   error // first error encountered. Subsequent writes become no-ops.
}

// NewWriter creates a new Writer over w.
func NewWriter(w io.Writer) (*Writer, error) {
	if w == nil {
		return nil, ErrNilIO
	}
	return &Writer{w: w}, nil
}

// Count returns the total number of bytes written so far.
func (w *Writer) Count() int64 { return w.count }

// Err returns the first error encountered, if any.
func (w *Writer) Err() error { return w.err }

// Result returns the final count and error state.
func (w *Writer) Result() (int64, error) {
	return w.count, w.err
}

// Fail latches err as the Writer's error state. Hand-written Marshaler
// implementations use it to abort an encode with their own error.
func (w *Writer) Fail(err error) {
	w.setError(err)
}

// setError records the first non-nil error.
// This preserves the root cause of a failure chain instead of a later,
// less relevant error.
func (w *Writer) setError(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

// Write implements the io.Writer interface.
func (w *Writer) Write(buf []byte) (int, error) {
	if len(buf) == 0 || w.err != nil {
		return 0, w.err
	}
	n, err := w.w.Write(buf)
	w.count += int64(n)
	if err == nil && n < len(buf) {
		err = io.ErrShortWrite
	}
	w.setError(err)
	return n, w.err
}

// WriteBytes writes a byte slice verbatim, with no length prefix.
func (w *Writer) WriteBytes(buf []byte) {
	_, _ = w.Write(buf)
}

// WriteByte implements the io.ByteWriter interface.
func (w *Writer) WriteByte(v byte) error {
	if w.err != nil {
		return w.err
	}
	var buf [1]byte
	buf[0] = v
	_, _ = w.Write(buf[:])
	return w.err
}

// WriteBool writes a single byte, 1 for true and 0 for false.
func (w *Writer) WriteBool(v bool) {
	if v {
		_ = w.WriteByte(1)
	} else {
		_ = w.WriteByte(0)
	}
}

func (w *Writer) WriteUint8(v uint8) {
	_ = w.WriteByte(v)
}

func (w *Writer) WriteUint16(v uint16) {
	if w.err != nil {
		return
	}
	var buf [2]byte
	Order.PutUint16(buf[:], v)
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteUint32(v uint32) {
	if w.err != nil {
		return
	}
	var buf [4]byte
	Order.PutUint32(buf[:], v)
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteUint64(v uint64) {
	if w.err != nil {
		return
	}
	var buf [8]byte
	Order.PutUint64(buf[:], v)
	_, _ = w.Write(buf[:])
}

func (w *Writer) WriteInt8(v int8) {
	_ = w.WriteByte(uint8(v))
}

func (w *Writer) WriteInt16(v int16) {
	w.WriteUint16(uint16(v))
}

func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

func (w *Writer) WriteInt64(v int64) {
	w.WriteUint64(uint64(v))
}

// WriteUint writes a platform-width unsigned integer in its canonical fixed
// 64-bit representation. The native width never appears on the wire.
func (w *Writer) WriteUint(v uint) {
	w.WriteUint64(uint64(v))
}

// WriteInt writes a platform-width signed integer in its canonical fixed
// 64-bit representation.
func (w *Writer) WriteInt(v int) {
	w.WriteInt64(int64(v))
}

// WriteFloat32 writes the raw IEEE 754 bit pattern. NaN values fail the
// encode: their bit patterns differ across architectures.
func (w *Writer) WriteFloat32(v float32) {
	if w.err != nil {
		return
	}
	if v != v {
		w.setError(ErrNaN)
		return
	}
	w.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 writes the raw IEEE 754 bit pattern, rejecting NaN.
func (w *Writer) WriteFloat64(v float64) {
	if w.err != nil {
		return
	}
	if v != v {
		w.setError(ErrNaN)
		return
	}
	w.WriteUint64(math.Float64bits(v))
}

// WriteLen writes the 4-byte length prefix of a variable-length collection.
// Counts beyond the prefix's range fail the encode.
func (w *Writer) WriteLen(n int) {
	if w.err != nil {
		return
	}
	if n < 0 || uint64(n) > math.MaxUint32 {
		w.setError(ErrLengthOverflow)
		return
	}
	w.WriteUint32(uint32(n))
}

// WriteString writes a 4-byte length prefix followed by the raw UTF-8 bytes.
func (w *Writer) WriteString(v string) {
	w.WriteLen(len(v))
	if w.err != nil {
		return
	}
	if len(v) > 0 {
		n, err := io.WriteString(w.w, v)
		w.count += int64(n)
		if err == nil && n < len(v) {
			err = io.ErrShortWrite
		}
		w.setError(err)
	}
}
