package nbor

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ReaderTestSuite struct {
	suite.Suite
}

func (s *ReaderTestSuite) reader(data []byte) *Reader {
	r, err := NewReader(bytes.NewReader(data))
	s.Require().NoError(err)
	return r
}

func (s *ReaderTestSuite) TestConstructor() {
	_, err := NewReader(nil)
	s.Assert().ErrorIs(err, ErrNilIO)
}

func (s *ReaderTestSuite) TestPrimitiveDecodings() {
	r := s.reader([]byte{
		0xAA,
		0xCC, 0xBB,
		0x00, 0xFF, 0xEE, 0xDD,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
		0xFF,
		0xFE, 0xFF, 0xFF, 0xFF,
		1, 0,
	})

	var (
		u8  uint8
		u16 uint16
		u32 uint32
		u64 uint64
		i8  int8
		i32 int32
		bt  bool
		bf  bool
	)
	r.ReadUint8(&u8)
	r.ReadUint16(&u16)
	r.ReadUint32(&u32)
	r.ReadUint64(&u64)
	r.ReadInt8(&i8)
	r.ReadInt32(&i32)
	r.ReadBool(&bt)
	r.ReadBool(&bf)

	n, err := r.Result()
	s.Require().NoError(err)
	s.Assert().EqualValues(22, n)
	s.Assert().Equal(uint8(0xAA), u8)
	s.Assert().Equal(uint16(0xBBCC), u16)
	s.Assert().Equal(uint32(0xDDEEFF00), u32)
	s.Assert().Equal(uint64(0x0102030405060708), u64)
	s.Assert().Equal(int8(-1), i8)
	s.Assert().Equal(int32(-2), i32)
	s.Assert().True(bt)
	s.Assert().False(bf)
}

func (s *ReaderTestSuite) TestBoolRejectsOtherBytes() {
	r := s.reader([]byte{2})
	var b bool
	r.ReadBool(&b)
	s.Assert().ErrorIs(r.Err(), ErrInvalidBool)
	s.Assert().ErrorContains(r.Err(), "2")
	s.Assert().False(b, "destination untouched after failure")
}

func (s *ReaderTestSuite) TestTruncatedInputIsMalformed() {
	r := s.reader([]byte{1, 2})
	var v uint32
	r.ReadUint32(&v)
	s.Assert().ErrorIs(r.Err(), ErrUnexpectedLength)
	s.Assert().Zero(v)
}

func (s *ReaderTestSuite) TestReadAfterErrorIsNoOp() {
	r := s.reader([]byte{5})
	var a, b uint16
	r.ReadUint16(&a)
	firstErr := r.Err()
	s.Require().Error(firstErr)

	r.ReadUint16(&b)
	s.Assert().Equal(firstErr, r.Err())
	s.Assert().Zero(b)
}

func (s *ReaderTestSuite) TestFloatNaNRejected() {
	nan64 := Order.AppendUint64(nil, math.Float64bits(math.NaN()))
	r := s.reader(nan64)
	var f float64
	r.ReadFloat64(&f)
	s.Assert().ErrorIs(r.Err(), ErrNaN)
	s.Assert().Zero(f)

	nan32 := Order.AppendUint32(nil, math.Float32bits(float32(math.NaN())))
	r = s.reader(nan32)
	var f32 float32
	r.ReadFloat32(&f32)
	s.Assert().ErrorIs(r.Err(), ErrNaN)
}

func (s *ReaderTestSuite) TestFloatRoundtrip() {
	r := s.reader(Order.AppendUint64(nil, math.Float64bits(math.Inf(1))))
	var f float64
	r.ReadFloat64(&f)
	s.Require().NoError(r.Err())
	s.Assert().True(math.IsInf(f, 1), "infinities are portable, only NaN is not")
}

func (s *ReaderTestSuite) TestString() {
	payload := []byte("héllo")
	data := append([]byte{byte(len(payload)), 0, 0, 0}, payload...)
	r := s.reader(data)
	var str string
	r.ReadString(&str)
	s.Require().NoError(r.Err())
	s.Assert().Equal("héllo", str)
}

func (s *ReaderTestSuite) TestStringRejectsInvalidUTF8() {
	data := []byte{2, 0, 0, 0, 0xFF, 0xFE}
	r := s.reader(data)
	var str string
	r.ReadString(&str)
	s.Assert().ErrorIs(r.Err(), ErrInvalidUTF8)
	s.Assert().Empty(str)
}

func (s *ReaderTestSuite) TestHostileLengthDoesNotPreallocate() {
	// Declared length of 4 GiB minus one, backed by ten real bytes. The
	// decode must fail on exhaustion without ever allocating the declared
	// size.
	data := append([]byte{0xFF, 0xFF, 0xFF, 0xFF}, make([]byte, 10)...)
	r := s.reader(data)
	r.maxAlloc = 64 // make the cap observable without a heap profiler
	buf := r.ReadPayload(r.ReadLen())
	s.Assert().Nil(buf)
	s.Assert().ErrorIs(r.Err(), ErrUnexpectedLength)
}

func (s *ReaderTestSuite) TestPayloadGrowsWithDelivery() {
	payload := bytes.Repeat([]byte{0xAB}, 300)
	r := s.reader(payload)
	r.maxAlloc = 16
	buf := r.ReadPayload(len(payload))
	s.Require().NoError(r.Err())
	s.Assert().Equal(payload, buf)
	s.Assert().EqualValues(len(payload), r.Count())
}

func TestReader(t *testing.T) {
	suite.Run(t, new(ReaderTestSuite))
}

func TestPlatformWidthRangeCheck(t *testing.T) {
	// On a 32-bit platform a canonical 64-bit value beyond the native range
	// must fail the decode. Exercised here through the width predicates the
	// platform-width reads are built on.
	assert.True(t, uintFits(math.MaxUint32, 32))
	assert.False(t, uintFits(math.MaxUint32+1, 32))
	assert.True(t, uintFits(math.MaxUint64, 64))

	assert.True(t, intFits(math.MinInt32, 32))
	assert.True(t, intFits(math.MaxInt32, 32))
	assert.False(t, intFits(math.MinInt32-1, 32))
	assert.False(t, intFits(math.MaxInt32+1, 32))
	assert.True(t, intFits(math.MinInt64, 64))
}

func TestReadUintRoundtrip(t *testing.T) {
	data := Order.AppendUint64(nil, 1<<40)
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	var v uint
	r.ReadUint(&v)
	require.NoError(t, r.Err())
	assert.Equal(t, uint(1<<40), v)
}

// stallReader delivers its payload and then returns (0, nil) forever,
// modeling a source that neither progresses nor reports an error.
type stallReader struct {
	data []byte
}

func (s *stallReader) Read(p []byte) (int, error) {
	n := copy(p, s.data)
	s.data = s.data[n:]
	return n, nil
}

func TestZeroProgressPayloadFails(t *testing.T) {
	r, err := NewReader(&stallReader{data: []byte{1, 2, 3}})
	require.NoError(t, err)
	buf := r.ReadPayload(8)
	assert.Nil(t, buf)
	assert.ErrorIs(t, r.Err(), ErrUnexpectedLength)
}
