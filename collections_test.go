package nbor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func encUint8(w *Writer, v uint8) { w.WriteUint8(v) }
func decUint8(r *Reader, d *uint8) { r.ReadUint8(d) }

type CollectionsTestSuite struct {
	suite.Suite
}

func (s *CollectionsTestSuite) encodeMap(m map[uint8]uint8) []byte {
	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	EncodeMap(w, m, encUint8, encUint8)
	s.Require().NoError(w.Err())
	return buf.Bytes()
}

func (s *CollectionsTestSuite) TestMapEncodesInAscendingKeyOrder() {
	got := s.encodeMap(map[uint8]uint8{3: 30, 1: 10, 2: 20})
	s.Assert().Equal([]byte{
		3, 0, 0, 0,
		1, 10,
		2, 20,
		3, 30,
	}, got)
}

func (s *CollectionsTestSuite) TestMapBytesAreInsertionOrderIndependent() {
	a := map[uint8]uint8{}
	b := map[uint8]uint8{}
	for k := uint8(0); k < 50; k++ {
		a[k] = k * 2
	}
	for k := uint8(50); k > 0; k-- {
		b[k-1] = (k - 1) * 2
	}
	s.Assert().Equal(s.encodeMap(a), s.encodeMap(b))
}

func (s *CollectionsTestSuite) TestMapRoundtrip() {
	m := map[uint8]uint8{7: 70, 1: 10, 200: 5}
	r, _ := NewReader(bytes.NewReader(s.encodeMap(m)))
	got := DecodeMap(r, decUint8, decUint8)
	s.Require().NoError(r.Err())
	s.Assert().Equal(m, got)
}

func (s *CollectionsTestSuite) TestStrictRejectsDescendingKeys() {
	// Keys 5 then 3 on the wire.
	data := []byte{2, 0, 0, 0, 5, 99, 3, 100}

	r, _ := NewReader(bytes.NewReader(data))
	r.strict = true
	got := DecodeMap(r, decUint8, decUint8)
	s.Assert().Nil(got)
	s.Assert().ErrorIs(r.Err(), ErrUnsortedKeys)

	// Relaxed mode accepts the same payload.
	r, _ = NewReader(bytes.NewReader(data))
	got = DecodeMap(r, decUint8, decUint8)
	s.Require().NoError(r.Err())
	s.Assert().Equal(map[uint8]uint8{5: 99, 3: 100}, got)
}

func (s *CollectionsTestSuite) TestStrictRejectsDuplicateKeys() {
	data := []byte{2, 0, 0, 0, 7, 1, 7, 2}

	r, _ := NewReader(bytes.NewReader(data))
	r.strict = true
	DecodeMap(r, decUint8, decUint8)
	s.Assert().ErrorIs(r.Err(), ErrUnsortedKeys)
}

func (s *CollectionsTestSuite) TestRelaxedDuplicateLastWins() {
	data := []byte{2, 0, 0, 0, 7, 1, 7, 2}
	r, _ := NewReader(bytes.NewReader(data))
	got := DecodeMap(r, decUint8, decUint8)
	s.Require().NoError(r.Err())
	s.Assert().Equal(map[uint8]uint8{7: 2}, got)
}

func (s *CollectionsTestSuite) TestSetOrderAndRoundtrip() {
	set := map[string]struct{}{"b": {}, "a": {}, "c": {}}
	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	EncodeSet(w, set, func(w *Writer, v string) { w.WriteString(v) })
	s.Require().NoError(w.Err())
	s.Assert().Equal([]byte{
		3, 0, 0, 0,
		1, 0, 0, 0, 'a',
		1, 0, 0, 0, 'b',
		1, 0, 0, 0, 'c',
	}, buf.Bytes())

	r, _ := NewReader(bytes.NewReader(buf.Bytes()))
	r.strict = true
	got := DecodeSet(r, func(r *Reader, d *string) { r.ReadString(d) })
	s.Require().NoError(r.Err())
	s.Assert().Equal(set, got)
}

func (s *CollectionsTestSuite) TestSetStrictOrder() {
	data := []byte{2, 0, 0, 0, 5, 3}
	r, _ := NewReader(bytes.NewReader(data))
	r.strict = true
	s.Assert().Nil(DecodeSet(r, decUint8))
	s.Assert().ErrorIs(r.Err(), ErrUnsortedKeys)
}

func (s *CollectionsTestSuite) TestEncodeSortedMatchesMapFormat() {
	type entry struct {
		K uint8
		V uint8
	}
	var buf bytes.Buffer
	w, _ := NewWriter(&buf)
	EncodeSorted(w, []entry{{1, 10}, {2, 20}}, func(w *Writer, e entry) {
		w.WriteUint8(e.K)
		w.WriteUint8(e.V)
	})
	s.Require().NoError(w.Err())
	s.Assert().Equal(s.encodeMap(map[uint8]uint8{1: 10, 2: 20}), buf.Bytes())
}

func TestCollections(t *testing.T) {
	suite.Run(t, new(CollectionsTestSuite))
}

func TestDecodeMapHostileCountIsBounded(t *testing.T) {
	// A maximal declared count with no entries behind it must fail on
	// exhaustion, not allocate for the declared size.
	data := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	r, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	got := DecodeMap(r, decUint8, decUint8)
	assert.Nil(t, got)
	assert.ErrorIs(t, r.Err(), ErrUnexpectedLength)
}
