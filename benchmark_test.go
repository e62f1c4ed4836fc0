package nbor

import (
	"testing"
)

var benchAccount = account{
	ID:      42,
	Name:    "alice",
	Balance: 100,
	Tags:    []string{"a", "b", "c"},
	Parent:  &account{ID: 1, Name: "root"},
}

func BenchmarkMarshalStruct(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Marshal(benchAccount); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUnmarshalStruct(b *testing.B) {
	data, err := Marshal(benchAccount)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var out account
		if err := Unmarshal(data, &out); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMarshalByteSlice(b *testing.B) {
	payload := make([]byte, 4096)
	b.SetBytes(int64(len(payload)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Marshal(payload); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncodeSliceGeneric(b *testing.B) {
	items := make([]uint32, 1024)
	for i := range items {
		items[i] = uint32(i)
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		w, _ := NewWriter(discard{})
		EncodeSlice(w, items, encUint32)
		if w.Err() != nil {
			b.Fatal(w.Err())
		}
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
