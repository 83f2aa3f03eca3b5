package bitmap

import "testing"

func TestFindSetsLowestClearBit(t *testing.T) {
	b := New(16)
	for want := 0; want < 16; want++ {
		got, ok := b.Find()
		if !ok {
			t.Fatalf("Find: ran out of bits at %d", want)
		}
		if got != want {
			t.Fatalf("Find: got bit %d, want %d", got, want)
		}
	}
	if _, ok := b.Find(); ok {
		t.Fatal("Find: expected no free bits left")
	}
}

func TestSetClearRoundTrip(t *testing.T) {
	b := New(8)
	b.Set(3)
	if !b.Test(3) {
		t.Fatal("Test(3): expected set")
	}
	if b.NumClear() != 7 {
		t.Fatalf("NumClear: got %d, want 7", b.NumClear())
	}
	b.Clear(3)
	if b.Test(3) {
		t.Fatal("Test(3): expected clear after Clear")
	}
	if b.NumClear() != 8 {
		t.Fatalf("NumClear: got %d, want 8", b.NumClear())
	}
}

func TestDoubleClearPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Clear: expected panic on double-clear")
		}
	}()
	b := New(8)
	b.Clear(0)
}

func TestBytesFromBytesRoundTrip(t *testing.T) {
	b := New(32)
	b.Set(0)
	b.Set(17)
	b.Set(31)

	other := New(32)
	other.FromBytes(b.Bytes())
	for _, i := range []int{0, 17, 31} {
		if !other.Test(i) {
			t.Fatalf("FromBytes: bit %d lost in round trip", i)
		}
	}
	if other.NumClear() != 29 {
		t.Fatalf("NumClear after round trip: got %d, want 29", other.NumClear())
	}
}

type fakeDisk struct {
	sectors map[int][]byte
}

func newFakeDisk() *fakeDisk { return &fakeDisk{sectors: make(map[int][]byte)} }

func (f *fakeDisk) ReadSector(i int, buf []byte) error {
	data, ok := f.sectors[i]
	if !ok {
		data = make([]byte, len(buf))
	}
	copy(buf, data)
	return nil
}

func (f *fakeDisk) WriteSector(i int, buf []byte) error {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	f.sectors[i] = cp
	return nil
}

func TestWriteBackFetchFromRoundTrip(t *testing.T) {
	d := newFakeDisk()
	b := New(64)
	b.Set(2)
	b.Set(5)
	if err := b.WriteBack(d, 0, 128); err != nil {
		t.Fatalf("WriteBack: %v", err)
	}

	back := New(64)
	if err := back.FetchFrom(d, 0, 128); err != nil {
		t.Fatalf("FetchFrom: %v", err)
	}
	if !back.Test(2) || !back.Test(5) {
		t.Fatal("FetchFrom: lost set bits across disk round trip")
	}
	if back.NumClear() != 62 {
		t.Fatalf("NumClear: got %d, want 62", back.NumClear())
	}
}
