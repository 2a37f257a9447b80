package bitbuffer

import (
	"testing"

	"github.com/tomyyy/tomy/internal/wire"
)

func TestWriteReadBitFidelity(t *testing.T) {
	bits := []bool{true, false, false, true, true, true, false, false, true, false, true}

	bb := New()
	for _, bit := range bits {
		bb.WriteBit(bit)
	}
	if bb.Len() != len(bits) {
		t.Fatalf("Len() = %d, want %d", bb.Len(), len(bits))
	}

	for i, want := range bits {
		got, ok := bb.ReadBit()
		if !ok {
			t.Fatalf("ReadBit() #%d: ok = false", i)
		}
		if got != want {
			t.Fatalf("ReadBit() #%d = %v, want %v", i, got, want)
		}
	}
	if _, ok := bb.ReadBit(); ok {
		t.Fatal("ReadBit() past end returned ok = true")
	}
}

func TestWriteByteReadByte(t *testing.T) {
	bb := New()
	want := []byte{0x00, 0xFF, 0xAB, 0x10, 0x7F}
	for _, b := range want {
		bb.WriteByte(b)
	}
	for i, w := range want {
		got, ok := bb.ReadByte()
		if !ok || got != w {
			t.Fatalf("ReadByte() #%d = (%v, %v), want (%v, true)", i, got, ok, w)
		}
	}
}

func TestWriteBitsReadBits(t *testing.T) {
	bb := New()
	bb.WriteBits(0b10110, 5)
	bb.WriteBits(0xDEADBEEF, 32)
	bb.WriteBits(0, 0)
	bb.WriteBits(1, 1)

	v, ok := bb.ReadBits(5)
	if !ok || v != 0b10110 {
		t.Fatalf("first ReadBits = (%v, %v), want (0b10110, true)", v, ok)
	}
	v, ok = bb.ReadBits(32)
	if !ok || v != 0xDEADBEEF {
		t.Fatalf("second ReadBits = (%#x, %v), want (0xDEADBEEF, true)", v, ok)
	}
	v, ok = bb.ReadBits(0)
	if !ok || v != 0 {
		t.Fatalf("zero-width ReadBits = (%v, %v), want (0, true)", v, ok)
	}
	v, ok = bb.ReadBits(1)
	if !ok || v != 1 {
		t.Fatalf("last ReadBits = (%v, %v), want (1, true)", v, ok)
	}
}

func TestReadPastEndReturnsNotOK(t *testing.T) {
	bb := New()
	bb.WriteBits(0b101, 3)
	if _, ok := bb.ReadByte(); ok {
		t.Fatal("ReadByte() with only 3 bits available returned ok = true")
	}
	if _, ok := bb.ReadBits(4); ok {
		t.Fatal("ReadBits(4) with only 3 bits available returned ok = true")
	}
}

func TestMarshalUnmarshalWireRoundTrip(t *testing.T) {
	bb := New()
	bb.WriteByte(0x7A)
	bb.WriteBits(0b101, 3)
	bb.ReadByte() // advance the cursor so ReadPos is non-zero in the wire form

	w := wire.NewWriter()
	bb.MarshalWire(w)

	r := wire.NewReader(w.Bytes())
	got, err := UnmarshalWire(r)
	if err != nil {
		t.Fatalf("UnmarshalWire: %v", err)
	}
	if string(got.Data) != string(bb.Data) || got.ReadPos != bb.ReadPos || got.NumBits != bb.NumBits {
		t.Fatalf("UnmarshalWire = %+v, want %+v", got, bb)
	}
}

func TestMarshalUnmarshalWireTruncated(t *testing.T) {
	bb := New()
	bb.WriteByte(0x11)
	w := wire.NewWriter()
	bb.MarshalWire(w)

	truncated := w.Bytes()[:len(w.Bytes())-1]
	if _, err := UnmarshalWire(wire.NewReader(truncated)); err == nil {
		t.Fatal("UnmarshalWire on truncated input returned nil error")
	}
}
