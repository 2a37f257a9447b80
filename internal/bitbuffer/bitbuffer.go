// Package bitbuffer implements an append-only bit writer and sequential bit
// reader over a byte vector, LSB-first within each byte. It backs both the
// Huffman tree/payload bitstreams (internal/huffman) and the LZ77 factor
// stream (internal/lz77) — there's no framing here beyond what those
// formats need, so a hand-rolled bit vector is simpler than pulling in a
// general-purpose bit-IO library.
package bitbuffer

import (
	"github.com/tomyyy/tomy/internal/archiveerr"
	"github.com/tomyyy/tomy/internal/wire"
)

// BitBuffer is a growable bit vector with an independent read cursor. The
// zero value is an empty, writable buffer.
type BitBuffer struct {
	Data    []byte
	ReadPos uint64
	NumBits uint64
}

// New returns an empty BitBuffer ready for writing.
func New() *BitBuffer { return &BitBuffer{} }

// WriteBit appends a single bit.
func (b *BitBuffer) WriteBit(bit bool) {
	if b.NumBits%8 == 0 {
		b.Data = append(b.Data, 0)
	}
	if bit {
		b.Data[b.NumBits/8] |= 1 << (b.NumBits % 8)
	}
	b.NumBits++
}

// WriteByte appends the eight bits of x, LSB first.
func (b *BitBuffer) WriteByte(x byte) {
	for i := 0; i < 8; i++ {
		b.WriteBit(x&(1<<uint(i)) != 0)
	}
}

// WriteBits appends the low k bits of v, LSB first. k must be in [0, 32].
func (b *BitBuffer) WriteBits(v uint32, k int) {
	for i := 0; i < k; i++ {
		b.WriteBit(v&(1<<uint(i)) != 0)
	}
}

// ReadBit reads the bit at the cursor and advances it. ok is false if the
// cursor has reached NumBits.
func (b *BitBuffer) ReadBit() (bit bool, ok bool) {
	if b.ReadPos >= b.NumBits {
		return false, false
	}
	bit = b.Data[b.ReadPos/8]&(1<<(b.ReadPos%8)) != 0
	b.ReadPos++
	return bit, true
}

// ReadByte reads eight bits, LSB first, if available.
func (b *BitBuffer) ReadByte() (byte, bool) {
	if b.ReadPos+8 > b.NumBits {
		return 0, false
	}
	var x byte
	for i := 0; i < 8; i++ {
		bit, _ := b.ReadBit()
		if bit {
			x |= 1 << uint(i)
		}
	}
	return x, true
}

// ReadBits reads k bits, LSB first, as an integer, if available.
func (b *BitBuffer) ReadBits(k int) (uint32, bool) {
	if b.ReadPos+uint64(k) > b.NumBits {
		return 0, false
	}
	var v uint32
	for i := 0; i < k; i++ {
		bit, _ := b.ReadBit()
		if bit {
			v |= 1 << uint(i)
		}
	}
	return v, true
}

// Len reports the total number of written bits.
func (b *BitBuffer) Len() int { return int(b.NumBits) }

// Remaining reports how many bits are left to read.
func (b *BitBuffer) Remaining() int { return int(b.NumBits - b.ReadPos) }

// MarshalWire writes the BitBuffer's on-disk form: a byte-vector, the read
// cursor, and the bit count, all little-endian per internal/wire.
func (b *BitBuffer) MarshalWire(w *wire.Writer) {
	w.WriteBytesVec(b.Data)
	w.WriteUint64(b.ReadPos)
	w.WriteUint64(b.NumBits)
}

// UnmarshalWire reads a BitBuffer back from its on-disk form. A bit count
// larger than the byte vector can hold is ErrMalformedArchive.
func UnmarshalWire(r *wire.Reader) (*BitBuffer, error) {
	data, err := r.ReadBytesVec()
	if err != nil {
		return nil, err
	}
	readPos, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	numBits, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	if numBits > uint64(len(data))*8 {
		return nil, archiveerr.ErrMalformedArchive
	}
	return &BitBuffer{Data: data, ReadPos: readPos, NumBits: numBits}, nil
}
