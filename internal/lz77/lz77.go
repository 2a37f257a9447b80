// Package lz77 implements a linear-time Lempel-Ziv factoriser built on a
// suffix array and previous/next-smaller-value tables, chunked so that each
// back-reference position fits a configurable bit width.
//
// It follows the textbook linear-previous-factor construction, built here
// with sort.Slice over suffix positions rather than a doubling algorithm:
// chunk sizes are bounded (at most 2^24-1 bytes), so a plain comparison
// sort keeps the suffix array construction simple without sacrificing
// correctness.
package lz77

import (
	"context"
	"math/bits"
	"sort"

	"github.com/tomyyy/tomy/internal/archiveerr"
	"github.com/tomyyy/tomy/internal/bitbuffer"
	"github.com/tomyyy/tomy/internal/parallel"
	"github.com/tomyyy/tomy/internal/wire"
)

// BitWidthFor derives the back-reference position width for an input of
// length n: clamp(floor(log2(n+1)), 2, 24).
func BitWidthFor(n int) int {
	v := n + 1
	if v < 1 {
		v = 1
	}
	w := bits.Len(uint(v)) - 1
	if w < 2 {
		w = 2
	}
	if w > 24 {
		w = 24
	}
	return w
}

// ChunkSize returns the chunk length 2^b-1 for a given bit width.
func ChunkSize(b int) int { return (1 << uint(b)) - 1 }

// Chunks is the serialised form of an LZ77-encoded byte sequence: the bit
// width shared by every chunk's position field, and one packed BitBuffer
// per chunk in original order.
type Chunks struct {
	BitWidth int
	Bufs     []*bitbuffer.BitBuffer
}

type factor struct {
	literal bool
	value   byte
	length  int
	pos     int
}

// buildSuffixArray returns the permutation of positions 0..len(data)
// (inclusive, so the empty suffix at len(data) is included) sorted by
// suffix lexicographic order.
func buildSuffixArray(data []byte) []int {
	n := len(data)
	sa := make([]int, n+1)
	for i := range sa {
		sa[i] = i
	}
	sort.Slice(sa, func(i, j int) bool {
		a, b := sa[i], sa[j]
		for a < n && b < n {
			if data[a] != data[b] {
				return data[a] < data[b]
			}
			a++
			b++
		}
		return a == n && b < n
	})
	return sa
}

// prevNextSmaller computes, for each rank i in sa, the nearest rank j<i
// (resp. j>i) with sa[j] < sa[i], mapping to rank 0 when no such neighbour
// exists.
func prevNextSmaller(sa []int) (psv, nsv []int) {
	n := len(sa)
	psv = make([]int, n)
	nsv = make([]int, n)
	stack := make([]int, 0, n)
	for i := 0; i < n; i++ {
		for len(stack) > 0 && sa[stack[len(stack)-1]] >= sa[i] {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			psv[i] = 0
		} else {
			psv[i] = stack[len(stack)-1]
		}
		stack = append(stack, i)
	}
	stack = stack[:0]
	for i := n - 1; i >= 0; i-- {
		for len(stack) > 0 && sa[stack[len(stack)-1]] >= sa[i] {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			nsv[i] = 0
		} else {
			nsv[i] = stack[len(stack)-1]
		}
		stack = append(stack, i)
	}
	return psv, nsv
}

// lcpAt returns the length of the common prefix of data[k:] and data[p:].
// A candidate position at or beyond k would reference data not yet seen at
// encode time, so it is treated as no match (lcp 0). The factor walk does
// produce such candidates: a rank with no smaller neighbour falls back to
// rank 0, whose suffix is the empty one at position len(data).
func lcpAt(data []byte, k, p int) int {
	if p < 0 || p >= k {
		return 0
	}
	n := len(data)
	l := 0
	for k+l < n && data[k+l] == data[p+l] {
		l++
	}
	return l
}

// factorizeChunk factorises a single chunk's bytes into literal and match
// factors per the suffix-array PSV/NSV walk.
func factorizeChunk(data []byte) []factor {
	n := len(data)
	if n == 0 {
		return nil
	}
	sa := buildSuffixArray(data)
	isa := make([]int, n+1)
	for rank, pos := range sa {
		isa[pos] = rank
	}
	psv, nsv := prevNextSmaller(sa)

	var factors []factor
	k := 0
	for k < n {
		rank := isa[k]
		p1 := sa[psv[rank]]
		p2 := sa[nsv[rank]]
		l1 := lcpAt(data, k, p1)
		l2 := lcpAt(data, k, p2)

		length, pos := l1, p1
		if l2 >= l1 {
			length, pos = l2, p2
		}

		if length == 0 {
			factors = append(factors, factor{literal: true, value: data[k]})
			k++
			continue
		}
		factors = append(factors, factor{length: length, pos: pos})
		k += length
	}
	return factors
}

// encodeFactors packs factors into a BitBuffer. Lengths of 255 or more are
// split into repeated (255, position) records advancing position by 255
// each time, then a final remainder record.
func encodeFactors(factors []factor, b int) *bitbuffer.BitBuffer {
	bb := bitbuffer.New()
	for _, f := range factors {
		if f.literal {
			bb.WriteByte(0)
			bb.WriteByte(f.value)
			continue
		}
		length, pos := f.length, f.pos
		for length >= 255 {
			bb.WriteByte(255)
			bb.WriteBits(uint32(pos), b)
			pos += 255
			length -= 255
		}
		if length > 0 {
			bb.WriteByte(byte(length))
			bb.WriteBits(uint32(pos), b)
		}
	}
	return bb
}

// decodeFactors inverts encodeFactors, consuming bb until exhausted. A
// match whose position references data not yet produced is malformed.
func decodeFactors(bb *bitbuffer.BitBuffer, b int) ([]byte, error) {
	var out []byte
	for bb.Remaining() > 0 {
		l, ok := bb.ReadByte()
		if !ok {
			return nil, archiveerr.ErrMalformedLZ77
		}
		if l == 0 {
			lit, ok := bb.ReadByte()
			if !ok {
				return nil, archiveerr.ErrMalformedLZ77
			}
			out = append(out, lit)
			continue
		}
		posv, ok := bb.ReadBits(b)
		if !ok {
			return nil, archiveerr.ErrMalformedLZ77
		}
		pos := int(posv)
		if pos < 0 || pos >= len(out) {
			return nil, archiveerr.ErrMalformedLZ77
		}
		for i := 0; i < int(l); i++ {
			out = append(out, out[pos+i])
		}
	}
	return out, nil
}

// Encode splits data into chunks of size 2^b-1 and factorises each
// independently and in parallel.
func Encode(ctx context.Context, data []byte, b int) (*Chunks, error) {
	chunkSize := ChunkSize(b)
	var raw [][]byte
	for i := 0; i < len(data); i += chunkSize {
		end := i + chunkSize
		if end > len(data) {
			end = len(data)
		}
		raw = append(raw, data[i:end])
	}
	bufs, err := parallel.Map(ctx, 0, raw, func(_ int, chunk []byte) (*bitbuffer.BitBuffer, error) {
		return encodeFactors(factorizeChunk(chunk), b), nil
	})
	if err != nil {
		return nil, err
	}
	return &Chunks{BitWidth: b, Bufs: bufs}, nil
}

// Decode inverts Encode, decoding each chunk in parallel and concatenating
// the results in chunk order.
func Decode(ctx context.Context, c *Chunks) ([]byte, error) {
	outs, err := parallel.Map(ctx, 0, c.Bufs, func(_ int, buf *bitbuffer.BitBuffer) ([]byte, error) {
		fresh := &bitbuffer.BitBuffer{Data: buf.Data, NumBits: buf.NumBits}
		return decodeFactors(fresh, c.BitWidth)
	})
	if err != nil {
		return nil, err
	}
	var out []byte
	for _, o := range outs {
		out = append(out, o...)
	}
	return out, nil
}

// SerializeChunks writes c's on-disk form: the bit width, then a
// length-prefixed vector of BitBuffers.
func (c *Chunks) SerializeChunks(w *wire.Writer) {
	w.WriteUint32(uint32(c.BitWidth))
	w.WriteUint64(uint64(len(c.Bufs)))
	for _, buf := range c.Bufs {
		buf.MarshalWire(w)
	}
}

// DeserializeChunks inverts Chunks.SerializeChunks.
func DeserializeChunks(r *wire.Reader) (*Chunks, error) {
	bw, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	count, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	bufs := make([]*bitbuffer.BitBuffer, 0, count)
	for i := uint64(0); i < count; i++ {
		buf, err := bitbuffer.UnmarshalWire(r)
		if err != nil {
			return nil, err
		}
		bufs = append(bufs, buf)
	}
	return &Chunks{BitWidth: int(bw), Bufs: bufs}, nil
}
