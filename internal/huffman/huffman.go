// Package huffman builds canonical Huffman trees from byte-frequency
// tables, packs/unpacks byte sequences against a tree into a BitBuffer, and
// serialises the tree itself in a compact bit-level form.
//
// Trees are always built over the full 256-value byte alphabet rather than
// just the bytes observed in a sample, so a tree built from one payload's
// distribution still has a codeword for any byte a different payload might
// need to encode against it. Two payload shapes are supported: embedded
// (the tree travels with its payload) and shared (the tree lives once
// elsewhere and many payloads reference it, amortising the tree's cost
// across small files).
package huffman

import (
	"container/heap"

	"github.com/tomyyy/tomy/internal/archiveerr"
	"github.com/tomyyy/tomy/internal/bitbuffer"
	"github.com/tomyyy/tomy/internal/wire"
)

// Tree is a binary Huffman tree. A leaf carries one byte value; an
// internal node carries none and always has exactly two children.
type Tree struct {
	Leaf  bool
	Value byte
	Left  *Tree
	Right *Tree
}

// node is the priority-queue element used while building a Tree.
type node struct {
	freq    uint64
	minChar byte // smallest byte value in this subtree, for deterministic tie-breaking
	tree    *Tree
}

type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}
	return h[i].minChar < h[j].minChar
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)   { *h = append(*h, x.(*node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// BuildTree builds a canonical Huffman tree over all 256 byte values from a
// per-byte frequency count. Bytes with zero frequency still get a leaf, so
// a shared tree built from one file's sample still has a codeword for every
// byte another file might need to encode against it.
func BuildTree(freq [256]uint64) *Tree {
	h := make(nodeHeap, 0, 256)
	for b := 0; b < 256; b++ {
		h = append(h, &node{freq: freq[b], minChar: byte(b), tree: &Tree{Leaf: true, Value: byte(b)}})
	}
	heap.Init(&h)
	for h.Len() > 1 {
		left := heap.Pop(&h).(*node)
		right := heap.Pop(&h).(*node)
		minChar := left.minChar
		if right.minChar < minChar {
			minChar = right.minChar
		}
		heap.Push(&h, &node{
			freq:    left.freq + right.freq,
			minChar: minChar,
			tree:    &Tree{Left: left.tree, Right: right.tree},
		})
	}
	return h[0].tree
}

// codebook maps a byte value to its codeword, root-to-leaf, as a bit path.
// A path, not a fixed-width int, because a pathological 256-byte frequency
// distribution can build a tree deeper than 64 bits.
type codebook [256][]bool

func buildCodebook(t *Tree) *codebook {
	var cb codebook
	var walk func(n *Tree, path []bool)
	walk = func(n *Tree, path []bool) {
		if n.Leaf {
			cb[n.Value] = append([]bool(nil), path...)
			return
		}
		left := append(append([]bool(nil), path...), false)
		right := append(append([]bool(nil), path...), true)
		walk(n.Left, left)
		walk(n.Right, right)
	}
	walk(t, nil)
	return &cb
}

func encodeBits(data []byte, cb *codebook) *bitbuffer.BitBuffer {
	bb := bitbuffer.New()
	for _, b := range data {
		for _, bit := range cb[b] {
			bb.WriteBit(bit)
		}
	}
	return bb
}

// decodePacked decodes bitsToRead bits of data against tree. bitsToRead is
// computed by callers as an int64 specifically so a zero-length payload
// with zero unused bits decodes to nothing instead of underflowing an
// unsigned subtraction. A bit count below zero or beyond what data holds
// is malformed.
func decodePacked(data []byte, bitsToRead int64, tree *Tree) ([]byte, error) {
	if bitsToRead < 0 || bitsToRead > int64(len(data))*8 {
		return nil, archiveerr.ErrMalformedHuffman
	}
	bb := &bitbuffer.BitBuffer{Data: data, NumBits: uint64(bitsToRead)}
	var out []byte
	cur := tree
	for bb.Remaining() > 0 {
		bit, ok := bb.ReadBit()
		if !ok {
			return nil, archiveerr.ErrMalformedHuffman
		}
		if bit {
			cur = cur.Right
		} else {
			cur = cur.Left
		}
		if cur == nil {
			return nil, archiveerr.ErrMalformedHuffman
		}
		if cur.Leaf {
			out = append(out, cur.Value)
			cur = tree
		}
	}
	if cur != tree {
		return nil, archiveerr.ErrMalformedHuffman
	}
	return out, nil
}

// Embedded is a Huffman payload that ships its own tree.
type Embedded struct {
	TreeBits   *bitbuffer.BitBuffer
	UnusedBits uint8
	Data       []byte
}

// EncodeEmbedded Huffman-codes data, building a fresh tree from data's own
// byte distribution and serialising it alongside the payload.
func EncodeEmbedded(data []byte) *Embedded {
	var freq [256]uint64
	for _, b := range data {
		freq[b]++
	}
	tree := BuildTree(freq)
	treeBits := bitbuffer.New()
	tree.Serialize(treeBits)
	payload := encodeBits(data, buildCodebook(tree))
	unused := (8 - payload.NumBits%8) % 8
	return &Embedded{TreeBits: treeBits, UnusedBits: uint8(unused), Data: payload.Data}
}

// DecodeEmbedded inverts EncodeEmbedded.
func DecodeEmbedded(e *Embedded) ([]byte, error) {
	treeBits := &bitbuffer.BitBuffer{Data: e.TreeBits.Data, NumBits: e.TreeBits.NumBits}
	tree, err := Deserialize(treeBits)
	if err != nil {
		return nil, err
	}
	bitsToRead := int64(len(e.Data))*8 - int64(e.UnusedBits)
	return decodePacked(e.Data, bitsToRead, tree)
}

// Shared is a Huffman payload that relies on a tree stored elsewhere (the
// archive root).
type Shared struct {
	UnusedBits uint8
	Data       []byte
}

// EncodeShared Huffman-codes data against an externally supplied tree.
func EncodeShared(tree *Tree, data []byte) *Shared {
	payload := encodeBits(data, buildCodebook(tree))
	unused := (8 - payload.NumBits%8) % 8
	return &Shared{UnusedBits: uint8(unused), Data: payload.Data}
}

// DecodeShared inverts EncodeShared against the same tree.
func DecodeShared(tree *Tree, s *Shared) ([]byte, error) {
	bitsToRead := int64(len(s.Data))*8 - int64(s.UnusedBits)
	return decodePacked(s.Data, bitsToRead, tree)
}

// Serialize writes the tree's compact on-disk form: a leaf is bit `1`
// followed by eight bits of its value; an internal node is bit `0`
// followed by its left then right subtree.
func (t *Tree) Serialize(bb *bitbuffer.BitBuffer) {
	if t.Leaf {
		bb.WriteBit(true)
		bb.WriteByte(t.Value)
		return
	}
	bb.WriteBit(false)
	t.Left.Serialize(bb)
	t.Right.Serialize(bb)
}

// Deserialize inverts Serialize, failing with ErrMalformedHuffman on
// truncation (which also covers an internal node missing a child).
func Deserialize(bb *bitbuffer.BitBuffer) (*Tree, error) {
	bit, ok := bb.ReadBit()
	if !ok {
		return nil, archiveerr.ErrMalformedHuffman
	}
	if bit {
		v, ok := bb.ReadByte()
		if !ok {
			return nil, archiveerr.ErrMalformedHuffman
		}
		return &Tree{Leaf: true, Value: v}, nil
	}
	left, err := Deserialize(bb)
	if err != nil {
		return nil, err
	}
	right, err := Deserialize(bb)
	if err != nil {
		return nil, err
	}
	return &Tree{Left: left, Right: right}, nil
}

// MarshalWire writes e's on-disk form: serialised tree, unused-bit count,
// then the packed payload bytes.
func (e *Embedded) MarshalWire(w *wire.Writer) {
	e.TreeBits.MarshalWire(w)
	w.WriteByte(e.UnusedBits)
	w.WriteBytesVec(e.Data)
}

// UnmarshalEmbeddedWire inverts Embedded.MarshalWire.
func UnmarshalEmbeddedWire(r *wire.Reader) (*Embedded, error) {
	tb, err := bitbuffer.UnmarshalWire(r)
	if err != nil {
		return nil, err
	}
	ub, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	data, err := r.ReadBytesVec()
	if err != nil {
		return nil, err
	}
	return &Embedded{TreeBits: tb, UnusedBits: ub, Data: data}, nil
}

// MarshalWire writes s's on-disk form: unused-bit count then packed bytes.
func (s *Shared) MarshalWire(w *wire.Writer) {
	w.WriteByte(s.UnusedBits)
	w.WriteBytesVec(s.Data)
}

// UnmarshalSharedWire inverts Shared.MarshalWire.
func UnmarshalSharedWire(r *wire.Reader) (*Shared, error) {
	ub, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	data, err := r.ReadBytesVec()
	if err != nil {
		return nil, err
	}
	return &Shared{UnusedBits: ub, Data: data}, nil
}

// MarshalTreeWire writes the archive root's optional shared tree: a
// presence byte, then, if present, the serialised tree in its own
// BitBuffer wire form. A nil tree marks the "no file used FixedHuffman"
// placeholder - the tree is elided entirely rather than shipped dead.
func MarshalTreeWire(w *wire.Writer, t *Tree) {
	if t == nil {
		w.WriteByte(0)
		return
	}
	w.WriteByte(1)
	bb := bitbuffer.New()
	t.Serialize(bb)
	bb.MarshalWire(w)
}

// UnmarshalTreeWire inverts MarshalTreeWire.
func UnmarshalTreeWire(r *wire.Reader) (*Tree, error) {
	present, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if present == 0 {
		return nil, nil
	}
	bb, err := bitbuffer.UnmarshalWire(r)
	if err != nil {
		return nil, err
	}
	bb.ReadPos = 0
	return Deserialize(bb)
}
