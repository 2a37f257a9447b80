// Package filedata implements the per-file compression strategy selector:
// it tries several encodings of a file's bytes — Binary, Huffman, LZ77,
// LZ77Huffman, and (when eligible) FixedHuffman — and keeps whichever
// serialises smallest. Decoding dispatches on the stored variant tag and
// inverts the matching encoder.
package filedata

import (
	"context"

	"github.com/tomyyy/tomy/internal/archiveerr"
	"github.com/tomyyy/tomy/internal/huffman"
	"github.com/tomyyy/tomy/internal/lz77"
	"github.com/tomyyy/tomy/internal/wire"
)

// SmallFileThreshold is the file size, in bytes, at and above which a file
// is not eligible for FixedHuffman (shared-tree) encoding.
const SmallFileThreshold = 5000

// Kind identifies which encoding a FileData value holds. The numeric
// values are the wire tag and must not be reordered.
type Kind uint32

const (
	KindBinary Kind = iota
	KindHuffman
	KindLZ77
	KindLZ77Huffman
	KindFixedHuffman
)

// FileData is the tagged union of a file's chosen encoding.
type FileData struct {
	Kind     Kind
	Binary   []byte
	Huffman  *huffman.Embedded
	LZ77     *lz77.Chunks
	LZ77Huff *huffman.Embedded
	Fixed    *huffman.Shared
}

// candidate is an encoded contender paired with its serialised size.
type candidate struct {
	fd   FileData
	size int
}

// Encode tries every eligible encoding of data and returns the smallest.
// sharedTree is the archive-wide tree (may be nil, e.g. while discovering
// it, or when the file is ineligible); passing it enables the
// FixedHuffman candidate whenever len(data) < SmallFileThreshold.
func Encode(ctx context.Context, data []byte, sharedTree *huffman.Tree) (FileData, error) {
	b := lz77.BitWidthFor(len(data))

	var candidates []candidate

	lz77Chunks, err := lz77.Encode(ctx, data, b)
	if err != nil {
		return FileData{}, err
	}
	lz77Fd := FileData{Kind: KindLZ77, LZ77: lz77Chunks}
	candidates = append(candidates, candidate{lz77Fd, size(lz77Fd)})

	lz77Bytes := serializeLZ77(lz77Chunks)
	lz77HuffFd := FileData{Kind: KindLZ77Huffman, LZ77Huff: huffman.EncodeEmbedded(lz77Bytes)}
	candidates = append(candidates, candidate{lz77HuffFd, size(lz77HuffFd)})

	huffFd := FileData{Kind: KindHuffman, Huffman: huffman.EncodeEmbedded(data)}
	candidates = append(candidates, candidate{huffFd, size(huffFd)})

	if sharedTree != nil && len(data) < SmallFileThreshold {
		fixedFd := FileData{Kind: KindFixedHuffman, Fixed: huffman.EncodeShared(sharedTree, data)}
		candidates = append(candidates, candidate{fixedFd, size(fixedFd)})
	}

	binaryFd := FileData{Kind: KindBinary, Binary: data}
	candidates = append(candidates, candidate{binaryFd, size(binaryFd)})

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.size < best.size {
			best = c
		}
	}
	return best.fd, nil
}

// Decode inverts Encode, dispatching on fd.Kind. sharedTree must be the
// same tree the archive used to encode FixedHuffman files, or nil if the
// file is not FixedHuffman.
func Decode(ctx context.Context, fd FileData, sharedTree *huffman.Tree) ([]byte, error) {
	switch fd.Kind {
	case KindBinary:
		return fd.Binary, nil
	case KindHuffman:
		return huffman.DecodeEmbedded(fd.Huffman)
	case KindLZ77:
		return lz77.Decode(ctx, fd.LZ77)
	case KindLZ77Huffman:
		lz77Bytes, err := huffman.DecodeEmbedded(fd.LZ77Huff)
		if err != nil {
			return nil, err
		}
		chunks, err := deserializeLZ77(lz77Bytes)
		if err != nil {
			return nil, err
		}
		return lz77.Decode(ctx, chunks)
	case KindFixedHuffman:
		if sharedTree == nil {
			return nil, archiveerr.ErrMalformedArchive
		}
		return huffman.DecodeShared(sharedTree, fd.Fixed)
	default:
		return nil, archiveerr.ErrMalformedArchive
	}
}

func serializeLZ77(c *lz77.Chunks) []byte {
	w := wire.NewWriter()
	c.SerializeChunks(w)
	return w.Bytes()
}

func deserializeLZ77(data []byte) (*lz77.Chunks, error) {
	return lz77.DeserializeChunks(wire.NewReader(data))
}

// size reports how many bytes fd's wire form would occupy, for selector
// comparison, without needing a throwaway Writer per caller.
func size(fd FileData) int {
	w := wire.NewWriter()
	fd.MarshalWire(w)
	return len(w.Bytes())
}

// MarshalWire writes fd's on-disk form: a variant tag followed by the
// chosen candidate's fields.
func (fd FileData) MarshalWire(w *wire.Writer) {
	w.WriteUint32(uint32(fd.Kind))
	switch fd.Kind {
	case KindBinary:
		w.WriteBytesVec(fd.Binary)
	case KindHuffman:
		fd.Huffman.MarshalWire(w)
	case KindLZ77:
		fd.LZ77.SerializeChunks(w)
	case KindLZ77Huffman:
		fd.LZ77Huff.MarshalWire(w)
	case KindFixedHuffman:
		fd.Fixed.MarshalWire(w)
	}
}

// UnmarshalWire inverts FileData.MarshalWire.
func UnmarshalWire(r *wire.Reader) (FileData, error) {
	tag, err := r.ReadUint32()
	if err != nil {
		return FileData{}, err
	}
	switch Kind(tag) {
	case KindBinary:
		data, err := r.ReadBytesVec()
		if err != nil {
			return FileData{}, err
		}
		return FileData{Kind: KindBinary, Binary: data}, nil
	case KindHuffman:
		e, err := huffman.UnmarshalEmbeddedWire(r)
		if err != nil {
			return FileData{}, err
		}
		return FileData{Kind: KindHuffman, Huffman: e}, nil
	case KindLZ77:
		c, err := lz77.DeserializeChunks(r)
		if err != nil {
			return FileData{}, err
		}
		return FileData{Kind: KindLZ77, LZ77: c}, nil
	case KindLZ77Huffman:
		e, err := huffman.UnmarshalEmbeddedWire(r)
		if err != nil {
			return FileData{}, err
		}
		return FileData{Kind: KindLZ77Huffman, LZ77Huff: e}, nil
	case KindFixedHuffman:
		s, err := huffman.UnmarshalSharedWire(r)
		if err != nil {
			return FileData{}, err
		}
		return FileData{Kind: KindFixedHuffman, Fixed: s}, nil
	default:
		return FileData{}, archiveerr.ErrMalformedArchive
	}
}
