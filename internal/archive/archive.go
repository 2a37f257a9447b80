// Package archive implements the recursive archive container: a tagged
// sum of File, Directory, and Root nodes, where Root additionally carries
// the optional archive-wide shared Huffman tree.
//
// Building an archive accumulates byte frequencies across eligible files,
// builds the shared tree once, then encodes every entry against it in
// parallel across siblings; the tree is elided from the final archive if
// no file ended up using it.
package archive

import (
	"context"
	"strings"

	"github.com/tomyyy/tomy/internal/archiveerr"
	"github.com/tomyyy/tomy/internal/filedata"
	"github.com/tomyyy/tomy/internal/huffman"
	"github.com/tomyyy/tomy/internal/parallel"
	"github.com/tomyyy/tomy/internal/wire"
)

// Kind identifies an Archive node's variant. Numeric values are the wire
// tag and must not be reordered.
type Kind uint32

const (
	KindFile Kind = iota
	KindDirectory
	KindRoot
)

// Archive is one node of the encoded directory tree.
type Archive struct {
	Kind     Kind
	Name     string
	Data     filedata.FileData // valid when Kind == KindFile
	Children []*Archive        // valid when Kind == KindDirectory or KindRoot
	Tree     *huffman.Tree     // valid when Kind == KindRoot; nil if unused
}

// DirEntry is the abstract input tree the external driver supplies to
// Build: a file's bytes, or a directory's children, never both.
type DirEntry struct {
	Name     string
	IsDir    bool
	Data     []byte
	Children []*DirEntry
}

// DecodedEntry is the abstract output tree Decode produces; the driver is
// responsible for materialising it on disk.
type DecodedEntry struct {
	Name     string
	IsDir    bool
	Data     []byte
	Children []*DecodedEntry
}

func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") {
		return archiveerr.ErrMalformedArchive
	}
	return nil
}

func validateDistinctNames(children []*DirEntry) error {
	seen := make(map[string]struct{}, len(children))
	for _, c := range children {
		if _, dup := seen[c.Name]; dup {
			return archiveerr.ErrMalformedArchive
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// accumulateFreq walks the whole subtree, adding byte counts from every
// eligible file (plain files under the small-file threshold) into freq.
func accumulateFreq(e *DirEntry, freq *[256]uint64) {
	if !e.IsDir {
		if len(e.Data) < filedata.SmallFileThreshold {
			for _, b := range e.Data {
				freq[b]++
			}
		}
		return
	}
	for _, c := range e.Children {
		accumulateFreq(c, freq)
	}
}

// usedFixedHuffman reports whether any File node in the tree chose
// FixedHuffman, so the caller can decide whether to keep the shared tree
// or elide it as dead metadata.
func usedFixedHuffman(a *Archive) bool {
	if a.Kind == KindFile {
		return a.Data.Kind == filedata.KindFixedHuffman
	}
	for _, c := range a.Children {
		if usedFixedHuffman(c) {
			return true
		}
	}
	return false
}

func encodeEntry(ctx context.Context, e *DirEntry, tree *huffman.Tree) (*Archive, error) {
	if err := validateName(e.Name); err != nil {
		return nil, err
	}
	if !e.IsDir {
		fd, err := filedata.Encode(ctx, e.Data, tree)
		if err != nil {
			return nil, err
		}
		return &Archive{Kind: KindFile, Name: e.Name, Data: fd}, nil
	}
	if err := validateDistinctNames(e.Children); err != nil {
		return nil, err
	}
	children, err := parallel.Map(ctx, 0, e.Children, func(_ int, c *DirEntry) (*Archive, error) {
		return encodeEntry(ctx, c, tree)
	})
	if err != nil {
		return nil, err
	}
	return &Archive{Kind: KindDirectory, Name: e.Name, Children: children}, nil
}

// Build encodes a directory tree into an Archive: it accumulates
// archive-wide byte frequencies over eligible files, builds the shared
// tree once, then encodes every entry (in parallel across siblings)
// against it, eliding the tree afterward if nothing ended up using it.
func Build(ctx context.Context, root *DirEntry) (*Archive, error) {
	var freq [256]uint64
	accumulateFreq(root, &freq)
	tree := huffman.BuildTree(freq)

	a, err := encodeEntry(ctx, root, tree)
	if err != nil {
		return nil, err
	}
	a.Kind = KindRoot
	if usedFixedHuffman(a) {
		a.Tree = tree
	}
	return a, nil
}

func decodeEntry(ctx context.Context, a *Archive, tree *huffman.Tree) (*DecodedEntry, error) {
	switch a.Kind {
	case KindFile:
		data, err := filedata.Decode(ctx, a.Data, tree)
		if err != nil {
			return nil, err
		}
		return &DecodedEntry{Name: a.Name, Data: data}, nil
	case KindDirectory, KindRoot:
		children, err := parallel.Map(ctx, 0, a.Children, func(_ int, c *Archive) (*DecodedEntry, error) {
			return decodeEntry(ctx, c, tree)
		})
		if err != nil {
			return nil, err
		}
		return &DecodedEntry{Name: a.Name, IsDir: true, Children: children}, nil
	default:
		return nil, archiveerr.ErrMalformedArchive
	}
}

// Decode inverts Build, producing the abstract directory tree the driver
// materialises on disk. Name collisions against an existing filesystem
// are the driver's concern, not this package's.
func Decode(ctx context.Context, a *Archive) (*DecodedEntry, error) {
	return decodeEntry(ctx, a, a.Tree)
}

// Marshal serialises a to its on-disk byte form.
func (a *Archive) Marshal() []byte {
	w := wire.NewWriter()
	a.marshalWire(w)
	return w.Bytes()
}

// Unmarshal inverts Archive.Marshal.
func Unmarshal(data []byte) (*Archive, error) {
	return unmarshalWire(wire.NewReader(data))
}

func (a *Archive) marshalWire(w *wire.Writer) {
	w.WriteUint32(uint32(a.Kind))
	w.WriteString(a.Name)
	switch a.Kind {
	case KindFile:
		a.Data.MarshalWire(w)
	case KindDirectory:
		w.WriteUint64(uint64(len(a.Children)))
		for _, c := range a.Children {
			c.marshalWire(w)
		}
	case KindRoot:
		w.WriteUint64(uint64(len(a.Children)))
		for _, c := range a.Children {
			c.marshalWire(w)
		}
		huffman.MarshalTreeWire(w, a.Tree)
	}
}

func unmarshalWire(r *wire.Reader) (*Archive, error) {
	tag, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	name, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	switch Kind(tag) {
	case KindFile:
		fd, err := filedata.UnmarshalWire(r)
		if err != nil {
			return nil, err
		}
		return &Archive{Kind: KindFile, Name: name, Data: fd}, nil
	case KindDirectory:
		children, err := unmarshalChildren(r)
		if err != nil {
			return nil, err
		}
		return &Archive{Kind: KindDirectory, Name: name, Children: children}, nil
	case KindRoot:
		children, err := unmarshalChildren(r)
		if err != nil {
			return nil, err
		}
		tree, err := huffman.UnmarshalTreeWire(r)
		if err != nil {
			return nil, err
		}
		return &Archive{Kind: KindRoot, Name: name, Children: children, Tree: tree}, nil
	default:
		return nil, archiveerr.ErrMalformedArchive
	}
}

func unmarshalChildren(r *wire.Reader) ([]*Archive, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	children := make([]*Archive, 0, n)
	for i := uint64(0); i < n; i++ {
		c, err := unmarshalWire(r)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return children, nil
}
