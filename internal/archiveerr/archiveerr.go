// Package archiveerr collects the sentinel errors the core can return.
//
// Name collisions are reported on a side channel by the driver
// (internal/walker), not returned as a fatal error from the core — see
// ErrNameCollision's doc comment.
package archiveerr

import "errors"

var (
	// ErrMalformedArchive covers a corrupt tagged-union index, a truncated
	// blob, or an inconsistent length prefix anywhere in the archive's byte
	// framing.
	ErrMalformedArchive = errors.New("tomy: malformed archive")

	// ErrMalformedHuffman covers a decode path that runs out of bits mid
	// traversal, or a serialised tree with fewer than two children on an
	// internal node.
	ErrMalformedHuffman = errors.New("tomy: malformed huffman stream")

	// ErrMalformedLZ77 covers a back-reference to a position at or beyond
	// the already-decoded length within a chunk.
	ErrMalformedLZ77 = errors.New("tomy: malformed lz77 stream")

	// ErrNameCollision is non-fatal: a file or directory with the target
	// name already exists at the write site. Callers collect it on a side
	// channel and skip the colliding subtree; siblings still materialise.
	ErrNameCollision = errors.New("tomy: name collision")
)
