// Package wire implements the archive's hand-rolled little-endian byte
// framing: unsigned 32-bit variant tags, 64-bit length-prefixed strings and
// byte vectors, and raw fixed-size fields. It underlies every on-disk
// struct in internal/archive, internal/filedata, internal/huffman, and
// internal/bitbuffer. The format is small and exactly specified rather than
// generic, so encoding/binary plus a thin field-at-a-time writer/reader is
// a better fit than a general-purpose serialisation library.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/tomyyy/tomy/internal/archiveerr"
)

// Writer appends fields to a growing byte buffer.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) WriteByte(b byte) { w.buf = append(w.buf, b) }

func (w *Writer) WriteUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

func (w *Writer) WriteUint64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteRaw appends b with no length prefix, for fixed-size fields.
func (w *Writer) WriteRaw(b []byte) { w.buf = append(w.buf, b...) }

// WriteBytesVec writes a Vec<u8>: a 64-bit count followed by the bytes.
func (w *Writer) WriteBytesVec(b []byte) {
	w.WriteUint64(uint64(len(b)))
	w.WriteRaw(b)
}

// WriteString writes a 64-bit byte length followed by UTF-8 bytes.
func (w *Writer) WriteString(s string) {
	w.WriteUint64(uint64(len(s)))
	w.buf = append(w.buf, s...)
}

// Reader consumes fields sequentially from a byte slice, turning any
// truncation into archiveerr.ErrMalformedArchive.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(b []byte) *Reader { return &Reader{buf: b} }

func (r *Reader) ReadByte() (byte, error) {
	if r.pos+1 > len(r.buf) {
		return 0, fmt.Errorf("wire: read byte: %w", archiveerr.ErrMalformedArchive)
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, fmt.Errorf("wire: read uint32: %w", archiveerr.ErrMalformedArchive)
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *Reader) ReadUint64() (uint64, error) {
	if r.pos+8 > len(r.buf) {
		return 0, fmt.Errorf("wire: read uint64: %w", archiveerr.ErrMalformedArchive)
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *Reader) ReadRaw(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("wire: read raw: %w", archiveerr.ErrMalformedArchive)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) ReadBytesVec() ([]byte, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return nil, err
	}
	if n > uint64(len(r.buf)-r.pos) {
		return nil, fmt.Errorf("wire: read vec: %w", archiveerr.ErrMalformedArchive)
	}
	return r.ReadRaw(int(n))
}

func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return "", err
	}
	if n > uint64(len(r.buf)-r.pos) {
		return "", fmt.Errorf("wire: read string: %w", archiveerr.ErrMalformedArchive)
	}
	b, err := r.ReadRaw(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Remaining reports how many bytes are left unread.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }
