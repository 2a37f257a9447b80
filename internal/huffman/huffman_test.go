package huffman

import (
	"bytes"
	"testing"

	"github.com/tomyyy/tomy/internal/bitbuffer"
	"github.com/tomyyy/tomy/internal/wire"
)

func TestEmbeddedRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", []byte{}},
		{"simple ascii", []byte("aaaaabbbbcccdde")},
		{"binary", []byte{0x00, 0xFF, 0xAB, 0xAB, 0xAB, 0x01, 0x02, 0x03}},
		{"long repetitive", []byte("hello world! hello world! hello world! hello world!")},
		{"single byte", []byte{0x42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := EncodeEmbedded(tt.content)
			got, err := DecodeEmbedded(enc)
			if err != nil {
				t.Fatalf("DecodeEmbedded: %v", err)
			}
			if !bytes.Equal(got, tt.content) {
				t.Fatalf("round trip = %v, want %v", got, tt.content)
			}
		})
	}
}

func TestAllDistinctBytes(t *testing.T) {
	content := make([]byte, 256)
	for i := range content {
		content[i] = byte(i)
	}
	enc := EncodeEmbedded(content)
	got, err := DecodeEmbedded(enc)
	if err != nil {
		t.Fatalf("DecodeEmbedded: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatal("round trip over all 256 distinct byte values failed")
	}
}

func TestSharedRoundTrip(t *testing.T) {
	sample := []byte("the quick brown fox jumps over the lazy dog")
	var freq [256]uint64
	for _, b := range sample {
		freq[b]++
	}
	tree := BuildTree(freq)

	other := []byte("fox dog fox")
	enc := EncodeShared(tree, other)
	got, err := DecodeShared(tree, enc)
	if err != nil {
		t.Fatalf("DecodeShared: %v", err)
	}
	if !bytes.Equal(got, other) {
		t.Fatalf("shared round trip = %v, want %v", got, other)
	}
}

func TestSharedTreeCoversUnseenBytes(t *testing.T) {
	sample := []byte("abc")
	var freq [256]uint64
	for _, b := range sample {
		freq[b]++
	}
	tree := BuildTree(freq)

	// 'z' never appeared in sample, but BuildTree always gives all 256
	// byte values a leaf, so encoding it against this tree still works.
	enc := EncodeShared(tree, []byte("zzz"))
	got, err := DecodeShared(tree, enc)
	if err != nil {
		t.Fatalf("DecodeShared: %v", err)
	}
	if !bytes.Equal(got, []byte("zzz")) {
		t.Fatalf("round trip = %v, want zzz", got)
	}
}

func TestTreeSerializeDeserializeRoundTrip(t *testing.T) {
	var freq [256]uint64
	for i := 0; i < 256; i++ {
		freq[i] = uint64(i % 7)
	}
	tree := BuildTree(freq)

	bb := bitbuffer.New()
	tree.Serialize(bb)
	bb.ReadPos = 0

	got, err := Deserialize(bb)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	orig := buildCodebook(tree)
	roundTripped := buildCodebook(got)
	for b := 0; b < 256; b++ {
		if len(orig[b]) != len(roundTripped[b]) {
			t.Fatalf("byte %d: codeword length changed after round trip", b)
		}
		for i := range orig[b] {
			if orig[b][i] != roundTripped[b][i] {
				t.Fatalf("byte %d: codeword bit %d changed after round trip", b, i)
			}
		}
	}
}

func TestMarshalTreeWireNilIsElided(t *testing.T) {
	w := wire.NewWriter()
	MarshalTreeWire(w, nil)

	r := wire.NewReader(w.Bytes())
	got, err := UnmarshalTreeWire(r)
	if err != nil {
		t.Fatalf("UnmarshalTreeWire: %v", err)
	}
	if got != nil {
		t.Fatal("UnmarshalTreeWire on elided tree returned non-nil")
	}
}

func TestMarshalTreeWireRoundTrip(t *testing.T) {
	var freq [256]uint64
	freq['a'] = 10
	freq['b'] = 3
	tree := BuildTree(freq)

	w := wire.NewWriter()
	MarshalTreeWire(w, tree)

	r := wire.NewReader(w.Bytes())
	got, err := UnmarshalTreeWire(r)
	if err != nil {
		t.Fatalf("UnmarshalTreeWire: %v", err)
	}

	enc := EncodeShared(got, []byte("abba"))
	dec, err := DecodeShared(got, enc)
	if err != nil {
		t.Fatalf("DecodeShared after wire round trip: %v", err)
	}
	if !bytes.Equal(dec, []byte("abba")) {
		t.Fatalf("decoded = %v, want abba", dec)
	}
}

func TestEmbeddedMarshalWireRoundTrip(t *testing.T) {
	content := []byte("round trip through the wire format, not just in memory")
	enc := EncodeEmbedded(content)

	w := wire.NewWriter()
	enc.MarshalWire(w)

	r := wire.NewReader(w.Bytes())
	got, err := UnmarshalEmbeddedWire(r)
	if err != nil {
		t.Fatalf("UnmarshalEmbeddedWire: %v", err)
	}

	decoded, err := DecodeEmbedded(got)
	if err != nil {
		t.Fatalf("DecodeEmbedded: %v", err)
	}
	if !bytes.Equal(decoded, content) {
		t.Fatalf("decoded = %v, want %v", decoded, content)
	}
}

func TestDecodePackedMalformedOnTruncatedStream(t *testing.T) {
	var freq [256]uint64
	freq['a'] = 5
	freq['b'] = 1
	tree := BuildTree(freq)

	enc := EncodeShared(tree, []byte("aaaaab"))
	// Claim more bits are present than the data actually holds.
	_, err := decodePacked(enc.Data, int64(len(enc.Data))*8+64, tree)
	if err == nil {
		t.Fatal("decodePacked with an inflated bit count returned nil error")
	}
}
