package archive

import (
	"bytes"
	"context"
	"testing"
)

func findChild(t *testing.T, e *DecodedEntry, name string) *DecodedEntry {
	t.Helper()
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no child named %q under %q", name, e.Name)
	return nil
}

func TestDirectoryRoundTrip(t *testing.T) {
	binary := bytes.Repeat([]byte{0x00, 0x01, 0xFF, 0x7A}, 2500) // ~10KB
	root := &DirEntry{
		Name:  "project",
		IsDir: true,
		Children: []*DirEntry{
			{Name: "a.txt", Data: []byte("hello world, this is a small text file")},
			{Name: "b.txt", Data: []byte("another small text file, similar alphabet")},
			{
				Name:  "sub",
				IsDir: true,
				Children: []*DirEntry{
					{Name: "blob.bin", Data: binary},
				},
			},
		},
	}

	a, err := Build(context.Background(), root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if a.Kind != KindRoot {
		t.Fatalf("Kind = %v, want KindRoot", a.Kind)
	}

	decoded, err := Decode(context.Background(), a)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	aTxt := findChild(t, decoded, "a.txt")
	if !bytes.Equal(aTxt.Data, []byte("hello world, this is a small text file")) {
		t.Fatal("a.txt content mismatch")
	}
	bTxt := findChild(t, decoded, "b.txt")
	if !bytes.Equal(bTxt.Data, []byte("another small text file, similar alphabet")) {
		t.Fatal("b.txt content mismatch")
	}
	sub := findChild(t, decoded, "sub")
	if !sub.IsDir {
		t.Fatal("sub is not a directory")
	}
	blob := findChild(t, sub, "blob.bin")
	if !bytes.Equal(blob.Data, binary) {
		t.Fatal("blob.bin content mismatch")
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	root := &DirEntry{
		Name:  "project",
		IsDir: true,
		Children: []*DirEntry{
			{Name: "one.txt", Data: []byte("one one one one one")},
			{Name: "two.txt", Data: []byte("two two two two two")},
		},
	}
	a, err := Build(context.Background(), root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	blob := a.Marshal()
	got, err := Unmarshal(blob)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	decoded, err := Decode(context.Background(), got)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	one := findChild(t, decoded, "one.txt")
	if !bytes.Equal(one.Data, []byte("one one one one one")) {
		t.Fatal("one.txt content mismatch after wire round trip")
	}
}

func TestEmptyDirectoryRoundTrip(t *testing.T) {
	root := &DirEntry{Name: "empty", IsDir: true}
	a, err := Build(context.Background(), root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if a.Tree != nil {
		t.Fatal("empty directory should not keep a shared tree")
	}
	decoded, err := Decode(context.Background(), a)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded.Children) != 0 {
		t.Fatalf("len(Children) = %d, want 0", len(decoded.Children))
	}
}

func TestDuplicateSiblingNamesRejected(t *testing.T) {
	root := &DirEntry{
		Name:  "dup",
		IsDir: true,
		Children: []*DirEntry{
			{Name: "same.txt", Data: []byte("a")},
			{Name: "same.txt", Data: []byte("b")},
		},
	}
	if _, err := Build(context.Background(), root); err == nil {
		t.Fatal("Build with duplicate sibling names returned nil error")
	}
}

func TestEmptyNameRejected(t *testing.T) {
	root := &DirEntry{Name: "", Data: []byte("x")}
	if _, err := Build(context.Background(), root); err == nil {
		t.Fatal("Build with empty name returned nil error")
	}
}

func TestNameWithSeparatorRejected(t *testing.T) {
	root := &DirEntry{Name: "a/b", Data: []byte("x")}
	if _, err := Build(context.Background(), root); err == nil {
		t.Fatal("Build with a separator in the name returned nil error")
	}
}

func TestSharedTreeElidedWhenUnused(t *testing.T) {
	// Only one file, 8000 bytes long and so at/above SmallFileThreshold,
	// which keeps FixedHuffman out of its candidates; the real guarantee
	// under test is that Tree is nil whenever no file actually chose
	// FixedHuffman, regardless of why.
	root := &DirEntry{
		Name:  "solo",
		IsDir: true,
		Children: []*DirEntry{
			{Name: "only.bin", Data: bytes.Repeat([]byte{0x00, 0x01, 0x02, 0x03}, 2000)},
		},
	}
	a, err := Build(context.Background(), root)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !usedFixedHuffman(a) && a.Tree != nil {
		t.Fatal("Tree present but no file selected FixedHuffman")
	}
}
