// Package walker is the external driver the core archive format treats as
// an opaque collaborator: it turns a real directory into the abstract
// DirEntry tree archive.Build consumes, and turns a DecodedEntry tree back
// into real files on disk, reporting name collisions on a side channel
// instead of failing the whole write.
//
// Real filesystem I/O and logging live here and only here - internal/huffman,
// internal/lz77, internal/filedata, and internal/archive stay silent and
// I/O-free, working purely over in-memory byte sequences.
package walker

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tomyyy/tomy/internal/archive"
	"github.com/tomyyy/tomy/internal/archiveerr"
)

// ArchiveSuffix is the extension an archive file carries on disk.
const ArchiveSuffix = ".tmy"

// IsArchiveSuffixed reports whether name should be excluded from being
// archived because it already looks like an archive produced by this tool.
func IsArchiveSuffixed(name string) bool {
	matched, err := doublestar.Match("*"+ArchiveSuffix, filepath.Base(name))
	return err == nil && matched
}

// ReadDir walks root recursively and builds the abstract DirEntry tree
// archive.Build expects, skipping any file whose name is archive-suffixed
// (directories are kept whatever their name).
func ReadDir(root string) (*archive.DirEntry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("walker: stat %s: %w", root, err)
	}
	return readEntry(root, filepath.Base(root), info)
}

func readEntry(path, name string, info os.FileInfo) (*archive.DirEntry, error) {
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("walker: read %s: %w", path, err)
		}
		return &archive.DirEntry{Name: name, Data: data}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("walker: readdir %s: %w", path, err)
	}

	var children []*archive.DirEntry
	for _, e := range entries {
		if !e.IsDir() && IsArchiveSuffixed(e.Name()) {
			slog.Info("skipping archive-suffixed entry", "path", filepath.Join(path, e.Name()))
			continue
		}
		childInfo, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("walker: stat %s: %w", filepath.Join(path, e.Name()), err)
		}
		child, err := readEntry(filepath.Join(path, e.Name()), e.Name(), childInfo)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return &archive.DirEntry{Name: name, IsDir: true, Children: children}, nil
}

// CollisionReport collects the name-collision side channel from WriteDir:
// paths that already existed at the write site and were skipped, with
// their subtrees left unmaterialised.
type CollisionReport struct {
	Paths []string
}

// WriteDir materialises a decoded entry tree under destDir. Collisions
// with existing files or directories are recorded in the returned
// CollisionReport rather than aborting the whole write; sibling subtrees
// still materialise.
func WriteDir(destDir string, e *archive.DecodedEntry) (*CollisionReport, error) {
	report := &CollisionReport{}
	if err := writeEntry(destDir, e, report); err != nil {
		return report, err
	}
	return report, nil
}

func writeEntry(destDir string, e *archive.DecodedEntry, report *CollisionReport) error {
	path := filepath.Join(destDir, e.Name)
	if _, err := os.Lstat(path); err == nil {
		slog.Warn("name collision, skipping subtree", "path", path)
		report.Paths = append(report.Paths, path)
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("walker: stat %s: %w", path, err)
	}

	if !e.IsDir {
		if err := os.WriteFile(path, e.Data, 0644); err != nil {
			return fmt.Errorf("walker: write %s: %w", path, err)
		}
		return nil
	}

	if err := os.Mkdir(path, 0755); err != nil {
		return fmt.Errorf("walker: mkdir %s: %w", path, err)
	}
	for _, c := range e.Children {
		if err := writeEntry(path, c, report); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCollisionFree is a convenience wrapper for callers that want a
// single error when any collision occurred, instead of inspecting the
// report themselves.
func ValidateCollisionFree(report *CollisionReport) error {
	if len(report.Paths) > 0 {
		return fmt.Errorf("walker: %d name collisions: %w", len(report.Paths), archiveerr.ErrNameCollision)
	}
	return nil
}
