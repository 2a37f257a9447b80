// Command tomy is the directory archiver's CLI front end: with no
// arguments it archives the current working directory into
// "<dirname>.tmy"; with one argument it decodes that archive into the
// current working directory.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tomyyy/tomy/internal/archive"
	"github.com/tomyyy/tomy/internal/walker"
)

var errUsage = errors.New("usage: tomy [archive.tmy]")

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("tomy failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	switch len(args) {
	case 0:
		return encodeCwd()
	case 1:
		return decodeArchive(args[0])
	default:
		return errUsage
	}
}

func encodeCwd() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	dirName := filepath.Base(cwd)
	archivePath := dirName + walker.ArchiveSuffix

	entry, err := walker.ReadDir(cwd)
	if err != nil {
		return err
	}
	entry.Name = dirName

	ctx := context.Background()
	a, err := archive.Build(ctx, entry)
	if err != nil {
		return err
	}

	if err := os.WriteFile(archivePath, a.Marshal(), 0644); err != nil {
		return err
	}
	slog.Info("wrote archive", "path", archivePath)
	return nil
}

func decodeArchive(archivePath string) error {
	blob, err := os.ReadFile(archivePath)
	if err != nil {
		return err
	}
	a, err := archive.Unmarshal(blob)
	if err != nil {
		return err
	}

	ctx := context.Background()
	decoded, err := archive.Decode(ctx, a)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	report, err := walker.WriteDir(cwd, decoded)
	if err != nil {
		return err
	}
	if err := walker.ValidateCollisionFree(report); err != nil {
		slog.Warn("some entries were skipped due to name collisions", "count", len(report.Paths))
	}
	slog.Info("extracted archive", "path", archivePath)
	return nil
}
