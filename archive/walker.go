// Package archive builds Walk abstraction on top of "archive/zip".
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/h2non/filetype"
	"github.com/maruel/natural"
)

// WalkFunc is the type of the function called for each matching entry
// visited by Walk. The name argument is path of the entry inside archive. If an
// error is returned, processing stops.
type WalkFunc func(name string, r io.Reader) error

// Walk calls walkFn for every regular entry under prefix whose extension is
// one of exts (compared case insensitively, empty exts matches everything).
// Entries are visited in natural order of their names. Entries with path
// traversal components ("..") or absolute paths make Walk fail before any
// entry is visited.
func Walk(archive, prefix string, exts []string, walkFn WalkFunc) error {

	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	var files []*zip.File
	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(name, prefix) || !hasExt(name, exts) {
			continue
		}
		files = append(files, f)
	}
	slices.SortStableFunc(files, func(a, b *zip.File) int {
		switch {
		case a.Name == b.Name:
			return 0
		case natural.Less(a.Name, b.Name):
			return -1
		default:
			return 1
		}
	})

	for _, f := range files {
		if err := visit(f, walkFn); err != nil {
			return err
		}
	}
	return nil
}

func visit(f *zip.File, walkFn WalkFunc) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("zip entry %q: %w", f.Name, err)
	}
	defer rc.Close()
	return walkFn(f.Name, rc)
}

// IsArchive checks file signature.
func IsArchive(name string) (bool, error) {
	f, err := os.Open(name)
	if err != nil {
		return false, err
	}
	defer f.Close()

	// enough for any signature filetype knows about
	head := make([]byte, 261)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return filetype.Is(head[:n], "zip"), nil
}

func hasExt(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := path.Ext(name)
	return slices.ContainsFunc(exts, func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
