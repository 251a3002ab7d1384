package fileserver

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
)

var errNotADirectory = errors.New("not a directory")

// Entry is one file in the startup inventory.
type Entry struct {
	// Path is relative to its root and prefixed by the root name,
	// e.g. "content/maps/mp_rust.xz". Separators are always "/".
	Path string

	// Size is the file size in bytes.
	Size int64
}

// String renders the entry as "content/maps/mp_rust.xz (1,234,567 bytes)".
func (e Entry) String() string {
	return fmt.Sprintf("%s (%s bytes)", e.Path, humanize.Comma(e.Size))
}

// Inventory lists every regular file under both roots, sorted by path.
//
// A symlink is listed under its own name when it resolves to a regular file
// inside the roots, since Respond would serve it. Symlinks to directories are
// not descended into.
//
// Inventory never fails. A missing or unreadable root is logged and
// contributes no entries; unreadable subdirectories are logged and skipped.
func (r *Roots) Inventory(logger *slog.Logger) []Entry {
	var entries []Entry
	for _, root := range r.list() {
		entries = append(entries, r.listRoot(logger, root)...)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries
}

func (r *Roots) listRoot(logger *slog.Logger, root namedRoot) []Entry {
	var entries []Entry

	walkErr := filepath.WalkDir(root.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root.dir {
				return err
			}
			logger.Error("Inventory: skipping unreadable path",
				"root", root.name, "path", p, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if p == root.dir && !d.IsDir() {
			return errNotADirectory
		}
		var info fs.FileInfo
		switch {
		case d.Type().IsRegular():
			info, err = d.Info()
		case d.Type()&fs.ModeSymlink != 0:
			info, err = r.linkedFile(p)
		default:
			return nil
		}
		if err != nil {
			logger.Error("Inventory: failed to stat file",
				"root", root.name, "path", p, "error", err)
			return nil
		}
		if info == nil {
			return nil
		}

		rel, err := filepath.Rel(root.dir, p)
		if err != nil {
			return nil
		}

		entries = append(entries, Entry{
			Path: root.name + "/" + filepath.ToSlash(rel),
			Size: info.Size(),
		})
		return nil
	})

	if walkErr != nil {
		msg := "Inventory: failed to list served root"
		if errors.Is(walkErr, fs.ErrNotExist) {
			msg = "Inventory: served root does not exist"
		}
		logger.Error(msg, "root", root.name, "dir", root.dir, "error", walkErr)
		return nil
	}

	return entries
}

// linkedFile stats the target of the symlink at p. It returns nil without an
// error when the target is not a regular file or lies outside the roots.
func (r *Roots) linkedFile(p string) (fs.FileInfo, error) {
	target, err := followLinks(p)
	if !r.Contains(target) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, nil
	}
	return info, nil
}
