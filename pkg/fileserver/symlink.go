package fileserver

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxLinks bounds the symlinks followed for one path, as ELOOP does.
const maxLinks = 40

var errTooManyLinks = errors.New("too many levels of symbolic links")

// followLinks resolves every symlink along the absolute path p, one component
// at a time, and returns where p actually points.
//
// Unlike filepath.EvalSymlinks it does not require the target to exist. When a
// component is missing the unresolved remainder is joined on lexically and the
// lookup error is returned with that path, so a dangling link still reports
// its destination.
func followLinks(p string) (string, error) {
	vol := filepath.VolumeName(p)
	resolved := vol + string(filepath.Separator)
	rest := splitPath(p[len(vol):])

	links := 0
	for len(rest) > 0 {
		name := rest[0]
		rest = rest[1:]

		switch name {
		case "", ".":
			continue
		case "..":
			resolved = filepath.Dir(resolved)
			continue
		}

		next := filepath.Join(resolved, name)
		info, err := os.Lstat(next)
		if err != nil {
			return filepath.Join(append([]string{next}, rest...)...), err
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			resolved = next
			continue
		}

		links++
		if links > maxLinks {
			return next, errTooManyLinks
		}

		link, err := os.Readlink(next)
		if err != nil {
			return next, err
		}
		if filepath.IsAbs(link) {
			vol = filepath.VolumeName(link)
			resolved = vol + string(filepath.Separator)
			link = link[len(vol):]
		}
		rest = append(splitPath(link), rest...)
	}

	return resolved, nil
}

func splitPath(p string) []string {
	return strings.FieldsFunc(p, func(c rune) bool {
		return c == '/' || c == filepath.Separator
	})
}
