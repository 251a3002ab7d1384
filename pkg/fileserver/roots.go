// Package fileserver implements the traversal-safe static file service used to
// distribute bootstrap and content files to legacy game clients.
//
// The package is built from pure request→response functions:
//
//	roots, _ := fileserver.NewRoots(bootstrapDir, contentDir)
//
//	resolved, err := roots.Resolve(requestPath) // Forbidden if it escapes
//	if err != nil { ... }
//
//	resp, err := fileserver.Respond(resolved)   // NotFound / Internal
//
// Resolve normalizes the request path once and checks containment before any
// filesystem access. Respond only accepts a ResolvedPath, so an unchecked path
// can never reach the filesystem layer.
//
// Nothing in this package keeps state between requests; Roots is immutable
// after construction and safe for concurrent use.
package fileserver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Logical root names. They prefix request paths ("/content/...") and
// inventory entries ("content/...").
const (
	BootstrapRootName = "bootstrap"
	ContentRootName   = "content"
)

// Roots holds the two served root directories.
//
// Both paths are absolute and cleaned. When a directory exists at construction
// time its symlinks are resolved, so the stored form is canonical.
type Roots struct {
	bootstrap string
	content   string
}

// NewRoots builds the served roots from the bootstrap and content directories.
//
// Relative paths are made absolute against the working directory. A missing
// directory is not an error: the root stays in its lexical form and requests
// under it answer NotFound until the directory appears.
func NewRoots(bootstrap, content string) (*Roots, error) {
	b, err := canonicalRoot(BootstrapRootName, bootstrap)
	if err != nil {
		return nil, err
	}
	c, err := canonicalRoot(ContentRootName, content)
	if err != nil {
		return nil, err
	}

	return &Roots{bootstrap: b, content: c}, nil
}

// RootsFromBase builds the default layout: <base>/bootstrap and <base>/content.
func RootsFromBase(base string) (*Roots, error) {
	return NewRoots(
		filepath.Join(base, BootstrapRootName),
		filepath.Join(base, ContentRootName),
	)
}

func canonicalRoot(name, dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("%s root: path is required", name)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%s root: %w", name, err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	switch {
	case err == nil:
		return resolved, nil
	case errors.Is(err, fs.ErrNotExist):
		return abs, nil
	default:
		return "", fmt.Errorf("%s root: %w", name, err)
	}
}

// Bootstrap returns the absolute bootstrap root.
func (r *Roots) Bootstrap() string { return r.bootstrap }

// Content returns the absolute content root.
func (r *Roots) Content() string { return r.content }

// Missing returns the logical names of roots that do not exist as directories.
func (r *Roots) Missing() []string {
	var missing []string
	for _, root := range r.list() {
		info, err := os.Stat(root.dir)
		if err != nil || !info.IsDir() {
			missing = append(missing, root.name)
		}
	}
	return missing
}

type namedRoot struct {
	name string
	dir  string
}

func (r *Roots) list() []namedRoot {
	return []namedRoot{
		{name: BootstrapRootName, dir: r.bootstrap},
		{name: ContentRootName, dir: r.content},
	}
}
