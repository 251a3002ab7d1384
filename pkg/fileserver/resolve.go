package fileserver

import (
	"path/filepath"
	"strings"

	"github.com/samber/oops"
)

// ResolvedPath is a filesystem path that passed the containment guard.
//
// The zero value is not usable; Respond rejects it as Forbidden.
type ResolvedPath struct {
	path  string
	root  string
	roots *Roots
}

// Path returns the absolute filesystem path.
func (p ResolvedPath) Path() string { return p.path }

// Root returns the logical name of the root containing the path.
func (p ResolvedPath) Root() string { return p.root }

// Candidate maps an untrusted request path onto a normalized absolute path.
//
// One leading "/" is stripped. A "bootstrap/" or "content/" prefix selects the
// matching root; anything else is taken relative to the bootstrap root. The
// result is joined and cleaned exactly once and may lie outside both roots.
func (r *Roots) Candidate(requestPath string) string {
	rel := strings.TrimPrefix(requestPath, "/")
	root := r.bootstrap

	switch {
	case strings.HasPrefix(rel, BootstrapRootName+"/"):
		rel = strings.TrimPrefix(rel, BootstrapRootName+"/")
	case strings.HasPrefix(rel, ContentRootName+"/"):
		root = r.content
		rel = strings.TrimPrefix(rel, ContentRootName+"/")
	}

	return filepath.Join(root, filepath.FromSlash(rel))
}

// Contains reports whether p lies inside one of the served roots.
func (r *Roots) Contains(p string) bool {
	_, ok := r.rootOf(p)
	return ok
}

// Resolve runs the path resolver and the containment guard.
//
// A path that escapes both roots yields a CodeForbidden error whatever exists
// at that location; the filesystem is not consulted.
func (r *Roots) Resolve(requestPath string) (ResolvedPath, error) {
	candidate := r.Candidate(requestPath)

	root, ok := r.rootOf(candidate)
	if !ok {
		return ResolvedPath{}, oops.
			Code(CodeForbidden).
			With("path", requestPath).
			With("resolved", candidate).
			Errorf("path escapes served roots")
	}

	return ResolvedPath{path: candidate, root: root, roots: r}, nil
}

func (r *Roots) rootOf(p string) (string, bool) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", false
	}

	for _, root := range r.list() {
		if within(root.dir, abs) {
			return root.name, true
		}
	}
	return "", false
}

// within reports whether p equals root or lies beneath it. The comparison is
// segment-aware: "/srv/bootstrap2" is not within "/srv/bootstrap".
func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
