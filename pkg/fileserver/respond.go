package fileserver

import (
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/samber/oops"
)

// Response is a complete file response: metadata plus the full body.
type Response struct {
	// ContentType is derived from the file extension only.
	ContentType string

	// ModTime is the file's last modification time.
	ModTime time.Time

	// Body holds the whole file. Its length is the Content-Length.
	Body []byte
}

// Size returns the exact number of bytes in the body.
func (r *Response) Size() int64 { return int64(len(r.Body)) }

// LastModified returns ModTime as an HTTP-date in GMT.
func (r *Response) LastModified() string {
	return r.ModTime.UTC().Format(http.TimeFormat)
}

// Respond reads the file at p and builds its response.
//
// Errors:
//   - CodeForbidden: p is a symlink whose target lies outside the served roots,
//     whether or not that target exists
//   - CodeNotFound: nothing at p, p is not a regular file, or it cannot be stat'ed
//   - CodeInternal: the file exists but cannot be opened or read
//
// Containment of the symlink target is decided before anything is reported
// about existence, so a dangling link cannot reveal whether files outside the
// roots exist. Error messages are for server-side logs and must not be sent
// to clients.
func Respond(p ResolvedPath) (*Response, error) {
	if p.roots == nil {
		return nil, oops.Code(CodeForbidden).Errorf("path was not resolved against served roots")
	}

	errb := oops.With("resolved", p.path).With("root", p.root)

	target, err := followLinks(p.path)
	if !p.roots.Contains(target) {
		return nil, errb.Code(CodeForbidden).With("target", target).Errorf("symlink escapes served roots")
	}
	if errors.Is(err, errTooManyLinks) {
		return nil, errb.Code(CodeInternal).Wrapf(err, "failed to resolve symlinks")
	}
	if err != nil {
		return nil, errb.Code(CodeNotFound).Wrapf(err, "file not found")
	}

	info, err := os.Stat(target)
	if err != nil {
		return nil, errb.Code(CodeNotFound).Wrapf(err, "file not found")
	}
	if !info.Mode().IsRegular() {
		return nil, errb.Code(CodeNotFound).Errorf("not a regular file")
	}

	f, err := os.Open(target)
	if err != nil {
		return nil, errb.Code(CodeInternal).Wrapf(err, "failed to open file")
	}
	defer func() { _ = f.Close() }()

	// Metadata comes from the open handle so it describes the bytes we read.
	info, err = f.Stat()
	if err != nil {
		return nil, errb.Code(CodeInternal).Wrapf(err, "failed to stat open file")
	}
	if !info.Mode().IsRegular() {
		return nil, errb.Code(CodeInternal).Errorf("file changed type while opening")
	}

	body, err := io.ReadAll(f)
	if err != nil {
		return nil, errb.Code(CodeInternal).Wrapf(err, "failed to read file")
	}

	return &Response{
		ContentType: ContentType(p.path),
		ModTime:     info.ModTime(),
		Body:        body,
	}, nil
}
