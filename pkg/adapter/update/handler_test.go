package update

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/marmos91/dwserve/pkg/fileserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configXML = "<config><version>42</version></config>"

var mapBytes = []byte("\xfd7zXZ\x00\x00\x04map-data")

// newTestRoots builds base/{bootstrap,content} plus a secret one level above
// the roots.
func newTestRoots(t *testing.T) (string, *fileserver.Roots) {
	t.Helper()

	base := t.TempDir()
	write := func(rel string, data []byte) {
		p := filepath.Join(base, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, data, 0644))
	}
	write("secret.txt", []byte("do not serve"))
	write("bootstrap/config.xml", []byte(configXML))
	write("content/maps/mp_rust.xz", mapBytes)
	write("content/patch.txt", []byte("patch notes"))

	roots, err := fileserver.RootsFromBase(base)
	require.NoError(t, err)
	return base, roots
}

// recordingMetrics captures outcomes for assertions.
type recordingMetrics struct {
	mu       sync.Mutex
	outcomes []string
	bytes    int64
	inFlight int
}

func (m *recordingMetrics) RecordRequest(adapter, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, adapter+":"+outcome)
}

func (m *recordingMetrics) RecordRequestStart(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight++
}

func (m *recordingMetrics) RecordRequestEnd(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
}

func (m *recordingMetrics) RecordBytesServed(_ string, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bytes += n
}

// logRecords decodes JSON log lines.
func logRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		records = append(records, rec)
	}
	return records
}

func newTestHandler(t *testing.T) (*Handler, *bytes.Buffer, *recordingMetrics, string) {
	t.Helper()

	base, roots := newTestRoots(t)
	var logs bytes.Buffer
	m := &recordingMetrics{}
	log := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewHandler(roots, m, log), &logs, m, base
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandler_ServesBootstrapFile(t *testing.T) {
	h, logs, m, base := newTestHandler(t)

	mtime := time.Date(2012, time.March, 4, 5, 6, 7, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(base, "bootstrap", "config.xml"), mtime, mtime))

	rec := serve(h, http.MethodGet, "/bootstrap/config.xml")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "38", rec.Header().Get("Content-Length"))
	assert.Equal(t, "Sun, 04 Mar 2012 05:06:07 GMT", rec.Header().Get("Last-Modified"))
	assert.Equal(t, configXML, rec.Body.String())

	records := logRecords(t, logs)
	require.Len(t, records, 1)
	assert.Equal(t, "INFO", records[0]["level"])
	assert.Equal(t, OutcomeOK, records[0]["outcome"])
	assert.Equal(t, "/bootstrap/config.xml", records[0]["path"])
	assert.Equal(t, "bootstrap", records[0]["root"])
	assert.EqualValues(t, 38, records[0]["bytes"])
	assert.NotEmpty(t, records[0]["request_id"])

	assert.Equal(t, []string{"update:ok"}, m.outcomes)
	assert.EqualValues(t, 38, m.bytes)
	assert.Zero(t, m.inFlight)
}

func TestHandler_UnprefixedPathUsesBootstrapRoot(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	rec := serve(h, http.MethodGet, "/config.xml")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, configXML, rec.Body.String())
}

func TestHandler_ContentFiles(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	rec := serve(h, http.MethodGet, "/content/maps/mp_rust.xz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-xz", rec.Header().Get("Content-Type"))
	assert.Equal(t, mapBytes, rec.Body.Bytes())

	rec = serve(h, http.MethodGet, "/content/patch.txt")
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
}

func TestHandler_TraversalIsForbidden(t *testing.T) {
	targets := []string{
		"/../secret.txt",
		"/%2e%2e/secret.txt",
		"/bootstrap/../../secret.txt",
		"/content/%2E%2E/%2E%2E/secret.txt",
		"/..%2fsecret.txt",
	}

	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			h, logs, m, _ := newTestHandler(t)

			rec := serve(h, http.MethodGet, target)

			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, "Forbidden\n", rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "do not serve")

			records := logRecords(t, logs)
			require.Len(t, records, 1)
			assert.Equal(t, "WARN", records[0]["level"])
			assert.Equal(t, "traversal_attempt", records[0]["event"])
			assert.Equal(t, OutcomeForbidden, records[0]["outcome"])
			assert.Equal(t, []string{"update:forbidden"}, m.outcomes)
		})
	}
}

func TestHandler_MissingFileIsNotFound(t *testing.T) {
	h, logs, _, _ := newTestHandler(t)

	rec := serve(h, http.MethodGet, "/content/missing.bin")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "File not found: /content/missing.bin\n", rec.Body.String())

	records := logRecords(t, logs)
	require.Len(t, records, 1)
	assert.Equal(t, OutcomeNotFound, records[0]["outcome"])
	assert.EqualValues(t, http.StatusNotFound, records[0]["status"])
}

func TestHandler_DirectoryIsNotFound(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	for _, target := range []string{"/", "/content/", "/content/maps"} {
		rec := serve(h, http.MethodGet, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestHandler_Head(t *testing.T) {
	h, _, m, _ := newTestHandler(t)

	rec := serve(h, http.MethodHead, "/content/maps/mp_rust.xz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-xz", rec.Header().Get("Content-Type"))
	assert.Equal(t, "16", rec.Header().Get("Content-Length"))
	assert.NotEmpty(t, rec.Header().Get("Last-Modified"))
	assert.Zero(t, rec.Body.Len())
	assert.Zero(t, m.bytes)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h, logs, _, _ := newTestHandler(t)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rec := serve(h, method, "/bootstrap/config.xml")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		assert.Equal(t, "GET, HEAD", rec.Header().Get("Allow"), method)
	}
	assert.Len(t, logRecords(t, logs), 3)
}

func TestHandler_RepeatedRequestsAreIdentical(t *testing.T) {
	h, _, _, _ := newTestHandler(t)

	first := serve(h, http.MethodGet, "/content/maps/mp_rust.xz")
	second := serve(h, http.MethodGet, "/content/maps/mp_rust.xz")

	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, first.Header(), second.Header())
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
}

func TestHandler_SymlinkEscapeIsForbidden(t *testing.T) {
	h, logs, _, base := newTestHandler(t)

	require.NoError(t, os.Symlink(filepath.Join(base, "secret.txt"), filepath.Join(base, "content", "leak.txt")))

	rec := serve(h, http.MethodGet, "/content/leak.txt")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	records := logRecords(t, logs)
	require.Len(t, records, 1)
	assert.Equal(t, "symlink_escape", records[0]["event"])
}

func TestHandler_DanglingSymlinkEscapeIsForbidden(t *testing.T) {
	h, logs, _, base := newTestHandler(t)

	require.NoError(t, os.Symlink(filepath.Join(base, "nope.txt"), filepath.Join(base, "content", "leak.txt")))

	rec := serve(h, http.MethodGet, "/content/leak.txt")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	records := logRecords(t, logs)
	require.Len(t, records, 1)
	assert.Equal(t, "symlink_escape", records[0]["event"])
}

func TestHandler_UnreadableFileIsInternalError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	h, logs, _, base := newTestHandler(t)

	p := filepath.Join(base, "content", "patch.txt")
	require.NoError(t, os.Chmod(p, 0))
	t.Cleanup(func() { _ = os.Chmod(p, 0644) })

	rec := serve(h, http.MethodGet, "/content/patch.txt")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error\n", rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "permission")

	records := logRecords(t, logs)
	require.Len(t, records, 1)
	assert.Equal(t, "ERROR", records[0]["level"])
	assert.Equal(t, fileserver.CodeInternal, records[0]["code"])
}

// brokenWriter simulates a client that disconnected after the headers.
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("write: broken pipe")
}

func TestHandler_ClientGoneIsLoggedAtDebug(t *testing.T) {
	h, logs, m, _ := newTestHandler(t)

	w := brokenWriter{httptest.NewRecorder()}
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bootstrap/config.xml", nil))

	records := logRecords(t, logs)
	require.Len(t, records, 1)
	assert.Equal(t, "DEBUG", records[0]["level"])
	assert.Equal(t, OutcomeClientGone, records[0]["outcome"])
	assert.Equal(t, []string{"update:client_gone"}, m.outcomes)
}
