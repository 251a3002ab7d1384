package update

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dwserve/internal/logger"
	"github.com/marmos91/dwserve/pkg/fileserver"
	"github.com/marmos91/dwserve/pkg/metrics"
)

// Request outcomes, used as the "outcome" log attribute and metrics label.
const (
	OutcomeOK               = "ok"
	OutcomeForbidden        = "forbidden"
	OutcomeNotFound         = "not_found"
	OutcomeError            = "error"
	OutcomeClientGone       = "client_gone"
	OutcomeMethodNotAllowed = "method_not_allowed"
)

// Response bodies. Error details never reach the client.
const (
	bodyForbidden        = "Forbidden"
	bodyNotFoundPrefix   = "File not found: "
	bodyInternalError    = "Internal server error"
	bodyMethodNotAllowed = "Method not allowed"
)

// metricsLabel is the adapter label on every collected metric.
const metricsLabel = "update"

// Handler serves files from the bootstrap and content roots.
//
// It is a thin shim: Roots.Resolve decides containment, fileserver.Respond
// reads the file, and Handler only maps the outcome onto HTTP and writes
// exactly one log record per request.
//
// Handler is installed directly as the server handler. A ServeMux would
// clean ".." out of the path and redirect, hiding traversal attempts from
// the log.
type Handler struct {
	roots   *fileserver.Roots
	metrics metrics.HTTPMetrics
	logger  *slog.Logger
}

// NewHandler creates a Handler. A nil m disables metrics.
func NewHandler(roots *fileserver.Roots, m metrics.HTTPMetrics, log *slog.Logger) *Handler {
	if m == nil {
		m = metrics.NewNoopHTTPMetrics()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{roots: roots, metrics: m, logger: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	h.metrics.RecordRequestStart(metricsLabel)
	defer h.metrics.RecordRequestEnd(metricsLabel)

	log := h.logger.With(
		"request_id", uuid.NewString(),
		"method", r.Method,
		"path", r.URL.Path,
		"remote", r.RemoteAddr,
	)

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, bodyMethodNotAllowed, http.StatusMethodNotAllowed)
		h.done(r, log, slog.LevelInfo, OutcomeMethodNotAllowed, http.StatusMethodNotAllowed, 0, start)
		return
	}

	resolved, err := h.roots.Resolve(r.URL.Path)
	if err != nil {
		// Logged before the response so the attempt is on record even if
		// the client is already gone.
		h.done(r, log, slog.LevelWarn, OutcomeForbidden, http.StatusForbidden, 0, start,
			append([]any{"event", "traversal_attempt"}, logger.ErrorAttrs(err)...)...)
		http.Error(w, bodyForbidden, http.StatusForbidden)
		return
	}
	log = log.With("root", resolved.Root())

	resp, err := fileserver.Respond(resolved)
	if err != nil {
		h.fail(w, r, log, err, start)
		return
	}

	header := w.Header()
	header.Set("Content-Type", resp.ContentType)
	header.Set("Content-Length", strconv.FormatInt(resp.Size(), 10))
	header.Set("Last-Modified", resp.LastModified())
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		h.done(r, log, slog.LevelInfo, OutcomeOK, http.StatusOK, 0, start)
		return
	}

	n, err := w.Write(resp.Body)
	h.metrics.RecordBytesServed(metricsLabel, int64(n))
	if err != nil {
		h.done(r, log, slog.LevelDebug, OutcomeClientGone, http.StatusOK, int64(n), start, "error", err.Error())
		return
	}
	h.done(r, log, slog.LevelInfo, OutcomeOK, http.StatusOK, int64(n), start)
}

// fail answers a request whose file could not be served.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, start time.Time) {
	switch fileserver.Outcome(err) {
	case fileserver.CodeNotFound:
		h.done(r, log, slog.LevelInfo, OutcomeNotFound, http.StatusNotFound, 0, start)
		http.Error(w, bodyNotFoundPrefix+r.URL.Path, http.StatusNotFound)

	case fileserver.CodeForbidden:
		h.done(r, log, slog.LevelWarn, OutcomeForbidden, http.StatusForbidden, 0, start,
			append([]any{"event", "symlink_escape"}, logger.ErrorAttrs(err)...)...)
		http.Error(w, bodyForbidden, http.StatusForbidden)

	default:
		h.done(r, log, slog.LevelError, OutcomeError, http.StatusInternalServerError, 0, start,
			logger.ErrorAttrs(err)...)
		http.Error(w, bodyInternalError, http.StatusInternalServerError)
	}
}

// done writes the request's single log record and records its metrics.
func (h *Handler) done(r *http.Request, log *slog.Logger, level slog.Level, outcome string, status int, bytes int64, start time.Time, attrs ...any) {
	elapsed := time.Since(start)
	h.metrics.RecordRequest(metricsLabel, outcome, elapsed)

	log.Log(r.Context(), level, "Request served",
		append([]any{
			"outcome", outcome,
			"status", status,
			"bytes", bytes,
			"duration", elapsed,
		}, attrs...)...)
}
