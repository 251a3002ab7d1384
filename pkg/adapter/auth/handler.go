package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dwserve/internal/logger"
	"github.com/marmos91/dwserve/pkg/metrics"
)

// Request outcomes, used as the "outcome" log attribute and metrics label.
const (
	OutcomeOK               = "ok"
	OutcomeEmptyCredentials = "empty_credentials"
	OutcomeRejected         = "rejected"
	OutcomeError            = "error"
	OutcomeUnknownEndpoint  = "unknown_endpoint"
	OutcomeClientGone       = "client_gone"
)

const metricsLabel = "auth"

// Handler translates one POST body into one reply record.
//
// Every reply to the auth endpoint is a 200, failures included: the client
// reads the status field of the record, not the HTTP status.
type Handler struct {
	endpoint      string
	maxBodyBytes  int64
	authenticator Authenticator
	metrics       metrics.HTTPMetrics
	logger        *slog.Logger
	now           func() time.Time
}

// NewHandler creates a Handler. A nil authenticator accepts every login; a
// nil m disables metrics.
func NewHandler(endpoint string, maxBodyBytes int64, a Authenticator, m metrics.HTTPMetrics, log *slog.Logger) *Handler {
	if a == nil {
		a = AcceptAll{}
	}
	if m == nil {
		m = metrics.NewNoopHTTPMetrics()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{
		endpoint:      endpoint,
		maxBodyBytes:  maxBodyBytes,
		authenticator: a,
		metrics:       m,
		logger:        log,
		now:           time.Now,
	}
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

	if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, h.endpoint) {
		w.WriteHeader(http.StatusNotFound)
		h.done(r, log, slog.LevelWarn, OutcomeUnknownEndpoint, http.StatusNotFound, start)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		h.reply(w, r, log, ServerErrorRecord, slog.LevelError, OutcomeError, start, "error", err.Error())
		return
	}

	username, password := ParseCredentials(body)
	if username == "" || password == "" {
		h.reply(w, r, log, EmptyCredentialsRecord, slog.LevelInfo, OutcomeEmptyCredentials, start,
			"username", username)
		return
	}

	account, err := h.authenticator.Authenticate(r.Context(), username, password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		h.reply(w, r, log, InvalidCredentialsRecord, slog.LevelInfo, OutcomeRejected, start,
			"username", username)
	case err != nil:
		h.reply(w, r, log, ServerErrorRecord, slog.LevelError, OutcomeError, start,
			append([]any{"username", username}, logger.ErrorAttrs(err)...)...)
	default:
		h.reply(w, r, log, SuccessRecord(account, h.now()), slog.LevelInfo, OutcomeOK, start,
			"username", username, "user_id", account.ID)
	}
}

// reply writes rec with the headers the client expects and logs the request.
func (h *Handler) reply(w http.ResponseWriter, r *http.Request, log *slog.Logger, rec Record, level slog.Level, outcome string, start time.Time, attrs ...any) {
	payload := rec.Bytes()

	header := w.Header()
	header.Set("Content-Type", "text/plain; charset=utf-8")
	header.Set("Content-Length", strconv.Itoa(len(payload)))
	header.Set("Keep-Alive", "timeout=300, max=1000")
	w.WriteHeader(http.StatusOK)

	n, err := w.Write(payload)
	h.metrics.RecordBytesServed(metricsLabel, int64(n))
	if err != nil {
		level, outcome = slog.LevelDebug, OutcomeClientGone
		attrs = append(attrs, "write_error", err.Error())
	}

	h.done(r, log, level, outcome, http.StatusOK, start, append(attrs, "status_field", rec.Status)...)
}

// done writes the request's single log record and records its metrics.
func (h *Handler) done(r *http.Request, log *slog.Logger, level slog.Level, outcome string, status int, start time.Time, attrs ...any) {
	elapsed := time.Since(start)
	h.metrics.RecordRequest(metricsLabel, outcome, elapsed)

	log.Log(r.Context(), level, "Auth request handled",
		append([]any{
			"outcome", outcome,
			"status", status,
			"duration", elapsed,
		}, attrs...)...)
}
