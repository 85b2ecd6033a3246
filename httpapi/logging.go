package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/uqlabs/internal/logx"
	"pkt.systems/uqlabs/schema"
)

// idFields names the log field carried by the "id" query parameter on routes
// that address a single resource.
var idFields = map[string]string{
	"/api/job":             "job",
	"/api/chat":            "chat",
	"/api/settings/models": "model",
}

type responseRecorder struct {
	status int
	bytes  int64
	writer http.ResponseWriter
}

func (r *responseRecorder) Header() http.Header {
	return r.writer.Header()
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.writer.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.writer.Write(p)
	r.bytes += int64(n)
	return n, err
}

func (r *responseRecorder) Flush() {
	if f, ok := r.writer.(http.Flusher); ok {
		f.Flush()
	}
}

// withRequestLogging logs one line per request. Handlers see a logger on the
// request context that already carries the addressed notebook, cell, job or
// chat.
func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{writer: w}
		ctx, logger := requestLogger(r)
		next.ServeHTTP(rec, r.WithContext(ctx))
		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		fields := []any{"method", r.Method, "path", r.URL.Path, "status", status, "bytes", rec.bytes, "duration_ms", time.Since(start).Milliseconds()}
		if status >= http.StatusInternalServerError {
			logger.Warn("http request", fields...)
		} else {
			logger.Info("http request", fields...)
		}
		logger.Debug("http request details", "ua", r.UserAgent(), "query", r.URL.RawQuery)
	})
}

// requestLogger derives the per-request logger from the query string:
// notebook_id and cell_id everywhere, id where the route names a resource.
func requestLogger(r *http.Request) (context.Context, pslog.Logger) {
	ctx := r.Context()
	query := r.URL.Query()
	notebook := schema.NotebookID(strings.TrimSpace(query.Get("notebook_id")))
	cell := schema.CellID(strings.TrimSpace(query.Get("cell_id")))
	id := strings.TrimSpace(query.Get("id"))
	if r.URL.Path == "/api/notebook" && notebook == "" {
		notebook = schema.NotebookID(id)
	}
	log := logx.WithNotebookCell(ctx, notebook, cell).With("remote", clientIP(r))
	if field, ok := idFields[r.URL.Path]; ok && id != "" {
		log = log.With(field, id)
	}
	return logx.ContextWithNotebookCellLogger(ctx, log, notebook, cell), log
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	return r.RemoteAddr
}
