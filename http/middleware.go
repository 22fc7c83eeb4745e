package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/akavelink/akavelink"
)

// NameValidationMiddleware rejects requests whose bucket or file URL
// parameters fail name validation, before any handler (and therefore
// any subprocess spawn) runs.
func NameValidationMiddleware(reg *akavelink.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bucket := chi.URLParam(r, "bucket"); bucket != "" && !akavelink.IsValidBucketName(bucket) {
				WriteError(w, reg.NewErrorWithDetails(akavelink.CodeValidationError,
					fmt.Errorf("invalid bucket name"),
					map[string]any{"bucket": bucket}))
				return
			}
			if file := chi.URLParam(r, "file"); file != "" && !akavelink.IsValidFileName(file) {
				WriteError(w, reg.NewErrorWithDetails(akavelink.CodeValidationError,
					fmt.Errorf("invalid file name"),
					map[string]any{"file": file}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per request with method, path, status
// and duration.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
