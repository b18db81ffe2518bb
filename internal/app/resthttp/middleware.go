package resthttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/cleantrashrooms/upload_lite/internal/logging"
)

// requestLogger пишет по строке на запрос с request id из middleware.RequestID.
func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Info(r.Context(), "http request",
				"req_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
