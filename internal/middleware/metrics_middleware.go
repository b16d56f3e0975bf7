package middleware

import (
	"net/http"
	"strconv"
	"time"

	"collab-notes-server/internal/metrics"

	"github.com/gorilla/mux"
)

// MetricsMiddleware records request durations labeled by the mux route
// template, so note ids do not blow up label cardinality.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tmpl, err := route.GetPathTemplate(); err == nil {
					path = tmpl
				}
			}

			metrics.RequestDuration.WithLabelValues(
				r.Method,
				path,
				strconv.Itoa(rw.statusCode),
			).Observe(time.Since(start).Seconds())
		})
	}
}
