// Package middleware provides HTTP middleware for the pepmap API.
package middleware

import (
	"log"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Logger logs the method, path, status and duration of every request along
// with its chi request id.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log.Printf("[%s] %s %s %d %dB %s",
			chimiddleware.GetReqID(r.Context()), r.Method, r.URL.Path,
			status, ww.BytesWritten(), time.Since(start))
	})
}
