package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const timeoutBody = `{"success":false,"error":"Request timeout: the request took too long to process"}`

// TimeoutMiddleware bounds every plain HTTP request. Websocket upgrades are
// long lived and pass through untouched.
func TimeoutMiddleware(timeout time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		bounded := http.TimeoutHandler(next, timeout, timeoutBody)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if websocket.IsWebSocketUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}
			bounded.ServeHTTP(&timeoutWriter{ResponseWriter: w, r: r, timeout: timeout}, r)
		})
	}
}

// timeoutWriter logs the 503 http.TimeoutHandler writes on expiry
type timeoutWriter struct {
	http.ResponseWriter
	r       *http.Request
	timeout time.Duration
}

func (tw *timeoutWriter) WriteHeader(code int) {
	if code == http.StatusServiceUnavailable {
		zap.S().Warnw("request timeout",
			"path", tw.r.URL.Path,
			"method", tw.r.Method,
			"timeout", tw.timeout)
	}
	tw.ResponseWriter.WriteHeader(code)
}
