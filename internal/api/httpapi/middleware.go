package httpapi

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		a.d.Log.Info("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// clientIP — идентичность вызывающего для лимитов. RealIP уже переписал
// RemoteAddr из X-Forwarded-For / X-Real-IP, если они были.
func clientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if addr == "" {
		return "unknown"
	}
	return addr
}

// rateLimit fails open: if the limiter backend errors the request proceeds.
func (a *API) rateLimit(l Limit) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a.d.Limiter == nil || l.Max <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			key := l.Prefix + clientIP(r)
			allowed, n, err := a.d.Limiter.Allow(r.Context(), key, l.Max, l.Window)
			if err != nil {
				a.d.Log.Warn("rate limiter failed", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				a.d.Log.Debug("rate limit exceeded", zap.String("key", key), zap.Int64("count", n))
				w.Header().Set("Retry-After", retryAfter(l.Window))
				writeJSON(w, http.StatusTooManyRequests, errorBody{Error: l.Message, Code: "rate_limited"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfter(window time.Duration) string {
	return strconv.Itoa(int(window.Seconds()))
}
