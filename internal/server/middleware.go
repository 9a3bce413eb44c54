package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/discojam/internal/shared"
)

type contextKey string

const nonceContextKey contextKey = "csp-nonce"

// NonceFrom returns the CSP nonce attached to the request context by
// [CSPNonce], or the empty string outside the middleware.
func NonceFrom(ctx context.Context) string {
	nonce, _ := ctx.Value(nonceContextKey).(string)
	return nonce
}

// Logging records method, path, status, and duration for every request.
func Logging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}

// Recover converts handler panics into a 500 response instead of killing the
// connection.
func Recover(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", "path", r.URL.Path, "panic", rec)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CSPNonce issues a fresh per-request nonce, embeds it in the
// Content-Security-Policy header, and stores it in the request context so
// templates can echo it on their inline script tag.
func CSPNonce() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nonce := shared.Nonce()

			csp := fmt.Sprintf(
				"default-src 'self'; script-src 'self' 'nonce-%s'; img-src 'self' https: data:; style-src 'self' 'unsafe-inline'; media-src https:",
				nonce,
			)
			w.Header().Set("Content-Security-Policy", csp)

			ctx := context.WithValue(r.Context(), nonceContextKey, nonce)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HTTPSRedirect forces https in production deployments that terminate TLS at
// a proxy. Requests already forwarded as https pass through.
func HTTPSRedirect(enabled bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled || r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				next.ServeHTTP(w, r)
				return
			}

			host := r.Host
			if h, _, err := net.SplitHostPort(r.Host); err == nil {
				host = h
			}
			target := "https://" + host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
		})
	}
}

// statusRecorder captures the response status for the logging middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
