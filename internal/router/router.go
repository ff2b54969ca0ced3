// Package router wires up the file search API routes and applies the
// middleware chain (RequestID → Metrics → CORS → Auth → MaxBody → Timeout).
package router

import (
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/filesearch/internal/handler"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/filesearch/pkg/middleware"
)

// New builds the full HTTP handler with all routes and middleware.
//
// Route table:
//
//	POST   /api/v1/scan       → list files below a root
//	POST   /api/v1/stats      → per-file statistics
//	GET    /api/v1/file       → decoded file content
//	POST   /api/v1/search     → search files
//	GET    /api/v1/history    → recent searches
//	GET    /health/live       → liveness (unauthenticated)
//	GET    /health/ready      → readiness (unauthenticated)
//
// CORS is only installed when cfg.AllowOrigins is non-empty. Auth is a
// pass-through unless cfg.AuthToken or cfg.JWTSecret is set.
func New(h *handler.Handler, checker *health.Checker, m *metrics.Metrics, cfg config.ServerConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	h.Register(mux)

	var chain http.Handler = mux
	if cfg.WriteTimeout > 0 {
		chain = middleware.Timeout(cfg.WriteTimeout)(chain)
	}
	if cfg.MaxBodyBytes > 0 {
		chain = middleware.MaxBody(cfg.MaxBodyBytes)(chain)
	}
	chain = middleware.Auth(middleware.AuthConfig{Token: cfg.AuthToken, JWTSecret: []byte(cfg.JWTSecret)})(chain)
	if len(cfg.AllowOrigins) > 0 {
		chain = middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowOrigins))(chain)
	}
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.RequestID(chain)

	return chain
}
