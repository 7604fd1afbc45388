package httpserver

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"techzone-storefront/internal/logging"
)

// pinger is the readiness dependency; *pgxpool.Pool satisfies it.
type pinger interface {
	Ping(ctx context.Context) error
}

type readiness struct {
	db       pinger
	draining atomic.Bool
}

// Server is the storefront HTTP server. WriteTimeout stays unset because
// /cart/stream holds connections open.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	ready      *readiness
}

func New(addr string, logger *zap.Logger, db *pgxpool.Pool, deps Deps) (*Server, error) {
	logger = logging.OrNop(logger)
	ready := &readiness{}
	if db != nil {
		ready.db = db
	}
	router, err := buildRouter(logger, ready, deps)
	if err != nil {
		return nil, err
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		logger: logger,
		ready:  ready,
	}, nil
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown flips /readyz to draining before closing listeners.
func (s *Server) Shutdown(ctx context.Context) error {
	s.ready.draining.Store(true)
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func readyHandler(ready *readiness) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch {
		case ready == nil || ready.db == nil:
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "db not configured"})
			return
		case ready.draining.Load():
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "draining"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := ready.db.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "db not reachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
