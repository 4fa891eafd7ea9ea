// Package health serves the keep-alive HTTP endpoint.
package health

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avelar/vidvault/internal/store"
)

// StartOpts holds configuration for the health server.
type StartOpts struct {
	Store *store.Store
	Port  int
	Out   io.Writer
}

// Start launches the health HTTP server. It blocks until ctx is
// cancelled, then shuts down gracefully. GET / and GET /health both
// answer with uptime and library totals, so external uptime monitors
// can hit either.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Store == nil {
		return fmt.Errorf("health: store is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	started := time.Now()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	handler := func(c *gin.Context) {
		videos, err := opts.Store.CountVideos(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"error":  "store unavailable",
			})
			return
		}
		users, err := opts.Store.CountUsers(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"error":  "store unavailable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(started).Round(time.Second).String(),
			"videos": videos,
			"users":  users,
		})
	}
	router.GET("/", handler)
	router.GET("/health", handler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Health endpoint at http://localhost:%d/health\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("health: %w", err)
	}
	return nil
}
