package sandbox

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonandersen/chicoin/pkg/portalapi"
	"github.com/rs/zerolog"
)

// DefaultAddr matches the default API URL of the client.
const DefaultAddr = "127.0.0.1:5000"

// NewRouter wires every portal route onto a gin engine.
func NewRouter(store *Store, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	h := NewHandler(store, logger)
	advisorOnly := h.RequireRole(portalapi.RoleAdvisor)
	clientOnly := h.RequireRole(portalapi.RoleClient)
	anyRole := h.RequireRole(portalapi.RoleAdvisor, portalapi.RoleClient)

	r.GET("/health", h.Health)
	r.POST("/login", h.Login)

	r.GET("/clients", advisorOnly, h.ListClients)
	r.POST("/clients", advisorOnly, h.CreateClient)
	r.PUT("/clients/:id/compliance-status", advisorOnly, h.UpdateCompliance)

	r.GET("/products", anyRole, h.ListProducts)
	r.POST("/products", advisorOnly, h.CreateProduct)

	portal := r.Group("/portal", clientOnly)
	portal.GET("/account", h.GetAccount)
	portal.GET("/profile", h.GetProfile)
	portal.GET("/portfolio", h.GetPortfolio)
	portal.POST("/portfolio/simulate", h.SimulatePortfolio)
	portal.POST("/deposit", h.Deposit)
	portal.POST("/withdraw", h.Withdraw)

	r.POST("/orders", clientOnly, h.CreateOrder)

	return r
}

// requestLogger logs one line per request through zerolog.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("sandbox request")
	}
}

// Serve runs the sandbox on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, store *Store, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(store, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("sandbox portal listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info().Msg("sandbox portal shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
