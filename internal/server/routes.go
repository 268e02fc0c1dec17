package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// responseHeaders marks every payload as JSON and keeps proxies from
// caching amounts that change on every settlement.
func responseHeaders(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Response().Header()
		h.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		h.Set("Cache-Control", "no-store")
		return next(c)
	}
}

func rateLimit(perSecond rate.Limit, burst int) echo.MiddlewareFunc {
	return middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      perSecond,
		Burst:     burst,
		ExpiresIn: 2 * time.Minute,
	}))
}

// RegisterRoutes attaches the whole API surface. Quote reads stay
// unmetered; settlement routes and the AI endpoint sit behind
// per-client rate limiters.
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg Config) {
	e.HTTPErrorHandler = errorHandler
	e.Use(responseHeaders)

	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)

	pool := v1.Group("/pool")
	pool.GET("", h.PoolSnapshot)                   // Reserves, supply and invariant
	pool.GET("/states", h.PoolStates)              // Persisted invariant snapshots
	pool.GET("/deposit-amounts", h.DepositAmounts) // Quote both deposit legs
	pool.GET("/swap-data", h.SwapData)             // Quote a swap
	pool.GET("/convert", h.Convert)                // Price one asset in the other
	v1.GET("/accounts/:address", h.Account)        // Holder pool share
	v1.GET("/events/recent", h.RecentEvents)       // Recent pool events

	// Settlements
	pool.Use(rateLimit(5, 10))
	pool.POST("/deposit", h.Deposit)
	pool.POST("/withdraw", h.Withdraw)
	pool.POST("/swap", h.Swap)
	pool.DELETE("/states", h.PoolStateDelete)

	aigroup := v1.Group("/ai")
	aigroup.Use(rateLimit(0.2, 2))
	aigroup.POST("/ask", h.AIAsk)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
