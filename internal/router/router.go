// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/sports-match-booking/internal/config"
	"github.com/iliyamo/sports-match-booking/internal/handler"
	"github.com/iliyamo/sports-match-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication endpoints. Unauthenticated
// operations live under /v1/auth; /v1/me requires a valid token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	auth := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("MANAGER", "PLAYER"),
	)
	auth.GET("/me", a.Me)
}

// RegisterMatch registers the match lifecycle endpoints under /v1.
// Every route requires a valid JWT; both roles may book. The read
// endpoints get the Redis response cache and token-bucket rate limit
// when a Redis client is available; rdb may be nil, in which case the
// middlewares pass requests straight through.
func RegisterMatch(e *echo.Echo, m *handler.MatchHandler, jwtSecret string, rdb *redis.Client) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("MANAGER", "PLAYER"),
	)

	g.POST("/matches", m.Create)
	g.DELETE("/matches/:id", m.Delete)
	g.GET("/my-match", m.MyMatch)

	cached := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limited := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	g.GET("/matches", m.List, limited, cached)
}

// RegisterStadium registers stadium endpoints under /v1. Registration
// is restricted to managers; browsing is open to both roles.
func RegisterStadium(e *echo.Echo, s *handler.StadiumHandler, jwtSecret string, rdb *redis.Client) {
	mgr := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("MANAGER"),
	)
	mgr.POST("/stadiums", s.Create)

	all := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("MANAGER", "PLAYER"),
	)
	cached := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limited := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	all.GET("/stadiums", s.List, limited, cached)
}
