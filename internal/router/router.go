package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/score-leaderboard/internal/handler"
	"github.com/iliyamo/score-leaderboard/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication and
// are not part of the game API.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the credential routes.  /register and /login go
// through limit, the rate limiter; /me requires a bearer token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, tokens middleware.TokenVerifier, limit echo.MiddlewareFunc) {
	e.POST("/register", a.Register, limit)
	e.POST("/login", a.Login, limit)
	e.GET("/me", a.Me, middleware.JWTAuth(tokens))
}

// RegisterScores registers score submission and the public leaderboard.
func RegisterScores(e *echo.Echo, s *handler.ScoreHandler, tokens middleware.TokenVerifier) {
	e.GET("/leaderboard", s.Leaderboard)

	g := e.Group("/scores", middleware.JWTAuth(tokens))
	g.POST("", s.SubmitScore)
	g.GET("/me", s.BestScore)
}
