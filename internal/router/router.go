package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/library-management/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/library-management/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/library-management/internal/model"      // import role constants
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; refresh-access issues a new
	// access token without rotating.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a refresh_token body or a bearer token and
	// therefore lives outside the JWT middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleAdmin, model.RoleMember))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated catalogue browse
// endpoints.  Guests can inspect racks, shelves and the book catalogue
// without a session.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler) {
	e.GET("/v1/racks", p.ListRacks)
	e.GET("/v1/racks/:id/shelves", p.ListShelvesByRack)
	e.GET("/v1/books", p.ListBooks)
	e.GET("/v1/books/:id", p.GetBook)
}
