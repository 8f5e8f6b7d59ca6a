package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-management/internal/handler"    // admin handlers
	"github.com/iliyamo/library-management/internal/middleware" // JWT + role middlewares
	"github.com/iliyamo/library-management/internal/model"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1.
// All routes require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, l *handler.LoanHandler, f *handler.FineHandler, o *handler.OverdueHandler, k *handler.APIKeyHandler, r *handler.ReportHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Users ----
	g.POST("/users", a.CreateUser)
	g.GET("/users", a.ListUsers)
	g.GET("/users/:id", a.GetUser)
	g.PUT("/users/:id", a.UpdateUser)
	g.PATCH("/users/:id", a.UpdateUser)
	g.DELETE("/users/:id", a.DeleteUser)

	// ---- Racks ----
	// NOTE: listing racks is handled by the public browse API.
	g.POST("/racks", a.CreateRack)
	g.PUT("/racks/:id", a.UpdateRack)
	g.PATCH("/racks/:id", a.UpdateRack)
	g.DELETE("/racks/:id", a.DeleteRack)

	// ---- Shelves ----
	g.POST("/shelves", a.CreateShelf)
	g.PUT("/shelves/:id", a.UpdateShelf)
	g.PATCH("/shelves/:id", a.UpdateShelf)
	g.DELETE("/shelves/:id", a.DeleteShelf)

	// ---- Books ----
	// NOTE: listing and fetching books is handled by the public browse API.
	g.POST("/books", a.CreateBook)
	g.PUT("/books/:id", a.UpdateBook)
	g.PATCH("/books/:id", a.UpdateBook)
	g.DELETE("/books/:id", a.DeleteBook)

	// ---- Circulation ----
	g.POST("/loans/issue", l.Issue)
	g.POST("/loans/return", l.Return)

	// ---- Fines ----
	g.POST("/fines/calculate", f.Calculate)
	g.PUT("/fines/:id/pay", f.Pay)
	g.PUT("/fines/:id/waive", f.Waive)

	// ---- Overdue reads ----
	g.GET("/overdue/books", o.Books)
	g.GET("/overdue/summary", o.Summary)

	// ---- API keys for the scan relay ----
	g.POST("/apikeys", k.Create)
	g.GET("/apikeys", k.List)
	g.DELETE("/apikeys/:id", k.Revoke)

	// ---- Reports ----
	g.GET("/reports/circulation", r.Circulation)
}
