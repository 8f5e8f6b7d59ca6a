package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-management/internal/handler"
	"github.com/iliyamo/library-management/internal/middleware"
	"github.com/iliyamo/library-management/internal/model"
)

// RegisterShared registers endpoints available to both roles.  The
// fines listing filters to the caller's own rows unless the caller is
// an admin.
func RegisterShared(e *echo.Echo, o *handler.OverdueHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleMember),
	)
	g.GET("/overdue/fines", o.ListFines)
}

// RegisterMember registers MEMBER-scoped endpoints under /v1.  Members
// can view their own fines and loan history.
func RegisterMember(e *echo.Echo, o *handler.OverdueHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleMember),
	)
	g.GET("/my/fines", o.MyFines)
	g.GET("/my/loans", o.MyLoans)
}
