package router

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-management/internal/handler"
	"github.com/iliyamo/library-management/internal/middleware"
)

// RegisterScan registers the kiosk-facing scan relay endpoints.  They
// authenticate with X-API-Key instead of JWT because the scanning
// hardware has no user session.
func RegisterScan(e *echo.Echo, s *handler.ScanHandler, verify func(ctx context.Context, raw string) (bool, error)) {
	g := e.Group("/v1/scan", middleware.APIKeyAuth(verify))
	g.POST("", s.Post)
	g.GET("", s.Get)
}
