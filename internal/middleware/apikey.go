package middleware

// apikey.go gates the scan relay endpoints. Kiosk hardware (barcode and
// RFID readers) cannot hold a user session, so those endpoints
// authenticate with a static key sent in the X-API-Key header and
// checked against the stored key hashes.

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// APIKeyAuth returns a middleware that validates the X-API-Key header.
// The verify callback receives the raw header value and reports whether
// it corresponds to an active key; it is a callback so the middleware
// can be tested without a database.
func APIKeyAuth(verify func(ctx context.Context, raw string) (bool, error)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimSpace(c.Request().Header.Get("X-API-Key"))
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing api key"})
			}
			ok, err := verify(c.Request().Context(), raw)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "key verification failed"})
			}
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid api key"})
			}
			return next(c)
		}
	}
}
