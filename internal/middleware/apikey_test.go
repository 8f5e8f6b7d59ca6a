package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func callWithKey(t *testing.T, verify func(ctx context.Context, raw string) (bool, error), key string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := APIKeyAuth(verify)(func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestAPIKeyAuthMissingHeader(t *testing.T) {
	rec := callWithKey(t, func(ctx context.Context, raw string) (bool, error) {
		t.Fatal("verify must not run without a key")
		return false, nil
	}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAPIKeyAuthInvalidKey(t *testing.T) {
	rec := callWithKey(t, func(ctx context.Context, raw string) (bool, error) {
		return false, nil
	}, "bogus")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAPIKeyAuthValidKey(t *testing.T) {
	rec := callWithKey(t, func(ctx context.Context, raw string) (bool, error) {
		return raw == "lib_good", nil
	}, "lib_good")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAPIKeyAuthVerifyError(t *testing.T) {
	rec := callWithKey(t, func(ctx context.Context, raw string) (bool, error) {
		return false, errors.New("store down")
	}, "lib_any")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
