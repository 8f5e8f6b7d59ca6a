package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

// newFineCtx builds an echo context for PUT /v1/fines/:id/<op> with an
// admin user already injected, the way the JWT middleware would.
func newFineCtx(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	c.Set("user_id", uint64(7))
	c.Set("role", "ADMIN")
	return c, rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	return out["error"]
}

func TestWaiveReasonValidation(t *testing.T) {
	h := &FineHandler{} // validation rejects before any repository access

	cases := []struct {
		name string
		body string
	}{
		{"missing reason", `{}`},
		{"too short", `{"reason":"meh"}`},
		{"whitespace only", `{"reason":"        "}`},
		{"too long", `{"reason":"` + strings.Repeat("x", 501) + `"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newFineCtx(t, tc.body)
			if err := h.Waive(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if msg := decodeError(t, rec); !strings.Contains(msg, "reason") {
				t.Fatalf("error %q does not mention the reason", msg)
			}
		})
	}
}

func TestWaiveNotesTooLong(t *testing.T) {
	h := &FineHandler{}
	c, rec := newFineCtx(t, `{"reason":"damaged in transit","notes":"`+strings.Repeat("n", 1001)+`"}`)
	if err := h.Waive(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPayMethodValidation(t *testing.T) {
	h := &FineHandler{}
	c, rec := newFineCtx(t, `{"payment_method":"cheque"}`)
	if err := h.Pay(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if msg := decodeError(t, rec); !strings.Contains(msg, "payment_method") {
		t.Fatalf("unexpected error %q", msg)
	}
}

func TestCalculateRateValidation(t *testing.T) {
	h := &FineHandler{}
	for _, body := range []string{`{}`, `{"fine_per_day":0}`, `{"fine_per_day":-2}`} {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		if err := h.Calculate(e.NewContext(req, rec)); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}
