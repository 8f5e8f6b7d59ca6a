package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-management/internal/scan"
)

func scanRequest(t *testing.T, h *ScanHandler, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, "/", nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var err error
	if method == http.MethodPost {
		err = h.Post(c)
	} else {
		err = h.Get(c)
	}
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestScanPostThenGet(t *testing.T) {
	h := NewScanHandler(scan.NewMailbox(30 * time.Second))

	rec := scanRequest(t, h, http.MethodPost, `{"value":"978-0134190440"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("post status = %d, want 201", rec.Code)
	}

	rec = scanRequest(t, h, http.MethodGet, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "978-0134190440") {
		t.Fatalf("body %q missing scanned value", rec.Body.String())
	}

	// Consumed on read: the second poll comes back empty.
	rec = scanRequest(t, h, http.MethodGet, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second get status = %d, want 404", rec.Code)
	}
}

func TestScanPostRequiresValue(t *testing.T) {
	h := NewScanHandler(scan.NewMailbox(30 * time.Second))
	rec := scanRequest(t, h, http.MethodPost, `{"value":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
