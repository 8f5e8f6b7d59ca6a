package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-management/internal/scan"
)

// ScanHandler relays scanned barcodes/RFID tags from kiosk hardware to
// the admin UI through the in-process mailbox.  Both endpoints sit
// behind the X-API-Key middleware, not JWT.
type ScanHandler struct {
	Box *scan.Mailbox
}

func NewScanHandler(box *scan.Mailbox) *ScanHandler {
	if box == nil {
		panic("nil mailbox passed to NewScanHandler")
	}
	return &ScanHandler{Box: box}
}

// Post handles POST /v1/scan.  A new scan overwrites whatever is in
// the slot; last write wins.
func (h *ScanHandler) Post(c echo.Context) error {
	var body struct {
		Value string `json:"value"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	value := strings.TrimSpace(body.Value)
	if value == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "value is required"})
	}
	v := h.Box.Put(value)
	return c.JSON(http.StatusCreated, echo.Map{"token": v.Token, "scanned_at": v.ScannedAt})
}

// Get handles GET /v1/scan.  Reading consumes the slot; a second read
// or a read after the TTL returns 404.
func (h *ScanHandler) Get(c echo.Context) error {
	v, ok := h.Box.Consume()
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no scan available"})
	}
	return c.JSON(http.StatusOK, v)
}
