package handler

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-management/internal/model"
	"github.com/iliyamo/library-management/internal/repository"
	"github.com/iliyamo/library-management/internal/utils"
)

// APIKeyHandler manages the static keys kiosk hardware uses on the
// scan endpoints.  Only the SHA-256 hash of a key is stored; the raw
// key appears exactly once, in the create response.
type APIKeyHandler struct {
	Keys *repository.APIKeyRepo
}

func NewAPIKeyHandler(keys *repository.APIKeyRepo) *APIKeyHandler {
	if keys == nil {
		panic("nil repository passed to NewAPIKeyHandler")
	}
	return &APIKeyHandler{Keys: keys}
}

type apiKeyView struct {
	ID        uint64     `json:"id"`
	Name      string     `json:"name"`
	CreatedBy uint64     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

func toAPIKeyView(k model.APIKey) apiKeyView {
	return apiKeyView{ID: k.ID, Name: k.Name, CreatedBy: k.CreatedBy, CreatedAt: k.CreatedAt, RevokedAt: k.RevokedAt}
}

// Create handles POST /v1/apikeys.
func (h *APIKeyHandler) Create(c echo.Context) error {
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	raw := "lib_" + uuid.NewString()
	id, err := h.Keys.Create(c.Request().Context(), name, utils.HashAPIKey(raw), adminID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create api key"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":   id,
		"name": name,
		"key":  raw, // shown once; store it now
	})
}

// List handles GET /v1/apikeys.  Hashes are never returned.
func (h *APIKeyHandler) List(c echo.Context) error {
	keys, err := h.Keys.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items := make([]apiKeyView, 0, len(keys))
	for _, k := range keys {
		items = append(items, toAPIKeyView(k))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Revoke handles DELETE /v1/apikeys/:id.
func (h *APIKeyHandler) Revoke(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Keys.Revoke(c.Request().Context(), id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "api key not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
