package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-management/internal/repository"
)

// CreateShelf handles POST /v1/shelves.  The rack must exist and the
// capacity must be at least one.
func (h *AdminHandler) CreateShelf(c echo.Context) error {
	var body struct {
		RackID   uint64 `json:"rack_id" validate:"required,min=1"`
		Label    string `json:"label" validate:"required,min=1,max=64"`
		Capacity uint32 `json:"capacity" validate:"required,min=1"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Label = strings.TrimSpace(body.Label)
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rack_id, label and capacity (>= 1) are required"})
	}
	id, err := h.Shelves.Create(c.Request().Context(), body.RackID, body.Label, body.Capacity)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "rack not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create shelf"})
	}
	shelf, err := h.Shelves.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusCreated, shelf)
}

// UpdateShelf handles PUT /v1/shelves/:id.  Capacity may not be
// lowered below the number of books currently on the shelf.
func (h *AdminHandler) UpdateShelf(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Label    string `json:"label"`
		Capacity uint32 `json:"capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	label := strings.TrimSpace(body.Label)
	if label == "" || body.Capacity < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "label and capacity (>= 1) are required"})
	}
	if err := h.Shelves.UpdateCapacity(c.Request().Context(), id, label, body.Capacity); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "shelf not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "capacity below current book count"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	updated, _ := h.Shelves.GetByID(c.Request().Context(), id)
	return c.JSON(http.StatusOK, updated)
}

// DeleteShelf handles DELETE /v1/shelves/:id.  Only empty shelves can
// be removed.
func (h *AdminHandler) DeleteShelf(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Shelves.Delete(c.Request().Context(), id); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "shelf not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "shelf still holds books"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
