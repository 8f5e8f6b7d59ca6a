package handler

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-management/internal/model"
	"github.com/iliyamo/library-management/internal/repository"
)

// PublicHandler exposes the read-only catalogue endpoints.  No JWT or
// role middleware applies; guests can browse racks, shelves and books
// before signing up.
type PublicHandler struct {
	Racks   *repository.RackRepo
	Shelves *repository.ShelfRepo
	Books   *repository.BookRepo
}

func NewPublicHandler(racks *repository.RackRepo, shelves *repository.ShelfRepo, books *repository.BookRepo) *PublicHandler {
	if racks == nil || shelves == nil || books == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Racks: racks, Shelves: shelves, Books: books}
}

// bookView hides the borrower's identity from unauthenticated readers;
// only availability is exposed.
type bookView struct {
	ID          uint64 `json:"id"`
	ISBN        string `json:"isbn"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       string `json:"genre"`
	RackID      uint64 `json:"rack_id"`
	ShelfID     uint64 `json:"shelf_id"`
	IsAvailable bool   `json:"is_available"`
}

func toBookView(b model.Book) bookView {
	return bookView{
		ID: b.ID, ISBN: b.ISBN, Title: b.Title, Author: b.Author, Genre: b.Genre,
		RackID: b.RackID, ShelfID: b.ShelfID, IsAvailable: b.IsAvailable,
	}
}

// ListRacks handles GET /v1/racks.
func (h *PublicHandler) ListRacks(c echo.Context) error {
	items, err := h.Racks.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListShelvesByRack handles GET /v1/racks/:id/shelves.
func (h *PublicHandler) ListShelvesByRack(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.Racks.GetByID(c.Request().Context(), id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "rack not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items, err := h.Shelves.ListByRack(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListBooks handles GET /v1/books with optional filters:
// ?genre, ?author, ?available=true|false, ?search, ?page, ?per_page.
func (h *PublicHandler) ListBooks(c echo.Context) error {
	filter := repository.BookFilter{
		Genre:   strings.TrimSpace(c.QueryParam("genre")),
		Author:  strings.TrimSpace(c.QueryParam("author")),
		Search:  c.QueryParam("search"),
		Page:    queryInt(c, "page", 1),
		PerPage: queryInt(c, "per_page", 20),
	}
	if s := c.QueryParam("available"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "available must be true or false"})
		}
		filter.Available = &v
	}
	books, total, err := h.Books.List(c.Request().Context(), filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items := make([]bookView, 0, len(books))
	for _, b := range books {
		items = append(items, toBookView(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total, "page": filter.Page, "per_page": filter.PerPage})
}

// GetBook handles GET /v1/books/:id.
func (h *PublicHandler) GetBook(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	b, err := h.Books.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toBookView(b))
}
