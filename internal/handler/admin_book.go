package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-management/internal/database"
	"github.com/iliyamo/library-management/internal/repository"
)

// CreateBook handles POST /v1/books.  The book row and its shelf's
// current_books counter are written in one transaction so a full shelf
// rejects the insert atomically.
func (h *AdminHandler) CreateBook(c echo.Context) error {
	var body struct {
		ISBN    string `json:"isbn" validate:"required,min=10,max=17"`
		Title   string `json:"title" validate:"required,min=1,max=255"`
		Author  string `json:"author" validate:"required,min=1,max=255"`
		Genre   string `json:"genre" validate:"required,min=1,max=64"`
		RackID  uint64 `json:"rack_id" validate:"required,min=1"`
		ShelfID uint64 `json:"shelf_id" validate:"required,min=1"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.ISBN = strings.TrimSpace(body.ISBN)
	body.Title = strings.TrimSpace(body.Title)
	body.Author = strings.TrimSpace(body.Author)
	body.Genre = strings.TrimSpace(body.Genre)
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "isbn, title, author, genre, rack_id and shelf_id are required"})
	}

	// The shelf must belong to the given rack before anything is written.
	shelf, err := h.Shelves.GetByID(c.Request().Context(), body.ShelfID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "shelf not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if shelf.RackID != body.RackID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "shelf does not belong to rack"})
	}

	var bookID uint64
	err = database.WithTx(c.Request().Context(), h.DB, func(tx *sql.Tx) error {
		if err := h.Shelves.IncrementBooksTx(c.Request().Context(), tx, body.ShelfID); err != nil {
			return err
		}
		id, err := h.Books.CreateTx(c.Request().Context(), tx, body.ISBN, body.Title, body.Author, body.Genre, body.RackID, body.ShelfID)
		if err != nil {
			return err
		}
		bookID = id
		return nil
	})
	if err != nil {
		switch err {
		case repository.ErrShelfFull:
			return c.JSON(http.StatusConflict, echo.Map{"error": "shelf is full"})
		case repository.ErrISBNExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "isbn already exists"})
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "shelf not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create book"})
	}
	book, err := h.Books.GetByID(c.Request().Context(), bookID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusCreated, book)
}

// UpdateBook handles PUT /v1/books/:id and updates catalogue fields.
// Moving a book between shelves is not supported through this
// endpoint; delete and recreate to relocate.
func (h *AdminHandler) UpdateBook(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Title  string `json:"title"`
		Author string `json:"author"`
		Genre  string `json:"genre"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	current, err := h.Books.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		title = current.Title
	}
	author := strings.TrimSpace(body.Author)
	if author == "" {
		author = current.Author
	}
	genre := strings.TrimSpace(body.Genre)
	if genre == "" {
		genre = current.Genre
	}
	if err := h.Books.Update(c.Request().Context(), id, title, author, genre); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	updated, _ := h.Books.GetByID(c.Request().Context(), id)
	return c.JSON(http.StatusOK, updated)
}

// DeleteBook handles DELETE /v1/books/:id.  Issued books cannot be
// deleted; the shelf counter is decremented in the same transaction.
func (h *AdminHandler) DeleteBook(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	book, err := h.Books.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	err = database.WithTx(c.Request().Context(), h.DB, func(tx *sql.Tx) error {
		if err := h.Books.DeleteTx(c.Request().Context(), tx, id); err != nil {
			return err
		}
		return h.Shelves.DecrementBooksTx(c.Request().Context(), tx, book.ShelfID)
	})
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "book is currently issued"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
