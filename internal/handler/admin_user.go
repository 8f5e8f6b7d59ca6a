package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-management/internal/config"
	"github.com/iliyamo/library-management/internal/model"
	"github.com/iliyamo/library-management/internal/repository"
)

// AdminHandler bundles the repositories admins use to manage users and
// the physical catalogue (racks, shelves, books).  All routes mounted
// on it sit behind JWT auth plus the ADMIN role.
type AdminHandler struct {
	DB      *sql.DB
	Cfg     config.Config
	Users   *repository.UserRepo
	Racks   *repository.RackRepo
	Shelves *repository.ShelfRepo
	Books   *repository.BookRepo
}

// NewAdminHandler constructs an AdminHandler and panics if any dependency is nil.
func NewAdminHandler(db *sql.DB, cfg config.Config, users *repository.UserRepo, racks *repository.RackRepo, shelves *repository.ShelfRepo, books *repository.BookRepo) *AdminHandler {
	if db == nil || users == nil || racks == nil || shelves == nil || books == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{DB: db, Cfg: cfg, Users: users, Racks: racks, Shelves: shelves, Books: books}
}

// userView is the sanitized user shape returned by the admin user CRUD.
type userView struct {
	ID       uint64 `json:"id"`
	Email    string `json:"email"`
	USN      string `json:"usn"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

func toUserView(u model.User) userView {
	return userView{ID: u.ID, Email: u.Email, USN: u.USN, FullName: u.FullName, Role: u.Role, IsActive: u.IsActive}
}

// CreateUser handles POST /v1/users.  Unlike self-registration this
// endpoint may create ADMIN accounts.
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var body struct {
		Email    string `json:"email" validate:"required,email"`
		USN      string `json:"usn" validate:"required,min=3,max=32"`
		FullName string `json:"full_name" validate:"required,min=2,max=120"`
		Password string `json:"password" validate:"required,min=8"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	body.USN = strings.ToUpper(strings.TrimSpace(body.USN))
	body.FullName = strings.TrimSpace(body.FullName)
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, usn, full_name and password (min 8) are required"})
	}
	role := strings.ToUpper(strings.TrimSpace(body.Role))
	if role != model.RoleAdmin && role != model.RoleMember {
		role = model.RoleMember
	}

	id, err := h.Users.Create(c.Request().Context(), body.Email, body.USN, body.FullName, body.Password, role, h.Cfg.BcryptCost)
	if err != nil {
		switch err {
		case repository.ErrEmailExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		case repository.ErrUSNExists:
			return c.JSON(http.StatusConflict, echo.Map{"error": "usn already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create user"})
	}
	u, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusCreated, toUserView(u))
}

// GetUser handles GET /v1/users/:id.
func (h *AdminHandler) GetUser(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	u, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toUserView(u))
}

// ListUsers handles GET /v1/users with optional ?search, ?page, ?per_page.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 20)
	users, total, err := h.Users.List(c.Request().Context(), c.QueryParam("search"), page, perPage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items := make([]userView, 0, len(users))
	for _, u := range users {
		items = append(items, toUserView(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total, "page": page, "per_page": perPage})
}

// UpdateUser handles PUT /v1/users/:id and updates profile fields.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		FullName string `json:"full_name"`
		Role     string `json:"role"`
		IsActive *bool  `json:"is_active"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	current, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	fullName := strings.TrimSpace(body.FullName)
	if fullName == "" {
		fullName = current.FullName
	}
	role := strings.ToUpper(strings.TrimSpace(body.Role))
	if role == "" {
		role = current.Role
	}
	if role != model.RoleAdmin && role != model.RoleMember {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be ADMIN or MEMBER"})
	}
	isActive := current.IsActive
	if body.IsActive != nil {
		isActive = *body.IsActive
	}
	if err := h.Users.Update(c.Request().Context(), id, fullName, role, isActive); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	updated, err := h.Users.GetByID(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toUserView(updated))
}

// DeleteUser handles DELETE /v1/users/:id.  Users with an open loan
// cannot be deleted.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Users.Delete(c.Request().Context(), id); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "user has books issued"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
