package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-management/internal/config"
	"github.com/iliyamo/library-management/internal/model"
	"github.com/iliyamo/library-management/internal/repository"
)

// OverdueHandler serves the overdue read endpoints.  Everything here
// is computed on the fly; listing overdue loans never writes status or
// fine rows (only the sweep and the return path do that).
type OverdueHandler struct {
	Cfg   config.Config
	Txns  *repository.TransactionRepo
	Fines *repository.FineRepo
}

func NewOverdueHandler(cfg config.Config, txns *repository.TransactionRepo, fines *repository.FineRepo) *OverdueHandler {
	if txns == nil || fines == nil {
		panic("nil repository passed to NewOverdueHandler")
	}
	return &OverdueHandler{Cfg: cfg, Txns: txns, Fines: fines}
}

// fineView is the JSON shape for fine rows.
type fineView struct {
	ID            uint64     `json:"id"`
	TransactionID uint64     `json:"transaction_id"`
	UserID        uint64     `json:"user_id"`
	UserName      string     `json:"user_name"`
	BookTitle     string     `json:"book_title"`
	BookISBN      string     `json:"book_isbn"`
	DaysOverdue   int        `json:"days_overdue"`
	FineAmount    float64    `json:"fine_amount"`
	FinePerDay    float64    `json:"fine_per_day"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	WaivedAt      *time.Time `json:"waived_at,omitempty"`
	WaivedBy      *uint64    `json:"waived_by,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

func fineToView(f model.Fine) fineView {
	return fineView{
		ID: f.ID, TransactionID: f.TransactionID, UserID: f.UserID,
		UserName: f.UserName, BookTitle: f.BookTitle, BookISBN: f.BookISBN,
		DaysOverdue: f.DaysOverdue, FineAmount: f.FineAmount, FinePerDay: f.FinePerDay,
		Status: f.Status, CreatedAt: f.CreatedAt,
		PaidAt: f.PaidAt, WaivedAt: f.WaivedAt, WaivedBy: f.WaivedBy, Notes: f.Notes,
	}
}

// overdueItem augments an overdue loan with days and the fine the
// configured rate implies; the implied amount is display-only.
type overdueItem struct {
	TransactionID uint64    `json:"transaction_id"`
	BookID        uint64    `json:"book_id"`
	BookTitle     string    `json:"book_title"`
	BookAuthor    string    `json:"book_author"`
	BookISBN      string    `json:"book_isbn"`
	UserID        uint64    `json:"user_id"`
	IssuedDate    time.Time `json:"issued_date"`
	DueDate       time.Time `json:"due_date"`
	Status        string    `json:"status"`
	DaysOverdue   int       `json:"days_overdue"`
	ImpliedFine   float64   `json:"implied_fine"`
}

// Books handles GET /v1/overdue/books (ADMIN).
func (h *OverdueHandler) Books(c echo.Context) error {
	now := time.Now().UTC()
	txns, err := h.Txns.ListOverdue(c.Request().Context(), now)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items := make([]overdueItem, 0, len(txns))
	for _, t := range txns {
		days := overdueDays(now, t.DueDate)
		items = append(items, overdueItem{
			TransactionID: t.ID,
			BookID:        t.BookID,
			BookTitle:     t.BookTitle,
			BookAuthor:    t.BookAuthor,
			BookISBN:      t.BookISBN,
			UserID:        t.UserID,
			IssuedDate:    t.IssuedDate,
			DueDate:       t.DueDate,
			Status:        t.Status,
			DaysOverdue:   days,
			ImpliedFine:   float64(days) * h.Cfg.FineRatePerDay,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": len(items)})
}

// ListFines handles GET /v1/overdue/fines.  Admins see every fine and
// may filter by user; members only ever see their own.
func (h *OverdueHandler) ListFines(c echo.Context) error {
	status := strings.ToLower(strings.TrimSpace(c.QueryParam("status_filter")))
	switch status {
	case "", model.FineStatusPending, model.FineStatusPaid, model.FineStatusWaived:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status_filter must be pending, paid or waived"})
	}
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 20)

	var userID uint64
	if role, _ := c.Get("role").(string); role != model.RoleAdmin {
		uid, err := getUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		userID = uid
	} else if s := c.QueryParam("user_id"); s != "" {
		userID = uint64(queryInt(c, "user_id", 0))
	}

	fines, total, err := h.Fines.List(c.Request().Context(), status, userID, page, perPage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items := make([]fineView, 0, len(fines))
	for _, f := range fines {
		items = append(items, fineToView(f))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total, "page": page, "per_page": perPage})
}

// Summary handles GET /v1/overdue/summary (ADMIN).  Fine totals come
// from the ledger; overdue loans without a fine row contribute an
// implied amount at the configured rate, shown but never persisted.
func (h *OverdueHandler) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	now := time.Now().UTC()

	totals, err := h.Fines.TotalsByStatus(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	byStatus := echo.Map{}
	for _, t := range totals {
		byStatus[t.Status] = echo.Map{"count": t.Count, "amount": t.Amount}
	}

	txns, err := h.Txns.ListOverdue(ctx, now)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	impliedCount := 0
	impliedAmount := 0.0
	for _, t := range txns {
		days := overdueDays(now, t.DueDate)
		if days <= 0 {
			continue
		}
		impliedCount++
		impliedAmount += float64(days) * h.Cfg.FineRatePerDay
	}

	return c.JSON(http.StatusOK, echo.Map{
		"overdue_books":     len(txns),
		"fines_by_status":   byStatus,
		"implied_count":     impliedCount,
		"implied_amount":    impliedAmount,
		"fine_rate_per_day": h.Cfg.FineRatePerDay,
	})
}

// MyFines handles GET /v1/my/fines (MEMBER).
func (h *OverdueHandler) MyFines(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 20)
	fines, total, err := h.Fines.List(c.Request().Context(), "", uid, page, perPage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	items := make([]fineView, 0, len(fines))
	for _, f := range fines {
		items = append(items, fineToView(f))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total, "page": page, "per_page": perPage})
}

// MyLoans handles GET /v1/my/loans (MEMBER): the member's own loan
// history, newest first.
func (h *OverdueHandler) MyLoans(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 20)
	txns, total, err := h.Txns.ListByUser(c.Request().Context(), uid, page, perPage)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": txns, "total": total, "page": page, "per_page": perPage})
}
