package handler

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-management/internal/config"
	"github.com/iliyamo/library-management/internal/model"
	"github.com/iliyamo/library-management/internal/queue"
	"github.com/iliyamo/library-management/internal/repository"
	queuepub "github.com/iliyamo/library-management/internal/service"
)

// LoanHandler implements the circulation desk operations: issuing a
// book to a member and taking it back.  Both run their writes inside a
// single DB transaction so the book row and its loan record move in
// lockstep.
type LoanHandler struct {
	DB    *sql.DB
	Cfg   config.Config
	Books *repository.BookRepo
	Users *repository.UserRepo
	Txns  *repository.TransactionRepo
	Fines *repository.FineRepo
}

func NewLoanHandler(db *sql.DB, cfg config.Config, books *repository.BookRepo, users *repository.UserRepo, txns *repository.TransactionRepo, fines *repository.FineRepo) *LoanHandler {
	if db == nil || books == nil || users == nil || txns == nil || fines == nil {
		panic("nil dependency passed to NewLoanHandler")
	}
	return &LoanHandler{DB: db, Cfg: cfg, Books: books, Users: users, Txns: txns, Fines: fines}
}

// parseDueDate accepts RFC3339 or a bare calendar date.  Bare dates
// are taken as end of day UTC so "due today" still counts as valid.
func parseDueDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(24*time.Hour - time.Second).UTC(), nil
}

// overdueDays returns the whole days a loan is past due, floored.
// Less than a full day late counts as zero.
func overdueDays(now, due time.Time) int {
	d := int(now.Sub(due.UTC()) / (24 * time.Hour))
	if d < 0 {
		return 0
	}
	return d
}

// Issue handles POST /v1/loans/issue.  It flips the book to issued and
// opens a Transaction with a denormalized book snapshot, atomically.
func (h *LoanHandler) Issue(c echo.Context) error {
	var body struct {
		BookID  uint64 `json:"book_id" validate:"required,min=1"`
		UserID  uint64 `json:"user_id" validate:"required,min=1"`
		DueDate string `json:"due_date" validate:"required"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "book_id, user_id and due_date are required"})
	}
	now := time.Now().UTC()
	due, err := parseDueDate(body.DueDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "due_date must be RFC3339 or YYYY-MM-DD"})
	}
	if !due.After(now) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "due_date must be in the future"})
	}

	ctx := c.Request().Context()
	book, err := h.Books.GetByID(ctx, body.BookID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !book.IsAvailable {
		return c.JSON(http.StatusConflict, echo.Map{"error": "book is already issued"})
	}
	user, err := h.Users.GetByID(ctx, body.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !user.IsActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "user account is disabled"})
	}

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// The availability guard inside MarkIssuedTx loses a concurrent
	// issue race cleanly instead of double-issuing.
	if err := h.Books.MarkIssuedTx(ctx, tx, book.ID, user.ID, now, due); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "book is already issued"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue failed"})
	}
	txnID, err := h.Txns.CreateTx(ctx, tx, book, user.ID, now, due)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	go publishEvent(queue.CirculationEvent{
		Type:          queue.EventLoanIssued,
		TransactionID: txnID,
		BookID:        book.ID,
		BookTitle:     book.Title,
		BookISBN:      book.ISBN,
		UserID:        user.ID,
		DueDate:       due.Format(time.RFC3339),
		OccurredAt:    now.Format(time.RFC3339),
	})

	txn, err := h.Txns.GetByID(ctx, txnID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"transaction": txn})
}

// Return handles POST /v1/loans/return.  Checks run in a fixed order
// so clients get the most specific error first; the writes then commit
// as one unit.  An overdue return materializes a pending fine through
// the same path the batch sweep uses.
func (h *LoanHandler) Return(c echo.Context) error {
	var body struct {
		BookID uint64 `json:"book_id" validate:"required,min=1"`
		UserID uint64 `json:"user_id" validate:"required,min=1"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "book_id and user_id are required"})
	}

	ctx := c.Request().Context()
	book, err := h.Books.GetByID(ctx, body.BookID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if book.IssuedTo == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "book is not issued"})
	}
	if _, err := h.Users.GetByID(ctx, body.UserID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if *book.IssuedTo != body.UserID {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "book is issued to a different user",
			"issued_to": *book.IssuedTo,
		})
	}

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	txn, err := h.Txns.GetOpenByBookAndUserTx(ctx, tx, body.BookID, body.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no open loan for this book and user"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	// An unsettled fine blocks the return; the member clears it at the
	// desk first.
	if pending, err := h.Fines.GetPendingByTransactionTx(ctx, tx, txn.ID); err == nil {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":        "pending fine must be settled before return",
			"fine_id":      pending.ID,
			"fine_amount":  pending.FineAmount,
			"days_overdue": pending.DaysOverdue,
		})
	} else if err != sql.ErrNoRows {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	now := time.Now().UTC()
	days := overdueDays(now, txn.DueDate)

	// Whole days only: a return under 24h past due floors to zero,
	// closes as returned and records no fine, the same positive-days
	// rule the sweep applies.
	status := model.TxnStatusReturned
	var daysPtr *int
	var amountPtr *float64
	var fineID uint64
	var fineAmount float64
	if days > 0 {
		status = model.TxnStatusOverdue
		fineAmount = float64(days) * h.Cfg.FineRatePerDay
		daysPtr = &days
		amountPtr = &fineAmount
	}

	if err := h.Books.MarkReturnedTx(ctx, tx, book.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "return failed"})
	}
	if err := h.Txns.CloseTx(ctx, tx, txn.ID, now, status, daysPtr, amountPtr); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "return failed"})
	}
	if days > 0 {
		user, err := h.Users.GetByIDTx(ctx, tx, body.UserID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "return failed"})
		}
		fineID, err = h.Fines.CreateTx(ctx, tx, txn.ID, user.ID, user.FullName, txn.BookTitle, txn.BookISBN, days, fineAmount, h.Cfg.FineRatePerDay)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "return failed"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	go publishEvent(queue.CirculationEvent{
		Type:          queue.EventLoanReturned,
		TransactionID: txn.ID,
		BookID:        book.ID,
		BookTitle:     txn.BookTitle,
		BookISBN:      txn.BookISBN,
		UserID:        body.UserID,
		ReturnedAt:    now.Format(time.RFC3339),
		DaysOverdue:   days,
		OccurredAt:    now.Format(time.RFC3339),
	})
	if fineID != 0 {
		go publishEvent(queue.CirculationEvent{
			Type:          queue.EventFineCreated,
			TransactionID: txn.ID,
			BookID:        book.ID,
			BookTitle:     txn.BookTitle,
			BookISBN:      txn.BookISBN,
			UserID:        body.UserID,
			DaysOverdue:   days,
			FineID:        fineID,
			FineAmount:    fineAmount,
			OccurredAt:    now.Format(time.RFC3339),
		})
	}

	resp := echo.Map{
		"transaction_id": txn.ID,
		"status":         status,
		"returned_at":    now,
	}
	if days > 0 {
		resp["days_overdue"] = days
		resp["fine_amount"] = fineAmount
		resp["fine_id"] = fineID
		resp["message"] = fmt.Sprintf("returned %d day(s) late; fine of %.2f created", days, fineAmount)
	}
	return c.JSON(http.StatusOK, resp)
}

// publishEvent pushes a circulation event to the broker.  Failures are
// logged and swallowed; circulation never waits on the queue.
func publishEvent(ev queue.CirculationEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := queuepub.PublishCirculationEvent(ctx, ev); err != nil {
		log.Printf("publish %s event failed: %v", ev.Type, err)
	}
}
