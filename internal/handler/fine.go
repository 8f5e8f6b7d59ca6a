package handler

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-management/internal/config"
	"github.com/iliyamo/library-management/internal/database"
	"github.com/iliyamo/library-management/internal/model"
	"github.com/iliyamo/library-management/internal/queue"
	"github.com/iliyamo/library-management/internal/repository"
)

// FineHandler covers the fine ledger: the batch sweep that detects
// overdue loans, and the pay/waive settlements.
type FineHandler struct {
	DB    *sql.DB
	Cfg   config.Config
	Fines *repository.FineRepo
	Txns  *repository.TransactionRepo
	Users *repository.UserRepo
}

func NewFineHandler(db *sql.DB, cfg config.Config, fines *repository.FineRepo, txns *repository.TransactionRepo, users *repository.UserRepo) *FineHandler {
	if db == nil || fines == nil || txns == nil || users == nil {
		panic("nil dependency passed to NewFineHandler")
	}
	return &FineHandler{DB: db, Cfg: cfg, Fines: fines, Txns: txns, Users: users}
}

// paymentMethods accepted by Pay; matching is case-insensitive.
var paymentMethods = map[string]bool{"cash": true, "card": true, "upi": true}

// Calculate handles POST /v1/fines/calculate.  One transaction sweeps
// every loan past its due date that has no fine row yet, stamps the
// overdue fields and inserts a pending fine.  The no-existing-fine
// guard in the candidate query makes rerunning the sweep a no-op for
// already-processed loans.
func (h *FineHandler) Calculate(c echo.Context) error {
	var body struct {
		FinePerDay float64 `json:"fine_per_day"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.FinePerDay <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fine_per_day must be greater than zero"})
	}

	ctx := c.Request().Context()
	now := time.Now().UTC()
	created, updated, skipped := 0, 0, 0
	var events []queue.CirculationEvent

	err := database.WithTx(ctx, h.DB, func(tx *sql.Tx) error {
		candidates, err := h.Txns.ListSweepCandidatesTx(ctx, tx, now)
		if err != nil {
			return err
		}
		for _, txn := range candidates {
			days := overdueDays(now, txn.DueDate)
			if days <= 0 {
				skipped++
				continue
			}
			user, err := h.Users.GetByIDTx(ctx, tx, txn.UserID)
			if err != nil {
				if err == sql.ErrNoRows {
					// Borrower deleted after the loan; nothing to fine.
					log.Printf("fine sweep: skipping transaction %d, user %d no longer exists", txn.ID, txn.UserID)
					skipped++
					continue
				}
				return err
			}
			amount := float64(days) * body.FinePerDay
			if err := h.Txns.MarkOverdueTx(ctx, tx, txn.ID, days, amount); err != nil {
				return err
			}
			updated++
			fineID, err := h.Fines.CreateTx(ctx, tx, txn.ID, user.ID, user.FullName, txn.BookTitle, txn.BookISBN, days, amount, body.FinePerDay)
			if err != nil {
				return err
			}
			created++
			events = append(events, queue.CirculationEvent{
				Type:          queue.EventFineCreated,
				TransactionID: txn.ID,
				BookID:        txn.BookID,
				BookTitle:     txn.BookTitle,
				BookISBN:      txn.BookISBN,
				UserID:        user.ID,
				DaysOverdue:   days,
				FineID:        fineID,
				FineAmount:    amount,
				OccurredAt:    now.Format(time.RFC3339),
			})
		}
		return nil
	})
	if err != nil {
		log.Printf("fine sweep failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fine sweep failed"})
	}

	// Events go out only after the batch committed.
	for _, ev := range events {
		go publishEvent(ev)
	}
	log.Printf("fine sweep: created=%d updated=%d skipped=%d", created, updated, skipped)
	return c.JSON(http.StatusOK, echo.Map{"created": created, "updated": updated, "skipped": skipped})
}

// Pay handles PUT /v1/fines/:id/pay.  It settles a pending fine and
// flips the loan it came from back to current when it is flagged
// overdue, whether or not the book has come back yet.
func (h *FineHandler) Pay(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		PaymentMethod string `json:"payment_method"`
		Notes         string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	method := strings.ToLower(strings.TrimSpace(body.PaymentMethod))
	if method == "" {
		method = "cash"
	}
	if !paymentMethods[method] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_method must be cash, card or upi"})
	}
	notes := strings.TrimSpace(body.Notes)
	if len(notes) > 1000 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "notes must be at most 1000 characters"})
	}
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx := c.Request().Context()
	fine, err := h.Fines.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "fine not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if fine.Status != model.FineStatusPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "fine is already " + fine.Status})
	}

	now := time.Now().UTC()
	audit := fmt.Sprintf("paid at %s by admin %d via %s", now.Format(time.RFC3339), adminID, method)
	if notes != "" {
		audit += "; " + notes
	}
	err = database.WithTx(ctx, h.DB, func(tx *sql.Tx) error {
		if err := h.Fines.MarkPaidTx(ctx, tx, id, now, audit); err != nil {
			return err
		}
		txn, err := h.Txns.GetByIDTx(ctx, tx, fine.TransactionID)
		if err != nil {
			return err
		}
		if txn.Status == model.TxnStatusOverdue {
			return h.Txns.SetStatusTx(ctx, tx, txn.ID, model.TxnStatusCurrent)
		}
		return nil
	})
	if err != nil {
		if err == repository.ErrNotPending {
			return c.JSON(http.StatusConflict, echo.Map{"error": "fine is no longer pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment failed"})
	}
	paid, err := h.Fines.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"fine": fineToView(paid)})
}

// Waive handles PUT /v1/fines/:id/waive.  A reason of 5 to 500
// characters is required before anything touches the store; waiving
// flips an overdue loan back to current the same way paying does.
func (h *FineHandler) Waive(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Reason string `json:"reason"`
		Notes  string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	reason := strings.TrimSpace(body.Reason)
	if len(reason) < 5 || len(reason) > 500 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reason must be between 5 and 500 characters"})
	}
	notes := strings.TrimSpace(body.Notes)
	if len(notes) > 1000 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "notes must be at most 1000 characters"})
	}
	adminID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx := c.Request().Context()
	fine, err := h.Fines.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "fine not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if fine.Status != model.FineStatusPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "fine is already " + fine.Status})
	}

	now := time.Now().UTC()
	audit := fmt.Sprintf("waived at %s by admin %d; reason: %s", now.Format(time.RFC3339), adminID, reason)
	if notes != "" {
		audit += "; " + notes
	}
	err = database.WithTx(ctx, h.DB, func(tx *sql.Tx) error {
		if err := h.Fines.MarkWaivedTx(ctx, tx, id, now, adminID, audit); err != nil {
			return err
		}
		txn, err := h.Txns.GetByIDTx(ctx, tx, fine.TransactionID)
		if err != nil {
			return err
		}
		if txn.Status == model.TxnStatusOverdue {
			return h.Txns.SetStatusTx(ctx, tx, txn.ID, model.TxnStatusCurrent)
		}
		return nil
	})
	if err != nil {
		if err == repository.ErrNotPending {
			return c.JSON(http.StatusConflict, echo.Map{"error": "fine is no longer pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "waive failed"})
	}
	waived, err := h.Fines.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"fine": fineToView(waived)})
}
