package handler

import (
	"database/sql"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/library-management/internal/config"
	"github.com/iliyamo/library-management/internal/model"
	"github.com/iliyamo/library-management/internal/repository"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var fineColumns = []string{
	"id", "transaction_id", "user_id", "user_name", "book_title", "book_isbn",
	"days_overdue", "fine_amount", "fine_per_day", "status", "created_at",
	"paid_at", "waived_at", "waived_by", "notes",
}

var txnColumns = []string{
	"id", "book_id", "user_id", "book_title", "book_author", "book_isbn",
	"issued_date", "due_date", "return_date", "status", "days_overdue",
	"fine_amount", "created_at", "updated_at",
}

func pendingFineRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(fineColumns).AddRow(
		uint64(1), uint64(10), uint64(2), "Jane Doe", "The Go Programming Language", "978-0134190440",
		5, 25.0, 5.0, model.FineStatusPending, now, nil, nil, nil, nil)
}

func settledFineRow(now time.Time, status string) *sqlmock.Rows {
	return sqlmock.NewRows(fineColumns).AddRow(
		uint64(1), uint64(10), uint64(2), "Jane Doe", "The Go Programming Language", "978-0134190440",
		5, 25.0, 5.0, status, now, now, nil, nil, "settled at the desk")
}

// returnedOverdueTxnRow is a loan whose book already came back late:
// return_date is set and the status stayed overdue pending settlement.
func returnedOverdueTxnRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(txnColumns).AddRow(
		uint64(10), uint64(3), uint64(2), "The Go Programming Language", "Donovan", "978-0134190440",
		now.Add(-40*24*time.Hour), now.Add(-35*24*time.Hour), now, model.TxnStatusOverdue,
		5, 25.0, now.Add(-40*24*time.Hour), now)
}

func newSettlementHandler(db *sql.DB) *FineHandler {
	return NewFineHandler(db, config.Config{FineRatePerDay: 5},
		repository.NewFineRepo(db), repository.NewTransactionRepo(db), repository.NewUserRepo(db))
}

// Paying the fine of a loan that was already returned late must still
// flip the loan's status from overdue back to current.
func TestPayFlipsReturnedOverdueLoan(t *testing.T) {
	db, mock := newMockDB(t)
	h := newSettlementHandler(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM fines WHERE id=?")).
		WillReturnRows(pendingFineRow(now))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE fines SET status=?, paid_at=?, notes=? WHERE id=? AND status=?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions WHERE id=?")).
		WillReturnRows(returnedOverdueTxnRow(now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions SET status=? WHERE id=?")).
		WithArgs(model.TxnStatusCurrent, uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta("FROM fines WHERE id=?")).
		WillReturnRows(settledFineRow(now, model.FineStatusPaid))

	c, rec := newFineCtx(t, `{"payment_method":"cash"}`)
	if err := h.Pay(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), model.FineStatusPaid) {
		t.Fatalf("body %q does not show the paid fine", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// Waiving settles the same way paying does, including the status flip.
func TestWaiveFlipsReturnedOverdueLoan(t *testing.T) {
	db, mock := newMockDB(t)
	h := newSettlementHandler(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM fines WHERE id=?")).
		WillReturnRows(pendingFineRow(now))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE fines SET status=?, waived_at=?, waived_by=?, notes=? WHERE id=? AND status=?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions WHERE id=?")).
		WillReturnRows(returnedOverdueTxnRow(now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions SET status=? WHERE id=?")).
		WithArgs(model.TxnStatusCurrent, uint64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta("FROM fines WHERE id=?")).
		WillReturnRows(settledFineRow(now, model.FineStatusWaived))

	c, rec := newFineCtx(t, `{"reason":"book damaged before issue"}`)
	if err := h.Waive(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// A fine on a loan that is no longer overdue settles without touching
// the transaction row.
func TestPayLeavesNonOverdueLoanAlone(t *testing.T) {
	db, mock := newMockDB(t)
	h := newSettlementHandler(db)
	now := time.Now().UTC()

	returnedTxn := sqlmock.NewRows(txnColumns).AddRow(
		uint64(10), uint64(3), uint64(2), "The Go Programming Language", "Donovan", "978-0134190440",
		now.Add(-40*24*time.Hour), now.Add(-35*24*time.Hour), now, model.TxnStatusReturned,
		5, 25.0, now.Add(-40*24*time.Hour), now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM fines WHERE id=?")).
		WillReturnRows(pendingFineRow(now))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE fines SET status=?, paid_at=?, notes=? WHERE id=? AND status=?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions WHERE id=?")).
		WillReturnRows(returnedTxn)
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta("FROM fines WHERE id=?")).
		WillReturnRows(settledFineRow(now, model.FineStatusPaid))

	c, rec := newFineCtx(t, `{"payment_method":"card"}`)
	if err := h.Pay(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
