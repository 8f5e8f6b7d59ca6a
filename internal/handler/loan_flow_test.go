package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-management/internal/config"
	"github.com/iliyamo/library-management/internal/model"
	"github.com/iliyamo/library-management/internal/repository"
	"github.com/iliyamo/library-management/internal/validation"
)

var bookColumns = []string{
	"id", "isbn", "title", "author", "genre", "rack_id", "shelf_id",
	"is_available", "issued_to", "issued_date", "return_date", "created_at", "updated_at",
}

var userColumns = []string{
	"id", "email", "usn", "full_name", "password_hash", "role", "is_active", "created_at", "updated_at",
}

func issuedBookRow(now time.Time, holder uint64) *sqlmock.Rows {
	return sqlmock.NewRows(bookColumns).AddRow(
		uint64(3), "978-0134190440", "The Go Programming Language", "Donovan", "programming",
		uint64(1), uint64(1), false, holder, now.Add(-40*24*time.Hour), now.Add(-35*24*time.Hour), now, now)
}

func availableBookRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(bookColumns).AddRow(
		uint64(3), "978-0134190440", "The Go Programming Language", "Donovan", "programming",
		uint64(1), uint64(1), true, nil, nil, nil, now, now)
}

func activeUserRow(now time.Time, id uint64) *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).AddRow(
		id, "jane@example.com", "USN001", "Jane Doe", "$2a$04$hash", model.RoleMember, true, now, now)
}

func openOverdueTxnRow(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(txnColumns).AddRow(
		uint64(10), uint64(3), uint64(2), "The Go Programming Language", "Donovan", "978-0134190440",
		now.Add(-40*24*time.Hour), now.Add(-35*24*time.Hour), nil, model.TxnStatusOverdue,
		nil, nil, now.Add(-40*24*time.Hour), now)
}

func newLoanCtx(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = validation.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(7))
	c.Set("role", "ADMIN")
	return c, rec
}

func newLoanHandler(db *sql.DB) *LoanHandler {
	return NewLoanHandler(db, config.Config{FineRatePerDay: 5},
		repository.NewBookRepo(db), repository.NewUserRepo(db),
		repository.NewTransactionRepo(db), repository.NewFineRepo(db))
}

// An unsettled fine on the open loan blocks the return; nothing past
// the fine lookup is written and the transaction rolls back.
func TestReturnBlockedByPendingFine(t *testing.T) {
	db, mock := newMockDB(t)
	h := newLoanHandler(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM books WHERE id=?")).
		WillReturnRows(issuedBookRow(now, 2))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=?")).
		WillReturnRows(activeUserRow(now, 2))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions")).
		WillReturnRows(openOverdueTxnRow(now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM fines WHERE transaction_id=?")).
		WillReturnRows(pendingFineRow(now))
	mock.ExpectRollback()

	c, rec := newLoanCtx(t, `{"book_id":3,"user_id":2}`)
	if err := h.Return(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 (body %s)", rec.Code, rec.Body.String())
	}
	if body := rec.Body.String(); !strings.Contains(body, "fine_id") || !strings.Contains(body, "settled before return") {
		t.Fatalf("body %q does not point at the pending fine", body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// When two issues race for the same book, the loser's guarded update
// matches no row and the request fails with a conflict instead of
// double-issuing.
func TestIssueLosesAvailabilityRace(t *testing.T) {
	db, mock := newMockDB(t)
	h := newLoanHandler(db)
	now := time.Now().UTC()
	due := now.Add(14 * 24 * time.Hour).Format(time.RFC3339)

	mock.ExpectQuery(regexp.QuoteMeta("FROM books WHERE id=?")).
		WillReturnRows(availableBookRow(now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=?")).
		WillReturnRows(activeUserRow(now, 2))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("WHERE id=? AND is_available=1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	c, rec := newLoanCtx(t, `{"book_id":3,"user_id":2,"due_date":"`+due+`"}`)
	if err := h.Issue(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 (body %s)", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
