package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/library-management/internal/model"
)

// TransactionRepo persists loan records. Transactions are append-only
// apart from the close/overdue mutations; they are never deleted so
// the circulation history stays complete.
type TransactionRepo struct{ DB *sql.DB }

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{DB: db} }

const txnCols = "id, book_id, user_id, book_title, book_author, book_isbn, issued_date, due_date, return_date, status, days_overdue, fine_amount, created_at, updated_at"

func scanTxn(scan func(dest ...interface{}) error) (model.Transaction, error) {
	var t model.Transaction
	var returnDate sql.NullTime
	var days sql.NullInt64
	var amount sql.NullFloat64
	err := scan(&t.ID, &t.BookID, &t.UserID, &t.BookTitle, &t.BookAuthor, &t.BookISBN,
		&t.IssuedDate, &t.DueDate, &returnDate, &t.Status, &days, &amount,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	if returnDate.Valid {
		v := returnDate.Time
		t.ReturnDate = &v
	}
	if days.Valid {
		v := int(days.Int64)
		t.DaysOverdue = &v
	}
	if amount.Valid {
		v := amount.Float64
		t.FineAmount = &v
	}
	return t, nil
}

// CreateTx inserts a new loan record with status "current" within an
// existing transaction and returns its ID. Book title/author/ISBN are
// denormalized from the book row at issue time.
func (r *TransactionRepo) CreateTx(ctx context.Context, tx *sql.Tx, book model.Book, userID uint64, issuedAt, dueDate time.Time) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (book_id, user_id, book_title, book_author, book_isbn, issued_date, due_date, status)
		 VALUES (?,?,?,?,?,?,?,?)`,
		book.ID, userID, book.Title, book.Author, book.ISBN, issuedAt, dueDate, model.TxnStatusCurrent)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a loan record by id.
func (r *TransactionRepo) GetByID(ctx context.Context, id uint64) (model.Transaction, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+txnCols+" FROM transactions WHERE id=? LIMIT 1", id)
	return scanTxn(row.Scan)
}

// GetByIDTx fetches a loan record by id within an existing transaction.
func (r *TransactionRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Transaction, error) {
	row := tx.QueryRowContext(ctx, "SELECT "+txnCols+" FROM transactions WHERE id=? LIMIT 1", id)
	return scanTxn(row.Scan)
}

// GetOpenByBookAndUserTx returns the open loan for (book, user) within
// a transaction. A loan is open while its return_date is NULL and its
// status is current or overdue ("issued" is accepted for rows migrated
// from the legacy schema). Missing rows surface as sql.ErrNoRows.
func (r *TransactionRepo) GetOpenByBookAndUserTx(ctx context.Context, tx *sql.Tx, bookID, userID uint64) (model.Transaction, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+txnCols+` FROM transactions
		 WHERE book_id=? AND user_id=? AND return_date IS NULL AND status IN ('current','overdue','issued')
		 ORDER BY id DESC LIMIT 1`,
		bookID, userID)
	return scanTxn(row.Scan)
}

// CloseTx finalizes a loan within a transaction: sets the return date
// and status, and records the overdue fields (or NULLs them when the
// return was on time).
func (r *TransactionRepo) CloseTx(ctx context.Context, tx *sql.Tx, id uint64, returnedAt time.Time, status string, daysOverdue *int, fineAmount *float64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE transactions SET return_date=?, status=?, days_overdue=?, fine_amount=? WHERE id=?",
		returnedAt, status, daysOverdue, fineAmount, id)
	return err
}

// MarkOverdueTx stamps the overdue fields on a loan within a
// transaction. Used by the fine sweep.
func (r *TransactionRepo) MarkOverdueTx(ctx context.Context, tx *sql.Tx, id uint64, daysOverdue int, fineAmount float64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE transactions SET status=?, days_overdue=?, fine_amount=? WHERE id=?",
		model.TxnStatusOverdue, daysOverdue, fineAmount, id)
	return err
}

// SetStatusTx updates only the status column within a transaction.
// Paying or waiving a fine uses it to flip an overdue loan back to
// current.
func (r *TransactionRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE transactions SET status=? WHERE id=?", status, id)
	return err
}

// ListSweepCandidatesTx returns every loan past its due date with
// status current or overdue that has no fine row of any status yet.
// The no-existing-fine guard is what makes the sweep idempotent.
func (r *TransactionRepo) ListSweepCandidatesTx(ctx context.Context, tx *sql.Tx, now time.Time) ([]model.Transaction, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT "+txnCols+` FROM transactions t
		 WHERE t.status IN ('current','overdue') AND t.due_date < ?
		   AND NOT EXISTS (SELECT 1 FROM fines f WHERE f.transaction_id = t.id)
		 ORDER BY t.id`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	txns := make([]model.Transaction, 0)
	for rows.Next() {
		t, err := scanTxn(rows.Scan)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// ListOverdue returns loans that are currently overdue for the read
// endpoints: status current or overdue, past due, and without a paid
// fine. Nothing is written; days and implied fines are computed by
// the caller.
func (r *TransactionRepo) ListOverdue(ctx context.Context, now time.Time) ([]model.Transaction, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+txnCols+` FROM transactions t
		 WHERE t.status IN ('current','overdue') AND t.due_date < ?
		   AND NOT EXISTS (SELECT 1 FROM fines f WHERE f.transaction_id = t.id AND f.status = 'paid')
		 ORDER BY t.due_date`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	txns := make([]model.Transaction, 0)
	for rows.Next() {
		t, err := scanTxn(rows.Scan)
		if err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// HasFineTx reports whether any fine row exists for a loan, within a
// transaction.
func (r *TransactionRepo) HasFineTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM fines WHERE transaction_id=?", id).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByUser returns a user's loan history, newest first.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID uint64, page, perPage int) ([]model.Transaction, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM transactions WHERE user_id=?", userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+txnCols+" FROM transactions WHERE user_id=? ORDER BY issued_date DESC LIMIT ? OFFSET ?",
		userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	txns := make([]model.Transaction, 0)
	for rows.Next() {
		t, err := scanTxn(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		txns = append(txns, t)
	}
	return txns, total, rows.Err()
}

// CountByStatus aggregates transaction counts per status for the
// circulation report.
func (r *TransactionRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT status, COUNT(1) FROM transactions GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// TopGenres returns the most issued genres (by joined book rows) for
// the circulation report, highest first.
func (r *TransactionRepo) TopGenres(ctx context.Context, limit int) ([]GenreCount, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT b.genre, COUNT(1) AS cnt
		 FROM transactions t JOIN books b ON b.id = t.book_id
		 GROUP BY b.genre ORDER BY cnt DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]GenreCount, 0, limit)
	for rows.Next() {
		var g GenreCount
		if err := rows.Scan(&g.Genre, &g.Count); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GenreCount pairs a genre with the number of loans issued for it.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}
