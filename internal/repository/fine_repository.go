package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/library-management/internal/model"
)

// FineRepo persists the fine ledger. Fines are created exclusively
// through CreateTx (used by both the sweep and the return path),
// settled exactly once via MarkPaidTx or MarkWaivedTx, and never
// deleted.
type FineRepo struct{ DB *sql.DB }

func NewFineRepo(db *sql.DB) *FineRepo { return &FineRepo{DB: db} }

const fineCols = "id, transaction_id, user_id, user_name, book_title, book_isbn, days_overdue, fine_amount, fine_per_day, status, created_at, paid_at, waived_at, waived_by, notes"

func scanFine(scan func(dest ...interface{}) error) (model.Fine, error) {
	var f model.Fine
	var paidAt, waivedAt sql.NullTime
	var waivedBy sql.NullInt64
	var notes sql.NullString
	err := scan(&f.ID, &f.TransactionID, &f.UserID, &f.UserName, &f.BookTitle, &f.BookISBN,
		&f.DaysOverdue, &f.FineAmount, &f.FinePerDay, &f.Status, &f.CreatedAt,
		&paidAt, &waivedAt, &waivedBy, &notes)
	if err != nil {
		return f, err
	}
	if paidAt.Valid {
		t := paidAt.Time
		f.PaidAt = &t
	}
	if waivedAt.Valid {
		t := waivedAt.Time
		f.WaivedAt = &t
	}
	if waivedBy.Valid {
		v := uint64(waivedBy.Int64)
		f.WaivedBy = &v
	}
	if notes.Valid {
		f.Notes = notes.String
	}
	return f, nil
}

// CreateTx inserts a pending fine within an existing transaction and
// returns its ID. This is the single creation path for fines; both the
// batch sweep and return-time overdue detection go through it.
func (r *FineRepo) CreateTx(ctx context.Context, tx *sql.Tx, txnID, userID uint64, userName, bookTitle, bookISBN string, daysOverdue int, fineAmount, finePerDay float64) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO fines (transaction_id, user_id, user_name, book_title, book_isbn, days_overdue, fine_amount, fine_per_day, status)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		txnID, userID, userName, bookTitle, bookISBN, daysOverdue, fineAmount, finePerDay, model.FineStatusPending)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a fine by id.
func (r *FineRepo) GetByID(ctx context.Context, id uint64) (model.Fine, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+fineCols+" FROM fines WHERE id=? LIMIT 1", id)
	return scanFine(row.Scan)
}

// GetPendingByTransactionTx returns the pending fine of a loan within
// a transaction, or sql.ErrNoRows when none is outstanding. The return
// handler uses it to block returns while a fine is unsettled.
func (r *FineRepo) GetPendingByTransactionTx(ctx context.Context, tx *sql.Tx, txnID uint64) (model.Fine, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+fineCols+" FROM fines WHERE transaction_id=? AND status=? LIMIT 1",
		txnID, model.FineStatusPending)
	return scanFine(row.Scan)
}

// MarkPaidTx settles a pending fine as paid within a transaction. The
// status guard makes settling idempotence-safe: a non-pending fine is
// left untouched and surfaces as ErrNotPending.
func (r *FineRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, id uint64, paidAt time.Time, notes string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE fines SET status=?, paid_at=?, notes=? WHERE id=? AND status=?",
		model.FineStatusPaid, paidAt, notes, id, model.FineStatusPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotPending
	}
	return nil
}

// MarkWaivedTx settles a pending fine as waived within a transaction,
// recording the waiving admin. Same status guard as MarkPaidTx.
func (r *FineRepo) MarkWaivedTx(ctx context.Context, tx *sql.Tx, id uint64, waivedAt time.Time, adminID uint64, notes string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE fines SET status=?, waived_at=?, waived_by=?, notes=? WHERE id=? AND status=?",
		model.FineStatusWaived, waivedAt, adminID, notes, id, model.FineStatusPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotPending
	}
	return nil
}

// List returns fines filtered by status and/or user, newest first,
// plus the total match count for paging. Zero userID means all users.
func (r *FineRepo) List(ctx context.Context, status string, userID uint64, page, perPage int) ([]model.Fine, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	conds := []string{}
	args := []interface{}{}
	if status != "" {
		conds = append(conds, "status = ?")
		args = append(args, status)
	}
	if userID != 0 {
		conds = append(conds, "user_id = ?")
		args = append(args, userID)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM fines"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q := "SELECT " + fineCols + " FROM fines" + where + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, perPage, (page-1)*perPage)
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	fines := make([]model.Fine, 0)
	for rows.Next() {
		f, err := scanFine(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		fines = append(fines, f)
	}
	return fines, total, rows.Err()
}

// StatusTotal aggregates fine count and amount per status for the
// overdue summary and circulation report.
type StatusTotal struct {
	Status string  `json:"status"`
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// TotalsByStatus returns count and summed amount per fine status.
func (r *FineRepo) TotalsByStatus(ctx context.Context) ([]StatusTotal, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT status, COUNT(1), COALESCE(SUM(fine_amount),0) FROM fines GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]StatusTotal, 0, 3)
	for rows.Next() {
		var s StatusTotal
		if err := rows.Scan(&s.Status, &s.Count, &s.Amount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
