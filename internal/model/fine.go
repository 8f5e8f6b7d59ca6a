package model

import "time"

// Fine statuses.  A fine starts "pending" and moves exactly once to
// "paid" or "waived"; afterwards it is immutable.
const (
	FineStatusPending = "pending"
	FineStatusPaid    = "paid"
	FineStatusWaived  = "waived"
)

// Fine is a ledger entry for an overdue penalty, stored in the
// `fines` table.  It references the transaction it originated from
// and carries denormalized user/book snapshots so the ledger remains
// readable after catalogue or account changes.  At most one pending
// fine may exist per transaction; returns are blocked while one is
// outstanding.
//
// Fields:
//  ID            – primary key identifier.
//  TransactionID – loan record this fine originates from.
//  UserID        – user who owes the fine.
//  UserName      – full-name snapshot of the user.
//  BookTitle     – title snapshot of the book.
//  BookISBN      – ISBN snapshot of the book.
//  DaysOverdue   – whole days past due when the fine was created.
//  FineAmount    – DaysOverdue × FinePerDay.
//  FinePerDay    – per-day rate in effect when the fine was created.
//  Status        – pending | paid | waived.
//  CreatedAt     – when the fine was materialized.
//  PaidAt        – when it was paid (nullable).
//  WaivedAt      – when it was waived (nullable).
//  WaivedBy      – admin who waived it (nullable).
//  Notes         – free-text audit trail appended on pay/waive.
type Fine struct {
	ID            uint64     // fines.id
	TransactionID uint64     // fines.transaction_id
	UserID        uint64     // fines.user_id
	UserName      string     // fines.user_name
	BookTitle     string     // fines.book_title
	BookISBN      string     // fines.book_isbn
	DaysOverdue   int        // fines.days_overdue
	FineAmount    float64    // fines.fine_amount
	FinePerDay    float64    // fines.fine_per_day
	Status        string     // fines.status
	CreatedAt     time.Time  // fines.created_at
	PaidAt        *time.Time // fines.paid_at (nullable)
	WaivedAt      *time.Time // fines.waived_at (nullable)
	WaivedBy      *uint64    // fines.waived_by (nullable)
	Notes         string     // fines.notes
}
