package model

import "time"

// Loan transaction statuses.  A transaction is "current" from issue
// until return, "returned" when handed back on time, and "overdue"
// when it passed its due date (set either at return time or by the
// fine sweep).  Transactions are never deleted.
const (
	TxnStatusCurrent  = "current"
	TxnStatusReturned = "returned"
	TxnStatusOverdue  = "overdue"
)

// Transaction records a single loan from issue to return, as stored
// in the `transactions` table.  Book title/author/ISBN are
// denormalized at issue time so the history survives catalogue edits.
// At most one transaction per book is open (status current or
// overdue with a NULL return date) at any time; it mirrors the
// book's issued_to/issued_date/return_date columns.
//
// Fields:
//  ID          – primary key identifier.
//  BookID      – book that was issued.
//  UserID      – borrower.
//  BookTitle   – title snapshot captured at issue time.
//  BookAuthor  – author snapshot captured at issue time.
//  BookISBN    – ISBN snapshot captured at issue time.
//  IssuedDate  – when the loan started.
//  DueDate     – caller-supplied due date.
//  ReturnDate  – when the book came back (null while open).
//  Status      – current | returned | overdue.
//  DaysOverdue – whole days past due (null when not overdue).
//  FineAmount  – days overdue × per-day rate (null when not overdue).
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type Transaction struct {
	ID          uint64     // transactions.id
	BookID      uint64     // transactions.book_id
	UserID      uint64     // transactions.user_id
	BookTitle   string     // transactions.book_title
	BookAuthor  string     // transactions.book_author
	BookISBN    string     // transactions.book_isbn
	IssuedDate  time.Time  // transactions.issued_date
	DueDate     time.Time  // transactions.due_date
	ReturnDate  *time.Time // transactions.return_date (nullable)
	Status      string     // transactions.status
	DaysOverdue *int       // transactions.days_overdue (nullable)
	FineAmount  *float64   // transactions.fine_amount (nullable)
	CreatedAt   time.Time  // transactions.created_at
	UpdatedAt   time.Time  // transactions.updated_at
}
