package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/library-management/internal/model"
)

// BookRepo provides CRUD operations for books plus the loan-state
// mutations used by issue and return. Loan-state changes always run
// inside the caller's transaction so the book row and its transaction
// row move in lockstep.
type BookRepo struct{ DB *sql.DB }

func NewBookRepo(db *sql.DB) *BookRepo { return &BookRepo{DB: db} }

var ErrISBNExists = errors.New("isbn already exists")

const bookCols = "id, isbn, title, author, genre, rack_id, shelf_id, is_available, issued_to, issued_date, return_date, created_at, updated_at"

func scanBook(scan func(dest ...interface{}) error) (model.Book, error) {
	var b model.Book
	var issuedTo sql.NullInt64
	var issuedDate, returnDate sql.NullTime
	err := scan(&b.ID, &b.ISBN, &b.Title, &b.Author, &b.Genre, &b.RackID, &b.ShelfID,
		&b.IsAvailable, &issuedTo, &issuedDate, &returnDate, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return b, err
	}
	if issuedTo.Valid {
		v := uint64(issuedTo.Int64)
		b.IssuedTo = &v
	}
	if issuedDate.Valid {
		t := issuedDate.Time
		b.IssuedDate = &t
	}
	if returnDate.Valid {
		t := returnDate.Time
		b.ReturnDate = &t
	}
	return b, nil
}

// CreateTx inserts a book within an existing transaction and returns
// its ID. The caller pairs it with ShelfRepo.IncrementBooksTx so the
// shelf counter and the book row commit together. Duplicate ISBN is
// reported as ErrISBNExists.
func (r *BookRepo) CreateTx(ctx context.Context, tx *sql.Tx, isbn, title, author, genre string, rackID, shelfID uint64) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO books (isbn, title, author, genre, rack_id, shelf_id, is_available) VALUES (?,?,?,?,?,?,1)",
		isbn, title, author, genre, rackID, shelfID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrISBNExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a book by id.
func (r *BookRepo) GetByID(ctx context.Context, id uint64) (model.Book, error) {
	row := r.DB.QueryRowContext(ctx, "SELECT "+bookCols+" FROM books WHERE id=? LIMIT 1", id)
	return scanBook(row.Scan)
}

// GetByIDTx fetches a book by id within an existing transaction.
func (r *BookRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Book, error) {
	row := tx.QueryRowContext(ctx, "SELECT "+bookCols+" FROM books WHERE id=? LIMIT 1", id)
	return scanBook(row.Scan)
}

// BookFilter collects the optional list filters for the catalogue.
type BookFilter struct {
	Genre     string
	Author    string
	Available *bool
	Search    string // substring over title/author/isbn
	Page      int
	PerPage   int
}

// List returns catalogue books matching the filter ordered by title,
// plus the total match count for paging.
func (r *BookRepo) List(ctx context.Context, f BookFilter) ([]model.Book, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 100 {
		f.PerPage = 20
	}
	conds := []string{}
	args := []interface{}{}
	if f.Genre != "" {
		conds = append(conds, "genre = ?")
		args = append(args, f.Genre)
	}
	if f.Author != "" {
		conds = append(conds, "author = ?")
		args = append(args, f.Author)
	}
	if f.Available != nil {
		conds = append(conds, "is_available = ?")
		args = append(args, *f.Available)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		conds = append(conds, "(title LIKE ? OR author LIKE ? OR isbn LIKE ?)")
		like := "%" + s + "%"
		args = append(args, like, like, like)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM books"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q := "SELECT " + bookCols + " FROM books" + where + " ORDER BY title LIMIT ? OFFSET ?"
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	books := make([]model.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		books = append(books, b)
	}
	return books, total, rows.Err()
}

// Update changes the catalogue fields of a book. Placement moves
// (rack/shelf) go through the shelf counters and are handled by the
// handler inside a transaction; this method covers the simple fields.
func (r *BookRepo) Update(ctx context.Context, id uint64, title, author, genre string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE books SET title=?, author=?, genre=? WHERE id=?", title, author, genre, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM books WHERE id=?", id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return sql.ErrNoRows
		}
	}
	return nil
}

// DeleteTx removes a book within an existing transaction. Issued books
// cannot be deleted; that surfaces as ErrConflict. The caller pairs it
// with ShelfRepo.DecrementBooksTx.
func (r *BookRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		"DELETE FROM books WHERE id=? AND issued_to IS NULL", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM books WHERE id=?", id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return sql.ErrNoRows
		}
		return ErrConflict
	}
	return nil
}

// MarkIssuedTx flips a book to issued within a transaction. The guard
// on is_available means a concurrent issue for the same book loses the
// race and sees ErrConflict instead of double-issuing.
func (r *BookRepo) MarkIssuedTx(ctx context.Context, tx *sql.Tx, bookID, userID uint64, issuedAt, dueDate time.Time) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE books SET is_available=0, issued_to=?, issued_date=?, return_date=? WHERE id=? AND is_available=1",
		userID, issuedAt, dueDate, bookID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// MarkReturnedTx resets the loan columns of a book within a
// transaction, making it available again.
func (r *BookRepo) MarkReturnedTx(ctx context.Context, tx *sql.Tx, bookID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE books SET is_available=1, issued_to=NULL, issued_date=NULL, return_date=NULL WHERE id=?",
		bookID)
	return err
}
