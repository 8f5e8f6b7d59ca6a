package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/library-management/internal/model"
	"github.com/iliyamo/library-management/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")
var ErrUSNExists = errors.New("usn already exists")

const userCols = "id,email,usn,full_name,password_hash,role,is_active,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.USN, &u.FullName, &u.PasswordHash,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a user and returns its ID. Duplicate email or USN is
// reported via the corresponding sentinel so handlers can return 409.
func (r *UserRepo) Create(ctx context.Context, email, usn, fullName, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	usn = strings.ToUpper(strings.TrimSpace(usn))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, usn, full_name, password_hash, role) VALUES (?,?,?,?,?)",
		email, usn, fullName, hash, role)
	if err != nil {
		low := strings.ToLower(err.Error())
		if strings.Contains(low, "1062") {
			if strings.Contains(low, "usn") {
				return 0, ErrUSNExists
			}
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByIDTx fetches a user by id within an existing transaction.
func (r *UserRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.User, error) {
	var u model.User
	err := tx.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id).
		Scan(&u.ID, &u.Email, &u.USN, &u.FullName, &u.PasswordHash,
			&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// ExistsTx reports whether a user row exists, within a transaction. The
// fine sweep uses it to skip transactions whose borrower was deleted.
func (r *UserRepo) ExistsTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
	var n int
	err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM users WHERE id=?", id).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns users ordered by id with optional substring search over
// email, USN and full name, plus the total row count for paging.
func (r *UserRepo) List(ctx context.Context, search string, page, perPage int) ([]model.User, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	where := ""
	args := []interface{}{}
	if s := strings.TrimSpace(search); s != "" {
		where = " WHERE email LIKE ? OR usn LIKE ? OR full_name LIKE ?"
		like := "%" + s + "%"
		args = append(args, like, like, like)
	}
	var total int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM users"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q := "SELECT " + userCols + " FROM users" + where + " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, perPage, (page-1)*perPage)
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.USN, &u.FullName, &u.PasswordHash,
			&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// Update modifies the mutable profile fields of a user. It returns
// sql.ErrNoRows when the user does not exist.
func (r *UserRepo) Update(ctx context.Context, id uint64, fullName, role string, isActive bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET full_name=?, role=?, is_active=? WHERE id=?",
		fullName, role, isActive, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing row from a no-op update.
		var exists int
		if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM users WHERE id=?", id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return sql.ErrNoRows
		}
	}
	return nil
}

// Delete removes a user. Users with an open loan cannot be deleted;
// that case surfaces as ErrConflict.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	var open int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM transactions WHERE user_id=? AND return_date IS NULL AND status IN ('current','overdue')",
		id).Scan(&open)
	if err != nil {
		return err
	}
	if open > 0 {
		return ErrConflict
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
