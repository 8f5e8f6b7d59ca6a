package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/library-management/internal/model"
)

// ShelfRepo provides CRUD operations for shelves and maintains the
// current_books counter. The counter is only ever touched through the
// guarded IncrementBooksTx/DecrementBooksTx so that
// 0 <= current_books <= capacity holds under concurrent book
// creation and deletion.
type ShelfRepo struct{ DB *sql.DB }

func NewShelfRepo(db *sql.DB) *ShelfRepo { return &ShelfRepo{DB: db} }

const shelfCols = "id, rack_id, label, capacity, current_books, created_at"

// Create inserts a shelf under a rack and returns its ID. The rack
// must exist; a missing rack surfaces as sql.ErrNoRows.
func (r *ShelfRepo) Create(ctx context.Context, rackID uint64, label string, capacity uint32) (uint64, error) {
	var exists int
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM racks WHERE id=?", rackID).Scan(&exists); err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, sql.ErrNoRows
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO shelves (rack_id, label, capacity, current_books) VALUES (?,?,?,0)",
		rackID, label, capacity)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a shelf by id.
func (r *ShelfRepo) GetByID(ctx context.Context, id uint64) (model.Shelf, error) {
	var s model.Shelf
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+shelfCols+" FROM shelves WHERE id=? LIMIT 1", id).
		Scan(&s.ID, &s.RackID, &s.Label, &s.Capacity, &s.CurrentBooks, &s.CreatedAt)
	return s, err
}

// ListByRack returns all shelves of a rack ordered by label.
func (r *ShelfRepo) ListByRack(ctx context.Context, rackID uint64) ([]model.Shelf, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+shelfCols+" FROM shelves WHERE rack_id=? ORDER BY label", rackID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	shelves := make([]model.Shelf, 0)
	for rows.Next() {
		var s model.Shelf
		if err := rows.Scan(&s.ID, &s.RackID, &s.Label, &s.Capacity, &s.CurrentBooks, &s.CreatedAt); err != nil {
			return nil, err
		}
		shelves = append(shelves, s)
	}
	return shelves, rows.Err()
}

// UpdateCapacity changes a shelf's label and capacity. Capacity may
// not be lowered below the number of books already on the shelf; that
// case surfaces as ErrConflict.
func (r *ShelfRepo) UpdateCapacity(ctx context.Context, id uint64, label string, capacity uint32) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE shelves SET label=?, capacity=? WHERE id=? AND current_books <= ?",
		label, capacity, id, capacity)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM shelves WHERE id=?", id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return sql.ErrNoRows
		}
		// Row exists but the guard rejected the new capacity, or the
		// update was a no-op; re-check the guard explicitly.
		var current uint32
		if err := r.DB.QueryRowContext(ctx, "SELECT current_books FROM shelves WHERE id=?", id).Scan(&current); err != nil {
			return err
		}
		if current > capacity {
			return ErrConflict
		}
	}
	return nil
}

// Delete removes an empty shelf. Shelves still holding books surface
// as ErrConflict.
func (r *ShelfRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM shelves WHERE id=? AND current_books=0", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM shelves WHERE id=?", id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return sql.ErrNoRows
		}
		return ErrConflict
	}
	return nil
}

// IncrementBooksTx raises the current_books counter within a
// transaction, guarded against exceeding capacity. A full shelf
// surfaces as ErrShelfFull; a missing shelf as sql.ErrNoRows.
func (r *ShelfRepo) IncrementBooksTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE shelves SET current_books = current_books + 1 WHERE id=? AND current_books < capacity", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM shelves WHERE id=?", id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return sql.ErrNoRows
		}
		return ErrShelfFull
	}
	return nil
}

// DecrementBooksTx lowers the current_books counter within a
// transaction, never below zero.
func (r *ShelfRepo) DecrementBooksTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE shelves SET current_books = current_books - 1 WHERE id=? AND current_books > 0", id)
	return err
}
