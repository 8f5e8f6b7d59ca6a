package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/library-management/internal/model"
)

// RackRepo provides CRUD operations for racks.
type RackRepo struct{ DB *sql.DB }

func NewRackRepo(db *sql.DB) *RackRepo { return &RackRepo{DB: db} }

var ErrRackNameExists = errors.New("rack name already exists")

// Create inserts a rack and returns its ID.
func (r *RackRepo) Create(ctx context.Context, name, location string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO racks (name, location) VALUES (?,?)", name, location)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrRackNameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a rack by id.
func (r *RackRepo) GetByID(ctx context.Context, id uint64) (model.Rack, error) {
	var rk model.Rack
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, location, created_at FROM racks WHERE id=? LIMIT 1", id).
		Scan(&rk.ID, &rk.Name, &rk.Location, &rk.CreatedAt)
	return rk, err
}

// List returns all racks ordered by name.
func (r *RackRepo) List(ctx context.Context) ([]model.Rack, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, location, created_at FROM racks ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	racks := make([]model.Rack, 0)
	for rows.Next() {
		var rk model.Rack
		if err := rows.Scan(&rk.ID, &rk.Name, &rk.Location, &rk.CreatedAt); err != nil {
			return nil, err
		}
		racks = append(racks, rk)
	}
	return racks, rows.Err()
}

// Update changes a rack's name and location.
func (r *RackRepo) Update(ctx context.Context, id uint64, name, location string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE racks SET name=?, location=? WHERE id=?", name, location, id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrRackNameExists
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM racks WHERE id=?", id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return sql.ErrNoRows
		}
	}
	return nil
}

// Delete removes a rack. A rack that still has shelves cannot be
// deleted and surfaces as ErrConflict.
func (r *RackRepo) Delete(ctx context.Context, id uint64) error {
	var shelves int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM shelves WHERE rack_id=?", id).Scan(&shelves); err != nil {
		return err
	}
	if shelves > 0 {
		return ErrConflict
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM racks WHERE id=?", id)
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
