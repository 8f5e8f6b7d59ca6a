package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/library-management/internal/model"
)

// APIKeyRepo persists hashed API keys for the scan relay endpoints.
type APIKeyRepo struct{ DB *sql.DB }

func NewAPIKeyRepo(db *sql.DB) *APIKeyRepo { return &APIKeyRepo{DB: db} }

// Create inserts a key row (hash only) and returns its ID.
func (r *APIKeyRepo) Create(ctx context.Context, name, keyHash string, createdBy uint64) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO api_keys (name, key_hash, created_by) VALUES (?,?,?)",
		name, keyHash, createdBy)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// List returns all keys, active and revoked, newest first.
func (r *APIKeyRepo) List(ctx context.Context) ([]model.APIKey, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, key_hash, created_by, created_at, revoked_at FROM api_keys ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	keys := make([]model.APIKey, 0)
	for rows.Next() {
		var k model.APIKey
		var revokedAt sql.NullTime
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyHash, &k.CreatedBy, &k.CreatedAt, &revokedAt); err != nil {
			return nil, err
		}
		if revokedAt.Valid {
			t := revokedAt.Time
			k.RevokedAt = &t
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Revoke marks a key as revoked. Revoking twice is a no-op; a missing
// key surfaces as sql.ErrNoRows.
func (r *APIKeyRepo) Revoke(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE api_keys SET revoked_at=NOW() WHERE id=? AND revoked_at IS NULL", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(1) FROM api_keys WHERE id=?", id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return sql.ErrNoRows
		}
	}
	return nil
}

// VerifyHash reports whether an active (non-revoked) key with the
// given hash exists. Used by the X-API-Key middleware.
func (r *APIKeyRepo) VerifyHash(ctx context.Context, keyHash string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM api_keys WHERE key_hash=? AND revoked_at IS NULL", keyHash).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
