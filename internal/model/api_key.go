package model

import "time"

// APIKey models a row in the `api_keys` table.  Keys authenticate
// the barcode/RFID scan relay endpoints, which are called by kiosk
// hardware rather than logged-in users.  Only the SHA‑256 hash of a
// key is stored; the raw value is shown once at creation.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – human-readable label for the key (e.g. "front-desk kiosk").
//  KeyHash   – SHA‑256 hex digest of the raw key.
//  CreatedBy – admin who created the key.
//  CreatedAt – timestamp of creation.
//  RevokedAt – when the key was revoked (null if still active).
type APIKey struct {
	ID        uint64     // api_keys.id
	Name      string     // api_keys.name
	KeyHash   string     // api_keys.key_hash
	CreatedBy uint64     // api_keys.created_by
	CreatedAt time.Time  // api_keys.created_at
	RevokedAt *time.Time // api_keys.revoked_at (nullable)
}
