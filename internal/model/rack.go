package model

import "time"

// Rack represents a row in the `racks` table.  A rack is a physical
// unit of storage holding several shelves.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique rack name (e.g. "R-01").
//  Location  – free-text location hint (floor, wing, ...).
//  CreatedAt – timestamp of creation.
type Rack struct {
	ID        uint64    // racks.id
	Name      string    // racks.name
	Location  string    // racks.location
	CreatedAt time.Time // racks.created_at
}

// Shelf represents a row in the `shelves` table.  A shelf belongs to
// a rack and tracks how many books are currently placed on it.  The
// CurrentBooks counter is maintained by book create/delete and must
// satisfy 0 <= CurrentBooks <= Capacity at all times.
//
// Fields:
//  ID           – primary key identifier.
//  RackID       – rack this shelf belongs to.
//  Label        – shelf label unique within the rack (e.g. "A").
//  Capacity     – maximum number of books the shelf may hold.
//  CurrentBooks – number of books currently assigned to the shelf.
//  CreatedAt    – timestamp of creation.
type Shelf struct {
	ID           uint64    // shelves.id
	RackID       uint64    // shelves.rack_id
	Label        string    // shelves.label
	Capacity     uint32    // shelves.capacity
	CurrentBooks uint32    // shelves.current_books
	CreatedAt    time.Time // shelves.created_at
}
