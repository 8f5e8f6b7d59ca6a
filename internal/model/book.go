package model

import "time"

// Book represents a physical book in the catalogue as stored in the
// `books` table.  Placement columns reference the rack and shelf the
// book lives on.  The loan columns (IssuedTo, IssuedDate, ReturnDate)
// are populated while the book is out and reset to NULL on return, so
// IsAvailable must always equal (IssuedTo == nil).
//
// Fields:
//  ID          – primary key identifier.
//  ISBN        – unique catalogue number.
//  Title       – book title.
//  Author      – book author.
//  Genre       – genre label used for filtering and reports.
//  RackID      – rack the book is placed on.
//  ShelfID     – shelf within the rack.
//  IsAvailable – true when the book is on the shelf.
//  IssuedTo    – user currently holding the book (nullable).
//  IssuedDate  – when the current loan started (nullable).
//  ReturnDate  – due date of the current loan (nullable).
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type Book struct {
	ID          uint64     // books.id
	ISBN        string     // books.isbn
	Title       string     // books.title
	Author      string     // books.author
	Genre       string     // books.genre
	RackID      uint64     // books.rack_id
	ShelfID     uint64     // books.shelf_id
	IsAvailable bool       // books.is_available
	IssuedTo    *uint64    // books.issued_to (nullable)
	IssuedDate  *time.Time // books.issued_date (nullable)
	ReturnDate  *time.Time // books.return_date (nullable, due date while issued)
	CreatedAt   time.Time  // books.created_at
	UpdatedAt   time.Time  // books.updated_at
}
