// Package queue defines message payloads exchanged over the message broker.
package queue

// Circulation event types carried in CirculationEvent.Type.
const (
	EventLoanIssued   = "loan.issued"
	EventLoanReturned = "loan.returned"
	EventFineCreated  = "fine.created"
)

// CirculationEvent is published when a loan is issued or returned or a
// fine is materialized. It carries enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database. Fields that do not apply to an event type are left
// at their zero value.
type CirculationEvent struct {
	Type          string  `json:"type"`
	TransactionID uint64  `json:"transaction_id"`
	BookID        uint64  `json:"book_id"`
	BookTitle     string  `json:"book_title"`
	BookISBN      string  `json:"book_isbn"`
	UserID        uint64  `json:"user_id"`
	DueDate       string  `json:"due_date,omitempty"`
	ReturnedAt    string  `json:"returned_at,omitempty"`
	DaysOverdue   int     `json:"days_overdue,omitempty"`
	FineID        uint64  `json:"fine_id,omitempty"`
	FineAmount    float64 `json:"fine_amount,omitempty"`
	OccurredAt    string  `json:"occurred_at"`
}
