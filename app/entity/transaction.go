package entity

import "time"

const (
	TransactionStatusPending = "pending"
	TransactionStatusSuccess = "success"
	TransactionStatusFailed  = "failed"
)

// Transaction is one hosted-checkout attempt. Reference is the identity
// shared with the processor; it never exceeds 20 characters.
type Transaction struct {
	ID uint64

	Reference string
	UserID    string
	PlanID    string

	Amount   int64
	Currency string

	Status string

	ResponseCode     *string
	ResponseMessage  *string
	GatewayReference *string

	// RawCallback holds the processor's callback fields verbatim for audit.
	// Written once, at finalization.
	RawCallback map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t *Transaction) Terminal() bool {
	return t.Status == TransactionStatusSuccess || t.Status == TransactionStatusFailed
}
