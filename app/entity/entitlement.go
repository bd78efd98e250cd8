package entity

import "time"

const (
	PlanStatusNone    = "none"
	PlanStatusActive  = "active"
	PlanStatusExpired = "expired"
)

// Entitlement is the paid-plan slice of a user account. The account row is
// owned by the identity service; this service only advances the plan fields.
type Entitlement struct {
	UserID string

	PlanID     string
	PlanStatus string

	PlanStartedAt *time.Time
	PlanExpiresAt *time.Time

	UpdatedAt time.Time
}
