package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-billing/app/entity"
)

var ErrEntitlementNotFound = errors.New("entitlement not found")

type EntitlementRepository struct {
	db DBTX
}

func NewEntitlementRepository(db DBTX) *EntitlementRepository {
	return &EntitlementRepository{db: db}
}

func (r *EntitlementRepository) FindByUserID(ctx context.Context, userID string) (*entity.Entitlement, error) {
	query := `
		SELECT user_id, plan_id, plan_status, plan_started_at, plan_expires_at, updated_at
		FROM entitlements
		WHERE user_id = ?
		LIMIT 1
	`

	item := &entity.Entitlement{}
	var startedAt sql.NullTime
	var expiresAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&item.UserID,
		&item.PlanID,
		&item.PlanStatus,
		&startedAt,
		&expiresAt,
		&item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	item.PlanStartedAt = timePtrFromNull(startedAt)
	item.PlanExpiresAt = timePtrFromNull(expiresAt)

	return item, nil
}

// Activate advances the user's plan window. Callers gate this behind the
// transaction finalization guard so a retried callback never reaches it.
func (r *EntitlementRepository) Activate(ctx context.Context, userID, planID string, startedAt, expiresAt time.Time) error {
	query := `
		UPDATE entitlements SET
			plan_id = ?,
			plan_status = ?,
			plan_started_at = ?,
			plan_expires_at = ?,
			updated_at = ?
		WHERE user_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		planID,
		entity.PlanStatusActive,
		startedAt,
		expiresAt,
		startedAt,
		userID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrEntitlementNotFound
	}

	return nil
}
