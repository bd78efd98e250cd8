package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-billing/app/entity"
)

var ErrTransactionAlreadyExists = errors.New("transaction already exists")

// Finalization carries the terminal state applied to a pending transaction.
type Finalization struct {
	Status           string
	ResponseCode     *string
	ResponseMessage  *string
	GatewayReference *string
	RawCallback      map[string]string
	At               time.Time
}

type TransactionRepository struct {
	db DBTX
}

func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *entity.Transaction) error {
	payloadJSON, err := serializePayload(txn.RawCallback)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO transactions (
			reference, user_id, plan_id, amount, currency, status,
			response_code, response_message, gateway_reference, raw_callback_json,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		txn.Reference,
		txn.UserID,
		txn.PlanID,
		txn.Amount,
		txn.Currency,
		txn.Status,
		nullableStringValue(txn.ResponseCode),
		nullableStringValue(txn.ResponseMessage),
		nullableStringValue(txn.GatewayReference),
		payloadJSON,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrTransactionAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	txn.ID = uint64(id)
	return nil
}

func (r *TransactionRepository) FindByReference(ctx context.Context, reference string) (*entity.Transaction, error) {
	query := `
		SELECT id, reference, user_id, plan_id, amount, currency, status,
			response_code, response_message, gateway_reference, raw_callback_json,
			created_at, updated_at
		FROM transactions
		WHERE reference = ?
		LIMIT 1
	`

	txn := &entity.Transaction{}
	if err := scanTransaction(r.db.QueryRowContext(ctx, query, reference), txn); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return txn, nil
}

// Finalize moves a pending transaction to a terminal state. The status guard
// in the WHERE clause makes concurrent duplicate callbacks race safely: only
// one delivery observes applied=true, the rest see the row already terminal.
func (r *TransactionRepository) Finalize(ctx context.Context, reference string, fin Finalization) (bool, error) {
	payloadJSON, err := serializePayload(fin.RawCallback)
	if err != nil {
		return false, err
	}

	query := `
		UPDATE transactions SET
			status = ?,
			response_code = ?,
			response_message = ?,
			gateway_reference = ?,
			raw_callback_json = ?,
			updated_at = ?
		WHERE reference = ? AND status = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		fin.Status,
		nullableStringValue(fin.ResponseCode),
		nullableStringValue(fin.ResponseMessage),
		nullableStringValue(fin.GatewayReference),
		payloadJSON,
		fin.At,
		reference,
		entity.TransactionStatusPending,
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *TransactionRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Transaction, error) {
	query := `
		SELECT id, reference, user_id, plan_id, amount, currency, status,
			response_code, response_message, gateway_reference, raw_callback_json,
			created_at, updated_at
		FROM transactions
		WHERE status = ? AND created_at <= ?
		ORDER BY created_at ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, entity.TransactionStatusPending, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*entity.Transaction, 0)
	for rows.Next() {
		item := &entity.Transaction{}
		if err := scanTransaction(rows, item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(scan rowScanner, txn *entity.Transaction) error {
	var responseCode sql.NullString
	var responseMessage sql.NullString
	var gatewayReference sql.NullString
	var payloadJSON string

	err := scan.Scan(
		&txn.ID,
		&txn.Reference,
		&txn.UserID,
		&txn.PlanID,
		&txn.Amount,
		&txn.Currency,
		&txn.Status,
		&responseCode,
		&responseMessage,
		&gatewayReference,
		&payloadJSON,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		return err
	}

	txn.ResponseCode = stringPtrFromNull(responseCode)
	txn.ResponseMessage = stringPtrFromNull(responseMessage)
	txn.GatewayReference = stringPtrFromNull(gatewayReference)

	payload, err := parsePayload(payloadJSON)
	if err != nil {
		return err
	}
	txn.RawCallback = payload

	return nil
}
