package mapper

import (
	"time"

	"github.com/vibast-solutions/ms-go-billing/app/entity"
	"github.com/vibast-solutions/ms-go-billing/app/types"
)

func TransactionToResponse(item *entity.Transaction) *types.Transaction {
	if item == nil {
		return nil
	}

	return &types.Transaction{
		Reference:        item.Reference,
		PlanId:           item.PlanID,
		Amount:           item.Amount,
		Currency:         item.Currency,
		Status:           item.Status,
		ResponseCode:     derefString(item.ResponseCode),
		ResponseMessage:  derefString(item.ResponseMessage),
		GatewayReference: derefString(item.GatewayReference),
		CreatedAt:        item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
