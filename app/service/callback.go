package service

import (
	"context"
	"net/url"
	"time"

	"github.com/vibast-solutions/ms-go-billing/app/entity"
	"github.com/vibast-solutions/ms-go-billing/app/repository"
)

type gatewayCallbackRequest interface {
	GetFields() map[string]string
}

// CallbackOutcome is what the HTTP layer needs to answer the processor: a
// redirect target plus the resolved result for logging.
type CallbackOutcome struct {
	Succeeded   bool
	Reference   string
	RedirectURL string
}

// HandleGatewayCallback verifies the processor's callback, finalizes the
// transaction at most once, and advances the entitlement only when this
// delivery is the one that finalized a successful payment. It always
// resolves to a redirect; persistence failures are logged and left for
// manual reconciliation rather than surfaced to the processor, whose only
// reaction to an error status would be to retry indefinitely.
func (s *CheckoutService) HandleGatewayCallback(ctx context.Context, req gatewayCallbackRequest) (*CallbackOutcome, error) {
	fields := req.GetFields()
	if len(fields) == 0 {
		return nil, ErrCallbackRejected
	}

	result := s.gateway.VerifyCallback(fields)
	succeeded := result.SignatureOK && result.Approved

	logger := s.logger.WithFields(map[string]interface{}{
		"reference":     result.Reference,
		"signature_ok":  result.SignatureOK,
		"response_code": result.ResponseCode,
		"succeeded":     succeeded,
	})

	if result.Reference == "" {
		logger.Warn("Gateway callback carried no transaction reference")
		return s.outcome(succeeded, ""), nil
	}

	now := time.Now().UTC()
	status := entity.TransactionStatusFailed
	if succeeded {
		status = entity.TransactionStatusSuccess
	}

	applied, err := s.txnRepo.Finalize(ctx, result.Reference, repository.Finalization{
		Status:           status,
		ResponseCode:     stringPtr(result.ResponseCode),
		ResponseMessage:  stringPtr(result.ResponseMessage),
		GatewayReference: stringPtr(result.GatewayReference),
		RawCallback:      fields,
		At:               now,
	})
	if err != nil {
		logger.WithError(err).Error("Failed to finalize transaction from gateway callback")
		return s.outcome(succeeded, result.Reference), nil
	}
	if !applied {
		// Duplicate delivery for an already-terminal transaction. The
		// processor still gets a valid redirect, the entitlement is not
		// touched again.
		logger.Info("Gateway callback for already finalized transaction")
		return s.outcome(succeeded, result.Reference), nil
	}

	if succeeded && result.UserID != "" {
		expiresAt := now.Add(s.billingCfg.SubscriptionPeriod)
		if err := s.entitlementRepo.Activate(ctx, result.UserID, result.PlanID, now, expiresAt); err != nil {
			logger.WithError(err).WithField("user_id", result.UserID).
				Error("Failed to activate entitlement for paid transaction")
		}
	}

	return s.outcome(succeeded, result.Reference), nil
}

func (s *CheckoutService) outcome(succeeded bool, reference string) *CallbackOutcome {
	target := s.gatewayCfg.FailRedirectURL
	payment := "failed"
	if succeeded {
		target = s.gatewayCfg.SuccessRedirectURL
		payment = "success"
	}

	query := url.Values{}
	query.Set("payment", payment)
	if reference != "" {
		query.Set("ref", reference)
	}

	separator := "?"
	if u, err := url.Parse(target); err == nil && u.RawQuery != "" {
		separator = "&"
	}

	return &CallbackOutcome{
		Succeeded:   succeeded,
		Reference:   reference,
		RedirectURL: target + separator + query.Encode(),
	}
}
