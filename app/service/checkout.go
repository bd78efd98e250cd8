package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-billing/app/entity"
	"github.com/vibast-solutions/ms-go-billing/app/gateway"
	"github.com/vibast-solutions/ms-go-billing/app/repository"
	"github.com/vibast-solutions/ms-go-billing/app/types"
	"github.com/vibast-solutions/ms-go-billing/config"
)

const (
	defaultBatchSize   = int32(100)
	referenceRetries   = 3
	defaultDescription = "Subscription payment"
)

type initiateCheckoutRequest interface {
	GetPlanId() string
	GetUserId() string
}

type getTransactionRequest interface {
	GetReference() string
	GetUserId() string
}

type transactionRepository interface {
	Create(ctx context.Context, txn *entity.Transaction) error
	FindByReference(ctx context.Context, reference string) (*entity.Transaction, error)
	Finalize(ctx context.Context, reference string, fin repository.Finalization) (bool, error)
	ListStalePending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Transaction, error)
}

type entitlementRepository interface {
	FindByUserID(ctx context.Context, userID string) (*entity.Entitlement, error)
	Activate(ctx context.Context, userID, planID string, startedAt, expiresAt time.Time) error
}

type gatewayClient interface {
	BuildCheckout(input gateway.CheckoutInput) (*gateway.CheckoutForm, error)
	VerifyCallback(fields map[string]string) gateway.CallbackResult
}

type CheckoutService struct {
	txnRepo         transactionRepository
	entitlementRepo entitlementRepository
	gateway         gatewayClient
	gatewayCfg      config.GatewayConfig
	billingCfg      config.BillingConfig
	logger          logrus.FieldLogger
}

func NewCheckoutService(
	txnRepo transactionRepository,
	entitlementRepo entitlementRepository,
	gatewayClient gatewayClient,
	gatewayCfg config.GatewayConfig,
	billingCfg config.BillingConfig,
	logger logrus.FieldLogger,
) *CheckoutService {
	if billingCfg.SubscriptionPeriod <= 0 {
		billingCfg.SubscriptionPeriod = 30 * 24 * time.Hour
	}
	if billingCfg.Currency == "" {
		billingCfg.Currency = "PKR"
	}

	return &CheckoutService{
		txnRepo:         txnRepo,
		entitlementRepo: entitlementRepo,
		gateway:         gatewayClient,
		gatewayCfg:      gatewayCfg,
		billingCfg:      billingCfg,
		logger:          logger,
	}
}

// InitiateCheckout creates a pending transaction and returns the signed
// field set for the browser's form POST to the processor's hosted page.
func (s *CheckoutService) InitiateCheckout(ctx context.Context, req initiateCheckoutRequest) (*entity.Transaction, *gateway.CheckoutForm, error) {
	userID := strings.TrimSpace(req.GetUserId())
	if userID == "" {
		return nil, nil, ErrUnauthenticated
	}

	planID, amount := types.ResolvePlan(req.GetPlanId())
	now := time.Now().UTC()

	// Reference collisions are already unlikely (timestamp + random
	// suffix); the retry covers the residual duplicate-key case.
	var txn *entity.Transaction
	var form *gateway.CheckoutForm
	var err error
	for attempt := 0; attempt < referenceRetries; attempt++ {
		reference := gateway.NewTxnRef(now)

		form, err = s.gateway.BuildCheckout(gateway.CheckoutInput{
			Reference:   reference,
			UserID:      userID,
			PlanID:      planID,
			Amount:      amount,
			Currency:    s.billingCfg.Currency,
			Description: defaultDescription,
			Now:         now,
		})
		if err != nil {
			return nil, nil, err
		}

		txn = &entity.Transaction{
			Reference:   reference,
			UserID:      userID,
			PlanID:      planID,
			Amount:      amount,
			Currency:    s.billingCfg.Currency,
			Status:      entity.TransactionStatusPending,
			RawCallback: map[string]string{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		err = s.txnRepo.Create(ctx, txn)
		if err == nil {
			return txn, form, nil
		}
		if !errors.Is(err, repository.ErrTransactionAlreadyExists) {
			return nil, nil, err
		}
	}

	return nil, nil, err
}

func (s *CheckoutService) GetTransaction(ctx context.Context, req getTransactionRequest) (*entity.Transaction, error) {
	userID := strings.TrimSpace(req.GetUserId())
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	txn, err := s.txnRepo.FindByReference(ctx, strings.TrimSpace(req.GetReference()))
	if err != nil {
		return nil, err
	}
	if txn == nil || txn.UserID != userID {
		return nil, ErrTransactionNotFound
	}
	return txn, nil
}

func (s *CheckoutService) batchSize() int32 {
	if s.billingCfg.JobBatchSize > 0 {
		return s.billingCfg.JobBatchSize
	}
	return defaultBatchSize
}

func stringPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
