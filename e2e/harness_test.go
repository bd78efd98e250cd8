//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-billing/app/controller"
	"github.com/vibast-solutions/ms-go-billing/app/entity"
	"github.com/vibast-solutions/ms-go-billing/app/gateway"
	"github.com/vibast-solutions/ms-go-billing/app/identity"
	"github.com/vibast-solutions/ms-go-billing/app/repository"
	"github.com/vibast-solutions/ms-go-billing/app/service"
	"github.com/vibast-solutions/ms-go-billing/config"
)

const (
	e2eJWTSecret     = "e2e-jwt-secret"
	e2eIntegritySalt = "e2e-integrity-salt"
	e2eSuccessURL    = "https://app.example.com/payment/ok"
	e2eFailURL       = "https://app.example.com/payment/nope"
)

type memoryTransactionRepo struct {
	mu           sync.Mutex
	transactions map[string]*entity.Transaction
}

func newMemoryTransactionRepo() *memoryTransactionRepo {
	return &memoryTransactionRepo{transactions: map[string]*entity.Transaction{}}
}

func (r *memoryTransactionRepo) Create(_ context.Context, txn *entity.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.transactions[txn.Reference]; exists {
		return repository.ErrTransactionAlreadyExists
	}
	stored := *txn
	r.transactions[txn.Reference] = &stored
	return nil
}

func (r *memoryTransactionRepo) FindByReference(_ context.Context, reference string) (*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	txn, ok := r.transactions[reference]
	if !ok {
		return nil, nil
	}
	copied := *txn
	return &copied, nil
}

func (r *memoryTransactionRepo) Finalize(_ context.Context, reference string, fin repository.Finalization) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	txn, ok := r.transactions[reference]
	if !ok || txn.Status != entity.TransactionStatusPending {
		return false, nil
	}
	txn.Status = fin.Status
	txn.ResponseCode = fin.ResponseCode
	txn.ResponseMessage = fin.ResponseMessage
	txn.GatewayReference = fin.GatewayReference
	txn.RawCallback = fin.RawCallback
	txn.UpdatedAt = fin.At
	return true, nil
}

func (r *memoryTransactionRepo) ListStalePending(_ context.Context, cutoff time.Time, limit int32) ([]*entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stale := make([]*entity.Transaction, 0)
	for _, txn := range r.transactions {
		if txn.Status == entity.TransactionStatusPending && txn.CreatedAt.Before(cutoff) {
			copied := *txn
			stale = append(stale, &copied)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt.Before(stale[j].CreatedAt) })
	if int32(len(stale)) > limit {
		stale = stale[:limit]
	}
	return stale, nil
}

func (r *memoryTransactionRepo) get(reference string) *entity.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()

	txn, ok := r.transactions[reference]
	if !ok {
		return nil
	}
	copied := *txn
	return &copied
}

type memoryEntitlementRepo struct {
	mu            sync.Mutex
	entitlements  map[string]*entity.Entitlement
	activateCalls int
}

func newMemoryEntitlementRepo() *memoryEntitlementRepo {
	return &memoryEntitlementRepo{entitlements: map[string]*entity.Entitlement{}}
}

func (r *memoryEntitlementRepo) FindByUserID(_ context.Context, userID string) (*entity.Entitlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ent, ok := r.entitlements[userID]
	if !ok {
		return nil, nil
	}
	copied := *ent
	return &copied, nil
}

func (r *memoryEntitlementRepo) Activate(_ context.Context, userID, planID string, startedAt, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.activateCalls++
	r.entitlements[userID] = &entity.Entitlement{
		UserID:        userID,
		PlanID:        planID,
		PlanStatus:    entity.PlanStatusActive,
		PlanStartedAt: &startedAt,
		PlanExpiresAt: &expiresAt,
		UpdatedAt:     startedAt,
	}
	return nil
}

func (r *memoryEntitlementRepo) get(userID string) *entity.Entitlement {
	r.mu.Lock()
	defer r.mu.Unlock()

	ent, ok := r.entitlements[userID]
	if !ok {
		return nil
	}
	copied := *ent
	return &copied
}

func (r *memoryEntitlementRepo) activations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activateCalls
}

type billingStack struct {
	server          *httptest.Server
	txnRepo         *memoryTransactionRepo
	entitlementRepo *memoryEntitlementRepo
}

func e2eGatewayConfig() config.GatewayConfig {
	return config.GatewayConfig{
		MerchantID:         "MC10001",
		Password:           "e2e-password",
		IntegritySalt:      e2eIntegritySalt,
		ReturnURL:          "https://app.example.com/billing/return",
		BankID:             "TBANK",
		ProductID:          "RETL",
		EndpointURL:        "https://sandbox.jazzcash.com.pk/CustomerPortal/transactionmanagement/merchantform/",
		SuccessRedirectURL: e2eSuccessURL,
		FailRedirectURL:    e2eFailURL,
	}
}

// startBillingStack assembles the same routes the serve command exposes, on
// top of in-memory repositories.
func startBillingStack(t *testing.T) *billingStack {
	t.Helper()

	txnRepo := newMemoryTransactionRepo()
	entitlementRepo := newMemoryEntitlementRepo()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	checkoutService := service.NewCheckoutService(
		txnRepo,
		entitlementRepo,
		gateway.NewClient(e2eGatewayConfig()),
		e2eGatewayConfig(),
		config.BillingConfig{Currency: "PKR", SubscriptionPeriod: 30 * 24 * time.Hour},
		logger,
	)
	billingController := controller.NewBillingController(checkoutService)
	resolver := identity.NewJWTResolver(e2eJWTSecret)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.Recover())

	e.GET("/health", billingController.Health)

	billing := e.Group("/billing")
	billing.Use(identity.RequireBearerAuth(resolver))
	billing.POST("/checkout", billingController.InitiateCheckout)
	billing.GET("/transactions/:reference", billingController.GetTransaction)

	e.POST("/webhooks/gateway", billingController.HandleGatewayCallback)

	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	return &billingStack{
		server:          server,
		txnRepo:         txnRepo,
		entitlementRepo: entitlementRepo,
	}
}

func mintBearerToken(t *testing.T, userID string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": userID + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(e2eJWTSecret))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return signed
}

// noRedirectClient surfaces the gateway callback's 302 instead of following
// it into the frontend origin.
func noRedirectClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
