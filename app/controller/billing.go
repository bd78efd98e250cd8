package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-billing/app/factory"
	"github.com/vibast-solutions/ms-go-billing/app/identity"
	"github.com/vibast-solutions/ms-go-billing/app/mapper"
	"github.com/vibast-solutions/ms-go-billing/app/service"
	"github.com/vibast-solutions/ms-go-billing/app/types"
)

type BillingController struct {
	checkoutService *service.CheckoutService
	logger          logrus.FieldLogger
}

func NewBillingController(checkoutService *service.CheckoutService) *BillingController {
	return &BillingController{
		checkoutService: checkoutService,
		logger:          factory.NewModuleLogger("billing-controller"),
	}
}

func (c *BillingController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *BillingController) InitiateCheckout(ctx echo.Context) error {
	who := identity.FromContext(ctx)
	if who == nil {
		return c.writeError(ctx, http.StatusUnauthorized, "unauthenticated")
	}

	req, err := types.NewInitiateCheckoutRequestFromContext(ctx, who.UserID)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	txn, form, err := c.checkoutService.InitiateCheckout(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			return c.writeError(ctx, http.StatusUnauthorized, "unauthenticated")
		case errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		default:
			factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Initiate checkout failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusCreated, &types.CheckoutResponse{
		ActionUrl: form.ActionURL,
		Reference: txn.Reference,
		Fields:    form.Fields,
	})
}

func (c *BillingController) GetTransaction(ctx echo.Context) error {
	who := identity.FromContext(ctx)
	if who == nil {
		return c.writeError(ctx, http.StatusUnauthorized, "unauthenticated")
	}

	req, err := types.NewGetTransactionRequestFromContext(ctx, who.UserID)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	txn, err := c.checkoutService.GetTransaction(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrTransactionNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "transaction not found")
		}
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Get transaction failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.TransactionEnvelopeResponse{Transaction: mapper.TransactionToResponse(txn)})
}

// HandleGatewayCallback terminates with a redirect on every path the
// processor can trigger; an error status would only make it retry.
func (c *BillingController) HandleGatewayCallback(ctx echo.Context) error {
	req, err := types.NewGatewayCallbackRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid callback payload")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	outcome, err := c.checkoutService.HandleGatewayCallback(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrCallbackRejected) {
			return c.writeError(ctx, http.StatusBadRequest, "callback rejected")
		}
		c.logger.WithError(err).Error("Handle gateway callback failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.Redirect(http.StatusFound, outcome.RedirectURL)
}

func (c *BillingController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
