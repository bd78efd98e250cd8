package types

import (
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

type InitiateCheckoutRequest struct {
	PlanId string `json:"planId"`

	userId string
}

func NewInitiateCheckoutRequestFromContext(ctx echo.Context, userID string) (*InitiateCheckoutRequest, error) {
	var body InitiateCheckoutRequest
	if err := ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	body.PlanId = strings.ToLower(strings.TrimSpace(body.PlanId))
	body.userId = strings.TrimSpace(userID)
	return &body, nil
}

func (r *InitiateCheckoutRequest) Validate() error {
	if r.GetUserId() == "" {
		return errors.New("authenticated user is required")
	}
	return nil
}

func (r *InitiateCheckoutRequest) GetPlanId() string { return r.PlanId }
func (r *InitiateCheckoutRequest) GetUserId() string { return r.userId }

type GetTransactionRequest struct {
	Reference string
	UserId    string
}

func NewGetTransactionRequestFromContext(ctx echo.Context, userID string) (*GetTransactionRequest, error) {
	reference := strings.TrimSpace(ctx.Param("reference"))
	return &GetTransactionRequest{
		Reference: reference,
		UserId:    strings.TrimSpace(userID),
	}, nil
}

func (r *GetTransactionRequest) Validate() error {
	if r.Reference == "" {
		return errors.New("transaction reference is required")
	}
	if r.UserId == "" {
		return errors.New("authenticated user is required")
	}
	return nil
}

func (r *GetTransactionRequest) GetReference() string { return r.Reference }
func (r *GetTransactionRequest) GetUserId() string    { return r.UserId }

type GatewayCallbackRequest struct {
	Fields map[string]string
}

// NewGatewayCallbackRequestFromContext normalizes the processor's callback
// into a flat string map. The processor delivers URL-encoded form data, but
// retries have been observed as JSON objects and as raw URL-encoded bodies
// without a content type, so all three are accepted.
func NewGatewayCallbackRequestFromContext(ctx echo.Context) (*GatewayCallbackRequest, error) {
	rawBody, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return nil, err
	}

	contentType := strings.ToLower(ctx.Request().Header.Get(echo.HeaderContentType))

	if strings.Contains(contentType, echo.MIMEApplicationJSON) {
		fields, err := fieldsFromJSON(rawBody)
		if err != nil {
			return nil, err
		}
		return &GatewayCallbackRequest{Fields: fields}, nil
	}

	fields, err := fieldsFromURLEncoded(string(rawBody))
	if err == nil && len(fields) > 0 {
		return &GatewayCallbackRequest{Fields: fields}, nil
	}

	if fields, jsonErr := fieldsFromJSON(rawBody); jsonErr == nil && len(fields) > 0 {
		return &GatewayCallbackRequest{Fields: fields}, nil
	}

	return &GatewayCallbackRequest{Fields: map[string]string{}}, nil
}

func (r *GatewayCallbackRequest) Validate() error {
	if len(r.Fields) == 0 {
		return errors.New("callback payload is empty")
	}
	return nil
}

func (r *GatewayCallbackRequest) GetFields() map[string]string { return r.Fields }

func fieldsFromURLEncoded(body string) (map[string]string, error) {
	values, err := url.ParseQuery(strings.TrimSpace(body))
	if err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(values))
	for name, items := range values {
		if len(items) > 0 {
			fields[name] = items[0]
		}
	}
	return fields, nil
}

func fieldsFromJSON(body []byte) (map[string]string, error) {
	if len(body) == 0 {
		return map[string]string{}, nil
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(raw))
	for name, value := range raw {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			fields[name] = v
		case float64:
			fields[name] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			if v {
				fields[name] = "true"
			} else {
				fields[name] = "false"
			}
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				continue
			}
			fields[name] = string(encoded)
		}
	}
	return fields, nil
}

type CheckoutResponse struct {
	ActionUrl string            `json:"actionUrl"`
	Reference string            `json:"reference"`
	Fields    map[string]string `json:"fields"`
}

type Transaction struct {
	Reference        string `json:"reference"`
	PlanId           string `json:"planId"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	ResponseCode     string `json:"responseCode,omitempty"`
	ResponseMessage  string `json:"responseMessage,omitempty"`
	GatewayReference string `json:"gatewayReference,omitempty"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

type TransactionEnvelopeResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
