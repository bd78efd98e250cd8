package gateway

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-billing/config"
)

const (
	protocolVersion = "1.1"
	txnType         = "MWALLET"
	language        = "EN"

	// ResponseCodeApproved is the processor's code for an approved payment.
	ResponseCodeApproved = "000"

	txnDateTimeLayout = "20060102150405"
	maxReferenceLen   = 20
	checkoutValidity  = 24 * time.Hour
)

type Client struct {
	cfg config.GatewayConfig
}

func NewClient(cfg config.GatewayConfig) *Client {
	return &Client{cfg: cfg}
}

type CheckoutInput struct {
	Reference   string
	UserID      string
	PlanID      string
	Amount      int64
	Currency    string
	Description string
	Now         time.Time
}

// CheckoutForm is everything the browser needs for the form POST to the
// processor's hosted page.
type CheckoutForm struct {
	ActionURL string
	Fields    map[string]string
}

// CallbackResult is the verified view of a processor callback. When
// SignatureOK is false no field beyond Reference may be trusted, and
// Reference only for correlating the audit record.
type CallbackResult struct {
	SignatureOK      bool
	Approved         bool
	Reference        string
	ResponseCode     string
	ResponseMessage  string
	GatewayReference string
	UserID           string
	PlanID           string
}

func (c *Client) BuildCheckout(input CheckoutInput) (*CheckoutForm, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	if input.Amount <= 0 {
		return nil, errors.New("checkout amount must be > 0")
	}

	now := input.Now
	fields := map[string]string{
		"pp_Version":           protocolVersion,
		"pp_TxnType":           txnType,
		"pp_Language":          language,
		"pp_MerchantID":        c.cfg.MerchantID,
		"pp_SubMerchantID":     "",
		"pp_Password":          c.cfg.Password,
		"pp_BankID":            c.cfg.BankID,
		"pp_ProductID":         c.cfg.ProductID,
		"pp_TxnRefNo":          input.Reference,
		"pp_Amount":            strconv.FormatInt(input.Amount, 10),
		"pp_TxnCurrency":       input.Currency,
		"pp_TxnDateTime":       now.Format(txnDateTimeLayout),
		"pp_TxnExpiryDateTime": now.Add(checkoutValidity).Format(txnDateTimeLayout),
		"pp_BillReference":     input.Reference,
		"pp_Description":       input.Description,
		"pp_ReturnURL":         c.cfg.ReturnURL,
		"ppmpf_1":              input.UserID,
		"ppmpf_2":              input.PlanID,
	}
	fields[SecureHashField] = SecureHash(fields, c.cfg.IntegritySalt)

	return &CheckoutForm{
		ActionURL: c.cfg.EndpointURL,
		Fields:    fields,
	}, nil
}

func (c *Client) VerifyCallback(fields map[string]string) CallbackResult {
	result := CallbackResult{
		Reference:    strings.TrimSpace(fields["pp_TxnRefNo"]),
		ResponseCode: strings.TrimSpace(fields["pp_ResponseCode"]),
	}

	result.SignatureOK = VerifySecureHash(fields, c.cfg.IntegritySalt)
	if !result.SignatureOK {
		return result
	}

	result.Approved = result.ResponseCode == ResponseCodeApproved
	result.ResponseMessage = strings.TrimSpace(fields["pp_ResponseMessage"])
	result.GatewayReference = strings.TrimSpace(fields["pp_RetreivalReferenceNo"])
	result.UserID = strings.TrimSpace(fields["ppmpf_1"])
	result.PlanID = strings.TrimSpace(fields["ppmpf_2"])

	return result
}

// NewTxnRef derives a fresh transaction reference from the timestamp plus a
// random suffix, truncated to the processor's 20 character limit.
func NewTxnRef(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	ref := "T" + now.Format(txnDateTimeLayout) + suffix
	if len(ref) > maxReferenceLen {
		ref = ref[:maxReferenceLen]
	}
	return ref
}
