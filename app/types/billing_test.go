package types

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestResolvePlan(t *testing.T) {
	cases := []struct {
		in         string
		wantPlan   string
		wantAmount int64
	}{
		{"premium", "premium", 160000},
		{"basic", "basic", 75000},
		{"platinum", "basic", 75000},
		{"", "basic", 75000},
	}
	for _, tc := range cases {
		plan, amount := ResolvePlan(tc.in)
		if plan != tc.wantPlan || amount != tc.wantAmount {
			t.Errorf("ResolvePlan(%q) = %q/%d, expected %q/%d", tc.in, plan, amount, tc.wantPlan, tc.wantAmount)
		}
	}
}

func newCallbackContext(t *testing.T, contentType, body string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest("POST", "/webhooks/gateway", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestGatewayCallbackFromForm(t *testing.T) {
	ctx := newCallbackContext(t, echo.MIMEApplicationForm,
		"pp_TxnRefNo=T20240101120000AB12C&pp_ResponseCode=000&pp_SecureHash=ABCD")

	req, err := NewGatewayCallbackRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	if req.Fields["pp_TxnRefNo"] != "T20240101120000AB12C" {
		t.Errorf("unexpected reference %q", req.Fields["pp_TxnRefNo"])
	}
	if req.Fields["pp_ResponseCode"] != "000" {
		t.Errorf("unexpected response code %q", req.Fields["pp_ResponseCode"])
	}
}

func TestGatewayCallbackFromJSON(t *testing.T) {
	ctx := newCallbackContext(t, echo.MIMEApplicationJSON,
		`{"pp_TxnRefNo":"T20240101120000AB12C","pp_ResponseCode":"000","pp_Amount":160000,"pp_SecureHash":"ABCD"}`)

	req, err := NewGatewayCallbackRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	if req.Fields["pp_TxnRefNo"] != "T20240101120000AB12C" {
		t.Errorf("unexpected reference %q", req.Fields["pp_TxnRefNo"])
	}
	// Numeric JSON values are stringified.
	if req.Fields["pp_Amount"] != "160000" {
		t.Errorf("unexpected amount %q", req.Fields["pp_Amount"])
	}
}

func TestGatewayCallbackFromRawBody(t *testing.T) {
	// No content type at all: the raw body still URL-decodes.
	ctx := newCallbackContext(t, "",
		"pp_TxnRefNo=T20240101120000AB12C&pp_ResponseMessage=Thank+you&pp_SecureHash=ABCD")

	req, err := NewGatewayCallbackRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	if req.Fields["pp_ResponseMessage"] != "Thank you" {
		t.Errorf("expected URL decoding, got %q", req.Fields["pp_ResponseMessage"])
	}
}

func TestGatewayCallbackEmptyBodyFailsValidation(t *testing.T) {
	ctx := newCallbackContext(t, "", "")

	req, err := NewGatewayCallbackRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if err := req.Validate(); err == nil {
		t.Fatal("expected empty payload to fail validation")
	}
}

func TestInitiateCheckoutRequestValidate(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest("POST", "/billing/checkout", strings.NewReader(`{"planId":"Premium"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	ctx := e.NewContext(req, httptest.NewRecorder())

	parsed, err := NewInitiateCheckoutRequestFromContext(ctx, "user-42")
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if parsed.GetPlanId() != "premium" {
		t.Errorf("expected lower-cased plan id, got %q", parsed.GetPlanId())
	}
	if err := parsed.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	anonymous, err := NewInitiateCheckoutRequestFromContext(ctx, "")
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if err := anonymous.Validate(); err == nil {
		t.Fatal("expected validation error without a user")
	}
}

func TestInitiateCheckoutRequestEmptyBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest("POST", "/billing/checkout", strings.NewReader(""))
	ctx := e.NewContext(req, httptest.NewRecorder())

	parsed, err := NewInitiateCheckoutRequestFromContext(ctx, "user-42")
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if parsed.GetPlanId() != "" {
		t.Errorf("expected empty plan id, got %q", parsed.GetPlanId())
	}
	if err := parsed.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
}
