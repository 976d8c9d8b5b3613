package checkout

import (
	"net/url"

	"github.com/checkoutlab/hips-checkout/internal/hips"
	"go.uber.org/zap"
)

// Query parameters used to correlate provider redirects and webhooks back to
// a checkout attempt. The return URLs carry the order key; the webhook URL
// carries only a fixed discriminator, since the provider echoes the order id
// inside the event body as the merchant reference.
const (
	SuccessKeyParam   = "hips-order-key-success"
	FailedKeyParam    = "hips-order-key-failed"
	WebhookParam      = "hips-webhook"
	WebhookSuccessful = "successful"
)

// OrderKeyPrefix turns a checkout order id into the persistent order key the
// webhook reconciler derives from the echoed merchant reference.
const OrderKeyPrefix = "order_"

func OrderKey(orderID string) string {
	return OrderKeyPrefix + orderID
}

// MerchantConfig is the merchant-level configuration the assembler and
// reconciler branch on.
type MerchantConfig struct {
	Currency         string
	CaptureMode      string
	ShippingOverride bool
	GuestCheckout    bool
	CheckoutURL      string
	WebhookURL       string
	TermsURL         string
	Platform         string
	Module           string
}

// CaptureDisabled reports the authorize-only flow: any value other than "no"
// means capture immediately.
func (c MerchantConfig) CaptureDisabled() bool {
	return c.CaptureMode == "no"
}

// AssembleRequest composes the immutable payment request for one checkout
// attempt. Pure apart from the audit log of the assembled document; calling
// the provider belongs to the hips client.
func AssembleRequest(snapshot *Snapshot, orderID, shopperSessionID string, cfg MerchantConfig, logger *zap.SugaredLogger) *hips.PaymentRequest {
	orderKey := OrderKey(orderID)

	request := &hips.PaymentRequest{
		OrderID:           orderID,
		PurchaseCurrency:  cfg.Currency,
		UserSessionID:     shopperSessionID,
		EcommercePlatform: cfg.Platform,
		EcommerceModule:   cfg.Module,
		Cart:              hips.Cart{Items: snapshot.Items},
		CheckoutSettings:  hips.CheckoutSettings{ExtendedCart: true},
		RequireShipping:   cfg.ShippingOverride,
		ExpressShipping:   cfg.ShippingOverride,
		Fulfill:           !cfg.CaptureDisabled(),
		Hooks: hips.Hooks{
			UserReturnURLOnSuccess: addQueryArg(cfg.CheckoutURL, SuccessKeyParam, orderKey),
			UserReturnURLOnFail:    addQueryArg(cfg.CheckoutURL, FailedKeyParam, orderKey),
			TermsURL:               cfg.TermsURL,
			WebhookURL:             addQueryArg(cfg.WebhookURL, WebhookParam, WebhookSuccessful),
		},
	}

	logger.Infow("assembled hips payment request",
		"order_id", orderID,
		"order_key", orderKey,
		"currency", request.PurchaseCurrency,
		"items", len(request.Cart.Items),
		"total_minor", snapshot.TotalMinor(),
		"require_shipping", request.RequireShipping,
		"fulfill", request.Fulfill,
	)

	return request
}

func addQueryArg(rawURL, key, value string) string {
	parsed, err := url.Parse(rawURL)

	if err != nil {
		return rawURL
	}

	query := parsed.Query()
	query.Set(key, value)
	parsed.RawQuery = query.Encode()

	return parsed.String()
}
