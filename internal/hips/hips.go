package hips

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Line item types used in the Hips cart document.
const (
	ItemTypePhysical    = "physical"
	ItemTypeDiscount    = "discount"
	ItemTypeShippingFee = "shipping_fee"
)

// Weight units accepted by the Hips API.
const (
	WeightUnitKg   = "kg"
	WeightUnitGram = "gram"
	WeightUnitLb   = "lb"
)

var (
	ErrMalformedEvent = errors.New("malformed hips event")
)

// LineItem is the Hips wire representation of a cart line. Monetary fields
// are integer minor units. meta_data_1 and meta_data_2 carry the local
// product and variation identifiers so a webhook can be reconciled after the
// originating cart is gone.
type LineItem struct {
	Type         string  `json:"type"`
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	UnitPrice    int64   `json:"unit_price"`
	DiscountRate string  `json:"discount_rate"`
	VatAmount    int64   `json:"vat_amount"`
	Weight       float64 `json:"weight"`
	WeightUnit   string  `json:"weight_unit,omitempty"`
	ProductID    string  `json:"meta_data_1,omitempty"`
	VariationID  string  `json:"meta_data_2,omitempty"`

	// Populated only on webhook events.
	Price int64 `json:"price,omitempty"`
	Tax   int64 `json:"tax,omitempty"`
}

type Cart struct {
	Items []LineItem `json:"items"`
}

type CheckoutSettings struct {
	ExtendedCart bool `json:"extended_cart"`
}

type Hooks struct {
	UserReturnURLOnSuccess string `json:"user_return_url_on_success"`
	UserReturnURLOnFail    string `json:"user_return_url_on_fail"`
	TermsURL               string `json:"terms_url,omitempty"`
	WebhookURL             string `json:"webhook_url"`
}

// PaymentRequest is the order document posted to the Hips /orders endpoint.
// It is immutable once assembled.
type PaymentRequest struct {
	OrderID           string           `json:"order_id"`
	PurchaseCurrency  string           `json:"purchase_currency"`
	UserSessionID     string           `json:"user_session_id"`
	EcommercePlatform string           `json:"ecommerce_platform"`
	EcommerceModule   string           `json:"ecommerce_module"`
	Cart              Cart             `json:"cart"`
	CheckoutSettings  CheckoutSettings `json:"checkout_settings"`
	RequireShipping   bool             `json:"require_shipping"`
	ExpressShipping   bool             `json:"express_shipping"`
	Fulfill           bool             `json:"fulfill"`
	Hooks             Hooks            `json:"hooks"`
}

// ResponseError accepts both wire shapes Hips uses for the error field: a
// bare string or an object carrying a message.
type ResponseError struct {
	Message string `json:"message"`
}

func (e *ResponseError) UnmarshalJSON(data []byte) error {
	var asString string

	if err := json.Unmarshal(data, &asString); err == nil {
		e.Message = asString
		return nil
	}

	type alias ResponseError
	var asObject alias

	if err := json.Unmarshal(data, &asObject); err != nil {
		return err
	}

	e.Message = asObject.Message
	return nil
}

// OrderResponse is the provider reply to a PaymentRequest. On success the
// html_snippet is rendered inline on the checkout page.
type OrderResponse struct {
	ID          string         `json:"id"`
	HTMLSnippet string         `json:"html_snippet"`
	Error       *ResponseError `json:"error,omitempty"`
}

// ProviderError is returned when the Hips API reports an error field on an
// otherwise well-formed response.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("hips api error: %s", e.Message)
}

type MerchantReference struct {
	OrderID string `json:"order_id"`
}

type Address struct {
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	CompanyName   string `json:"company_name"`
	StreetAddress string `json:"street_address"`
	StreetNumber  string `json:"street_number"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
	Email         string `json:"email"`
	PhoneMobile   string `json:"phone_mobile"`
	IsBilling     bool   `json:"is_billing"`
}

// Shipping fee and vat are minor units, fee including vat.
type Shipping struct {
	Name string `json:"name"`
	Fee  int64  `json:"fee"`
	Vat  int64  `json:"vat"`
}

type Resource struct {
	ID                string            `json:"id"`
	Status            string            `json:"status"`
	MerchantReference MerchantReference `json:"merchant_reference"`
	BillingAddress    *Address          `json:"billing_address"`
	ShippingAddress   *Address          `json:"shipping_address"`
	Cart              *Cart             `json:"cart"`
	Shipping          *Shipping         `json:"shipping"`
	RequireShipping   bool              `json:"require_shipping"`
}

// Event is the untrusted webhook payload.
type Event struct {
	Event    string    `json:"event" validate:"required"`
	Resource *Resource `json:"resource" validate:"required"`
}

const (
	EventOrderSuccessful = "order.successful"
	StatusSuccessful     = "successful"
)

// ParseEvent decodes a raw webhook body. A body that does not decode, or
// decodes without an event name or resource, is malformed.
func ParseEvent(data []byte) (*Event, error) {
	var event Event

	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if event.Event == "" || event.Resource == nil {
		return nil, ErrMalformedEvent
	}

	return &event, nil
}
