package hips

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	body := []byte(`{
		"event": "order.successful",
		"resource": {
			"id": "pay_1",
			"status": "successful",
			"merchant_reference": {"order_id": "01ABC"},
			"billing_address": {"given_name": "Jane", "is_billing": true},
			"cart": {"items": [
				{"type": "physical", "quantity": 2, "unit_price": 500, "price": 1000, "tax": 100, "meta_data_1": "p1"}
			]},
			"shipping": {"name": "Posten", "fee": 1000, "vat": 190},
			"require_shipping": true
		}
	}`)

	event, err := ParseEvent(body)
	require.NoError(t, err)

	assert.Equal(t, EventOrderSuccessful, event.Event)
	assert.Equal(t, "pay_1", event.Resource.ID)
	assert.Equal(t, StatusSuccessful, event.Resource.Status)
	assert.Equal(t, "01ABC", event.Resource.MerchantReference.OrderID)
	assert.Equal(t, "Jane", event.Resource.BillingAddress.GivenName)
	require.Len(t, event.Resource.Cart.Items, 1)
	assert.Equal(t, "p1", event.Resource.Cart.Items[0].ProductID)
	assert.Equal(t, int64(190), event.Resource.Shipping.Vat)
	assert.True(t, event.Resource.RequireShipping)
}

func TestParseEvent_Malformed(t *testing.T) {
	for name, body := range map[string]string{
		"garbage":          `{not json`,
		"missing event":    `{"resource": {"id": "pay_1"}}`,
		"missing resource": `{"event": "order.successful"}`,
		"empty":            ``,
	} {
		_, err := ParseEvent([]byte(body))
		assert.ErrorIs(t, err, ErrMalformedEvent, name)
	}
}

func TestOrderResponse_ErrorAsString(t *testing.T) {
	var response OrderResponse

	err := json.Unmarshal([]byte(`{"id": "x", "error": "card declined"}`), &response)
	require.NoError(t, err)

	require.NotNil(t, response.Error)
	assert.Equal(t, "card declined", response.Error.Message)
}

func TestOrderResponse_ErrorAsObject(t *testing.T) {
	var response OrderResponse

	err := json.Unmarshal([]byte(`{"id": "x", "error": {"message": "card declined"}}`), &response)
	require.NoError(t, err)

	require.NotNil(t, response.Error)
	assert.Equal(t, "card declined", response.Error.Message)
}

func TestOrderResponse_NoError(t *testing.T) {
	var response OrderResponse

	err := json.Unmarshal([]byte(`{"id": "x", "html_snippet": "<div></div>"}`), &response)
	require.NoError(t, err)

	assert.Nil(t, response.Error)
	assert.Equal(t, "<div></div>", response.HTMLSnippet)
}

func TestLineItem_WireNames(t *testing.T) {
	data, err := json.Marshal(LineItem{
		Type:         ItemTypePhysical,
		SKU:          "SKU1",
		Name:         "Mug",
		Quantity:     2,
		UnitPrice:    11000,
		DiscountRate: "0",
		VatAmount:    1000,
		Weight:       1.0,
		WeightUnit:   WeightUnitKg,
		ProductID:    "p1",
		VariationID:  "v1",
	})
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))

	assert.Equal(t, "p1", wire["meta_data_1"])
	assert.Equal(t, "v1", wire["meta_data_2"])
	assert.Equal(t, float64(11000), wire["unit_price"])
	assert.Equal(t, "kg", wire["weight_unit"])
	assert.NotContains(t, wire, "price")
	assert.NotContains(t, wire, "tax")
}
