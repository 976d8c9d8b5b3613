package hips

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func paymentRequest() *PaymentRequest {
	return &PaymentRequest{
		OrderID:          "01ORDER",
		PurchaseCurrency: "SEK",
		Cart: Cart{Items: []LineItem{{
			Type:      ItemTypePhysical,
			Name:      "Mug",
			Quantity:  1,
			UnitPrice: 10000,
		}}},
	}
}

func TestClient_CreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var request PaymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "01ORDER", request.OrderID)

		json.NewEncoder(w).Encode(OrderResponse{
			ID:          "hips_42",
			HTMLSnippet: "<div id=\"hips-checkout\"></div>",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second, zap.NewNop().Sugar())

	response, err := client.CreateOrder(context.Background(), paymentRequest())

	require.NoError(t, err)
	assert.Equal(t, "hips_42", response.ID)
	assert.Contains(t, response.HTMLSnippet, "hips-checkout")
}

func TestClient_CreateOrder_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error": "purchase_currency is not supported"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second, zap.NewNop().Sugar())

	_, err := client.CreateOrder(context.Background(), paymentRequest())

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "purchase_currency is not supported", providerErr.Message)
}

func TestClient_CreateOrder_UnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second, zap.NewNop().Sugar())

	_, err := client.CreateOrder(context.Background(), paymentRequest())

	require.Error(t, err)

	var providerErr *ProviderError
	assert.False(t, errors.As(err, &providerErr))
}
