package main

import (
	"errors"
	"net/http"

	"github.com/checkoutlab/hips-checkout/internal/checkout"
	"github.com/checkoutlab/hips-checkout/internal/hips"
	"github.com/checkoutlab/hips-checkout/internal/store"
)

// createCheckoutHandler snapshots the shopper's cart, registers a checkout
// session and asks Hips for a hosted checkout. The returned html_snippet is
// what the storefront embeds.
func (app *application) createCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	shopperSessionID := app.shopperSessionID(r)

	if shopperSessionID == "" {
		app.badRequestResponse(w, r, errors.New("missing shopper session"))
		return
	}

	cart, err := app.store.Carts.GetBySessionID(r.Context(), shopperSessionID)

	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			app.emptyCartResponse(w, r)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	items, err := app.store.CartItems.GetItems(r.Context(), cart.ID)

	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	snapshot, err := checkout.BuildSnapshot(checkout.SnapshotInput{
		Items:            items,
		TaxTotal:         cart.TaxTotal,
		DiscountTotal:    cart.DiscountTotal,
		DiscountTaxTotal: cart.DiscountTaxTotal,
		TaxEnabled:       app.cfg.cart.taxEnabled,
		PricesIncludeTax: app.cfg.cart.pricesIncludeTax,
		WeightUnit:       app.cfg.cart.weightUnit,
	})

	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			app.emptyCartResponse(w, r)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	orderID, orderKey, err := app.registry.Start(r.Context(), shopperSessionID, snapshot)

	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	request := checkout.AssembleRequest(snapshot, orderID, shopperSessionID, app.cfg.merchant, app.logger)

	response, err := app.hipsClient.CreateOrder(r.Context(), request)

	if err != nil {
		var providerErr *hips.ProviderError

		if errors.As(err, &providerErr) {
			app.metrics.ObserveProviderCall("rejected")
			app.paymentProviderErrorResponse(w, r, providerErr.Error())
			return
		}

		app.metrics.ObserveProviderCall("error")
		app.serverErrorResponse(w, r, err)
		return
	}

	app.metrics.ObserveProviderCall("ok")

	if err := app.registry.CacheProviderOrder(r.Context(), shopperSessionID, response.ID); err != nil {
		app.logger.Warnw("failed to cache provider order id",
			"shopper_session_id", shopperSessionID,
			"provider_order_id", response.ID,
			"error", err,
		)
	}

	app.successResponse(w, http.StatusCreated, envelope{
		"order_id":     orderID,
		"order_key":    orderKey,
		"html_snippet": response.HTMLSnippet,
	})
}

type checkoutReturnQuery struct {
	SuccessKey    string `form:"hips-order-key-success" validate:"required_without_all=FailedKey LegacyOrderID"`
	FailedKey     string `form:"hips-order-key-failed"`
	LegacyOrderID string `form:"order"`
	LegacyKey     string `form:"key" validate:"required_with=LegacyOrderID"`
}

// checkoutReturnHandler terminates the provider redirect back to the
// storefront. Success redirects resolve the order key through the session
// registry and fall into the order-received path; fail redirects leave the
// cart intact. The legacy order+key pair predates the keyed redirect params
// and is honored for orders that already left pending.
func (app *application) checkoutReturnHandler(w http.ResponseWriter, r *http.Request) {
	var query checkoutReturnQuery

	if err := formDecoder.Decode(&query, r.URL.Query()); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := validate.Struct(&query); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	switch {
	case query.SuccessKey != "":
		app.completeOrder(w, r, query.SuccessKey)

	case query.FailedKey != "":
		app.logger.Warnw("hips payment failed redirect", "order_key", query.FailedKey)

		app.successResponse(w, http.StatusOK, envelope{
			"payment_status": "failed",
			"order_key":      query.FailedKey,
			"notice":         "payment was not completed; your cart has been kept",
		})

	default:
		app.legacyOrderReturn(w, r, query.LegacyOrderID, query.LegacyKey)
	}
}

// legacyOrderReturn serves bookmarked confirmation links that carry the raw
// order id and key. Orders still pending have not been paid, so those fall
// through to not-found rather than leaking order contents.
func (app *application) legacyOrderReturn(w http.ResponseWriter, r *http.Request, orderID, orderKey string) {
	order, err := app.store.Orders.GetByID(r.Context(), orderID)

	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	if order.OrderKey != orderKey || order.Status == store.PendingOrderStatus {
		app.notFoundResponse(w, r)
		return
	}

	app.completeOrder(w, r, order.OrderKey)
}

func (app *application) orderReceivedHandler(w http.ResponseWriter, r *http.Request) {
	orderKey := app.readStringID(r, "orderKey")

	if orderKey == "" {
		app.badRequestResponse(w, r, errors.New("missing order key"))
		return
	}

	app.completeOrder(w, r, orderKey)
}

// completeOrder is the thank-you path: look the order up by key, clear the
// awaiting-payment correlation state, empty the shopper's cart and respond
// with the confirmation document. A stale or unknown key still tears the
// correlation state down and gets a generic confirmation, so a bookmarked
// thank-you link can never wedge a shopper's cart.
func (app *application) completeOrder(w http.ResponseWriter, r *http.Request, orderKey string) {
	orderID, err := app.registry.ResolveByKey(r.Context(), orderKey)

	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			app.logger.Infow("order received with unknown order key", "order_key", orderKey)
			app.clearShopperState(r)

			app.successResponse(w, http.StatusOK, envelope{
				"order":  nil,
				"notice": "thank you, your order has been received",
			})
			return
		}
		app.serverErrorResponse(w, r, err)
		return
	}

	order, err := app.store.Orders.GetByID(r.Context(), orderID)

	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	items, err := app.store.Orders.GetItems(r.Context(), order.ID)

	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	order.Items = items

	app.clearShopperState(r)

	app.successResponse(w, http.StatusOK, envelope{
		"order": order,
	})
}

// clearShopperState drops the awaiting-payment correlation entries and
// empties the cart for the shopper session riding the request, if any.
func (app *application) clearShopperState(r *http.Request) {
	shopperSessionID := app.shopperSessionID(r)

	if shopperSessionID == "" {
		return
	}

	if err := app.registry.Clear(r.Context(), shopperSessionID); err != nil {
		app.logger.Warnw("failed to clear checkout session", "shopper_session_id", shopperSessionID, "error", err)
	}

	if cart, err := app.store.Carts.GetBySessionID(r.Context(), shopperSessionID); err == nil {
		if err := app.store.Carts.Empty(r.Context(), cart.ID); err != nil {
			app.logger.Warnw("failed to empty cart", "cart_id", cart.ID, "error", err)
		}
	}
}
