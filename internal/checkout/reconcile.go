package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/checkoutlab/hips-checkout/internal/encrypt"
	"github.com/checkoutlab/hips-checkout/internal/hips"
	"github.com/checkoutlab/hips-checkout/internal/store"
	"go.uber.org/zap"
)

// State tracks a webhook delivery through reconciliation.
type State string

const (
	StateReceived      State = "received"
	StateValidated     State = "validated"
	StateMaterializing State = "materializing"
	StateSettled       State = "settled"
	StateRejected      State = "rejected"
	StateIgnored       State = "ignored"
	StateDuplicate     State = "duplicate"
)

// Outcome is the terminal result of processing one webhook delivery.
type Outcome struct {
	State               State
	Order               *store.Order
	Customer            *store.User
	CustomerProvisioned bool
	SkippedItems        int
}

type OrderStore interface {
	CreateIfAbsent(ctx context.Context, order *store.Order) error
	GetIDByOrderKey(ctx context.Context, orderKey string) (string, error)
}

type ProductCatalog interface {
	GetByID(ctx context.Context, productID string) (*store.Product, error)
	ReduceStock(ctx context.Context, productID string, quantity int) error
}

type CustomerDirectory interface {
	Create(ctx context.Context, user *store.User) error
	GetByEmail(ctx context.Context, email string) (*store.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// Reconciler drives order materialization from provider webhook events.
type Reconciler struct {
	orders   OrderStore
	products ProductCatalog
	users    CustomerDirectory
	registry *Registry
	cfg      MerchantConfig
	logger   *zap.SugaredLogger
}

func NewReconciler(
	orders OrderStore,
	products ProductCatalog,
	users CustomerDirectory,
	registry *Registry,
	cfg MerchantConfig,
	logger *zap.SugaredLogger,
) *Reconciler {
	return &Reconciler{
		orders:   orders,
		products: products,
		users:    users,
		registry: registry,
		cfg:      cfg,
		logger:   logger,
	}
}

// Process reconciles one parsed webhook event into an order. current is the
// authenticated shopper when the delivery rides a browser session, nil for
// server-to-server deliveries.
//
// Retried and racing deliveries are safe: an early lookup catches the common
// case and the unique order-key constraint on insert closes the window
// between lookup and write.
func (rc *Reconciler) Process(ctx context.Context, event *hips.Event, current *store.User) (*Outcome, error) {
	if event.Event != hips.EventOrderSuccessful {
		rc.logger.Infow("ignoring hips event", "event", event.Event)
		return &Outcome{State: StateIgnored}, nil
	}

	resource := event.Resource

	if resource.MerchantReference.OrderID == "" {
		rc.logger.Warnw("hips event missing merchant reference", "event", event.Event, "resource_id", resource.ID)
		return &Outcome{State: StateRejected}, nil
	}

	if resource.Status != hips.StatusSuccessful {
		rc.logger.Infow("ignoring hips event with non-successful status",
			"event", event.Event, "status", resource.Status)
		return &Outcome{State: StateIgnored}, nil
	}

	orderKey := OrderKey(resource.MerchantReference.OrderID)

	if _, err := rc.orders.GetIDByOrderKey(ctx, orderKey); err == nil {
		rc.logger.Infow("duplicate webhook delivery", "order_key", orderKey)
		return &Outcome{State: StateDuplicate}, nil
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	rawEvent, _ := json.Marshal(event)

	order := &store.Order{
		OrderKey:           orderKey,
		Status:             store.PendingOrderStatus,
		PaymentMethod:      "hips",
		PaymentMethodTitle: "Hips",
		TransactionID:      resource.ID,
		CreatedVia:         "checkout",
		Captured:           !rc.cfg.CaptureDisabled(),
		ProviderResponse:   rawEvent,
	}

	skipped, err := rc.buildLineItems(ctx, order, resource.Cart)

	if err != nil {
		return nil, err
	}

	rc.applyAddresses(order, resource)

	customer, provisioned, err := rc.resolveCustomer(ctx, current, order.Billing)

	if err != nil {
		return nil, err
	}

	if customer != nil {
		order.UserID = customer.ID
	}

	if resource.RequireShipping && resource.Shipping != nil {
		addShippingLine(order, resource.Shipping)
	}

	order.TotalAmount = orderTotal(order.Items)

	if rc.cfg.CaptureDisabled() {
		order.Status = store.OnHoldOrderStatus
		order.Notes = append(order.Notes, fmt.Sprintf(
			"Hips payment authorised (Authorize ID: %s). Process order to take payment, or cancel to remove the pre-authorization.",
			resource.ID))
	} else {
		order.Status = store.CompletedOrderStatus
		order.Paid = true
		order.Notes = append(order.Notes, fmt.Sprintf("Hips payment complete (Payment ID: %s)", resource.ID))
	}

	if err := rc.orders.CreateIfAbsent(ctx, order); err != nil {
		if errors.Is(err, store.ErrDuplicateOrderReference) {
			rc.logger.Infow("duplicate webhook delivery lost insert race", "order_key", orderKey)
			return &Outcome{State: StateDuplicate}, nil
		}
		return nil, err
	}

	rc.reduceStock(ctx, order)

	if err := rc.registry.ClearByOrderKey(ctx, orderKey); err != nil {
		rc.logger.Warnw("failed to clear checkout session", "order_key", orderKey, "error", err)
	}

	rc.logger.Infow("hips payment settled",
		"order_id", order.ID,
		"order_key", orderKey,
		"payment_id", resource.ID,
		"status", order.Status,
		"total", order.TotalAmount,
		"skipped_items", skipped,
	)

	return &Outcome{
		State:               StateSettled,
		Order:               order,
		Customer:            customer,
		CustomerProvisioned: provisioned,
		SkippedItems:        skipped,
	}, nil
}

// buildLineItems populates order items from the echoed provider cart,
// skipping the shipping fee pseudo-item and any product that no longer
// resolves. A vanished product costs one line, not the whole order.
func (rc *Reconciler) buildLineItems(ctx context.Context, order *store.Order, cart *hips.Cart) (int, error) {
	if cart == nil {
		return 0, nil
	}

	skipped := 0

	for _, item := range cart.Items {
		if item.Type == hips.ItemTypeShippingFee {
			continue
		}

		if item.ProductID == "" {
			continue
		}

		product, err := rc.products.GetByID(ctx, item.ProductID)

		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				skipped++
				rc.logger.Warnw("skipping unresolvable line item",
					"product_id", item.ProductID, "order_key", order.OrderKey)
				continue
			}
			return skipped, err
		}

		order.Items = append(order.Items, &store.OrderItem{
			Type:        store.OrderItemTypeLine,
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			Name:        product.Name,
			Quantity:    item.Quantity,
			Subtotal:    float64(item.UnitPrice-item.Tax) / 100,
			SubtotalTax: float64(item.Tax) / 100,
			Total:       float64(item.Price-item.Tax) / 100,
			TotalTax:    float64(item.Tax) / 100,
		})
	}

	return skipped, nil
}

// orderFieldSetters maps wire field names to typed setters, built once and
// iterated explicitly.
var orderFieldSetters = map[string]func(*store.Order, string){
	"billing_first_name":  func(o *store.Order, v string) { o.Billing.FirstName = v },
	"billing_last_name":   func(o *store.Order, v string) { o.Billing.LastName = v },
	"billing_company":     func(o *store.Order, v string) { o.Billing.Company = v },
	"billing_address_1":   func(o *store.Order, v string) { o.Billing.Address1 = v },
	"billing_address_2":   func(o *store.Order, v string) { o.Billing.Address2 = v },
	"billing_city":        func(o *store.Order, v string) { o.Billing.City = v },
	"billing_postcode":    func(o *store.Order, v string) { o.Billing.Postcode = v },
	"billing_country":     func(o *store.Order, v string) { o.Billing.Country = v },
	"billing_email":       func(o *store.Order, v string) { o.Billing.Email = v },
	"billing_phone":       func(o *store.Order, v string) { o.Billing.Phone = v },
	"shipping_first_name": func(o *store.Order, v string) { o.Shipping.FirstName = v },
	"shipping_last_name":  func(o *store.Order, v string) { o.Shipping.LastName = v },
	"shipping_company":    func(o *store.Order, v string) { o.Shipping.Company = v },
	"shipping_address_1":  func(o *store.Order, v string) { o.Shipping.Address1 = v },
	"shipping_address_2":  func(o *store.Order, v string) { o.Shipping.Address2 = v },
	"shipping_city":       func(o *store.Order, v string) { o.Shipping.City = v },
	"shipping_postcode":   func(o *store.Order, v string) { o.Shipping.Postcode = v },
	"shipping_country":    func(o *store.Order, v string) { o.Shipping.Country = v },
}

func applyOrderFields(order *store.Order, fields map[string]string) {
	for name, value := range fields {
		if set, ok := orderFieldSetters[name]; ok {
			set(order, value)
		}
	}
}

// applyAddresses copies billing unconditionally; shipping comes from the
// billing address when the provider marks shipping as is_billing (or omits
// it), otherwise from the shipping address itself.
func (rc *Reconciler) applyAddresses(order *store.Order, resource *hips.Resource) {
	billing := resource.BillingAddress

	if billing == nil {
		return
	}

	applyOrderFields(order, addressFields("billing", billing))

	shippingSource := billing
	if resource.ShippingAddress != nil && !resource.ShippingAddress.IsBilling {
		shippingSource = resource.ShippingAddress
	}

	applyOrderFields(order, addressFields("shipping", shippingSource))
}

func addressFields(prefix string, address *hips.Address) map[string]string {
	fields := map[string]string{
		prefix + "_first_name": address.GivenName,
		prefix + "_last_name":  address.FamilyName,
		prefix + "_company":    address.CompanyName,
		prefix + "_address_1":  address.StreetAddress,
		prefix + "_address_2":  address.StreetNumber,
		prefix + "_city":       address.City,
		prefix + "_postcode":   address.PostalCode,
		prefix + "_country":    address.Country,
	}

	if prefix == "billing" {
		fields["billing_email"] = address.Email
		fields["billing_phone"] = address.PhoneMobile
	}

	return fields
}

// resolveCustomer decides which account, if any, the order attaches to. An
// authenticated shopper always gets the order. Otherwise an account is
// provisioned only when guest checkout is disabled and no account exists for
// the billing email; a pre-existing account does not claim the order.
func (rc *Reconciler) resolveCustomer(ctx context.Context, current *store.User, billing store.OrderAddress) (*store.User, bool, error) {
	if !current.IsAnonymous() {
		return current, false, nil
	}

	if rc.cfg.GuestCheckout || billing.Email == "" {
		return nil, false, nil
	}

	_, err := rc.users.GetByEmail(ctx, billing.Email)

	if err == nil {
		return nil, false, nil
	}

	if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, false, err
	}

	username, err := rc.uniqueUsername(ctx, billing.Email)

	if err != nil {
		return nil, false, err
	}

	plaintext, err := encrypt.GenerateRandomString(20)

	if err != nil {
		return nil, false, err
	}

	user := &store.User{
		Email:     billing.Email,
		Username:  username,
		FirstName: billing.FirstName,
		LastName:  billing.LastName,
		IsActive:  true,
	}

	if err := user.Password.Set(plaintext); err != nil {
		return nil, false, err
	}

	if err := rc.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			// Lost a provisioning race; leave the order unattached.
			return nil, false, nil
		}
		return nil, false, err
	}

	rc.logger.Infow("provisioned customer account", "username", username)

	return user, true, nil
}

// uniqueUsername derives a username from the email local part, deduplicating
// with an incrementing numeric suffix.
func (rc *Reconciler) uniqueUsername(ctx context.Context, email string) (string, error) {
	base := sanitizeUsername(strings.Split(email, "@")[0])

	if base == "" {
		base = "customer"
	}

	username := base

	for suffix := 1; ; suffix++ {
		exists, err := rc.users.UsernameExists(ctx, username)

		if err != nil {
			return "", err
		}

		if !exists {
			return username, nil
		}

		username = base + strconv.Itoa(suffix)
	}
}

func sanitizeUsername(raw string) string {
	var builder strings.Builder

	for _, r := range strings.ToLower(raw) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// addShippingLine appends the provider-quoted shipping as its own order
// line. The provider fee includes vat.
func addShippingLine(order *store.Order, shipping *hips.Shipping) {
	fee := float64(shipping.Fee) / 100
	vat := float64(shipping.Vat) / 100
	cost := fee - vat

	name := shipping.Name
	if name == "" {
		name = "Shipping"
	}

	order.Items = append(order.Items, &store.OrderItem{
		Type:        store.OrderItemTypeShipping,
		MethodID:    "hips_shipping_method",
		Name:        name,
		Quantity:    1,
		Subtotal:    cost,
		SubtotalTax: vat,
		Total:       cost,
		TotalTax:    vat,
	})
}

func orderTotal(items []*store.OrderItem) float64 {
	var total float64

	for _, item := range items {
		total += item.Total + item.TotalTax
	}

	return total
}

func (rc *Reconciler) reduceStock(ctx context.Context, order *store.Order) {
	for _, item := range order.Items {
		if item.Type != store.OrderItemTypeLine {
			continue
		}

		if err := rc.products.ReduceStock(ctx, item.ProductID, item.Quantity); err != nil {
			rc.logger.Warnw("failed to reduce stock",
				"product_id", item.ProductID, "order_id", order.ID, "error", err)
		}
	}
}
