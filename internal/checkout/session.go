package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/checkoutlab/hips-checkout/internal/db"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("checkout session not found")

// Session binds a client-side checkout attempt to short-lived state before
// any persistent order exists. Exactly one is live per shopper session; a new
// checkout attempt overwrites the prior one.
type Session struct {
	OrderID         string    `json:"order_id"`
	OrderKey        string    `json:"order_key"`
	CartFingerprint string    `json:"cart_fingerprint"`
	ProviderOrderID string    `json:"provider_order_id,omitempty"`
	AwaitingPayment bool      `json:"awaiting_payment"`
	CreatedAt       time.Time `json:"created_at"`
}

// SessionStore is the ephemeral storage behind the registry. Implementations
// must support clearing by order key: the provider webhook arrives without a
// browser session attached.
type SessionStore interface {
	Set(ctx context.Context, shopperSessionID string, session *Session) error
	Get(ctx context.Context, shopperSessionID string) (*Session, error)
	Delete(ctx context.Context, shopperSessionID string) error
	DeleteByOrderKey(ctx context.Context, orderKey string) error
}

// OrderResolver looks up a persisted order by its derived order key.
type OrderResolver interface {
	GetIDByOrderKey(ctx context.Context, orderKey string) (string, error)
}

// Registry correlates checkout attempts with eventual orders.
type Registry struct {
	sessions SessionStore
	orders   OrderResolver
	logger   *zap.SugaredLogger
}

func NewRegistry(sessions SessionStore, orders OrderResolver, logger *zap.SugaredLogger) *Registry {
	return &Registry{
		sessions: sessions,
		orders:   orders,
		logger:   logger,
	}
}

// Start creates a fresh correlation token for the checkout attempt and
// stores it in the shopper's session. Stale tokens from abandoned attempts
// are harmless: they never match a persisted order.
func (r *Registry) Start(ctx context.Context, shopperSessionID string, snapshot *Snapshot) (orderID, orderKey string, err error) {
	orderID = db.GenerateULID()
	orderKey = OrderKey(orderID)

	session := &Session{
		OrderID:         orderID,
		OrderKey:        orderKey,
		CartFingerprint: snapshot.Fingerprint(),
		AwaitingPayment: true,
		CreatedAt:       time.Now(),
	}

	if err := r.sessions.Set(ctx, shopperSessionID, session); err != nil {
		return "", "", fmt.Errorf("failed to store checkout session: %w", err)
	}

	r.logger.Infow("checkout session started", "order_id", orderID, "order_key", orderKey)

	return orderID, orderKey, nil
}

// ResolveByKey maps an order key from a return redirect to the persisted
// order id, if reconciliation has materialized one.
func (r *Registry) ResolveByKey(ctx context.Context, orderKey string) (string, error) {
	return r.orders.GetIDByOrderKey(ctx, orderKey)
}

// Get returns the live checkout session for the shopper, if any.
func (r *Registry) Get(ctx context.Context, shopperSessionID string) (*Session, error) {
	return r.sessions.Get(ctx, shopperSessionID)
}

// CacheProviderOrder records the provider-assigned order id on the live
// session after a successful /orders call.
func (r *Registry) CacheProviderOrder(ctx context.Context, shopperSessionID, providerOrderID string) error {
	session, err := r.sessions.Get(ctx, shopperSessionID)

	if err != nil {
		return err
	}

	session.ProviderOrderID = providerOrderID

	return r.sessions.Set(ctx, shopperSessionID, session)
}

// Clear drops every session-scoped correlation entry for the shopper:
// awaiting-payment marker, order key and cached provider ids all go together.
func (r *Registry) Clear(ctx context.Context, shopperSessionID string) error {
	return r.sessions.Delete(ctx, shopperSessionID)
}

// ClearByOrderKey is the webhook-side variant of Clear, reached when no
// browser session accompanies the call.
func (r *Registry) ClearByOrderKey(ctx context.Context, orderKey string) error {
	return r.sessions.DeleteByOrderKey(ctx, orderKey)
}
