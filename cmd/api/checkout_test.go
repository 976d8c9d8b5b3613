package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/checkoutlab/hips-checkout/internal/checkout"
	"github.com/checkoutlab/hips-checkout/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubOrderStore struct {
	orders map[string]*store.Order
	byKey  map[string]string
	items  map[string][]*store.OrderItem
}

func (s *stubOrderStore) CreateIfAbsent(ctx context.Context, order *store.Order) error {
	return nil
}

func (s *stubOrderStore) GetByID(ctx context.Context, id string) (*store.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubOrderStore) GetIDByOrderKey(ctx context.Context, orderKey string) (string, error) {
	id, ok := s.byKey[orderKey]
	if !ok {
		return "", store.ErrRecordNotFound
	}
	return id, nil
}

func (s *stubOrderStore) GetItems(ctx context.Context, orderID string) ([]*store.OrderItem, error) {
	return s.items[orderID], nil
}

func (s *stubOrderStore) AddNote(ctx context.Context, orderID, note string) error {
	return nil
}

func (s *stubOrderStore) UpdateStatus(ctx context.Context, orderID string, status store.OrderStatus) error {
	return nil
}

type stubCartStore struct {
	bySession map[string]*store.Cart
	emptied   []string
}

func (s *stubCartStore) GetBySessionID(ctx context.Context, sessionID string) (*store.Cart, error) {
	cart, ok := s.bySession[sessionID]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return cart, nil
}

func (s *stubCartStore) Empty(ctx context.Context, cartID string) error {
	s.emptied = append(s.emptied, cartID)
	return nil
}

type stubSessionStore struct {
	sessions map[string]*checkout.Session
	deleted  []string
}

func (s *stubSessionStore) Set(ctx context.Context, shopperSessionID string, session *checkout.Session) error {
	s.sessions[shopperSessionID] = session
	return nil
}

func (s *stubSessionStore) Get(ctx context.Context, shopperSessionID string) (*checkout.Session, error) {
	session, ok := s.sessions[shopperSessionID]
	if !ok {
		return nil, checkout.ErrSessionNotFound
	}
	return session, nil
}

func (s *stubSessionStore) Delete(ctx context.Context, shopperSessionID string) error {
	s.deleted = append(s.deleted, shopperSessionID)
	delete(s.sessions, shopperSessionID)
	return nil
}

func (s *stubSessionStore) DeleteByOrderKey(ctx context.Context, orderKey string) error {
	return nil
}

type checkoutFixture struct {
	app      *application
	orders   *stubOrderStore
	carts    *stubCartStore
	sessions *stubSessionStore
}

func newCheckoutFixture() *checkoutFixture {
	logger := zap.NewNop().Sugar()

	orders := &stubOrderStore{
		orders: map[string]*store.Order{},
		byKey:  map[string]string{},
		items:  map[string][]*store.OrderItem{},
	}
	carts := &stubCartStore{bySession: map[string]*store.Cart{}}
	sessions := &stubSessionStore{sessions: map[string]*checkout.Session{}}

	app := &application{
		cfg: config{
			auth: authConfig{SessionCookieName: "shopper_session"},
		},
		logger:   logger,
		store:    &store.Storage{Orders: orders, Carts: carts},
		registry: checkout.NewRegistry(sessions, orders, logger),
	}

	return &checkoutFixture{app: app, orders: orders, carts: carts, sessions: sessions}
}

func (f *checkoutFixture) seedShopper(sessionID, cartID string) {
	f.carts.bySession[sessionID] = &store.Cart{ID: cartID, SessionID: sessionID, IsActive: true}
	f.sessions.sessions[sessionID] = &checkout.Session{
		OrderID:         "01ORDER",
		OrderKey:        "order_01ORDER",
		AwaitingPayment: true,
	}
}

func orderReceivedRequest(sessionID string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/v1/orders/received/order_01ORDER", nil)
	r.AddCookie(&http.Cookie{Name: "shopper_session", Value: sessionID})
	return r
}

type confirmationBody struct {
	Status string `json:"status"`
	Data   struct {
		Order  *store.Order `json:"order"`
		Notice string       `json:"notice"`
	} `json:"data"`
}

func TestCompleteOrder_SettledOrder(t *testing.T) {
	f := newCheckoutFixture()
	f.seedShopper("sess-1", "cart-1")
	f.orders.byKey["order_01ORDER"] = "ord_1"
	f.orders.orders["ord_1"] = &store.Order{ID: "ord_1", OrderKey: "order_01ORDER", Status: store.CompletedOrderStatus}
	f.orders.items["ord_1"] = []*store.OrderItem{{Name: "Mug", Quantity: 2}}

	rr := httptest.NewRecorder()
	f.app.completeOrder(rr, orderReceivedRequest("sess-1"), "order_01ORDER")

	require.Equal(t, http.StatusOK, rr.Code)

	var body confirmationBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.NotNil(t, body.Data.Order)
	assert.Equal(t, "ord_1", body.Data.Order.ID)
	assert.Len(t, body.Data.Order.Items, 1)

	assert.Equal(t, []string{"sess-1"}, f.sessions.deleted)
	assert.Equal(t, []string{"cart-1"}, f.carts.emptied)
}

func TestCompleteOrder_UnknownKeyStillClearsShopperState(t *testing.T) {
	f := newCheckoutFixture()
	f.seedShopper("sess-1", "cart-1")

	rr := httptest.NewRecorder()
	f.app.completeOrder(rr, orderReceivedRequest("sess-1"), "order_STALE")

	require.Equal(t, http.StatusOK, rr.Code)

	var body confirmationBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Nil(t, body.Data.Order)
	assert.NotEmpty(t, body.Data.Notice)

	assert.Equal(t, []string{"sess-1"}, f.sessions.deleted)
	assert.Equal(t, []string{"cart-1"}, f.carts.emptied)
}

func TestCompleteOrder_NoShopperSession(t *testing.T) {
	f := newCheckoutFixture()

	r := httptest.NewRequest(http.MethodGet, "/v1/orders/received/order_STALE", nil)
	rr := httptest.NewRecorder()
	f.app.completeOrder(rr, r, "order_STALE")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, f.sessions.deleted)
	assert.Empty(t, f.carts.emptied)
}

func TestCheckoutReturn_FailedRedirectKeepsCart(t *testing.T) {
	f := newCheckoutFixture()
	f.seedShopper("sess-1", "cart-1")

	r := httptest.NewRequest(http.MethodGet, "/v1/checkout/return?hips-order-key-failed=order_01ORDER", nil)
	r.AddCookie(&http.Cookie{Name: "shopper_session", Value: "sess-1"})

	rr := httptest.NewRecorder()
	f.app.checkoutReturnHandler(rr, r)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, f.sessions.deleted)
	assert.Empty(t, f.carts.emptied)
}

func TestLegacyOrderReturn_PendingOrderNotFound(t *testing.T) {
	f := newCheckoutFixture()
	f.seedShopper("sess-1", "cart-1")
	f.orders.orders["ord_1"] = &store.Order{ID: "ord_1", OrderKey: "order_01ORDER", Status: store.PendingOrderStatus}
	f.orders.byKey["order_01ORDER"] = "ord_1"

	r := httptest.NewRequest(http.MethodGet, "/v1/checkout/return?order=ord_1&key=order_01ORDER", nil)
	r.AddCookie(&http.Cookie{Name: "shopper_session", Value: "sess-1"})

	rr := httptest.NewRecorder()
	f.app.legacyOrderReturn(rr, r, "ord_1", "order_01ORDER")

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, f.sessions.deleted)
	assert.Empty(t, f.carts.emptied)
}

func TestLegacyOrderReturn_KeyMismatchNotFound(t *testing.T) {
	f := newCheckoutFixture()
	f.orders.orders["ord_1"] = &store.Order{ID: "ord_1", OrderKey: "order_01ORDER", Status: store.CompletedOrderStatus}

	r := httptest.NewRequest(http.MethodGet, "/v1/checkout/return?order=ord_1&key=order_WRONG", nil)

	rr := httptest.NewRecorder()
	f.app.legacyOrderReturn(rr, r, "ord_1", "order_WRONG")

	require.Equal(t, http.StatusNotFound, rr.Code)
}
