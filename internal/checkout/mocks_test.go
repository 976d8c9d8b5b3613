package checkout

import (
	"context"

	"github.com/checkoutlab/hips-checkout/internal/store"
)

// fakeSessionStore implements SessionStore in memory.
type fakeSessionStore struct {
	sessions map[string]*Session
	byKey    map[string]string
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions: make(map[string]*Session),
		byKey:    make(map[string]string),
	}
}

func (f *fakeSessionStore) Set(_ context.Context, shopperSessionID string, session *Session) error {
	f.sessions[shopperSessionID] = session
	f.byKey[session.OrderKey] = shopperSessionID
	return nil
}

func (f *fakeSessionStore) Get(_ context.Context, shopperSessionID string) (*Session, error) {
	session, ok := f.sessions[shopperSessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessionStore) Delete(_ context.Context, shopperSessionID string) error {
	if session, ok := f.sessions[shopperSessionID]; ok {
		delete(f.byKey, session.OrderKey)
	}
	delete(f.sessions, shopperSessionID)
	return nil
}

func (f *fakeSessionStore) DeleteByOrderKey(_ context.Context, orderKey string) error {
	if shopperSessionID, ok := f.byKey[orderKey]; ok {
		delete(f.sessions, shopperSessionID)
	}
	delete(f.byKey, orderKey)
	return nil
}

// fakeOrderStore captures the order handed to CreateIfAbsent.
type fakeOrderStore struct {
	existing  map[string]string
	created   *store.Order
	createErr error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{existing: make(map[string]string)}
}

func (f *fakeOrderStore) CreateIfAbsent(_ context.Context, order *store.Order) error {
	if f.createErr != nil {
		return f.createErr
	}

	if _, ok := f.existing[order.OrderKey]; ok {
		return store.ErrDuplicateOrderReference
	}

	order.ID = "ord_" + order.OrderKey
	f.created = order
	f.existing[order.OrderKey] = order.ID
	return nil
}

func (f *fakeOrderStore) GetIDByOrderKey(_ context.Context, orderKey string) (string, error) {
	if id, ok := f.existing[orderKey]; ok {
		return id, nil
	}
	return "", store.ErrRecordNotFound
}

// fakeProductCatalog serves products from a map and records stock reductions.
type fakeProductCatalog struct {
	products map[string]*store.Product
	reduced  map[string]int
}

func newFakeProductCatalog(products ...*store.Product) *fakeProductCatalog {
	catalog := &fakeProductCatalog{
		products: make(map[string]*store.Product),
		reduced:  make(map[string]int),
	}
	for _, product := range products {
		catalog.products[product.ID] = product
	}
	return catalog
}

func (f *fakeProductCatalog) GetByID(_ context.Context, productID string) (*store.Product, error) {
	product, ok := f.products[productID]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return product, nil
}

func (f *fakeProductCatalog) ReduceStock(_ context.Context, productID string, quantity int) error {
	f.reduced[productID] += quantity
	return nil
}

// fakeCustomerDirectory backs customer resolution.
type fakeCustomerDirectory struct {
	byEmail   map[string]*store.User
	usernames map[string]bool
	created   *store.User
	createErr error
}

func newFakeCustomerDirectory() *fakeCustomerDirectory {
	return &fakeCustomerDirectory{
		byEmail:   make(map[string]*store.User),
		usernames: make(map[string]bool),
	}
}

func (f *fakeCustomerDirectory) Create(_ context.Context, user *store.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	user.ID = "usr_" + user.Username
	f.created = user
	f.byEmail[user.Email] = user
	f.usernames[user.Username] = true
	return nil
}

func (f *fakeCustomerDirectory) GetByEmail(_ context.Context, email string) (*store.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeCustomerDirectory) UsernameExists(_ context.Context, username string) (bool, error) {
	return f.usernames[username], nil
}
