package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Cart is the live shopping cart, keyed by the shopper's browser session so
// anonymous shoppers can check out. Tax and discount totals are maintained by
// the cart endpoints as items change.
type Cart struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"session_id"`
	UserID           string    `json:"user_id,omitempty"`
	TaxTotal         float64   `json:"tax_total"`
	DiscountTotal    float64   `json:"discount_total"`
	DiscountTaxTotal float64   `json:"discount_tax_total"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type CartItem struct {
	ID          string    `json:"id"`
	CartID      string    `json:"cart_id"`
	ProductID   string    `json:"product_id"`
	VariationID string    `json:"variation_id,omitempty"`
	Quantity    int       `json:"quantity"`
	AddedAt     time.Time `json:"added_at"`
	Product     *Product  `json:"product,omitempty"`
}

type CartStore interface {
	GetBySessionID(ctx context.Context, sessionID string) (*Cart, error)
	Empty(ctx context.Context, cartID string) error
}

type CartModel struct {
	db *sql.DB
}

func NewCartModel(db *sql.DB) CartStore {
	return &CartModel{db}
}

func (m *CartModel) GetBySessionID(ctx context.Context, sessionID string) (*Cart, error) {
	query := `
		SELECT id, session_id, COALESCE(user_id, ''), tax_total, discount_total,
			   discount_tax_total, is_active, created_at, updated_at
		FROM carts
		WHERE session_id = $1 AND is_active = true
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	cart := &Cart{}

	err := m.db.QueryRowContext(ctx, query, sessionID).Scan(
		&cart.ID, &cart.SessionID, &cart.UserID, &cart.TaxTotal, &cart.DiscountTotal,
		&cart.DiscountTaxTotal, &cart.IsActive, &cart.CreatedAt, &cart.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return cart, nil
}

// Empty removes every item and resets the cart totals. Called from the
// thank-you path after a settled checkout.
func (m *CartModel) Empty(ctx context.Context, cartID string) error {
	return withTrx(m.db, ctx, func(tx *sql.Tx) error {
		ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
		defer cancel()

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
			return fmt.Errorf("failed to empty cart items: %w", err)
		}

		query := `UPDATE carts
				  SET tax_total = 0, discount_total = 0, discount_tax_total = 0,
					  updated_at = CURRENT_TIMESTAMP
				  WHERE id = $1`

		if _, err := tx.ExecContext(ctx, query, cartID); err != nil {
			return fmt.Errorf("failed to reset cart totals: %w", err)
		}

		return nil
	})
}

type CartItemStore interface {
	GetItems(ctx context.Context, cartID string) ([]*CartItem, error)
}

type CartItemModel struct {
	db *sql.DB
}

func NewCartItemModel(db *sql.DB) CartItemStore {
	return &CartItemModel{db}
}

// GetItems returns the cart lines joined with their product so the snapshot
// builder never needs a second read per item.
func (m *CartItemModel) GetItems(ctx context.Context, cartID string) ([]*CartItem, error) {
	query := `
		SELECT
			ci.id, ci.cart_id, ci.product_id, COALESCE(ci.variation_id, ''), ci.quantity, ci.added_at,
			p.id, p.sku, p.name, p.price, p.weight, p.stock_quantity, p.published,
			p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at, ci.id
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := m.db.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var items []*CartItem

	for rows.Next() {
		item := &CartItem{Product: &Product{}}

		err := rows.Scan(
			&item.ID, &item.CartID, &item.ProductID, &item.VariationID, &item.Quantity, &item.AddedAt,
			&item.Product.ID, &item.Product.SKU, &item.Product.Name, &item.Product.Price,
			&item.Product.Weight, &item.Product.StockQuantity, &item.Product.Published,
			&item.Product.CreatedAt, &item.Product.UpdatedAt,
		)

		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating over cart item rows: %w", err)
	}

	return items, nil
}
