package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Product struct {
	ID            string    `json:"id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Weight        float64   `json:"weight"`
	StockQuantity int       `json:"stock_quantity"`
	Published     bool      `json:"published"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ProductStore interface {
	GetByID(ctx context.Context, productID string) (*Product, error)
	ReduceStock(ctx context.Context, productID string, quantity int) error
}

type ProductModel struct {
	db *sql.DB
}

func NewProductModel(db *sql.DB) ProductStore {
	return &ProductModel{db}
}

func (m *ProductModel) GetByID(ctx context.Context, productID string) (*Product, error) {
	query := `SELECT id, sku, name, price, weight, stock_quantity, published, created_at, updated_at
			  FROM products
			  WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	product := &Product{}

	err := m.db.QueryRowContext(ctx, query, productID).Scan(
		&product.ID, &product.SKU, &product.Name, &product.Price, &product.Weight,
		&product.StockQuantity, &product.Published, &product.CreatedAt, &product.UpdatedAt,
	)

	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound

		default:
			return nil, err
		}
	}

	return product, nil
}

// ReduceStock decrements the stock level, clamping at zero. Reservation on
// authorize-only payments uses the same path as settlement.
func (m *ProductModel) ReduceStock(ctx context.Context, productID string, quantity int) error {
	query := `UPDATE products
			  SET stock_quantity = GREATEST(stock_quantity - $1, 0), updated_at = CURRENT_TIMESTAMP
			  WHERE id = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := m.db.ExecContext(ctx, query, quantity, productID)

	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()

	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrRecordNotFound
	}

	return nil
}
