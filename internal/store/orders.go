package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/checkoutlab/hips-checkout/internal/db"
	"github.com/lib/pq"
)

type OrderStatus string

var (
	PendingOrderStatus    OrderStatus = "pending"
	OnHoldOrderStatus     OrderStatus = "on-hold"
	ProcessingOrderStatus OrderStatus = "processing"
	CompletedOrderStatus  OrderStatus = "completed"
	FailedOrderStatus     OrderStatus = "failed"
)

const (
	OrderItemTypeLine     = "line_item"
	OrderItemTypeShipping = "shipping"
)

type OrderAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type Order struct {
	ID                 string       `json:"id"`
	OrderKey           string       `json:"order_key"`
	UserID             string       `json:"user_id,omitempty"`
	Status             OrderStatus  `json:"status"`
	Billing            OrderAddress `json:"billing"`
	Shipping           OrderAddress `json:"shipping"`
	PaymentMethod      string       `json:"payment_method"`
	PaymentMethodTitle string       `json:"payment_method_title"`
	TransactionID      string       `json:"transaction_id"`
	CreatedVia         string       `json:"created_via"`
	Captured           bool         `json:"captured"`
	Paid               bool         `json:"paid"`
	TotalAmount        float64      `json:"total_amount"`
	ProviderResponse   []byte       `json:"-"`
	Items              []*OrderItem `json:"items,omitempty"`
	Notes              []string     `json:"notes,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

type OrderItem struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	Type        string    `json:"type"`
	ProductID   string    `json:"product_id,omitempty"`
	VariationID string    `json:"variation_id,omitempty"`
	MethodID    string    `json:"method_id,omitempty"`
	Name        string    `json:"name"`
	Quantity    int       `json:"quantity"`
	Subtotal    float64   `json:"subtotal"`
	SubtotalTax float64   `json:"subtotal_tax"`
	Total       float64   `json:"total"`
	TotalTax    float64   `json:"total_tax"`
	CreatedAt   time.Time `json:"created_at"`
}

type OrderStore interface {
	CreateIfAbsent(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetIDByOrderKey(ctx context.Context, orderKey string) (string, error)
	GetItems(ctx context.Context, orderID string) ([]*OrderItem, error)
	AddNote(ctx context.Context, orderID, note string) error
	UpdateStatus(ctx context.Context, orderID string, status OrderStatus) error
}

type OrderModel struct {
	db *sql.DB
}

func NewOrderModel(db *sql.DB) OrderStore {
	return &OrderModel{db}
}

// CreateIfAbsent persists the order, its items and notes in one transaction.
// The unique index on orders.order_key is the idempotence guard: a concurrent
// or retried insert for the same merchant reference fails with
// ErrDuplicateOrderReference and leaves no partial rows behind.
func (m *OrderModel) CreateIfAbsent(ctx context.Context, order *Order) error {
	return withTrx(m.db, ctx, func(tx *sql.Tx) error {
		if err := createOrder(ctx, tx, order); err != nil {
			return err
		}

		for _, item := range order.Items {
			if err := createOrderItem(ctx, tx, order.ID, item); err != nil {
				return err
			}
		}

		for _, note := range order.Notes {
			if err := createOrderNote(ctx, tx, order.ID, note); err != nil {
				return err
			}
		}

		return nil
	})
}

func createOrder(ctx context.Context, tx *sql.Tx, order *Order) error {
	if order.ID == "" {
		order.ID = db.GenerateULID()
	}

	query := `INSERT INTO orders(
				id, order_key, user_id, status,
				billing_first_name, billing_last_name, billing_company,
				billing_address_1, billing_address_2, billing_city,
				billing_postcode, billing_country, billing_email, billing_phone,
				shipping_first_name, shipping_last_name, shipping_company,
				shipping_address_1, shipping_address_2, shipping_city,
				shipping_postcode, shipping_country,
				payment_method, payment_method_title, transaction_id,
				created_via, captured, paid, total_amount, provider_response)
			  VALUES ($1, $2, NULLIF($3, ''), $4,
					$5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
					$15, $16, $17, $18, $19, $20, $21, $22,
					$23, $24, $25, $26, $27, $28, $29, $30)
			  RETURNING created_at, updated_at`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	args := []any{
		order.ID, order.OrderKey, order.UserID, order.Status,
		order.Billing.FirstName, order.Billing.LastName, order.Billing.Company,
		order.Billing.Address1, order.Billing.Address2, order.Billing.City,
		order.Billing.Postcode, order.Billing.Country, order.Billing.Email, order.Billing.Phone,
		order.Shipping.FirstName, order.Shipping.LastName, order.Shipping.Company,
		order.Shipping.Address1, order.Shipping.Address2, order.Shipping.City,
		order.Shipping.Postcode, order.Shipping.Country,
		order.PaymentMethod, order.PaymentMethodTitle, order.TransactionID,
		order.CreatedVia, order.Captured, order.Paid, order.TotalAmount, order.ProviderResponse,
	}

	err := tx.QueryRowContext(ctx, query, args...).Scan(&order.CreatedAt, &order.UpdatedAt)

	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" && pgErr.Constraint == "orders_order_key_key" {
				return ErrDuplicateOrderReference
			}
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func createOrderItem(ctx context.Context, tx *sql.Tx, orderID string, item *OrderItem) error {
	item.ID = db.GenerateULID()
	item.OrderID = orderID

	query := `INSERT INTO order_items(
				id, order_id, type, product_id, variation_id, method_id,
				name, quantity, subtotal, subtotal_tax, total, total_tax)
			  VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''),
					$7, $8, $9, $10, $11, $12)
			  RETURNING created_at`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	args := []any{
		item.ID, item.OrderID, item.Type, item.ProductID, item.VariationID, item.MethodID,
		item.Name, item.Quantity, item.Subtotal, item.SubtotalTax, item.Total, item.TotalTax,
	}

	return tx.QueryRowContext(ctx, query, args...).Scan(&item.CreatedAt)
}

func createOrderNote(ctx context.Context, tx *sql.Tx, orderID, note string) error {
	query := `INSERT INTO order_notes(id, order_id, note) VALUES ($1, $2, $3)`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := tx.ExecContext(ctx, query, db.GenerateULID(), orderID, note)
	return err
}

func (m *OrderModel) GetByID(ctx context.Context, id string) (*Order, error) {
	query := `SELECT
				id, order_key, COALESCE(user_id, ''), status,
				billing_first_name, billing_last_name, billing_company,
				billing_address_1, billing_address_2, billing_city,
				billing_postcode, billing_country, billing_email, billing_phone,
				shipping_first_name, shipping_last_name, shipping_company,
				shipping_address_1, shipping_address_2, shipping_city,
				shipping_postcode, shipping_country,
				payment_method, payment_method_title, transaction_id,
				created_via, captured, paid, total_amount,
				created_at, updated_at
			  FROM orders
			  WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	order := &Order{}

	err := m.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &order.OrderKey, &order.UserID, &order.Status,
		&order.Billing.FirstName, &order.Billing.LastName, &order.Billing.Company,
		&order.Billing.Address1, &order.Billing.Address2, &order.Billing.City,
		&order.Billing.Postcode, &order.Billing.Country, &order.Billing.Email, &order.Billing.Phone,
		&order.Shipping.FirstName, &order.Shipping.LastName, &order.Shipping.Company,
		&order.Shipping.Address1, &order.Shipping.Address2, &order.Shipping.City,
		&order.Shipping.Postcode, &order.Shipping.Country,
		&order.PaymentMethod, &order.PaymentMethodTitle, &order.TransactionID,
		&order.CreatedVia, &order.Captured, &order.Paid, &order.TotalAmount,
		&order.CreatedAt, &order.UpdatedAt,
	)

	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound

		default:
			return nil, err
		}
	}

	return order, nil
}

func (m *OrderModel) GetIDByOrderKey(ctx context.Context, orderKey string) (string, error) {
	query := `SELECT id FROM orders WHERE order_key = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var id string

	err := m.db.QueryRowContext(ctx, query, orderKey).Scan(&id)

	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return "", ErrRecordNotFound

		default:
			return "", err
		}
	}

	return id, nil
}

func (m *OrderModel) GetItems(ctx context.Context, orderID string) ([]*OrderItem, error) {
	query := `SELECT
				id, order_id, type, COALESCE(product_id, ''), COALESCE(variation_id, ''),
				COALESCE(method_id, ''), name, quantity, subtotal, subtotal_tax,
				total, total_tax, created_at
			  FROM order_items
			  WHERE order_id = $1
			  ORDER BY created_at, id`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := m.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []*OrderItem

	for rows.Next() {
		item := &OrderItem{}

		err := rows.Scan(
			&item.ID, &item.OrderID, &item.Type, &item.ProductID, &item.VariationID,
			&item.MethodID, &item.Name, &item.Quantity, &item.Subtotal, &item.SubtotalTax,
			&item.Total, &item.TotalTax, &item.CreatedAt,
		)

		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating over order item rows: %w", err)
	}

	return items, nil
}

func (m *OrderModel) AddNote(ctx context.Context, orderID, note string) error {
	query := `INSERT INTO order_notes(id, order_id, note) VALUES ($1, $2, $3)`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := m.db.ExecContext(ctx, query, db.GenerateULID(), orderID, note)
	return err
}

func (m *OrderModel) UpdateStatus(ctx context.Context, orderID string, status OrderStatus) error {
	query := `UPDATE orders SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	result, err := m.db.ExecContext(ctx, query, status, orderID)

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
