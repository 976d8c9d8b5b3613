package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const QueryTimeoutDuration = 5 * time.Second

var (
	ErrRecordNotFound          = errors.New("record not found")
	ErrDuplicateEmail          = errors.New("duplicate email")
	ErrDuplicateOrderReference = errors.New("order already exists for merchant reference")
)

type Storage struct {
	Orders    OrderStore
	Products  ProductStore
	Users     UserStore
	Carts     CartStore
	CartItems CartItemStore
}

func NewStorage(db *sql.DB) *Storage {
	return &Storage{
		Orders:    NewOrderModel(db),
		Products:  NewProductModel(db),
		Users:     NewUserModel(db),
		Carts:     NewCartModel(db),
		CartItems: NewCartItemModel(db),
	}
}

func withTrx(db *sql.DB, ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)

	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
