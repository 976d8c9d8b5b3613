package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/checkoutlab/hips-checkout/internal/db"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// User is a customer account. Accounts are provisioned automatically during
// webhook reconciliation when guest checkout is disabled.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Password  password  `json:"-"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var AnonymousUser = &User{}

func (u *User) IsAnonymous() bool {
	return u == nil || u == AnonymousUser || u.ID == ""
}

type password struct {
	plaintext *string
	hash      []byte
}

func (p *password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), 12)

	if err != nil {
		return err
	}

	p.plaintext = &plaintextPassword
	p.hash = hash

	return nil
}

func (p *password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(p.hash, []byte(plaintextPassword))

	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}

	return true, nil
}

type UserStore interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

type UserModel struct {
	db *sql.DB
}

func NewUserModel(db *sql.DB) UserStore {
	return &UserModel{db}
}

func (m *UserModel) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users(id, email, username, password_hash, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	if user.ID == "" {
		user.ID = db.GenerateULID()
	}

	args := []any{user.ID, user.Email, user.Username, user.Password.hash, user.FirstName, user.LastName}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" && pgErr.Constraint == "users_email_key" {
				return ErrDuplicateEmail
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (m *UserModel) GetByID(ctx context.Context, userID string) (*User, error) {
	query := `SELECT id, email, username, password_hash, first_name, last_name, is_active, created_at, updated_at
			  FROM users
			  WHERE id = $1`

	return m.getUser(ctx, query, userID)
}

func (m *UserModel) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, email, username, password_hash, first_name, last_name, is_active, created_at, updated_at
			  FROM users
			  WHERE email = $1`

	return m.getUser(ctx, query, email)
}

func (m *UserModel) getUser(ctx context.Context, query string, arg any) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user := &User{}

	err := m.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Username, &user.Password.hash,
		&user.FirstName, &user.LastName, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt,
	)

	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound

		default:
			return nil, err
		}
	}

	return user, nil
}

func (m *UserModel) UsernameExists(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var exists bool

	if err := m.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}
