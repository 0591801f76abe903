// Package ledger persists sellers, products and orders.
//
// Every write touches a single row, so the ledger relies on the storage
// engine's own atomicity and never opens transactions.
package ledger

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	coredatabase "github.com/m3rciful/marketbot/core/database"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrations returns the schema migrations for driver.
func Migrations(driver string) (fs.FS, error) {
	switch driver {
	case coredatabase.DriverSQLite, coredatabase.DriverPostgres:
		return fs.Sub(migrationsFS, "migrations/"+driver)
	}
	return nil, fmt.Errorf("ledger: no migrations for driver %q", driver)
}

var (
	// ErrNotFound reports a missing seller, product or store code.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate reports a unique constraint violation.
	ErrDuplicate = errors.New("duplicate")
	// ErrOwnerTaken means the user already owns a store.
	ErrOwnerTaken = fmt.Errorf("owner already has a store: %w", ErrDuplicate)
	// ErrCodeTaken means the store code belongs to another store.
	ErrCodeTaken = fmt.Errorf("store code already in use: %w", ErrDuplicate)
	// ErrInvalidPrice rejects negative prices.
	ErrInvalidPrice = errors.New("price must not be negative")
)

// PersistenceError wraps storage failures that are not part of the domain.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "ledger: " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Code classifies the error for handler logs.
func (e *PersistenceError) Code() string { return "PERSISTENCE" }

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderFulfilled OrderStatus = "fulfilled"
	OrderCancelled OrderStatus = "cancelled"
)

// Seller is a registered store.
type Seller struct {
	ID           int64     `db:"id"`
	OwnerID      int64     `db:"owner_id"`
	OwnerName    string    `db:"owner_name"`
	StoreName    string    `db:"store_name"`
	StoreCode    string    `db:"store_code"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// CheckPassword reports whether password matches the stored hash.
func (s Seller) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password)) == nil
}

// Product is an item offered by a seller.
type Product struct {
	ID          int64           `db:"id"`
	SellerID    int64           `db:"seller_id"`
	Name        string          `db:"name"`
	Price       decimal.Decimal `db:"price"`
	Description string          `db:"description"`
	CreatedAt   time.Time       `db:"created_at"`
}

// Order is a buyer's request for one product.
type Order struct {
	ID              int64       `db:"id"`
	ProductID       int64       `db:"product_id"`
	CustomerName    string      `db:"customer_name"`
	CustomerPhone   string      `db:"customer_phone"`
	CustomerAddress string      `db:"customer_address"`
	Quantity        int         `db:"quantity"`
	Status          OrderStatus `db:"status"`
	CreatedAt       time.Time   `db:"created_at"`
}

// OrderLine is an order joined with its product.
type OrderLine struct {
	Order
	ProductName  string          `db:"product_name"`
	ProductPrice decimal.Decimal `db:"product_price"`
}

// Ledger is the sqlx backed store.
type Ledger struct {
	db  *sqlx.DB
	now func() time.Time
}

// New wraps an open database whose schema is migrated.
func New(db *sqlx.DB) *Ledger {
	return &Ledger{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (l *Ledger) q(query string) string {
	return l.db.Rebind(query)
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	var pe *pq.Error
	return errors.As(err, &pe) && pe.Code == "23503"
}
