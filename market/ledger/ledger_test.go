package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coredatabase "github.com/m3rciful/marketbot/core/database"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	db, err := coredatabase.Connect(coredatabase.Config{Path: filepath.Join(t.TempDir(), "ledger.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	set, err := Migrations(coredatabase.DriverSQLite)
	require.NoError(t, err)
	require.NoError(t, coredatabase.RunMigrations(db, coredatabase.DriverSQLite, set))
	return New(db)
}

func mustSeller(t *testing.T, l *Ledger, ownerID int64, code string) Seller {
	t.Helper()
	s, err := l.CreateSeller(context.Background(), NewSeller{
		OwnerID: ownerID, OwnerName: "Ali", StoreName: "Ali Shop", StoreCode: code, Password: "1234",
	})
	require.NoError(t, err)
	return s
}

func TestMigrationsForDrivers(t *testing.T) {
	for _, driver := range []string{coredatabase.DriverSQLite, coredatabase.DriverPostgres} {
		set, err := Migrations(driver)
		require.NoError(t, err, driver)
		_, err = set.Open("000001_init.up.sql")
		assert.NoError(t, err, driver)
	}
	_, err := Migrations("mysql")
	assert.Error(t, err)
}

func TestSellerRoundTrip(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	created := mustSeller(t, l, 100, "abc123")
	assert.NotZero(t, created.ID)
	assert.Equal(t, "ABC123", created.StoreCode)
	assert.NotEqual(t, "1234", created.PasswordHash, "password is hashed at rest")

	got, err := l.FindSellerByCode(ctx, " abc123 ")
	require.NoError(t, err)
	assert.Equal(t, "Ali Shop", got.StoreName)
	assert.Equal(t, int64(100), got.OwnerID)
	assert.Equal(t, "Ali", got.OwnerName)
	assert.True(t, got.CheckPassword("1234"))
	assert.False(t, got.CheckPassword("4321"))
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)

	byOwner, err := l.FindSellerByOwner(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byOwner.ID)

	_, err = l.FindSellerByCode(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = l.FindSeller(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateSellerDuplicates(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	mustSeller(t, l, 1, "AAAAAA")

	_, err := l.CreateSeller(ctx, NewSeller{OwnerID: 1, StoreName: "Other", StoreCode: "BBBBBB", Password: "x"})
	assert.ErrorIs(t, err, ErrOwnerTaken)
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = l.CreateSeller(ctx, NewSeller{OwnerID: 2, StoreName: "Other", StoreCode: "aaaaaa", Password: "x"})
	assert.ErrorIs(t, err, ErrCodeTaken)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGenerateStoreCode(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z0-9]{6}$`)
	seen := map[string]struct{}{}
	for range 200 {
		code, err := GenerateStoreCode()
		require.NoError(t, err)
		require.Regexp(t, re, code)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 190)
}

func TestProducts(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	s := mustSeller(t, l, 1, "SHOP01")

	phone, err := l.AddProduct(ctx, s.ID, "Phone", decimal.RequireFromString("500"), "")
	require.NoError(t, err)
	_, err = l.AddProduct(ctx, s.ID, "Case", decimal.RequireFromString("19.99"), "Silicone")
	require.NoError(t, err)

	first, err := l.ListProducts(ctx, s.ID)
	require.NoError(t, err)
	second, err := l.ListProducts(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second, "listing is stable without writes")
	require.Len(t, first, 2)
	assert.Equal(t, "Phone", first[0].Name)
	assert.True(t, first[0].Price.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "", first[0].Description)
	assert.Equal(t, "Case", first[1].Name)
	assert.Equal(t, "19.99", first[1].Price.String())

	found, err := l.FindProduct(ctx, phone.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, found.SellerID)

	_, err = l.AddProduct(ctx, s.ID, "Bad", decimal.NewFromInt(-1), "")
	assert.ErrorIs(t, err, ErrInvalidPrice)
	_, err = l.AddProduct(ctx, 999, "Orphan", decimal.NewFromInt(1), "")
	assert.ErrorIs(t, err, ErrNotFound)

	empty, err := l.ListProducts(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestOrders(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	s := mustSeller(t, l, 1, "SHOP01")
	other := mustSeller(t, l, 2, "SHOP02")
	phone, err := l.AddProduct(ctx, s.ID, "Phone", decimal.NewFromInt(500), "")
	require.NoError(t, err)
	foreign, err := l.AddProduct(ctx, other.ID, "Lamp", decimal.NewFromInt(30), "")
	require.NoError(t, err)

	first, err := l.CreateOrder(ctx, NewOrder{ProductID: phone.ID, CustomerName: "Sara", CustomerPhone: "0551234567", CustomerAddress: "Riyadh"})
	require.NoError(t, err)
	assert.Equal(t, OrderPending, first.Status)
	assert.Equal(t, 1, first.Quantity)
	second, err := l.CreateOrder(ctx, NewOrder{ProductID: phone.ID, CustomerName: "Omar", CustomerPhone: "0500000000", CustomerAddress: "Jeddah", Quantity: 2})
	require.NoError(t, err)
	_, err = l.CreateOrder(ctx, NewOrder{ProductID: foreign.ID, CustomerName: "X", CustomerPhone: "1", CustomerAddress: "Y"})
	require.NoError(t, err)

	_, err = l.CreateOrder(ctx, NewOrder{ProductID: 9999, CustomerName: "X", CustomerPhone: "1", CustomerAddress: "Y"})
	assert.ErrorIs(t, err, ErrNotFound)

	lines, err := l.ListOrdersForSeller(ctx, s.ID, 0)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, second.ID, lines[0].ID, "newest first")
	assert.Equal(t, first.ID, lines[1].ID)
	assert.Equal(t, "Phone", lines[0].ProductName)
	assert.True(t, lines[0].ProductPrice.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, OrderPending, lines[1].Status)
	assert.Equal(t, "Riyadh", lines[1].CustomerAddress)

	limited, err := l.ListOrdersForSeller(ctx, s.ID, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second.ID, limited[0].ID)

	stats, err := l.Stats(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, SellerStats{Products: 1, Orders: 2, PendingOrders: 2}, stats)

	totals, err := l.AdminTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, Totals{Sellers: 2, Products: 2, Orders: 3}, totals)
}

func TestPersistenceErrorCode(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.db.Close())

	_, err := l.ListProducts(context.Background(), 1)
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "PERSISTENCE", perr.Code())
	assert.Equal(t, "list_products", perr.Op)
}
