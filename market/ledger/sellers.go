package ledger

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/m3rciful/marketbot/core/logger"
	"github.com/m3rciful/marketbot/core/metrics"
)

const (
	// StoreCodeLength is the number of characters in a store code.
	StoreCodeLength   = 6
	storeCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateStoreCode draws StoreCodeLength characters uniformly from A-Z and 0-9.
func GenerateStoreCode() (string, error) {
	max := big.NewInt(int64(len(storeCodeAlphabet)))
	var b strings.Builder
	b.Grow(StoreCodeLength)
	for range StoreCodeLength {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate store code: %w", err)
		}
		b.WriteByte(storeCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeCode canonicalizes user supplied store codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewSeller holds registration input. Password is hashed before it is stored.
type NewSeller struct {
	OwnerID   int64
	OwnerName string
	StoreName string
	StoreCode string
	Password  string
}

const sellerColumns = `id, owner_id, owner_name, store_name, store_code, password_hash, created_at`

// CreateSeller stores a new seller. It fails with ErrOwnerTaken when the
// owner already has a store and with ErrCodeTaken on a code collision.
func (l *Ledger) CreateSeller(ctx context.Context, in NewSeller) (Seller, error) {
	defer metrics.ObserveQuery("create_seller", time.Now())

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Seller{}, fmt.Errorf("hash password: %w", err)
	}
	s := Seller{
		OwnerID:      in.OwnerID,
		OwnerName:    strings.TrimSpace(in.OwnerName),
		StoreName:    strings.TrimSpace(in.StoreName),
		StoreCode:    NormalizeCode(in.StoreCode),
		PasswordHash: string(hash),
		CreatedAt:    l.now(),
	}

	err = l.db.GetContext(ctx, &s.ID, l.q(`
		INSERT INTO sellers (owner_id, owner_name, store_name, store_code, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`),
		s.OwnerID, s.OwnerName, s.StoreName, s.StoreCode, s.PasswordHash, s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Seller{}, l.duplicateCause(ctx, s.OwnerID)
		}
		return Seller{}, persistence("create_seller", err)
	}

	metrics.LedgerWrites.WithLabelValues("seller").Inc()
	logger.Info(ctx, "ledger", "seller.created",
		slog.String("status", "ok"),
		slog.Int64("seller_id", s.ID),
	)
	return s, nil
}

// duplicateCause tells an owner collision from a code collision.
func (l *Ledger) duplicateCause(ctx context.Context, ownerID int64) error {
	var n int
	if err := l.db.GetContext(ctx, &n, l.q(`SELECT COUNT(*) FROM sellers WHERE owner_id = ?`), ownerID); err != nil {
		return persistence("create_seller", err)
	}
	if n > 0 {
		return ErrOwnerTaken
	}
	return ErrCodeTaken
}

// FindSellerByCode looks a store up by its public code, ignoring case.
func (l *Ledger) FindSellerByCode(ctx context.Context, code string) (Seller, error) {
	defer metrics.ObserveQuery("find_seller_by_code", time.Now())
	return l.getSeller(ctx, "find_seller_by_code", `store_code = ?`, NormalizeCode(code))
}

// FindSellerByOwner returns the store owned by a Telegram user.
func (l *Ledger) FindSellerByOwner(ctx context.Context, ownerID int64) (Seller, error) {
	defer metrics.ObserveQuery("find_seller_by_owner", time.Now())
	return l.getSeller(ctx, "find_seller_by_owner", `owner_id = ?`, ownerID)
}

// FindSeller returns a seller by id.
func (l *Ledger) FindSeller(ctx context.Context, sellerID int64) (Seller, error) {
	defer metrics.ObserveQuery("find_seller", time.Now())
	return l.getSeller(ctx, "find_seller", `id = ?`, sellerID)
}

func (l *Ledger) getSeller(ctx context.Context, op, where string, arg any) (Seller, error) {
	var s Seller
	err := l.db.GetContext(ctx, &s, l.q(`SELECT `+sellerColumns+` FROM sellers WHERE `+where), arg)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Seller{}, ErrNotFound
	case err != nil:
		return Seller{}, persistence(op, err)
	}
	return s, nil
}
