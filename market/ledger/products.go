package ledger

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/marketbot/core/logger"
	"github.com/m3rciful/marketbot/core/metrics"
)

const productColumns = `id, seller_id, name, price, description, created_at`

// AddProduct stores a product for sellerID. Unknown sellers yield ErrNotFound.
func (l *Ledger) AddProduct(ctx context.Context, sellerID int64, name string, price decimal.Decimal, description string) (Product, error) {
	defer metrics.ObserveQuery("add_product", time.Now())
	if price.IsNegative() {
		return Product{}, ErrInvalidPrice
	}
	p := Product{
		SellerID:    sellerID,
		Name:        strings.TrimSpace(name),
		Price:       price,
		Description: strings.TrimSpace(description),
		CreatedAt:   l.now(),
	}
	err := l.db.GetContext(ctx, &p.ID, l.q(`
		INSERT INTO products (seller_id, name, price, description, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`),
		p.SellerID, p.Name, p.Price, p.Description, p.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Product{}, ErrNotFound
		}
		return Product{}, persistence("add_product", err)
	}

	metrics.LedgerWrites.WithLabelValues("product").Inc()
	logger.Info(ctx, "ledger", "product.created",
		slog.String("status", "ok"),
		slog.Int64("seller_id", sellerID),
		slog.Int64("product_id", p.ID),
	)
	return p, nil
}

// ListProducts returns the seller's products in creation order.
func (l *Ledger) ListProducts(ctx context.Context, sellerID int64) ([]Product, error) {
	defer metrics.ObserveQuery("list_products", time.Now())
	products := []Product{}
	err := l.db.SelectContext(ctx, &products, l.q(`
		SELECT `+productColumns+` FROM products
		WHERE seller_id = ?
		ORDER BY id ASC`), sellerID)
	if err != nil {
		return nil, persistence("list_products", err)
	}
	return products, nil
}

// FindProduct returns a product by id.
func (l *Ledger) FindProduct(ctx context.Context, productID int64) (Product, error) {
	defer metrics.ObserveQuery("find_product", time.Now())
	var p Product
	err := l.db.GetContext(ctx, &p, l.q(`SELECT `+productColumns+` FROM products WHERE id = ?`), productID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Product{}, ErrNotFound
	case err != nil:
		return Product{}, persistence("find_product", err)
	}
	return p, nil
}
