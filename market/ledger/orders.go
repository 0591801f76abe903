package ledger

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/marketbot/core/logger"
	"github.com/m3rciful/marketbot/core/metrics"
)

// NewOrder holds checkout input. A zero Quantity means one item.
type NewOrder struct {
	ProductID       int64
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Quantity        int
}

// CreateOrder stores a pending order. It fails with ErrNotFound when the
// product does not exist.
func (l *Ledger) CreateOrder(ctx context.Context, in NewOrder) (Order, error) {
	defer metrics.ObserveQuery("create_order", time.Now())
	if in.Quantity <= 0 {
		in.Quantity = 1
	}
	o := Order{
		ProductID:       in.ProductID,
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		CustomerAddress: strings.TrimSpace(in.CustomerAddress),
		Quantity:        in.Quantity,
		Status:          OrderPending,
		CreatedAt:       l.now(),
	}
	err := l.db.GetContext(ctx, &o.ID, l.q(`
		INSERT INTO orders (product_id, customer_name, customer_phone, customer_address, quantity, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		o.ProductID, o.CustomerName, o.CustomerPhone, o.CustomerAddress, o.Quantity, o.Status, o.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return Order{}, ErrNotFound
		}
		return Order{}, persistence("create_order", err)
	}

	metrics.LedgerWrites.WithLabelValues("order").Inc()
	logger.Info(ctx, "ledger", "order.created",
		slog.String("status", "ok"),
		slog.Int64("order_id", o.ID),
		slog.Int64("product_id", o.ProductID),
	)
	return o, nil
}

// ListOrdersForSeller returns up to limit orders for the seller's products,
// newest first. A non-positive limit returns every order.
func (l *Ledger) ListOrdersForSeller(ctx context.Context, sellerID int64, limit int) ([]OrderLine, error) {
	defer metrics.ObserveQuery("list_orders", time.Now())
	query := `
		SELECT o.id, o.product_id, o.customer_name, o.customer_phone, o.customer_address,
		       o.quantity, o.status, o.created_at,
		       p.name AS product_name, p.price AS product_price
		FROM orders o
		JOIN products p ON p.id = o.product_id
		WHERE p.seller_id = ?
		ORDER BY o.id DESC`
	args := []any{sellerID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	lines := []OrderLine{}
	if err := l.db.SelectContext(ctx, &lines, l.q(query), args...); err != nil {
		return nil, persistence("list_orders", err)
	}
	return lines, nil
}
