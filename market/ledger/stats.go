package ledger

import (
	"context"
	"time"

	"github.com/m3rciful/marketbot/core/metrics"
)

// SellerStats summarizes one store.
type SellerStats struct {
	Products      int `db:"products"`
	Orders        int `db:"orders"`
	PendingOrders int `db:"pending_orders"`
}

// Totals summarizes the whole marketplace.
type Totals struct {
	Sellers  int `db:"sellers"`
	Products int `db:"products"`
	Orders   int `db:"orders"`
}

// Stats counts the seller's products, orders and pending orders.
func (l *Ledger) Stats(ctx context.Context, sellerID int64) (SellerStats, error) {
	defer metrics.ObserveQuery("seller_stats", time.Now())
	var s SellerStats
	err := l.db.GetContext(ctx, &s, l.q(`
		SELECT
			(SELECT COUNT(*) FROM products WHERE seller_id = ?) AS products,
			(SELECT COUNT(*) FROM orders o JOIN products p ON p.id = o.product_id
			 WHERE p.seller_id = ?) AS orders,
			(SELECT COUNT(*) FROM orders o JOIN products p ON p.id = o.product_id
			 WHERE p.seller_id = ? AND o.status = ?) AS pending_orders`),
		sellerID, sellerID, sellerID, OrderPending)
	if err != nil {
		return SellerStats{}, persistence("seller_stats", err)
	}
	return s, nil
}

// AdminTotals counts stores, products and orders.
func (l *Ledger) AdminTotals(ctx context.Context) (Totals, error) {
	defer metrics.ObserveQuery("admin_totals", time.Now())
	var t Totals
	err := l.db.GetContext(ctx, &t, `
		SELECT
			(SELECT COUNT(*) FROM sellers) AS sellers,
			(SELECT COUNT(*) FROM products) AS products,
			(SELECT COUNT(*) FROM orders) AS orders`)
	if err != nil {
		return Totals{}, persistence("admin_totals", err)
	}
	return t, nil
}
