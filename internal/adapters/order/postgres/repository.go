// Package postgres reads order data from the host cart system's tables.
// This adapter is strictly read-only: the invoicing service never mutates
// commerce data.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"cartbill/ms_invoicing_core/internal/core/order"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the order.Repository interface against the host
// commerce schema (orders, order_addresses, order_items, carts).
type Repository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewRepository creates a new read-only order repository.
func NewRepository(pool *pgxpool.Pool, log *slog.Logger) *Repository {
	return &Repository{pool: pool, log: log}
}

// GetOrder returns the order joined with its billing address. Orders
// without a billing address row come back with a nil BillingAddress; the
// caller decides whether that is fatal.
func (r *Repository) GetOrder(ctx context.Context, orderID int64) (*order.Order, error) {
	query := `
		SELECT o.id, o.currency, o.total_amount, o.shipping_total, o.tax_behavior,
		       a.name, a.postcode, a.city, a.address_1, a.address_2, a.country, a.phone, a.email
		FROM orders o
		LEFT JOIN order_addresses a ON a.order_id = o.id AND a.type = 'billing'
		WHERE o.id = $1
	`

	var ord order.Order
	var name, postcode, city, address1, address2, country, phone, email *string
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&ord.ID,
		&ord.Currency,
		&ord.TotalAmount,
		&ord.ShippingTotal,
		&ord.TaxBehavior,
		&name,
		&postcode,
		&city,
		&address1,
		&address2,
		&country,
		&phone,
		&email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("query order %d: %w", orderID, err)
	}

	if name != nil {
		ord.BillingAddress = &order.BillingAddress{
			Name:     *name,
			Postcode: deref(postcode),
			City:     deref(city),
			Address1: deref(address1),
			Address2: deref(address2),
			Country:  deref(country),
			Phone:    deref(phone),
			Email:    deref(email),
		}
	}

	return &ord, nil
}

// GetItems returns the order's line items in insertion order.
func (r *Repository) GetItems(ctx context.Context, orderID int64) ([]order.Item, error) {
	query := `
		SELECT title, quantity, line_total, tax_rate, tax_amount
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []order.Item
	for rows.Next() {
		var it order.Item
		if err := rows.Scan(&it.Title, &it.Quantity, &it.LineTotal, &it.TaxRate, &it.TaxAmount); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return items, nil
}

// checkoutData is the shape of the JSON blob the storefront stores on the
// cart row. Only the invoicing-relevant keys are read.
type checkoutData struct {
	VATNumber          string `json:"vat_number"`
	BillingCompanyName string `json:"billing_company_name"`
}

// GetCheckout returns the checkout data captured for the order. A missing
// cart row or an empty blob yields an empty Checkout, not an error.
func (r *Repository) GetCheckout(ctx context.Context, orderID int64) (order.Checkout, error) {
	query := `
		SELECT checkout_data
		FROM carts
		WHERE order_id = $1
	`

	var raw []byte
	err := r.pool.QueryRow(ctx, query, orderID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Checkout{}, nil
		}
		return order.Checkout{}, fmt.Errorf("query cart for order %d: %w", orderID, err)
	}
	if len(raw) == 0 {
		return order.Checkout{}, nil
	}

	var data checkoutData
	if err := json.Unmarshal(raw, &data); err != nil {
		// A malformed blob should not block invoicing; the buyer fields are
		// optional anyway.
		r.log.Warn("Malformed checkout data, ignoring", "order_id", orderID, "error", err)
		return order.Checkout{}, nil
	}

	return order.Checkout{
		VATNumber:          data.VATNumber,
		BillingCompanyName: data.BillingCompanyName,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ order.Repository = (*Repository)(nil)
