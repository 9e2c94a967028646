package order

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the host system has no such order.
var ErrNotFound = errors.New("order: not found")

// BillingAddress is the billing profile attached to an order in the host
// cart system. Amounts and addresses are read-only from this service's
// point of view.
type BillingAddress struct {
	Name     string
	Postcode string
	City     string
	Address1 string
	Address2 string
	Country  string
	Phone    string
	Email    string
}

// FullAddress joins the two address lines the way the storefront renders them.
func (b BillingAddress) FullAddress() string {
	if b.Address2 == "" {
		return b.Address1
	}
	return b.Address1 + " " + b.Address2
}

// Order is the host system's order entity. Monetary fields are in minor
// currency units (cents/fillér).
type Order struct {
	ID             int64
	Currency       string
	TotalAmount    int64
	ShippingTotal  int64
	TaxBehavior    int
	BillingAddress *BillingAddress
}

// Item is a single order line in the host system. LineTotal and TaxAmount
// are in minor units; TaxRate is the percentage applied to the line.
type Item struct {
	Title     string
	Quantity  int64
	LineTotal int64
	TaxRate   float64
	TaxAmount int64
}

// Checkout carries the extra data the buyer entered at checkout that is not
// part of the billing profile (VAT number, company-name override).
type Checkout struct {
	VATNumber          string
	BillingCompanyName string
}

// Repository reads order data from the host cart system.
type Repository interface {
	// GetOrder returns the order with its billing address, or ErrNotFound.
	GetOrder(ctx context.Context, orderID int64) (*Order, error)
	// GetItems returns the order's line items in insertion order.
	GetItems(ctx context.Context, orderID int64) ([]Item, error)
	// GetCheckout returns the checkout data captured for the order.
	// A missing cart row yields an empty Checkout, not an error.
	GetCheckout(ctx context.Context, orderID int64) (Checkout, error)
}
