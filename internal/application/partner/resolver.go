// Package partner resolves the billing counterparty for an invoicing
// attempt: an existing provider partner matched by tax number, or a newly
// created one.
package partner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cartbill/ms_invoicing_core/internal/core/billing"
)

// Resolver performs the idempotent lookup-or-create of a partner record.
type Resolver struct {
	provider billing.Provider
	log      *slog.Logger
}

// NewResolver creates a new partner resolver.
func NewResolver(provider billing.Provider, log *slog.Logger) *Resolver {
	return &Resolver{provider: provider, log: log}
}

// normalizeTaxNumber strips the dashes so "12345678-1-23" and "12345678123"
// compare equal.
func normalizeTaxNumber(taxNumber string) string {
	return strings.ReplaceAll(taxNumber, "-", "")
}

// findByTaxNumber searches the provider for a partner whose tax code
// matches the buyer's tax number, dash-insensitively and exactly. The first
// match wins; there is no fuzzy matching. Returns nil when nothing matches.
func (r *Resolver) findByTaxNumber(ctx context.Context, taxNumber string) (*billing.Partner, error) {
	searchTerm := normalizeTaxNumber(taxNumber)

	partners, err := r.provider.FindPartners(ctx, searchTerm)
	if err != nil {
		return nil, fmt.Errorf("search partners: %w", err)
	}

	for _, p := range partners {
		if normalizeTaxNumber(p.TaxCode) == searchTerm {
			return &p, nil
		}
	}
	return nil, nil
}

// ResolveOrCreate returns an existing partner matched by tax number, or
// creates a new one from the buyer data. An existing partner is returned
// as-is; its stored fields are never updated here. A failed search is
// logged and falls through to creation, so a flaky search cannot block
// invoicing; a failed creation propagates.
func (r *Resolver) ResolveOrCreate(ctx context.Context, buyer billing.BuyerData) (*billing.Partner, error) {
	if buyer.TaxNumber != "" {
		r.log.Debug("Searching for existing partner by tax number", "tax_number", buyer.TaxNumber)

		existing, err := r.findByTaxNumber(ctx, buyer.TaxNumber)
		if err != nil {
			r.log.Warn("Partner search failed, falling back to create", "error", err)
		} else if existing != nil {
			r.log.Info("Found existing partner", "partner_id", existing.ID, "name", existing.Name)
			return existing, nil
		} else {
			r.log.Debug("No existing partner with this tax number")
		}
	}

	payload := billing.BuildPartnerPayload(buyer)
	created, err := r.provider.CreatePartner(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("create partner: %w", err)
	}

	r.log.Info("Partner created", "partner_id", created.ID, "name", created.Name)
	return created, nil
}
