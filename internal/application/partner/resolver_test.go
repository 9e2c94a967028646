package partner

import (
	"context"
	"errors"
	"testing"

	"cartbill/ms_invoicing_core/internal/core/billing"
	"cartbill/ms_invoicing_core/internal/testutil"
)

func TestResolver_MatchesExistingPartnerDashInsensitive(t *testing.T) {
	provider := &testutil.MockProvider{
		FindPartnersFunc: func(_ context.Context, query string) ([]billing.Partner, error) {
			if query != "12345678123" {
				t.Errorf("expected normalized query, got %q", query)
			}
			return []billing.Partner{
				{ID: 1, Name: "Other Kft.", TaxCode: "87654321-1-23"},
				{ID: 2, Name: "Minta Kft.", TaxCode: "12345678-1-23"},
				{ID: 3, Name: "Decoy Kft.", TaxCode: "12345678-1-24"},
			}, nil
		},
	}
	resolver := NewResolver(provider, testutil.NewNullLogger())

	partner, err := resolver.ResolveOrCreate(context.Background(), billing.BuyerData{
		Name:      "Minta Kft.",
		TaxNumber: "12345678-1-23",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if partner.ID != 2 {
		t.Errorf("expected exact tax-code match (id 2), got %d", partner.ID)
	}
	if provider.CreatePartnerCalls != 0 {
		t.Errorf("expected no partner creation, got %d calls", provider.CreatePartnerCalls)
	}
}

func TestResolver_CreatesWhenNoMatch(t *testing.T) {
	provider := &testutil.MockProvider{
		FindPartnersFunc: func(context.Context, string) ([]billing.Partner, error) {
			return []billing.Partner{{ID: 9, TaxCode: "99999999-1-11"}}, nil
		},
		CreatePartnerFunc: func(_ context.Context, payload billing.PartnerPayload) (*billing.Partner, error) {
			return &billing.Partner{ID: 42, Name: payload.Name, TaxCode: payload.TaxCode}, nil
		},
	}
	resolver := NewResolver(provider, testutil.NewNullLogger())

	partner, err := resolver.ResolveOrCreate(context.Background(), billing.BuyerData{
		Name:      "Minta Kft.",
		TaxNumber: "12345678-1-23",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if partner.ID != 42 {
		t.Errorf("expected created partner, got %d", partner.ID)
	}
}

func TestResolver_NoTaxNumberSkipsSearch(t *testing.T) {
	provider := &testutil.MockProvider{}
	resolver := NewResolver(provider, testutil.NewNullLogger())

	_, err := resolver.ResolveOrCreate(context.Background(), billing.BuyerData{Name: "Kovács János"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.FindPartnersCalls != 0 {
		t.Errorf("expected no search without tax number, got %d calls", provider.FindPartnersCalls)
	}
	if provider.CreatePartnerCalls != 1 {
		t.Errorf("expected one create call, got %d", provider.CreatePartnerCalls)
	}
}

func TestResolver_SearchErrorFallsBackToCreate(t *testing.T) {
	provider := &testutil.MockProvider{
		FindPartnersFunc: func(context.Context, string) ([]billing.Partner, error) {
			return nil, &billing.APIError{Code: 500, Message: "boom"}
		},
	}
	resolver := NewResolver(provider, testutil.NewNullLogger())

	partner, err := resolver.ResolveOrCreate(context.Background(), billing.BuyerData{
		TaxNumber: "12345678-1-23",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if partner == nil || provider.CreatePartnerCalls != 1 {
		t.Errorf("expected fallback to create, calls=%d", provider.CreatePartnerCalls)
	}
}

func TestResolver_CreateErrorPropagates(t *testing.T) {
	provider := &testutil.MockProvider{
		CreatePartnerFunc: func(context.Context, billing.PartnerPayload) (*billing.Partner, error) {
			return nil, &billing.APIError{Code: 422, Message: "invalid"}
		},
	}
	resolver := NewResolver(provider, testutil.NewNullLogger())

	_, err := resolver.ResolveOrCreate(context.Background(), billing.BuyerData{Name: "x"})
	var apiErr *billing.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 422 {
		t.Fatalf("expected 422 APIError, got %v", err)
	}
}
