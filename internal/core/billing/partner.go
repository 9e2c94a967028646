package billing

// Tax types the provider distinguishes for a partner.
const (
	TaxTypeHasTaxNumber = "HAS_TAX_NUMBER"
	TaxTypeForeign      = "FOREIGN"
	TaxTypeNoTaxNumber  = "NO_TAX_NUMBER"
)

// DefaultCountryCode is used when the buyer's country is blank.
const DefaultCountryCode = "HU"

// BuyerData is the transient buyer snapshot assembled once per invoicing
// attempt from the order's billing address and checkout data. It is never
// persisted.
type BuyerData struct {
	Name      string
	Postcode  string
	City      string
	Address   string
	Country   string
	TaxNumber string
	Email     string
	Phone     string
}

// PartnerAddress is the address fragment of a partner payload.
type PartnerAddress struct {
	CountryCode string `json:"country_code"`
	PostCode    string `json:"post_code"`
	City        string `json:"city"`
	Address     string `json:"address"`
}

// PartnerPayload is the body of a partner creation request.
type PartnerPayload struct {
	Name    string         `json:"name"`
	Address PartnerAddress `json:"address"`
	Emails  []string       `json:"emails,omitempty"`
	TaxCode string         `json:"taxcode,omitempty"`
	TaxType string         `json:"tax_type"`
	Phone   string         `json:"phone,omitempty"`
}

// Partner is the provider's billing counterparty record. Only the fields
// this service reads are modeled; an existing partner's mutable fields are
// never updated here.
type Partner struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	TaxCode string `json:"taxcode"`
}
