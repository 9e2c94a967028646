package billing

// Provider enum values for payment methods this service emits.
const (
	PaymentMethodWireTransfer = "wire_transfer"
	PaymentMethodCash         = "cash"
	PaymentMethodBankcard     = "bankcard"
)

// UnitPriceTypeNet marks item prices as net; the provider adds VAT on top.
const UnitPriceTypeNet = "net"

// DocumentTypeInvoice is the only document type this service creates.
const DocumentTypeInvoice = "invoice"

// DocumentBlock is a numbered invoice pad that documents are issued under.
type DocumentBlock struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DocumentItem is one line of a document payload. Prices are net amounts in
// major currency units; Vat is a percentage string such as "27%".
type DocumentItem struct {
	Name          string  `json:"name"`
	UnitPrice     float64 `json:"unit_price"`
	UnitPriceType string  `json:"unit_price_type"`
	Quantity      float64 `json:"quantity"`
	Unit          string  `json:"unit"`
	Vat           string  `json:"vat"`
	Comment       string  `json:"comment,omitempty"`
}

// DocumentSettings is passed through to the provider untouched when present.
type DocumentSettings struct {
	MediatedService             bool `json:"mediated_service,omitempty"`
	WithoutFinancialFulfillment bool `json:"without_financial_fulfillment,omitempty"`
}

// DocumentPayload is the body of a document creation request. Optional
// fields follow present-if-set semantics via omitempty; booleans that must
// survive a false value are pointers.
type DocumentPayload struct {
	PartnerID       int64             `json:"partner_id"`
	BlockID         int64             `json:"block_id"`
	Type            string            `json:"type"`
	FulfillmentDate string            `json:"fulfillment_date"`
	DueDate         string            `json:"due_date"`
	PaymentMethod   string            `json:"payment_method"`
	Language        string            `json:"language"`
	Currency        string            `json:"currency"`
	Items           []DocumentItem    `json:"items"`
	VendorID        string            `json:"vendor_id,omitempty"`
	BankAccountID   int64             `json:"bank_account_id,omitempty"`
	ConversionRate  float64           `json:"conversion_rate,omitempty"`
	Electronic      *bool             `json:"electronic,omitempty"`
	Paid            *bool             `json:"paid,omitempty"`
	Comment         string            `json:"comment,omitempty"`
	Settings        *DocumentSettings `json:"settings,omitempty"`
}

// Document is the provider's view of a created document. GrossTotal is
// optional in the creation response.
type Document struct {
	ID            int64    `json:"id"`
	InvoiceNumber string   `json:"invoice_number"`
	GrossTotal    *float64 `json:"gross_total"`
}
