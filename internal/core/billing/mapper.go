package billing

import (
	"regexp"
	"strconv"
)

// taxNumberPattern matches a domestic (Hungarian) tax number: 8 digits,
// a VAT code of 1-5, and a 2-digit county code, dash separated.
var taxNumberPattern = regexp.MustCompile(`^[0-9]{8}-[1-5]-[0-9]{2}$`)

// ValidTaxNumberFormat reports whether the tax number matches the domestic
// 12345678-1-23 shape.
func ValidTaxNumberFormat(taxNumber string) bool {
	return taxNumberPattern.MatchString(taxNumber)
}

// paymentMethodByLabel maps the legacy free-text payment method labels to
// the provider's enum values.
var paymentMethodByLabel = map[string]string{
	"Átutalás":   "wire_transfer",
	"Készpénz":   "cash",
	"Bankkártya": "bankcard",
	"Csekk":      "postai_csekk",
	"Utánvét":    "cash_on_delivery",
	"PayPal":     "paypal",
	"Barion":     "barion",
	"Egyéb":      "other",
}

// MapPaymentMethod converts a legacy payment method label to the provider
// enum. Unknown labels map to wire transfer; this never fails.
func MapPaymentMethod(label string) string {
	if method, ok := paymentMethodByLabel[label]; ok {
		return method
	}
	return PaymentMethodWireTransfer
}

// MapVATRate converts a numeric VAT rate to the provider's percentage
// string. Zero maps to "0%". Non-zero rates are truncated to the integer
// percent (27.9 -> "27%"), not rounded.
func MapVATRate(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return strconv.Itoa(int(rate)) + "%"
}

// BuildPartnerPayload shapes buyer data into a partner creation payload.
// Tax typing: a domestic-format tax number on a domestic buyer is
// HAS_TAX_NUMBER; any other tax number is FOREIGN, and for non-domestic
// buyers the country code is prefixed onto the stored tax code; no tax
// number at all is NO_TAX_NUMBER.
func BuildPartnerPayload(buyer BuyerData) PartnerPayload {
	countryCode := buyer.Country
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}

	payload := PartnerPayload{
		Name: buyer.Name,
		Address: PartnerAddress{
			CountryCode: countryCode,
			PostCode:    buyer.Postcode,
			City:        buyer.City,
			Address:     buyer.Address,
		},
	}

	if buyer.Email != "" {
		payload.Emails = []string{buyer.Email}
	}

	if buyer.TaxNumber != "" {
		if countryCode == DefaultCountryCode {
			payload.TaxCode = buyer.TaxNumber
		} else {
			payload.TaxCode = countryCode + buyer.TaxNumber
		}
		if ValidTaxNumberFormat(buyer.TaxNumber) && countryCode == DefaultCountryCode {
			payload.TaxType = TaxTypeHasTaxNumber
		} else {
			payload.TaxType = TaxTypeForeign
		}
	} else {
		payload.TaxType = TaxTypeNoTaxNumber
	}

	if buyer.Phone != "" {
		payload.Phone = buyer.Phone
	}

	return payload
}

// ItemData is the intermediate line-item shape the orchestrator assembles
// from host order items before mapping to provider items. Prices are net
// amounts in major currency units.
type ItemData struct {
	Name        string
	Quantity    float64
	Unit        string
	UnitPrice   float64
	VATRate     float64
	NetPrice    float64
	VATAmount   float64
	GrossAmount float64
	Comment     string
}

// BuildDocumentItems maps assembled line items into the provider item
// shape, applying the VAT mapper and fixed net unit-price typing.
func BuildDocumentItems(items []ItemData) []DocumentItem {
	docItems := make([]DocumentItem, 0, len(items))
	for _, item := range items {
		docItems = append(docItems, DocumentItem{
			Name:          item.Name,
			UnitPrice:     item.UnitPrice,
			UnitPriceType: UnitPriceTypeNet,
			Quantity:      item.Quantity,
			Unit:          item.Unit,
			Vat:           MapVATRate(item.VATRate),
			Comment:       item.Comment,
		})
	}
	return docItems
}

// DocumentParams collects the required and optional inputs of a document
// creation payload. Optional booleans are pointers so a deliberate false
// still reaches the provider.
type DocumentParams struct {
	PartnerID       int64
	BlockID         int64
	Type            string
	FulfillmentDate string
	DueDate         string
	PaymentMethod   string
	Language        string
	Currency        string
	Items           []DocumentItem
	VendorID        string
	BankAccountID   int64
	ConversionRate  float64
	Electronic      *bool
	Paid            *bool
	Comment         string
	Settings        *DocumentSettings
}

// BuildDocumentPayload merges required fields with the optional
// present-if-set fields into a document creation payload.
func BuildDocumentPayload(params DocumentParams) DocumentPayload {
	docType := params.Type
	if docType == "" {
		docType = DocumentTypeInvoice
	}

	return DocumentPayload{
		PartnerID:       params.PartnerID,
		BlockID:         params.BlockID,
		Type:            docType,
		FulfillmentDate: params.FulfillmentDate,
		DueDate:         params.DueDate,
		PaymentMethod:   params.PaymentMethod,
		Language:        params.Language,
		Currency:        params.Currency,
		Items:           params.Items,
		VendorID:        params.VendorID,
		BankAccountID:   params.BankAccountID,
		ConversionRate:  params.ConversionRate,
		Electronic:      params.Electronic,
		Paid:            params.Paid,
		Comment:         params.Comment,
		Settings:        params.Settings,
	}
}
