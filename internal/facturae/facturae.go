// Package facturae defines the Facturae v3.2 electronic invoice document
// model and its XML codec. Struct field order mirrors the schema's declared
// element order; serialized output must not reorder elements, since
// downstream validators reject non-conformant documents.
package facturae

import "encoding/xml"

// Namespace is the Facturae v3.2 XML namespace.
const Namespace = "http://www.facturae.es/Facturae/2009/v3.2/Facturae"

// Schema constants fixed by the single invoice category this system emits.
const (
	SchemaVersion        = "3.2"
	ModalitySingle       = "I"
	IssuerTypeThirdParty = "TE"
	CurrencyEUR          = "EUR"
	LanguageSpanish      = "es"
	DocumentTypeComplete = "FC"
	ClassOriginal        = "OO"
	TaxTypeVAT           = "01"
	PersonTypeLegal      = "J"
	PersonTypeNatural    = "F"
	ResidenceResident    = "R"
	CountrySpain         = "ESP"
)

// Facturae is the root invoice batch document. The root element carries the
// schema namespace; child elements inherit it as the default namespace.
type Facturae struct {
	XMLName    xml.Name   `xml:"http://www.facturae.es/Facturae/2009/v3.2/Facturae Facturae"`
	FileHeader FileHeader `xml:"FileHeader"`
	Parties    Parties    `xml:"Parties"`
	Invoices   Invoices   `xml:"Invoices"`
}

// FileHeader carries batch identifiers and aggregate totals.
type FileHeader struct {
	SchemaVersion     string      `xml:"SchemaVersion"`
	Modality          string      `xml:"Modality"`
	InvoiceIssuerType string      `xml:"InvoiceIssuerType"`
	ThirdParty        *ThirdParty `xml:"ThirdParty,omitempty"`
	Batch             Batch       `xml:"Batch"`
}

// ThirdParty identifies the intermediary issuing the document on the
// seller's behalf.
type ThirdParty struct {
	TaxIdentification TaxIdentification `xml:"TaxIdentification"`
	LegalEntity       *LegalEntity      `xml:"LegalEntity,omitempty"`
}

// Batch aggregates the invoices in the file. This system always emits
// exactly one invoice per batch, so the aggregates mirror that invoice.
type Batch struct {
	BatchIdentifier        string `xml:"BatchIdentifier"`
	InvoicesCount          int    `xml:"InvoicesCount"`
	TotalInvoicesAmount    Amount `xml:"TotalInvoicesAmount"`
	TotalOutstandingAmount Amount `xml:"TotalOutstandingAmount"`
	TotalExecutableAmount  Amount `xml:"TotalExecutableAmount"`
	InvoiceCurrencyCode    string `xml:"InvoiceCurrencyCode"`
}

// Amount wraps a two-decimal monetary total.
type Amount struct {
	TotalAmount Decimal2 `xml:"TotalAmount"`
}

// Parties holds the seller and buyer of the invoice.
type Parties struct {
	SellerParty Party `xml:"SellerParty"`
	BuyerParty  Party `xml:"BuyerParty"`
}

// Party is a business participant: a tax identity plus either a legal
// entity or an individual.
type Party struct {
	PartyIdentification string            `xml:"PartyIdentification,omitempty"`
	TaxIdentification   TaxIdentification `xml:"TaxIdentification"`
	LegalEntity         *LegalEntity      `xml:"LegalEntity,omitempty"`
	Individual          *Individual       `xml:"Individual,omitempty"`
}

// TaxIdentification is the fiscal identity of a party.
type TaxIdentification struct {
	PersonTypeCode          string `xml:"PersonTypeCode"`
	ResidenceTypeCode       string `xml:"ResidenceTypeCode"`
	TaxIdentificationNumber string `xml:"TaxIdentificationNumber"`
}

// LegalEntity describes a corporate party.
type LegalEntity struct {
	CorporateName    string            `xml:"CorporateName"`
	TradeName        string            `xml:"TradeName,omitempty"`
	RegistrationData *RegistrationData `xml:"RegistrationData,omitempty"`
	AddressInSpain   *Address          `xml:"AddressInSpain,omitempty"`
	ContactDetails   *ContactDetails   `xml:"ContactDetails,omitempty"`
}

// Individual describes a natural-person party.
type Individual struct {
	Name           string   `xml:"Name"`
	FirstSurname   string   `xml:"FirstSurname,omitempty"`
	SecondSurname  string   `xml:"SecondSurname,omitempty"`
	AddressInSpain *Address `xml:"AddressInSpain,omitempty"`
}

// RegistrationData holds the mercantile registry entry of a legal entity.
type RegistrationData struct {
	Book                        string `xml:"Book,omitempty"`
	RegisterOfCompaniesLocation string `xml:"RegisterOfCompaniesLocation,omitempty"`
	Sheet                       string `xml:"Sheet,omitempty"`
	Folio                       string `xml:"Folio,omitempty"`
	Section                     string `xml:"Section,omitempty"`
	Volume                      string `xml:"Volume,omitempty"`
	AdditionalRegistrationData  string `xml:"AdditionalRegistrationData,omitempty"`
}

// Address is a Spanish postal address.
type Address struct {
	Address     string `xml:"Address"`
	PostCode    string `xml:"PostCode"`
	Town        string `xml:"Town"`
	Province    string `xml:"Province"`
	CountryCode string `xml:"CountryCode"`
}

// ContactDetails holds optional contact information for a party.
type ContactDetails struct {
	Telephone      string `xml:"Telephone,omitempty"`
	TeleFax        string `xml:"TeleFax,omitempty"`
	WebAddress     string `xml:"WebAddress,omitempty"`
	ElectronicMail string `xml:"ElectronicMail,omitempty"`
	CnoCnae        string `xml:"CnoCnae,omitempty"`
}

// Invoices is the invoice list of the batch.
type Invoices struct {
	Invoice []Invoice `xml:"Invoice"`
}

// Invoice is a single invoice entry.
type Invoice struct {
	InvoiceHeader    InvoiceHeader    `xml:"InvoiceHeader"`
	InvoiceIssueData InvoiceIssueData `xml:"InvoiceIssueData"`
	TaxesOutputs     TaxesOutputs     `xml:"TaxesOutputs"`
	InvoiceTotals    InvoiceTotals    `xml:"InvoiceTotals"`
	Items            Items            `xml:"Items"`
	PaymentDetails   *PaymentDetails  `xml:"PaymentDetails,omitempty"`
}

// InvoiceHeader identifies the invoice within its series.
type InvoiceHeader struct {
	InvoiceNumber       string `xml:"InvoiceNumber"`
	InvoiceSeriesCode   string `xml:"InvoiceSeriesCode,omitempty"`
	InvoiceDocumentType string `xml:"InvoiceDocumentType"`
	InvoiceClass        string `xml:"InvoiceClass"`
}

// InvoiceIssueData carries issue date, currency, and language.
type InvoiceIssueData struct {
	IssueDate           Date   `xml:"IssueDate"`
	InvoiceCurrencyCode string `xml:"InvoiceCurrencyCode"`
	TaxCurrencyCode     string `xml:"TaxCurrencyCode"`
	LanguageName        string `xml:"LanguageName"`
}

// TaxesOutputs lists the output tax entries.
type TaxesOutputs struct {
	Tax []Tax `xml:"Tax"`
}

// Tax is a rate/base/amount triple.
type Tax struct {
	TaxTypeCode string   `xml:"TaxTypeCode"`
	TaxRate     Decimal2 `xml:"TaxRate"`
	TaxableBase Amount   `xml:"TaxableBase"`
	TaxAmount   Amount   `xml:"TaxAmount"`
}

// InvoiceTotals carries the invoice's monetary totals. Surcharge elements
// are only present when the source document declares a charge reason.
type InvoiceTotals struct {
	TotalGrossAmount            Decimal2           `xml:"TotalGrossAmount"`
	GeneralSurcharges           *GeneralSurcharges `xml:"GeneralSurcharges,omitempty"`
	TotalGeneralSurcharges      *Decimal2          `xml:"TotalGeneralSurcharges,omitempty"`
	TotalGrossAmountBeforeTaxes Decimal2           `xml:"TotalGrossAmountBeforeTaxes"`
	TotalTaxOutputs             Decimal2           `xml:"TotalTaxOutputs"`
	TotalTaxesWithheld          Decimal2           `xml:"TotalTaxesWithheld"`
	InvoiceTotal                Decimal2           `xml:"InvoiceTotal"`
	TotalOutstandingAmount      Decimal2           `xml:"TotalOutstandingAmount"`
	TotalExecutableAmount       Decimal2           `xml:"TotalExecutableAmount"`
}

// GeneralSurcharges lists surcharge entries.
type GeneralSurcharges struct {
	Charge []Charge `xml:"Charge"`
}

// Charge is a single surcharge with its stated reason.
type Charge struct {
	ChargeReason string   `xml:"ChargeReason"`
	ChargeAmount Decimal6 `xml:"ChargeAmount"`
}

// Items holds the invoice line items.
type Items struct {
	InvoiceLine []InvoiceLine `xml:"InvoiceLine"`
}

// InvoiceLine is a single line item. UnitPriceWithoutTax is present only
// when the line quantity is non-zero.
type InvoiceLine struct {
	ItemDescription     string       `xml:"ItemDescription"`
	Quantity            Decimal6     `xml:"Quantity"`
	UnitPriceWithoutTax *Decimal6    `xml:"UnitPriceWithoutTax,omitempty"`
	TotalCost           Decimal6     `xml:"TotalCost"`
	GrossAmount         Decimal6     `xml:"GrossAmount"`
	TaxesOutputs        TaxesOutputs `xml:"TaxesOutputs"`
}

// PaymentDetails holds the payment schedule.
type PaymentDetails struct {
	Installment []Installment `xml:"Installment"`
}

// Installment is a single payment due.
type Installment struct {
	InstallmentDueDate Date     `xml:"InstallmentDueDate"`
	InstallmentAmount  Decimal2 `xml:"InstallmentAmount"`
}
