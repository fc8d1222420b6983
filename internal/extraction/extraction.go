// Package extraction models the output of the document analysis service:
// a set of dotted-path text fields plus the recognized line-item table.
// It also owns the parsing profiles that turn extracted text into exact
// decimal and date values.
//
// Field paths are logical identifiers agreed with the trained analysis
// model, not positions on the page. The set of known paths is closed; the
// mapping engine only reads through the constants below, so a model
// retraining that renames a field is a one-place fix.
package extraction

// Known field paths produced by the invoice analysis model.
const (
	FieldSellerTaxNumber     = "SellerParty.TaxIdentification.TaxIdentificationNumber"
	FieldSellerCorporateName = "SellerParty.LegalEntity.CorporateName"

	FieldSellerRegBook       = "SellerParty.LegalEntity.RegistrationData.Book"
	FieldSellerRegLocation   = "SellerParty.LegalEntity.RegistrationData.RegisterOfCompaniesLocation"
	FieldSellerRegSheet      = "SellerParty.LegalEntity.RegistrationData.Sheet"
	FieldSellerRegFolio      = "SellerParty.LegalEntity.RegistrationData.Folio"
	FieldSellerRegSection    = "SellerParty.LegalEntity.RegistrationData.Section"
	FieldSellerRegVolume     = "SellerParty.LegalEntity.RegistrationData.Volume"
	FieldSellerRegAdditional = "SellerParty.LegalEntity.RegistrationData.AdditionalRegistrationData"

	FieldSellerAddress  = "SellerParty.LegalEntity.AddressInSpain.Address"
	FieldSellerPostCode = "SellerParty.LegalEntity.AddressInSpain.PostCode"
	FieldSellerTown     = "SellerParty.LegalEntity.AddressInSpain.Town"
	FieldSellerProvince = "SellerParty.LegalEntity.AddressInSpain.Province"

	FieldBuyerPartyID       = "BuyerParty.PartyIdentification"
	FieldBuyerTaxNumber     = "BuyerParty.TaxIdentification.TaxIdentificationNumber"
	FieldBuyerName          = "BuyerParty.Individual.Name"
	FieldBuyerFirstSurname  = "BuyerParty.Individual.FirstSurname"
	FieldBuyerSecondSurname = "BuyerParty.Individual.SecondSurname"
	FieldBuyerAddress       = "BuyerParty.Individual.AddressInSpain.Address"
	FieldBuyerPostCode      = "BuyerParty.Individual.AddressInSpain.PostCode"
	FieldBuyerTown          = "BuyerParty.Individual.AddressInSpain.Town"
	FieldBuyerProvince      = "BuyerParty.Individual.AddressInSpain.Province"

	FieldInvoiceNumber     = "Invoices.Invoice.InvoiceHeader.InvoiceNumber"
	FieldInvoiceSeriesCode = "Invoices.Invoice.InvoiceHeader.InvoiceSeriesCode"
	FieldIssueDate         = "Invoices.Invoice.InvoiceIssueData.IssueDate"

	FieldTaxRate     = "Invoices.Invoice.TaxesOutputs.Tax.TaxRate"
	FieldTaxableBase = "Invoices.Invoice.TaxesOutputs.Tax.TaxableBase.TotalAmount"
	FieldTaxAmount   = "Invoices.Invoice.TaxesOutputs.Tax.TaxAmount.TotalAmount"

	FieldInvoiceTotal     = "Invoices.Invoice.InvoiceTotals.InvoiceTotal"
	FieldExecutableAmount = "Invoices.Invoice.InvoiceTotals.TotalExecutableAmount"
	FieldChargeReason     = "Invoices.Invoice.InvoiceTotals.GeneralSurcharges.Charge.ChargeReason"
	FieldChargeAmount     = "Invoices.Invoice.InvoiceTotals.GeneralSurcharges.Charge.ChargeAmount"

	FieldInstallmentDueDate = "Invoices.Invoice.PaymentDetails.Installment.InstallmentDueDate"
	FieldInstallmentAmount  = "Invoices.Invoice.PaymentDetails.Installment.InstallmentAmount"
)

// FieldSet is the immutable result of the analysis stage: extracted text
// values keyed by field path, plus the recognized line-item table.
type FieldSet struct {
	Fields map[string]string `json:"fields"`
	Table  Table             `json:"table"`
}

// Get returns the extracted text for a field path and whether it was present.
func (fs *FieldSet) Get(path string) (string, bool) {
	v, ok := fs.Fields[path]
	return v, ok
}

// Value returns the extracted text for a field path, or the empty string
// when the field is absent. Per-field policy on absent values belongs to
// the mapping engine.
func (fs *FieldSet) Value(path string) string {
	return fs.Fields[path]
}
