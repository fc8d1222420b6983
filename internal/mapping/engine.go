// Package mapping reconstructs a Facturae document from the field set
// extracted off a scanned invoice. The engine is a pure function of its
// inputs: the same field set and issuer identity always produce the same
// document, which is what makes the workflow's replay semantics safe.
package mapping

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rsanzante/facturae-pipeline/internal/extraction"
	"github.com/rsanzante/facturae-pipeline/internal/facturae"
)

// ErrConfiguration indicates an incomplete issuer identity. It is a
// deployment defect, not a document defect, and is never retried.
var ErrConfiguration = errors.New("issuer configuration incomplete")

// lineTableColumns is the declared width of the recognized line-item table.
// The trailing column past the tax amount is present in the trained layout
// but carries no mapped value.
const lineTableColumns = 6

// Warning is a non-fatal inconsistency detected while reconstructing the
// document. Warnings never block signing; they exist for the operator.
type Warning struct {
	Field  string `json:"field"`
	Detail string `json:"detail"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Field, w.Detail)
}

// Build reconstructs a complete single-invoice Facturae batch from the
// extracted field set. The stated totals printed on the invoice are
// authoritative; sums derived from the line items are only cross-checked
// and reported as warnings when they disagree.
func Build(fields *extraction.FieldSet, issuer *Config) (*facturae.Facturae, []Warning, error) {
	if issuer == nil || issuer.TaxNumber == "" || issuer.CorporateName == "" {
		return nil, nil, fmt.Errorf("%w: tax number and corporate name required", ErrConfiguration)
	}

	invoiceNumber := strings.TrimSpace(fields.Value(extraction.FieldInvoiceNumber))
	if invoiceNumber == "" {
		return nil, nil, fmt.Errorf("%w: %s: missing", extraction.ErrInvalidField, extraction.FieldInvoiceNumber)
	}
	seriesCode := strings.TrimSpace(fields.Value(extraction.FieldInvoiceSeriesCode))

	issueDate, err := extraction.ParseDate(extraction.FieldIssueDate, fields.Value(extraction.FieldIssueDate))
	if err != nil {
		return nil, nil, err
	}

	rate, err := extraction.ParseRate(extraction.FieldTaxRate, fields.Value(extraction.FieldTaxRate))
	if err != nil {
		return nil, nil, err
	}
	taxableBase, err := extraction.ParseAmount(extraction.FieldTaxableBase, fields.Value(extraction.FieldTaxableBase))
	if err != nil {
		return nil, nil, err
	}
	taxAmount, err := extraction.ParseAmount(extraction.FieldTaxAmount, fields.Value(extraction.FieldTaxAmount))
	if err != nil {
		return nil, nil, err
	}
	statedTotal, err := extraction.ParseAmount(extraction.FieldInvoiceTotal, fields.Value(extraction.FieldInvoiceTotal))
	if err != nil {
		return nil, nil, err
	}
	executable, err := extraction.ParseAmount(extraction.FieldExecutableAmount, fields.Value(extraction.FieldExecutableAmount))
	if err != nil {
		return nil, nil, err
	}

	chargeReason := strings.TrimSpace(fields.Value(extraction.FieldChargeReason))
	var surcharge decimal.Decimal
	if chargeReason != "" {
		surcharge, err = extraction.ParseAmount(extraction.FieldChargeAmount, fields.Value(extraction.FieldChargeAmount))
		if err != nil {
			return nil, nil, err
		}
	}

	lines, lineSum, err := buildLines(fields, rate)
	if err != nil {
		return nil, nil, err
	}

	totals := facturae.InvoiceTotals{
		TotalGrossAmount:            facturae.NewDecimal2(taxableBase),
		TotalGrossAmountBeforeTaxes: facturae.NewDecimal2(taxableBase),
		TotalTaxOutputs:             facturae.NewDecimal2(taxAmount),
		TotalTaxesWithheld:          facturae.NewDecimal2(decimal.Zero),
		InvoiceTotal:                facturae.NewDecimal2(statedTotal),
		TotalOutstandingAmount:      facturae.NewDecimal2(statedTotal),
		TotalExecutableAmount:       facturae.NewDecimal2(executable),
	}
	if chargeReason != "" {
		surcharges := facturae.NewDecimal2(surcharge)
		totals.GeneralSurcharges = &facturae.GeneralSurcharges{
			Charge: []facturae.Charge{{
				ChargeReason: chargeReason,
				ChargeAmount: facturae.NewDecimal6(surcharge),
			}},
		}
		totals.TotalGeneralSurcharges = &surcharges
		totals.TotalGrossAmountBeforeTaxes = totals.TotalGrossAmountBeforeTaxes.Add(surcharge)
		totals.InvoiceTotal = totals.InvoiceTotal.Add(surcharge)
		totals.TotalOutstandingAmount = totals.TotalOutstandingAmount.Add(surcharge)
	}

	installment, err := buildInstallment(fields)
	if err != nil {
		return nil, nil, err
	}

	sellerTax := strings.TrimSpace(fields.Value(extraction.FieldSellerTaxNumber))

	doc := &facturae.Facturae{
		FileHeader: facturae.FileHeader{
			SchemaVersion:     facturae.SchemaVersion,
			Modality:          facturae.ModalitySingle,
			InvoiceIssuerType: facturae.IssuerTypeThirdParty,
			ThirdParty:        thirdParty(issuer),
			Batch: facturae.Batch{
				BatchIdentifier:        sellerTax + invoiceNumber + seriesCode,
				InvoicesCount:          1,
				TotalInvoicesAmount:    facturae.Amount{TotalAmount: totals.InvoiceTotal},
				TotalOutstandingAmount: facturae.Amount{TotalAmount: totals.TotalOutstandingAmount},
				TotalExecutableAmount:  facturae.Amount{TotalAmount: totals.TotalExecutableAmount},
				InvoiceCurrencyCode:    facturae.CurrencyEUR,
			},
		},
		Parties: facturae.Parties{
			SellerParty: sellerParty(fields, sellerTax),
			BuyerParty:  buyerParty(fields),
		},
		Invoices: facturae.Invoices{
			Invoice: []facturae.Invoice{{
				InvoiceHeader: facturae.InvoiceHeader{
					InvoiceNumber:       invoiceNumber,
					InvoiceSeriesCode:   seriesCode,
					InvoiceDocumentType: facturae.DocumentTypeComplete,
					InvoiceClass:        facturae.ClassOriginal,
				},
				InvoiceIssueData: facturae.InvoiceIssueData{
					IssueDate:           facturae.NewDate(issueDate),
					InvoiceCurrencyCode: facturae.CurrencyEUR,
					TaxCurrencyCode:     facturae.CurrencyEUR,
					LanguageName:        facturae.LanguageSpanish,
				},
				TaxesOutputs: facturae.TaxesOutputs{
					Tax: []facturae.Tax{{
						TaxTypeCode: facturae.TaxTypeVAT,
						TaxRate:     facturae.NewDecimal2(rate),
						TaxableBase: facturae.Amount{TotalAmount: facturae.NewDecimal2(taxableBase)},
						TaxAmount:   facturae.Amount{TotalAmount: facturae.NewDecimal2(taxAmount)},
					}},
				},
				InvoiceTotals:  totals,
				Items:          facturae.Items{InvoiceLine: lines},
				PaymentDetails: installment,
			}},
		},
	}

	var warnings []Warning
	derived := lineSum.Add(taxAmount)
	if chargeReason != "" {
		derived = derived.Add(surcharge)
	}
	if !derived.Round(2).Equal(totals.InvoiceTotal.Decimal) {
		warnings = append(warnings, Warning{
			Field: extraction.FieldInvoiceTotal,
			Detail: fmt.Sprintf(
				"stated total %s differs from line-derived total %s",
				totals.InvoiceTotal.StringFixed(2), derived.StringFixed(2),
			),
		})
	}

	return doc, warnings, nil
}

// buildLines maps every table row past the header into an invoice line and
// returns the sum of the line gross amounts for the consistency check.
func buildLines(fields *extraction.FieldSet, rate decimal.Decimal) ([]facturae.InvoiceLine, decimal.Decimal, error) {
	grid, err := fields.Table.Grid(lineTableColumns)
	if err != nil {
		return nil, decimal.Zero, err
	}

	var (
		lines []facturae.InvoiceLine
		sum   decimal.Decimal
	)
	for row := 1; row < len(grid); row++ {
		cells := grid[row]

		quantity, err := extraction.ParseQuantity(cellPath(row, extraction.ColQuantity), cells[extraction.ColQuantity])
		if err != nil {
			return nil, decimal.Zero, err
		}
		gross, err := extraction.ParseAmount(cellPath(row, extraction.ColGrossAmount), cells[extraction.ColGrossAmount])
		if err != nil {
			return nil, decimal.Zero, err
		}
		base, err := extraction.ParseAmount(cellPath(row, extraction.ColTaxableBase), cells[extraction.ColTaxableBase])
		if err != nil {
			return nil, decimal.Zero, err
		}
		amount, err := extraction.ParseAmount(cellPath(row, extraction.ColTaxAmount), cells[extraction.ColTaxAmount])
		if err != nil {
			return nil, decimal.Zero, err
		}

		line := facturae.InvoiceLine{
			ItemDescription: strings.TrimSpace(cells[extraction.ColDescription]),
			Quantity:        facturae.NewDecimal6(quantity),
			TotalCost:       facturae.NewDecimal6(gross),
			GrossAmount:     facturae.NewDecimal6(gross),
			TaxesOutputs: facturae.TaxesOutputs{
				Tax: []facturae.Tax{{
					TaxTypeCode: facturae.TaxTypeVAT,
					TaxRate:     facturae.NewDecimal2(rate),
					TaxableBase: facturae.Amount{TotalAmount: facturae.NewDecimal2(base)},
					TaxAmount:   facturae.Amount{TotalAmount: facturae.NewDecimal2(amount)},
				}},
			},
		}
		// Unit price is derivable only for a real quantity; a zero quantity
		// line keeps the element absent rather than dividing.
		if !quantity.IsZero() {
			unit := facturae.NewDecimal6(gross.Div(quantity).Round(2))
			line.UnitPriceWithoutTax = &unit
		}

		lines = append(lines, line)
		sum = sum.Add(gross)
	}

	return lines, sum, nil
}

// buildInstallment maps the single payment installment printed on the
// invoice, when present. Both fields must parse together; a due date with
// no amount is a document defect.
func buildInstallment(fields *extraction.FieldSet) (*facturae.PaymentDetails, error) {
	dueText := strings.TrimSpace(fields.Value(extraction.FieldInstallmentDueDate))
	amountText := strings.TrimSpace(fields.Value(extraction.FieldInstallmentAmount))
	if dueText == "" && amountText == "" {
		return nil, nil
	}

	due, err := extraction.ParseDate(extraction.FieldInstallmentDueDate, dueText)
	if err != nil {
		return nil, err
	}
	amount, err := extraction.ParseAmount(extraction.FieldInstallmentAmount, amountText)
	if err != nil {
		return nil, err
	}

	return &facturae.PaymentDetails{
		Installment: []facturae.Installment{{
			InstallmentDueDate: facturae.NewDate(due),
			InstallmentAmount:  facturae.NewDecimal2(amount),
		}},
	}, nil
}

func sellerParty(fields *extraction.FieldSet, taxNumber string) facturae.Party {
	return facturae.Party{
		TaxIdentification: facturae.TaxIdentification{
			PersonTypeCode:          facturae.PersonTypeLegal,
			ResidenceTypeCode:       facturae.ResidenceResident,
			TaxIdentificationNumber: taxNumber,
		},
		LegalEntity: &facturae.LegalEntity{
			CorporateName: strings.TrimSpace(fields.Value(extraction.FieldSellerCorporateName)),
			RegistrationData: &facturae.RegistrationData{
				Book:                        fields.Value(extraction.FieldSellerRegBook),
				RegisterOfCompaniesLocation: fields.Value(extraction.FieldSellerRegLocation),
				Sheet:                       fields.Value(extraction.FieldSellerRegSheet),
				Folio:                       fields.Value(extraction.FieldSellerRegFolio),
				Section:                     fields.Value(extraction.FieldSellerRegSection),
				Volume:                      fields.Value(extraction.FieldSellerRegVolume),
				AdditionalRegistrationData:  fields.Value(extraction.FieldSellerRegAdditional),
			},
			AddressInSpain: &facturae.Address{
				Address:     fields.Value(extraction.FieldSellerAddress),
				PostCode:    fields.Value(extraction.FieldSellerPostCode),
				Town:        fields.Value(extraction.FieldSellerTown),
				Province:    fields.Value(extraction.FieldSellerProvince),
				CountryCode: facturae.CountrySpain,
			},
		},
	}
}

func buyerParty(fields *extraction.FieldSet) facturae.Party {
	return facturae.Party{
		PartyIdentification: strings.TrimSpace(fields.Value(extraction.FieldBuyerPartyID)),
		TaxIdentification: facturae.TaxIdentification{
			PersonTypeCode:          facturae.PersonTypeNatural,
			ResidenceTypeCode:       facturae.ResidenceResident,
			TaxIdentificationNumber: strings.TrimSpace(fields.Value(extraction.FieldBuyerTaxNumber)),
		},
		Individual: &facturae.Individual{
			Name:          strings.TrimSpace(fields.Value(extraction.FieldBuyerName)),
			FirstSurname:  strings.TrimSpace(fields.Value(extraction.FieldBuyerFirstSurname)),
			SecondSurname: strings.TrimSpace(fields.Value(extraction.FieldBuyerSecondSurname)),
			AddressInSpain: &facturae.Address{
				Address:     fields.Value(extraction.FieldBuyerAddress),
				PostCode:    fields.Value(extraction.FieldBuyerPostCode),
				Town:        fields.Value(extraction.FieldBuyerTown),
				Province:    fields.Value(extraction.FieldBuyerProvince),
				CountryCode: facturae.CountrySpain,
			},
		},
	}
}

func thirdParty(issuer *Config) *facturae.ThirdParty {
	return &facturae.ThirdParty{
		TaxIdentification: facturae.TaxIdentification{
			PersonTypeCode:          facturae.PersonTypeLegal,
			ResidenceTypeCode:       facturae.ResidenceResident,
			TaxIdentificationNumber: issuer.TaxNumber,
		},
		LegalEntity: &facturae.LegalEntity{
			CorporateName: issuer.CorporateName,
			TradeName:     issuer.TradeName,
			RegistrationData: &facturae.RegistrationData{
				Book:                        issuer.Registration.Book,
				RegisterOfCompaniesLocation: issuer.Registration.Location,
				Sheet:                       issuer.Registration.Sheet,
				Folio:                       issuer.Registration.Folio,
				Section:                     issuer.Registration.Section,
				Volume:                      issuer.Registration.Volume,
			},
			AddressInSpain: &facturae.Address{
				Address:     issuer.Address.Address,
				PostCode:    issuer.Address.PostCode,
				Town:        issuer.Address.Town,
				Province:    issuer.Address.Province,
				CountryCode: issuer.Address.CountryCode,
			},
			ContactDetails: &facturae.ContactDetails{
				Telephone:      issuer.Contact.Telephone,
				TeleFax:        issuer.Contact.TeleFax,
				WebAddress:     issuer.Contact.WebAddress,
				ElectronicMail: issuer.Contact.ElectronicMail,
				CnoCnae:        issuer.Contact.CnoCnae,
			},
		},
	}
}

func cellPath(row, col int) string {
	return fmt.Sprintf("table[%d][%d]", row, col)
}
