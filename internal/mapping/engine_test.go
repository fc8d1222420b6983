package mapping_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rsanzante/facturae-pipeline/internal/extraction"
	"github.com/rsanzante/facturae-pipeline/internal/facturae"
	"github.com/rsanzante/facturae-pipeline/internal/mapping"
)

func testIssuer() *mapping.Config {
	cfg := &mapping.Config{
		TaxNumber:     "B87654321",
		CorporateName: "Gestoria Digital SL",
	}
	if err := cfg.Finalize(nil); err != nil {
		panic(err)
	}
	return cfg
}

func testFields() *extraction.FieldSet {
	return &extraction.FieldSet{
		Fields: map[string]string{
			extraction.FieldSellerTaxNumber:     "A12345678",
			extraction.FieldSellerCorporateName: "Empresa Ejemplo SL",
			extraction.FieldSellerAddress:       "Calle Mayor 1",
			extraction.FieldSellerPostCode:      "28001",
			extraction.FieldSellerTown:          "Madrid",
			extraction.FieldSellerProvince:      "Madrid",

			extraction.FieldBuyerTaxNumber:     "12345678Z",
			extraction.FieldBuyerName:          "Ana",
			extraction.FieldBuyerFirstSurname:  "Garcia",
			extraction.FieldBuyerSecondSurname: "Lopez",

			extraction.FieldInvoiceNumber:     "0042",
			extraction.FieldInvoiceSeriesCode: "A",
			extraction.FieldIssueDate:         "15/03/2021",

			extraction.FieldTaxRate:     "(21.00%)",
			extraction.FieldTaxableBase: "100,00",
			extraction.FieldTaxAmount:   "21,00",

			extraction.FieldInvoiceTotal:     "121,00",
			extraction.FieldExecutableAmount: "121,00",

			extraction.FieldInstallmentDueDate: "15/04/2021",
			extraction.FieldInstallmentAmount:  "121,00",
		},
		Table: extraction.Table{
			Rows: 2,
			Cells: []string{
				"Descripcion", "Cantidad", "Importe", "Base", "Cuota", "",
				"Consulting service", "2", "100,00", "82,64", "17,36", "",
			},
		},
	}
}

func fixed2(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(2)
}

func TestBuild(t *testing.T) {
	doc, warnings, err := mapping.Build(testFields(), testIssuer())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	header := doc.FileHeader
	if header.SchemaVersion != facturae.SchemaVersion {
		t.Errorf("schema version: got %q", header.SchemaVersion)
	}
	if header.InvoiceIssuerType != facturae.IssuerTypeThirdParty {
		t.Errorf("issuer type: got %q", header.InvoiceIssuerType)
	}
	if header.ThirdParty == nil || header.ThirdParty.LegalEntity.CorporateName != "Gestoria Digital SL" {
		t.Error("third party identity not taken from issuer config")
	}
	if header.Batch.BatchIdentifier != "A123456780042A" {
		t.Errorf("batch identifier: got %q", header.Batch.BatchIdentifier)
	}
	if header.Batch.InvoicesCount != 1 {
		t.Errorf("invoices count: got %d", header.Batch.InvoicesCount)
	}
	if got := header.Batch.TotalInvoicesAmount.TotalAmount.StringFixed(2); got != fixed2(121) {
		t.Errorf("batch total: got %s", got)
	}

	invoice := doc.Invoices.Invoice[0]
	if invoice.InvoiceHeader.InvoiceNumber != "0042" || invoice.InvoiceHeader.InvoiceSeriesCode != "A" {
		t.Errorf("invoice header: got %+v", invoice.InvoiceHeader)
	}
	if invoice.InvoiceIssueData.LanguageName != facturae.LanguageSpanish {
		t.Errorf("language: got %q", invoice.InvoiceIssueData.LanguageName)
	}

	tax := invoice.TaxesOutputs.Tax[0]
	if got := tax.TaxRate.StringFixed(2); got != fixed2(21) {
		t.Errorf("tax rate: got %s", got)
	}
	if got := tax.TaxableBase.TotalAmount.StringFixed(2); got != fixed2(100) {
		t.Errorf("taxable base: got %s", got)
	}

	totals := invoice.InvoiceTotals
	if got := totals.InvoiceTotal.StringFixed(2); got != fixed2(121) {
		t.Errorf("invoice total: got %s", got)
	}
	if totals.GeneralSurcharges != nil {
		t.Error("surcharge block present without a charge reason")
	}

	if invoice.PaymentDetails == nil || len(invoice.PaymentDetails.Installment) != 1 {
		t.Fatal("expected one installment")
	}
	if got := invoice.PaymentDetails.Installment[0].InstallmentAmount.StringFixed(2); got != fixed2(121) {
		t.Errorf("installment amount: got %s", got)
	}
}

func TestBuildLines(t *testing.T) {
	doc, _, err := mapping.Build(testFields(), testIssuer())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	lines := doc.Invoices.Invoice[0].Items.InvoiceLine
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1 (header row excluded)", len(lines))
	}

	line := lines[0]
	if line.ItemDescription != "Consulting service" {
		t.Errorf("description: got %q", line.ItemDescription)
	}
	if got := line.Quantity.StringFixed(6); got != "2.000000" {
		t.Errorf("quantity: got %s", got)
	}
	if got := line.GrossAmount.StringFixed(6); got != "100.000000" {
		t.Errorf("gross: got %s", got)
	}
	if line.UnitPriceWithoutTax == nil {
		t.Fatal("expected unit price for non-zero quantity")
	}
	if got := line.UnitPriceWithoutTax.StringFixed(6); got != "50.000000" {
		t.Errorf("unit price: got %s", got)
	}

	lineTax := line.TaxesOutputs.Tax[0]
	if got := lineTax.TaxableBase.TotalAmount.StringFixed(2); got != "82.64" {
		t.Errorf("line tax base: got %s", got)
	}
	if got := lineTax.TaxAmount.TotalAmount.StringFixed(2); got != "17.36" {
		t.Errorf("line tax amount: got %s", got)
	}
}

func TestBuildZeroQuantityLine(t *testing.T) {
	fields := testFields()
	fields.Table.Cells[7] = ""

	doc, _, err := mapping.Build(fields, testIssuer())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	line := doc.Invoices.Invoice[0].Items.InvoiceLine[0]
	if !line.Quantity.IsZero() {
		t.Errorf("quantity: got %s, want 0", line.Quantity)
	}
	if line.UnitPriceWithoutTax != nil {
		t.Error("unit price must be absent when quantity is zero")
	}
}

func TestBuildSurcharge(t *testing.T) {
	fields := testFields()
	fields.Fields[extraction.FieldChargeReason] = "Recargo financiero"
	fields.Fields[extraction.FieldChargeAmount] = "5,00"

	doc, warnings, err := mapping.Build(fields, testIssuer())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	totals := doc.Invoices.Invoice[0].InvoiceTotals
	if totals.GeneralSurcharges == nil || totals.TotalGeneralSurcharges == nil {
		t.Fatal("expected surcharge block")
	}
	if got := totals.GeneralSurcharges.Charge[0].ChargeAmount.StringFixed(6); got != "5.000000" {
		t.Errorf("charge amount: got %s", got)
	}
	if got := totals.TotalGrossAmountBeforeTaxes.StringFixed(2); got != fixed2(105) {
		t.Errorf("gross before taxes: got %s", got)
	}
	if got := totals.InvoiceTotal.StringFixed(2); got != fixed2(126) {
		t.Errorf("invoice total: got %s", got)
	}
	if got := totals.TotalOutstandingAmount.StringFixed(2); got != fixed2(126) {
		t.Errorf("outstanding: got %s", got)
	}
	if got := totals.TotalExecutableAmount.StringFixed(2); got != fixed2(121) {
		t.Errorf("executable must not absorb the surcharge: got %s", got)
	}
	if got := doc.FileHeader.Batch.TotalInvoicesAmount.TotalAmount.StringFixed(2); got != fixed2(126) {
		t.Errorf("batch total: got %s", got)
	}
	if got := doc.FileHeader.Batch.TotalOutstandingAmount.TotalAmount.StringFixed(2); got != fixed2(126) {
		t.Errorf("batch outstanding: got %s", got)
	}
}

func TestBuildSurchargeIgnoredWithoutReason(t *testing.T) {
	fields := testFields()
	fields.Fields[extraction.FieldChargeAmount] = "5,00"

	doc, _, err := mapping.Build(fields, testIssuer())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	totals := doc.Invoices.Invoice[0].InvoiceTotals
	if totals.GeneralSurcharges != nil {
		t.Error("charge amount without a reason must not produce a surcharge")
	}
	if got := totals.InvoiceTotal.StringFixed(2); got != fixed2(121) {
		t.Errorf("invoice total: got %s", got)
	}
}

func TestBuildTotalsWarning(t *testing.T) {
	fields := testFields()
	fields.Fields[extraction.FieldInvoiceTotal] = "130,00"

	doc, warnings, err := mapping.Build(fields, testIssuer())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
	if warnings[0].Field != extraction.FieldInvoiceTotal {
		t.Errorf("warning field: got %q", warnings[0].Field)
	}
	// The stated total stays authoritative even when inconsistent.
	if got := doc.Invoices.Invoice[0].InvoiceTotals.InvoiceTotal.StringFixed(2); got != fixed2(130) {
		t.Errorf("invoice total: got %s", got)
	}
}

func TestBuildDeterministic(t *testing.T) {
	first, _, err := mapping.Build(testFields(), testIssuer())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	second, _, err := mapping.Build(testFields(), testIssuer())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	firstXML, err := facturae.SerializeForSigning(first)
	if err != nil {
		t.Fatalf("serialize failed: %v", err)
	}
	secondXML, err := facturae.SerializeForSigning(second)
	if err != nil {
		t.Fatalf("serialize failed: %v", err)
	}

	if !bytes.Equal(firstXML, secondXML) {
		t.Error("repeated builds produced different documents")
	}
}

func TestBuildErrors(t *testing.T) {
	t.Run("missing invoice number", func(t *testing.T) {
		fields := testFields()
		delete(fields.Fields, extraction.FieldInvoiceNumber)

		_, _, err := mapping.Build(fields, testIssuer())
		if !errors.Is(err, extraction.ErrInvalidField) {
			t.Errorf("expected ErrInvalidField, got %v", err)
		}
	})

	t.Run("short tax rate text", func(t *testing.T) {
		fields := testFields()
		fields.Fields[extraction.FieldTaxRate] = "21%"

		_, _, err := mapping.Build(fields, testIssuer())
		if !errors.Is(err, extraction.ErrInvalidField) {
			t.Errorf("expected ErrInvalidField, got %v", err)
		}
	})

	t.Run("unparseable issue date", func(t *testing.T) {
		fields := testFields()
		fields.Fields[extraction.FieldIssueDate] = "yesterday"

		_, _, err := mapping.Build(fields, testIssuer())
		if !errors.Is(err, extraction.ErrInvalidField) {
			t.Errorf("expected ErrInvalidField, got %v", err)
		}
	})

	t.Run("table shape mismatch", func(t *testing.T) {
		fields := testFields()
		fields.Table.Cells = fields.Table.Cells[:7]

		_, _, err := mapping.Build(fields, testIssuer())
		if !errors.Is(err, extraction.ErrTableShape) {
			t.Errorf("expected ErrTableShape, got %v", err)
		}
	})

	t.Run("incomplete issuer", func(t *testing.T) {
		_, _, err := mapping.Build(testFields(), &mapping.Config{TaxNumber: "B87654321"})
		if !errors.Is(err, mapping.ErrConfiguration) {
			t.Errorf("expected ErrConfiguration, got %v", err)
		}
	})
}
