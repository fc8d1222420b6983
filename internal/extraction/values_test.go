package extraction_test

import (
	"errors"
	"testing"
	"time"

	"github.com/rsanzante/facturae-pipeline/internal/extraction"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"spanish decimal comma", "100,00", "100"},
		{"spanish with grouping", "1.234,56", "1234.56"},
		{"plain dot decimal", "100.00", "100"},
		{"plain integer", "42", "42"},
		{"blank defaults to zero", "", "0"},
		{"whitespace defaults to zero", "  ", "0"},
		{"negative spanish", "-12,50", "-12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extraction.ParseAmount("test.field", tt.text)
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if got.String() != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestParseAmountInvalid(t *testing.T) {
	_, err := extraction.ParseAmount("test.field", "not a number")
	if !errors.Is(err, extraction.ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"decorated rate", "(21.00%)", "21"},
		{"reduced rate", "(10.00%)", "10"},
		{"trailing noise ignored", "(04.00%) IVA", "4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extraction.ParseRate("test.rate", tt.text)
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if got.String() != tt.expected {
				t.Errorf("got %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestParseRateInvalid(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"too short", "21%"},
		{"empty", ""},
		{"non numeric window", "(ab.cd%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := extraction.ParseRate("test.rate", tt.text); !errors.Is(err, extraction.ErrInvalidField) {
				t.Errorf("expected ErrInvalidField, got %v", err)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := extraction.ParseDate("test.date", "15/03/2021")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	expected := time.Date(2021, time.March, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(expected) {
		t.Errorf("got %v, want %v", got, expected)
	}
}

func TestParseDateInvalid(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"iso form rejected", "2021-03-15"},
		{"two digit year", "15/03/21"},
		{"blank", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := extraction.ParseDate("test.date", tt.text); !errors.Is(err, extraction.ErrInvalidField) {
				t.Errorf("expected ErrInvalidField, got %v", err)
			}
		})
	}
}

func TestParseQuantityBlank(t *testing.T) {
	got, err := extraction.ParseQuantity("test.qty", "")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("got %s, want 0", got)
	}
}
