package extraction_test

import (
	"errors"
	"testing"

	"github.com/rsanzante/facturae-pipeline/internal/extraction"
)

func TestGrid(t *testing.T) {
	table := extraction.Table{
		Rows: 2,
		Cells: []string{
			"desc", "qty", "gross",
			"Consulting", "2", "100,00",
		},
	}

	grid, err := table.Grid(3)
	if err != nil {
		t.Fatalf("grid failed: %v", err)
	}

	if len(grid) != 2 {
		t.Fatalf("got %d rows, want 2", len(grid))
	}
	if grid[0][0] != "desc" {
		t.Errorf("header cell: got %q, want %q", grid[0][0], "desc")
	}
	if grid[1][2] != "100,00" {
		t.Errorf("data cell: got %q, want %q", grid[1][2], "100,00")
	}
}

func TestGridShapeMismatch(t *testing.T) {
	tests := []struct {
		name    string
		table   extraction.Table
		columns int
	}{
		{"too few cells", extraction.Table{Rows: 2, Cells: []string{"a", "b", "c"}}, 3},
		{"zero columns", extraction.Table{Rows: 1, Cells: []string{"a"}}, 0},
		{"negative rows", extraction.Table{Rows: -1, Cells: nil}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.table.Grid(tt.columns); !errors.Is(err, extraction.ErrTableShape) {
				t.Errorf("expected ErrTableShape, got %v", err)
			}
		})
	}
}

func TestGridEmpty(t *testing.T) {
	table := extraction.Table{}
	grid, err := table.Grid(6)
	if err != nil {
		t.Fatalf("grid failed: %v", err)
	}
	if len(grid) != 0 {
		t.Errorf("got %d rows, want 0", len(grid))
	}
}
