package extraction

import "fmt"

// Line-item table columns, fixed by convention with the trained analysis
// model; the layout is a contract, not something inferred at runtime.
const (
	ColDescription = 0
	ColQuantity    = 1
	ColGrossAmount = 2
	ColTaxableBase = 3
	ColTaxAmount   = 4
)

// Table is the flat cell sequence recognized for the invoice's line-item
// table, in row-major order, with its declared row count.
type Table struct {
	Rows  int      `json:"rows"`
	Cells []string `json:"cells"`
}

// Grid reshapes the flat cell sequence into a row-major grid with the given
// column count. It fails with ErrTableShape when the declared dimensions
// exceed the supplied cells; it never truncates or wraps. Row 0 is the
// header row.
func (t *Table) Grid(columns int) ([][]string, error) {
	if columns <= 0 {
		return nil, fmt.Errorf("%w: column count %d", ErrTableShape, columns)
	}
	if t.Rows < 0 {
		return nil, fmt.Errorf("%w: row count %d", ErrTableShape, t.Rows)
	}
	if t.Rows*columns > len(t.Cells) {
		return nil, fmt.Errorf(
			"%w: %d rows x %d columns exceeds %d cells",
			ErrTableShape, t.Rows, columns, len(t.Cells),
		)
	}

	grid := make([][]string, t.Rows)
	for row := range t.Rows {
		grid[row] = t.Cells[row*columns : (row+1)*columns]
	}
	return grid, nil
}
