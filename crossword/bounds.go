package crossword

// Bounds is the inclusive rectangle of the grid that is shown to the player.
// An empty puzzle has RowMax < RowMin.
type Bounds struct {
	RowMin int `json:"row_min"`
	RowMax int `json:"row_max"`
	ColMin int `json:"col_min"`
	ColMax int `json:"col_max"`
}

// Contains reports whether (row, col) is inside the rectangle.
func (b Bounds) Contains(row, col int) bool {
	return row >= b.RowMin && row <= b.RowMax && col >= b.ColMin && col <= b.ColMax
}

// Empty reports whether the rectangle holds no cells.
func (b Bounds) Empty() bool { return b.RowMax < b.RowMin || b.ColMax < b.ColMin }

// Rows is the number of visible rows.
func (b Bounds) Rows() int { return max(0, b.RowMax-b.RowMin+1) }

// Cols is the number of visible columns.
func (b Bounds) Cols() int { return max(0, b.ColMax-b.ColMin+1) }

// ComputeBounds finds the box around every lettered cell, widens it by one
// cell on each side (clamped to the grid) and turns every empty cell inside
// it into a block.
func ComputeBounds(g *Grid) Bounds {
	b := Bounds{RowMin: g.size, RowMax: -1, ColMin: g.size, ColMax: -1}
	for _, c := range g.cells {
		if !c.HasLetter() {
			continue
		}
		b.RowMin = min(b.RowMin, c.Row)
		b.RowMax = max(b.RowMax, c.Row)
		b.ColMin = min(b.ColMin, c.Col)
		b.ColMax = max(b.ColMax, c.Col)
	}
	if b.RowMax < 0 {
		return Bounds{RowMin: 0, RowMax: -1, ColMin: 0, ColMax: -1}
	}

	b.RowMin = max(0, b.RowMin-1)
	b.RowMax = min(g.size-1, b.RowMax+1)
	b.ColMin = max(0, b.ColMin-1)
	b.ColMax = min(g.size-1, b.ColMax+1)

	for r := b.RowMin; r <= b.RowMax; r++ {
		for c := b.ColMin; c <= b.ColMax; c++ {
			cell := &g.cells[r*g.size+c]
			if !cell.HasLetter() {
				cell.IsBlock = true
			}
		}
	}
	return b
}
