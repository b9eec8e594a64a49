package crossword

import "fmt"

const (
	minGridSize = 25
	maxGridSize = 45
	gridPadding = 8
)

// Direction is the orientation of a placed word.
type Direction int

const (
	Across Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "across"
}

// MarshalText renders the direction as "across" or "down".
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses "across"/"down" (also "A"/"D").
func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "across", "A":
		*d = Across
	case "down", "D":
		*d = Down
	default:
		return fmt.Errorf("unknown direction %q", b)
	}
	return nil
}

// Opposite returns the perpendicular direction.
func (d Direction) Opposite() Direction {
	if d == Across {
		return Down
	}
	return Across
}

// delta returns the (row, col) step of the direction.
func (d Direction) delta() (int, int) {
	if d == Down {
		return 1, 0
	}
	return 0, 1
}

// Entry is one (term, clue) pair supplied by the content source.
type Entry struct {
	Term string `json:"term" yaml:"term"`
	Clue string `json:"clue" yaml:"clue"`
}

// Cell is a single square of the grid. Letter is 0 when empty.
type Cell struct {
	Row     int
	Col     int
	Letter  byte
	IsBlock bool
}

// HasLetter reports whether the cell belongs to at least one placed word.
func (c Cell) HasLetter() bool { return c.Letter != 0 }

// PlacedWord is an answer committed to the grid.
type PlacedWord struct {
	ID        int       `json:"id"`
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Direction Direction `json:"direction"`
	Answer    string    `json:"-"`
	Label     int       `json:"label"`
	Clue      string    `json:"clue"`
}

// Len is the number of cells the word covers.
func (w PlacedWord) Len() int { return len(w.Answer) }

// CellAt returns the coordinates of the i-th letter of the word.
func (w PlacedWord) CellAt(i int) (int, int) {
	dr, dc := w.Direction.delta()
	return w.Row + dr*i, w.Col + dc*i
}

// Contains reports whether (row, col) lies on the word's run.
func (w PlacedWord) Contains(row, col int) bool {
	return w.index(row, col) >= 0
}

func (w PlacedWord) index(row, col int) int {
	switch w.Direction {
	case Across:
		if row == w.Row && col >= w.Col && col < w.Col+len(w.Answer) {
			return col - w.Col
		}
	case Down:
		if col == w.Col && row >= w.Row && row < w.Row+len(w.Answer) {
			return row - w.Row
		}
	}
	return -1
}

// Grid is a square of cells stored row-major in a flat slice.
// It is written only by the builder and the bounds pass.
type Grid struct {
	size  int
	cells []Cell
}

func newGrid(size int) *Grid {
	g := &Grid{size: size, cells: make([]Cell, size*size)}
	for i := range g.cells {
		g.cells[i].Row = i / size
		g.cells[i].Col = i % size
	}
	return g
}

// gridSize clamps longest+padding into [minGridSize, maxGridSize].
func gridSize(longest int) int {
	return min(maxGridSize, max(minGridSize, longest+gridPadding))
}

// Size is the side length of the grid.
func (g *Grid) Size() int { return g.size }

// InBounds reports whether (row, col) is inside the grid.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.size && col >= 0 && col < g.size
}

// At returns the cell at (row, col). The zero Cell is returned when the
// coordinates are outside the grid.
func (g *Grid) At(row, col int) Cell {
	if !g.InBounds(row, col) {
		return Cell{Row: row, Col: col}
	}
	return g.cells[row*g.size+col]
}

func (g *Grid) letterAt(row, col int) byte {
	if !g.InBounds(row, col) {
		return 0
	}
	return g.cells[row*g.size+col].Letter
}

func (g *Grid) set(row, col int, letter byte) {
	g.cells[row*g.size+col].Letter = letter
}

// String renders the grid rows, '.' for empty, '#' for blocks.
func (g *Grid) String() string {
	buf := make([]byte, 0, g.size*(g.size+1))
	for i, c := range g.cells {
		switch {
		case c.HasLetter():
			buf = append(buf, c.Letter)
		case c.IsBlock:
			buf = append(buf, '#')
		default:
			buf = append(buf, '.')
		}
		if i%g.size == g.size-1 {
			buf = append(buf, '\n')
		}
	}
	return string(buf)
}
