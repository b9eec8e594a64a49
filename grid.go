package main

import (
	"errors"
	"time"

	"github.com/bodul/xword/crossword"
)

var errNoWords = errors.New("no entry could be placed")

// GridCell is the public view of one visible cell. Answers are never sent.
type GridCell struct {
	Black bool `json:"black"`
	Label int  `json:"label,omitempty"`
}

// Grid is a built crossword as stored and served. Cells covers only the
// visible bounds, row by row.
type Grid struct {
	ID        string                   `json:"id"`
	Title     string                   `json:"title"`
	Size      int                      `json:"size"`
	Bounds    crossword.Bounds         `json:"bounds"`
	Cells     [][]GridCell             `json:"cells"`
	Across    []crossword.Clue         `json:"across"`
	Down      []crossword.Clue         `json:"down"`
	Dropped   []crossword.DroppedEntry `json:"dropped,omitempty"`
	CreatedAt time.Time                `json:"created_at"`

	puzzle *crossword.Puzzle
}

// NewGrid builds a crossword from entries. It fails with errNoWords when
// not a single entry could be placed.
func NewGrid(title string, entries []crossword.Entry) (*Grid, error) {
	p := crossword.Build(entries)
	if len(p.Words) == 0 {
		return nil, errNoWords
	}

	b := p.Bounds
	cells := make([][]GridCell, 0, b.Rows())
	for r := b.RowMin; r <= b.RowMax; r++ {
		row := make([]GridCell, 0, b.Cols())
		for c := b.ColMin; c <= b.ColMax; c++ {
			row = append(row, GridCell{
				Black: !p.Playable(r, c),
				Label: p.LabelAt(r, c),
			})
		}
		cells = append(cells, row)
	}

	across, down := p.Clues()
	return &Grid{
		Title:   title,
		Size:    p.Grid.Size(),
		Bounds:  b,
		Cells:   cells,
		Across:  across,
		Down:    down,
		Dropped: p.Dropped,
		puzzle:  p,
	}, nil
}

// Puzzle returns the underlying puzzle.
func (g *Grid) Puzzle() *crossword.Puzzle { return g.puzzle }
