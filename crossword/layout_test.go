package crossword_test

import (
	"testing"

	"github.com/matryer/is"

	"github.com/bodul/xword/crossword"
	"github.com/bodul/xword/glossary"
)

func wordsCovering(p *crossword.Puzzle, r1, c1, r2, c2 int) bool {
	for _, w := range p.Words {
		if w.Contains(r1, c1) && w.Contains(r2, c2) {
			return true
		}
	}
	return false
}

func TestGlossaryLayout(t *testing.T) {
	is := is.New(t)

	g := glossary.Default()
	p := crossword.Build(g.Entries)
	grid := p.Grid
	n := grid.Size()

	is.Equal(n, 30) // ARTIFICIALINTELLIGENCE is 22 letters
	is.True(len(p.Words) > 1)
	is.Equal(len(p.Words)+len(p.Dropped), len(g.Entries))

	for i, w := range p.Words {
		is.Equal(w.ID, i)
		is.Equal(w.Label, i+1)
		// Every word reads back from the grid, so crossing words agree.
		for j := range w.Len() {
			r, c := w.CellAt(j)
			is.Equal(grid.At(r, c).Letter, w.Answer[j])
		}
		// Nothing glued to either end.
		br, bc := w.CellAt(-1)
		ar, ac := w.CellAt(w.Len())
		is.True(!grid.At(br, bc).HasLetter())
		is.True(!grid.At(ar, ac).HasLetter())
	}

	b := p.Bounds
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			cell := grid.At(r, c)
			if cell.HasLetter() {
				is.True(b.Contains(r, c))
				// Adjacent letters always belong to one word.
				if grid.At(r, c+1).HasLetter() {
					is.True(wordsCovering(p, r, c, r, c+1))
				}
				if grid.At(r+1, c).HasLetter() {
					is.True(wordsCovering(p, r, c, r+1, c))
				}
			}
			if b.Contains(r, c) {
				is.Equal(cell.IsBlock, !cell.HasLetter())
			} else {
				is.True(!cell.IsBlock)
			}
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	is := is.New(t)
	entries := glossary.Default().Entries

	a := crossword.Build(entries)
	b := crossword.Build(entries)
	is.Equal(a.Words, b.Words)
	is.Equal(a.Bounds, b.Bounds)
	is.Equal(a.Grid.String(), b.Grid.String())
}
