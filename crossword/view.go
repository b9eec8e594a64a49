package crossword

import "github.com/samber/lo"

// CellView is what the display layer needs to draw one visible cell.
type CellView struct {
	Row          int    `json:"row"`
	Col          int    `json:"col"`
	Block        bool   `json:"block,omitempty"`
	Letter       string `json:"letter,omitempty"`
	Label        int    `json:"label,omitempty"`
	Active       bool   `json:"active,omitempty"`
	InActiveWord bool   `json:"in_active_word,omitempty"`
	Wrong        bool   `json:"wrong,omitempty"`
}

// View returns the visible rows of the grid as seen by this controller.
func (c *Controller) View() [][]CellView {
	p := c.puzzle
	b := p.Bounds
	active, hasActive := c.ActiveWord()

	rows := make([][]CellView, 0, b.Rows())
	for r := b.RowMin; r <= b.RowMax; r++ {
		row := make([]CellView, 0, b.Cols())
		for col := b.ColMin; col <= b.ColMax; col++ {
			cell := p.Grid.At(r, col)
			v := CellView{Row: r, Col: col, Block: cell.IsBlock}
			if cell.HasLetter() {
				if ch := c.board.Letter(r, col); ch != 0 {
					v.Letter = string(rune(ch))
				}
				v.Label = p.LabelAt(r, col)
				v.Active = c.hasCursor && c.cursor == Position{Row: r, Col: col}
				v.InActiveWord = hasActive && active.Contains(r, col)
				v.Wrong = c.board.Checked() && c.board.Wrong(r, col)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return rows
}

// Clue is one line of the clue panel.
type Clue struct {
	ID        int       `json:"id"`
	Label     int       `json:"label"`
	Direction Direction `json:"direction"`
	Text      string    `json:"text"`
	Length    int       `json:"length"`
	Row       int       `json:"row"`
	Col       int       `json:"col"`
}

// Clues returns the placed words split by direction, each in placement
// order.
func (p *Puzzle) Clues() (across, down []Clue) {
	all := lo.Map(p.Words, func(w PlacedWord, _ int) Clue {
		return Clue{
			ID:        w.ID,
			Label:     w.Label,
			Direction: w.Direction,
			Text:      w.Clue,
			Length:    w.Len(),
			Row:       w.Row,
			Col:       w.Col,
		}
	})
	return lo.FilterReject(all, func(c Clue, _ int) bool {
		return c.Direction == Across
	})
}
