package crossword

import "unicode"

// Position is a grid coordinate.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

const noWord = -1

// Controller is one player's cursor over a shared Board. It translates
// navigation and typing into board mutations. It is not safe for concurrent
// use; callers serialize access together with the Board.
type Controller struct {
	board  *Board
	puzzle *Puzzle

	cursor    Position
	hasCursor bool
	active    int
}

// NewController returns a controller focused on the first playable cell in
// reading order, preferring the across word there.
func NewController(b *Board) *Controller {
	c := &Controller{board: b, puzzle: b.Puzzle(), active: noWord}
	c.FocusFirst()
	return c
}

// Board returns the board the controller writes to.
func (c *Controller) Board() *Board { return c.board }

// Cursor returns the focused cell, if any.
func (c *Controller) Cursor() (Position, bool) { return c.cursor, c.hasCursor }

// ActiveWord returns the word the cursor is typing into, if any.
func (c *Controller) ActiveWord() (PlacedWord, bool) {
	if c.active == noWord {
		return PlacedWord{}, false
	}
	return c.puzzle.Word(c.active)
}

func (c *Controller) direction() Direction {
	if w, ok := c.ActiveWord(); ok {
		return w.Direction
	}
	return Across
}

// FocusFirst focuses the first playable cell in row-major order.
func (c *Controller) FocusFirst() bool {
	b := c.puzzle.Bounds
	for r := b.RowMin; r <= b.RowMax; r++ {
		for col := b.ColMin; col <= b.ColMax; col++ {
			if c.puzzle.Playable(r, col) {
				return c.FocusPreferring(r, col, Across)
			}
		}
	}
	return false
}

// Focus moves the cursor to (row, col) and picks the first word through it.
// Cells without a letter are ignored.
func (c *Controller) Focus(row, col int) bool {
	return c.focus(row, col, nil)
}

// FocusPreferring is Focus, choosing the word running in dir when the cell
// is crossed by both an across and a down word.
func (c *Controller) FocusPreferring(row, col int, dir Direction) bool {
	return c.focus(row, col, &dir)
}

func (c *Controller) focus(row, col int, prefer *Direction) bool {
	words := c.puzzle.WordsAt(row, col)
	if len(words) == 0 {
		return false
	}
	next := words[0]
	if prefer != nil {
		for _, w := range words {
			if w.Direction == *prefer {
				next = w
				break
			}
		}
	}
	c.cursor = Position{Row: row, Col: col}
	c.hasCursor = true
	c.active = next.ID
	return true
}

// step walks from the cursor along dir until it reaches a playable cell.
func (c *Controller) step(dir Direction, delta int) (Position, bool) {
	if !c.hasCursor {
		return Position{}, false
	}
	dr, dc := dir.delta()
	r, col := c.cursor.Row, c.cursor.Col
	for {
		r += dr * delta
		col += dc * delta
		if !c.puzzle.Bounds.Contains(r, col) {
			return Position{}, false
		}
		if c.puzzle.Playable(r, col) {
			return Position{Row: r, Col: col}, true
		}
	}
}

// Move steps the cursor along dir by delta (+1 or -1), skipping blocks. It
// does nothing when no playable cell remains before the edge of the bounds.
func (c *Controller) Move(dir Direction, delta int) bool {
	pos, ok := c.step(dir, delta)
	if !ok {
		return false
	}
	return c.FocusPreferring(pos.Row, pos.Col, dir)
}

// TypeLetter writes ch at the cursor and advances along the active word.
// Anything other than a Latin letter is ignored.
func (c *Controller) TypeLetter(ch rune) (Progress, bool) {
	ch = unicode.ToUpper(ch)
	if ch < 'A' || ch > 'Z' || !c.hasCursor {
		return Progress{}, false
	}
	dir := c.direction()
	prog := c.board.put(c.cursor.Row, c.cursor.Col, byte(ch))
	c.Move(dir, 1)
	return prog, true
}

// Backspace clears the cursor cell, or when it is already empty, the
// previous cell of the active word, focusing it.
func (c *Controller) Backspace() (Progress, bool) {
	if !c.hasCursor {
		return Progress{}, false
	}
	if c.board.Letter(c.cursor.Row, c.cursor.Col) != 0 {
		return c.board.put(c.cursor.Row, c.cursor.Col, 0), true
	}
	dir := c.direction()
	pos, ok := c.step(dir, -1)
	if !ok {
		return c.board.CheckAndCelebrate(), true
	}
	prog := c.board.put(pos.Row, pos.Col, 0)
	c.FocusPreferring(pos.Row, pos.Col, dir)
	return prog, true
}

// SelectWord makes the word with id active and focuses its first cell.
func (c *Controller) SelectWord(id int) bool {
	w, ok := c.puzzle.Word(id)
	if !ok {
		return false
	}
	c.cursor = Position{Row: w.Row, Col: w.Col}
	c.hasCursor = true
	c.active = w.ID
	return true
}

// NextClue jumps to the word placed after the active one, wrapping around.
func (c *Controller) NextClue() bool {
	if c.active == noWord || len(c.puzzle.Words) == 0 {
		return false
	}
	return c.SelectWord((c.active + 1) % len(c.puzzle.Words))
}

// RevealLetter fills the cursor cell with its answer.
func (c *Controller) RevealLetter() Progress {
	if !c.hasCursor {
		return Progress{}
	}
	return c.board.RevealLetter(c.cursor.Row, c.cursor.Col)
}

// RevealWord fills the active word with its answer.
func (c *Controller) RevealWord() Progress {
	w, ok := c.ActiveWord()
	if !ok {
		return Progress{}
	}
	return c.board.RevealWord(w)
}

// RevealAll fills the whole grid.
func (c *Controller) RevealAll() Progress { return c.board.RevealAll() }

// Check turns on wrong-letter highlighting.
func (c *Controller) Check() { c.board.Check() }

// ClearAll resets the board and drops the cursor and active word.
func (c *Controller) ClearAll() {
	c.board.ClearAll()
	c.hasCursor = false
	c.cursor = Position{}
	c.active = noWord
}
