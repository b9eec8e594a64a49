package crossword

import (
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Sink receives celebration events. Implementations must not block; a
// panicking sink is recovered and ignored.
type Sink interface {
	PlayCelebration()
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func()

func (f SinkFunc) PlayCelebration() { f() }

// Letters is the player's entry for every grid cell, 0 meaning empty.
type Letters struct {
	size  int
	cells []byte
}

// NewLetters returns an all-empty letters grid of the given side.
func NewLetters(size int) *Letters {
	return &Letters{size: size, cells: make([]byte, size*size)}
}

// Get returns the letter at (row, col), or 0.
func (l *Letters) Get(row, col int) byte {
	if row < 0 || row >= l.size || col < 0 || col >= l.size {
		return 0
	}
	return l.cells[row*l.size+col]
}

func (l *Letters) set(row, col int, ch byte) {
	l.cells[row*l.size+col] = ch
}

func (l *Letters) clear() {
	clear(l.cells)
}

// Empty reports whether no cell holds a letter.
func (l *Letters) Empty() bool {
	return lo.EveryBy(l.cells, func(ch byte) bool { return ch == 0 })
}

// IsWordCorrect reports whether every cell of w holds its expected letter.
func IsWordCorrect(w PlacedWord, letters *Letters) bool {
	for i := range w.Len() {
		r, c := w.CellAt(i)
		if letters.Get(r, c) != w.Answer[i] {
			return false
		}
	}
	return true
}

// NewlyCompleted returns, in placement order, the ids of words that are
// correct in letters but not yet in completed. It does not modify anything.
func NewlyCompleted(words []PlacedWord, letters *Letters, completed map[int]struct{}) []int {
	var ids []int
	for _, w := range words {
		if _, done := completed[w.ID]; done {
			continue
		}
		if IsWordCorrect(w, letters) {
			ids = append(ids, w.ID)
		}
	}
	return ids
}

// Progress describes what a validation pass changed.
type Progress struct {
	// Completed holds the ids of words completed by this pass.
	Completed []int `json:"completed,omitempty"`
	// Solved is set on the pass that completed the whole grid.
	Solved bool `json:"solved,omitempty"`
}

// Board owns the mutable solving state of one puzzle: the player letters,
// the set of celebrated words, and the "checked" display flag.
type Board struct {
	puzzle    *Puzzle
	letters   *Letters
	completed map[int]struct{}
	solved    bool
	checked   bool
	sink      Sink
}

// NewBoard starts an empty board for p. sink may be nil.
func NewBoard(p *Puzzle, sink Sink) *Board {
	return &Board{
		puzzle:    p,
		letters:   NewLetters(p.Grid.Size()),
		completed: make(map[int]struct{}),
		sink:      sink,
	}
}

// Puzzle returns the puzzle the board is played on.
func (b *Board) Puzzle() *Puzzle { return b.puzzle }

// Letters exposes the player letters read-only.
func (b *Board) Letters() *Letters { return b.letters }

// Letter returns the player letter at (row, col), or 0.
func (b *Board) Letter(row, col int) byte { return b.letters.Get(row, col) }

// IsWordCorrect reports whether w is currently filled in correctly.
func (b *Board) IsWordCorrect(w PlacedWord) bool { return IsWordCorrect(w, b.letters) }

// Completed reports whether the word with id has been celebrated.
func (b *Board) Completed(id int) bool {
	_, ok := b.completed[id]
	return ok
}

// CompletedCount is the number of celebrated words.
func (b *Board) CompletedCount() int { return len(b.completed) }

// Solved reports whether the full-grid celebration has fired since the last
// clear.
func (b *Board) Solved() bool { return b.solved }

// Checked reports whether wrong letters should be highlighted.
func (b *Board) Checked() bool { return b.checked }

// Wrong reports whether (row, col) holds a player letter that differs from
// the answer. It is only meaningful once Check has been called.
func (b *Board) Wrong(row, col int) bool {
	ch := b.letters.Get(row, col)
	return ch != 0 && ch != b.puzzle.Grid.letterAt(row, col)
}

// CheckAndCelebrate records every newly correct word and fires the sink once
// per word, then once more when the whole grid is complete for the first
// time. Completion is monotonic until ClearAll.
func (b *Board) CheckAndCelebrate() Progress {
	var prog Progress
	for _, id := range NewlyCompleted(b.puzzle.Words, b.letters, b.completed) {
		b.completed[id] = struct{}{}
		prog.Completed = append(prog.Completed, id)
		b.celebrate()
	}
	if !b.solved && len(b.puzzle.Words) > 0 && len(b.completed) == len(b.puzzle.Words) {
		b.solved = true
		prog.Solved = true
		b.celebrate()
	}
	return prog
}

// put writes a player letter and runs the validation pass.
func (b *Board) put(row, col int, ch byte) Progress {
	b.letters.set(row, col, ch)
	return b.CheckAndCelebrate()
}

// RevealLetter fills (row, col) with its answer letter. Cells without a
// letter are ignored.
func (b *Board) RevealLetter(row, col int) Progress {
	ch := b.puzzle.Grid.letterAt(row, col)
	if ch == 0 {
		return Progress{}
	}
	return b.put(row, col, ch)
}

// RevealWord fills every cell of w with its answer.
func (b *Board) RevealWord(w PlacedWord) Progress {
	for i := range w.Len() {
		r, c := w.CellAt(i)
		b.letters.set(r, c, w.Answer[i])
	}
	return b.CheckAndCelebrate()
}

// RevealAll fills the whole grid, marks every word completed and fires the
// full-grid celebration regardless of prior state.
func (b *Board) RevealAll() Progress {
	var prog Progress
	for _, w := range b.puzzle.Words {
		for i := range w.Len() {
			r, c := w.CellAt(i)
			b.letters.set(r, c, w.Answer[i])
		}
		if !b.Completed(w.ID) {
			b.completed[w.ID] = struct{}{}
			prog.Completed = append(prog.Completed, w.ID)
		}
	}
	b.solved = true
	prog.Solved = true
	b.celebrate()
	return prog
}

// Check turns on wrong-letter highlighting. Letters are not touched.
func (b *Board) Check() { b.checked = true }

// ClearAll empties the letters, forgets every celebration and turns off
// highlighting.
func (b *Board) ClearAll() {
	b.letters.clear()
	clear(b.completed)
	b.solved = false
	b.checked = false
}

// State returns a copy of the player letters as strings, "" for empty.
func (b *Board) State() [][]string {
	n := b.letters.size
	out := make([][]string, n)
	for r := range out {
		out[r] = make([]string, n)
		for c := range out[r] {
			if ch := b.letters.Get(r, c); ch != 0 {
				out[r][c] = string(rune(ch))
			}
		}
	}
	return out
}

func (b *Board) celebrate() {
	if b.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Debug().Interface("panic", r).Msg("celebration sink failed")
		}
	}()
	b.sink.PlayCelebration()
}
