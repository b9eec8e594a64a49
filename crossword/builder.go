package crossword

import (
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// DropReason explains why an entry is absent from the finished puzzle.
type DropReason string

const (
	DropTooShort      DropReason = "too short"
	DropDuplicateSeed DropReason = "duplicate of seed"
	DropNoFit         DropReason = "no fit"
)

// DroppedEntry is an input entry the builder did not place.
type DroppedEntry struct {
	Entry
	Answer string     `json:"answer"`
	Reason DropReason `json:"reason"`
}

// Puzzle is the immutable result of a build: the answer grid, the placed
// words in placement order, the entries that could not be placed, and the
// visible bounds.
type Puzzle struct {
	Grid    *Grid
	Words   []PlacedWord
	Dropped []DroppedEntry
	Bounds  Bounds

	// cell index -> ids of the words crossing it, in placement order
	cellWords map[int][]int
}

type candidate struct {
	Entry
	answer string
	rank   int // position after the length sort
}

type builder struct {
	grid    *Grid
	placed  []PlacedWord
	dropped []DroppedEntry
}

// Build lays out entries on a grid. It is deterministic for a given input
// order and never fails: entries that cannot be placed are reported in
// Puzzle.Dropped. A puzzle with zero words is valid and must be handled by
// the caller.
func Build(entries []Entry) *Puzzle {
	b := &builder{}

	var cands []candidate
	for _, e := range entries {
		answer := Normalize(e.Term)
		if len(answer) < MinAnswerLength {
			b.drop(e, answer, DropTooShort)
			continue
		}
		cands = append(cands, candidate{Entry: e, answer: answer})
	}

	if len(cands) == 0 {
		b.grid = newGrid(gridSize(0))
		return b.finish()
	}

	slices.SortStableFunc(cands, func(a, b candidate) int {
		return len(b.answer) - len(a.answer)
	})
	for i := range cands {
		cands[i].rank = i
	}
	b.grid = newGrid(gridSize(len(cands[0].answer)))

	across, down := lo.FilterReject(cands, func(_ candidate, i int) bool {
		return i%2 == 0
	})

	seed := cands[0]
	b.placeSeed(seed)

	buckets := []struct {
		dir   Direction
		items []candidate
	}{
		{Across, across},
		{Down, down},
	}
	for _, bucket := range buckets {
		for _, c := range bucket.items {
			if c.answer == seed.answer {
				if c.rank != seed.rank {
					b.drop(c.Entry, c.answer, DropDuplicateSeed)
				}
				continue
			}
			if b.placeIntersecting(c) || b.placeScan(c, bucket.dir) {
				continue
			}
			b.drop(c.Entry, c.answer, DropNoFit)
		}
	}

	return b.finish()
}

func (b *builder) finish() *Puzzle {
	p := &Puzzle{
		Grid:      b.grid,
		Words:     b.placed,
		Dropped:   b.dropped,
		Bounds:    ComputeBounds(b.grid),
		cellWords: make(map[int][]int),
	}
	for _, w := range p.Words {
		for i := range w.Len() {
			r, c := w.CellAt(i)
			idx := r*b.grid.size + c
			p.cellWords[idx] = append(p.cellWords[idx], w.ID)
		}
	}
	return p
}

func (b *builder) drop(e Entry, answer string, reason DropReason) {
	log.Debug().Str("term", e.Term).Str("reason", string(reason)).Msg("entry dropped")
	b.dropped = append(b.dropped, DroppedEntry{Entry: e, Answer: answer, Reason: reason})
}

// placeSeed centers the longest answer on the middle row, falling back to
// the first free row-major slot.
func (b *builder) placeSeed(seed candidate) {
	n := b.grid.size
	row := n / 2
	col := max(0, (n-len(seed.answer))/2)
	if b.canPlace(row, col, Across, seed.answer) {
		b.place(row, col, Across, seed)
		return
	}
	if !b.placeScan(seed, Across) {
		b.drop(seed.Entry, seed.answer, DropNoFit)
	}
}

// placeIntersecting tries every shared letter with every placed word, in
// placement order, and commits the first legal crossing.
func (b *builder) placeIntersecting(c candidate) bool {
	for _, p := range b.placed {
		dir := p.Direction.Opposite()
		dr, dc := dir.delta()
		for i := 0; i < len(p.Answer); i++ {
			pr, pc := p.CellAt(i)
			for j := 0; j < len(c.answer); j++ {
				if c.answer[j] != p.Answer[i] {
					continue
				}
				row, col := pr-dr*j, pc-dc*j
				if b.canPlace(row, col, dir, c.answer) {
					b.place(row, col, dir, c)
					return true
				}
			}
		}
	}
	return false
}

// placeScan commits the first legal row-major position in dir.
func (b *builder) placeScan(c candidate, dir Direction) bool {
	n := b.grid.size
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			if b.canPlace(row, col, dir, c.answer) {
				b.place(row, col, dir, c)
				return true
			}
		}
	}
	return false
}

func (b *builder) canPlace(row, col int, dir Direction, answer string) bool {
	g := b.grid
	dr, dc := dir.delta()
	for i := 0; i < len(answer); i++ {
		r, c := row+dr*i, col+dc*i
		if !g.InBounds(r, c) {
			return false
		}
		cell := g.At(r, c)
		if cell.IsBlock {
			return false
		}
		if cell.HasLetter() {
			if cell.Letter != answer[i] {
				return false
			}
			continue
		}
		// Perpendicular neighbours of a fresh letter must be empty.
		if g.letterAt(r-dc, c-dr) != 0 || g.letterAt(r+dc, c+dr) != 0 {
			return false
		}
	}
	// No letter may touch either end of the run.
	if g.letterAt(row-dr, col-dc) != 0 {
		return false
	}
	n := len(answer)
	return g.letterAt(row+dr*n, col+dc*n) == 0
}

func (b *builder) place(row, col int, dir Direction, c candidate) {
	dr, dc := dir.delta()
	for i := 0; i < len(c.answer); i++ {
		b.grid.set(row+dr*i, col+dc*i, c.answer[i])
	}
	b.placed = append(b.placed, PlacedWord{
		ID:        len(b.placed),
		Row:       row,
		Col:       col,
		Direction: dir,
		Answer:    c.answer,
		Label:     len(b.placed) + 1,
		Clue:      c.Clue,
	})
}

// Word returns the placed word with the given id.
func (p *Puzzle) Word(id int) (PlacedWord, bool) {
	if id < 0 || id >= len(p.Words) {
		return PlacedWord{}, false
	}
	return p.Words[id], true
}

// WordsAt returns the words crossing (row, col) in placement order.
func (p *Puzzle) WordsAt(row, col int) []PlacedWord {
	if !p.Grid.InBounds(row, col) {
		return nil
	}
	ids := p.cellWords[row*p.Grid.size+col]
	return lo.Map(ids, func(id int, _ int) PlacedWord { return p.Words[id] })
}

// Playable reports whether (row, col) is a lettered, non-block cell inside
// the bounds.
func (p *Puzzle) Playable(row, col int) bool {
	if !p.Bounds.Contains(row, col) {
		return false
	}
	c := p.Grid.At(row, col)
	return c.HasLetter() && !c.IsBlock
}

// LabelAt returns the clue number shown in (row, col), or 0. When two words
// start in the same cell the later one wins.
func (p *Puzzle) LabelAt(row, col int) int {
	label := 0
	for _, w := range p.Words {
		if w.Row == row && w.Col == col {
			label = w.Label
		}
	}
	return label
}
