package main

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/bodul/xword/crossword"
)

var (
	errUnknownPlayer = errors.New("unknown player")
	errUnknownAction = errors.New("unknown action")
	errInvalidKey    = errors.New("invalid key")
)

// Player represents a connected player. Each player has their own cursor
// over the shared board.
type Player struct {
	Pseudo   string    `json:"pseudo"`
	Color    string    `json:"color"`
	JoinedAt time.Time `json:"joined_at"`

	ctrl *crossword.Controller
}

// Action is a board-wide command from the action bar.
type Action string

const (
	ActionCheck        Action = "check"
	ActionRevealLetter Action = "reveal_letter"
	ActionRevealWord   Action = "reveal_word"
	ActionRevealAll    Action = "reveal_all"
	ActionClearAll     Action = "clear_all"
)

// CellUpdate is a changed player letter, in grid coordinates.
type CellUpdate struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Value string `json:"value"`
}

// Cursor is a player's focus. WordID is -1 without an active word.
type Cursor struct {
	Pseudo string `json:"pseudo"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
	Active bool   `json:"active"`
	WordID int    `json:"word_id"`
}

// Update describes the effects of one player input.
type Update struct {
	Cells        []CellUpdate         `json:"cells,omitempty"`
	Cursor       Cursor               `json:"cursor"`
	Progress     crossword.Progress   `json:"progress"`
	Celebrations int                  `json:"celebrations,omitempty"`
	Checked      bool                 `json:"checked,omitempty"`
	Wrong        []crossword.Position `json:"wrong,omitempty"`
	Cleared      bool                 `json:"cleared,omitempty"`
}

// GameSession represents a collaborative game on a grid.
type GameSession struct {
	ID        string             `json:"id"`
	GridID    string             `json:"grid_id"`
	Players   map[string]*Player `json:"players"`
	CreatedAt time.Time          `json:"created_at"`

	mu           sync.Mutex
	grid         *Grid
	board        *crossword.Board
	celebrations int
}

// playerColors is the palette assigned to players in order.
var playerColors = []string{
	"#2563eb", "#dc2626", "#16a34a", "#9333ea",
	"#ea580c", "#0891b2", "#c026d3", "#ca8a04",
}

func newGameSession(id string, grid *Grid) *GameSession {
	g := &GameSession{
		ID:        id,
		GridID:    grid.ID,
		Players:   make(map[string]*Player),
		CreatedAt: time.Now(),
		grid:      grid,
	}
	g.board = crossword.NewBoard(grid.Puzzle(), crossword.SinkFunc(func() {
		g.celebrations++
	}))
	return g
}

// AddPlayer adds a player to the session and returns the player. A new
// player starts on the first cell of the grid.
func (g *GameSession) AddPlayer(pseudo string) *Player {
	g.mu.Lock()
	defer g.mu.Unlock()

	if p, ok := g.Players[pseudo]; ok {
		return p
	}

	p := &Player{
		Pseudo:   pseudo,
		Color:    playerColors[len(g.Players)%len(playerColors)],
		JoinedAt: time.Now(),
		ctrl:     crossword.NewController(g.board),
	}
	g.Players[pseudo] = p
	return p
}

// RemovePlayer removes a player from the session.
func (g *GameSession) RemovePlayer(pseudo string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.Players, pseudo)
}

// Click focuses the cell under the pointer. Clicks on blocks only report
// the unchanged cursor.
func (g *GameSession) Click(pseudo string, row, col int) (Update, error) {
	return g.apply(pseudo, func(c *crossword.Controller) (crossword.Progress, error) {
		c.Focus(row, col)
		return crossword.Progress{}, nil
	})
}

// SelectWord jumps the player to a clue.
func (g *GameSession) SelectWord(pseudo string, id int) (Update, error) {
	return g.apply(pseudo, func(c *crossword.Controller) (crossword.Progress, error) {
		c.SelectWord(id)
		return crossword.Progress{}, nil
	})
}

// Key applies a keystroke such as "ArrowLeft", "Enter" or "a". Keys that
// do not map to an operation are ignored.
func (g *GameSession) Key(pseudo, name string) (Update, error) {
	k, ok := crossword.ParseKey(name)
	if !ok {
		return Update{}, errInvalidKey
	}
	return g.apply(pseudo, func(c *crossword.Controller) (crossword.Progress, error) {
		prog, _ := c.HandleKey(k)
		return prog, nil
	})
}

// Do runs an action-bar command on behalf of a player.
func (g *GameSession) Do(pseudo string, a Action) (Update, error) {
	upd, err := g.apply(pseudo, func(c *crossword.Controller) (crossword.Progress, error) {
		switch a {
		case ActionCheck:
			c.Check()
		case ActionRevealLetter:
			return c.RevealLetter(), nil
		case ActionRevealWord:
			return c.RevealWord(), nil
		case ActionRevealAll:
			return c.RevealAll(), nil
		case ActionClearAll:
			c.ClearAll()
		default:
			return crossword.Progress{}, errUnknownAction
		}
		return crossword.Progress{}, nil
	})
	upd.Cleared = err == nil && a == ActionClearAll
	return upd, err
}

// apply runs op under the session lock and reports what changed.
func (g *GameSession) apply(pseudo string, op func(*crossword.Controller) (crossword.Progress, error)) (Update, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.Players[pseudo]
	if !ok {
		return Update{}, errUnknownPlayer
	}

	before := g.board.State()
	celebrations := g.celebrations

	prog, err := op(p.ctrl)
	if err != nil {
		return Update{}, err
	}

	upd := Update{
		Cells:        diffState(before, g.board.State()),
		Cursor:       cursorOf(p),
		Progress:     prog,
		Celebrations: g.celebrations - celebrations,
		Checked:      g.board.Checked(),
	}
	if upd.Checked {
		upd.Wrong = g.wrongCells()
	}
	return upd, nil
}

func cursorOf(p *Player) Cursor {
	cur := Cursor{Pseudo: p.Pseudo, WordID: -1}
	if pos, ok := p.ctrl.Cursor(); ok {
		cur.Row, cur.Col, cur.Active = pos.Row, pos.Col, true
	}
	if w, ok := p.ctrl.ActiveWord(); ok {
		cur.WordID = w.ID
	}
	return cur
}

func diffState(before, after [][]string) []CellUpdate {
	var out []CellUpdate
	for r := range after {
		for c := range after[r] {
			if before[r][c] != after[r][c] {
				out = append(out, CellUpdate{Row: r, Col: c, Value: after[r][c]})
			}
		}
	}
	return out
}

func (g *GameSession) wrongCells() []crossword.Position {
	var out []crossword.Position
	b := g.grid.Bounds
	for r := b.RowMin; r <= b.RowMax; r++ {
		for c := b.ColMin; c <= b.ColMax; c++ {
			if g.board.Wrong(r, c) {
				out = append(out, crossword.Position{Row: r, Col: c})
			}
		}
	}
	return out
}

// GameState is a consistent snapshot of a session.
type GameState struct {
	ID        string               `json:"id"`
	GridID    string               `json:"grid_id"`
	Players   []*Player            `json:"players"`
	Cursors   []Cursor             `json:"cursors"`
	State     [][]string           `json:"state"`
	Completed []int                `json:"completed"`
	Solved    bool                 `json:"solved"`
	Checked   bool                 `json:"checked"`
	Wrong     []crossword.Position `json:"wrong,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// Snapshot returns a copy of the session state. State covers the visible
// bounds only, aligned with Grid.Cells.
func (g *GameSession) Snapshot() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := GameState{
		ID:        g.ID,
		GridID:    g.GridID,
		State:     g.visibleState(),
		Completed: []int{},
		Solved:    g.board.Solved(),
		Checked:   g.board.Checked(),
		CreatedAt: g.CreatedAt,
	}
	for _, p := range g.Players {
		st.Players = append(st.Players, p)
	}
	slices.SortStableFunc(st.Players, func(a, b *Player) int {
		return a.JoinedAt.Compare(b.JoinedAt)
	})
	for _, p := range st.Players {
		st.Cursors = append(st.Cursors, cursorOf(p))
	}
	for _, w := range g.grid.Puzzle().Words {
		if g.board.Completed(w.ID) {
			st.Completed = append(st.Completed, w.ID)
		}
	}
	if st.Checked {
		st.Wrong = g.wrongCells()
	}
	return st
}

func (g *GameSession) visibleState() [][]string {
	full := g.board.State()
	b := g.grid.Bounds
	rows := make([][]string, 0, b.Rows())
	for r := b.RowMin; r <= b.RowMax; r++ {
		rows = append(rows, full[r][b.ColMin:b.ColMax+1])
	}
	return rows
}
