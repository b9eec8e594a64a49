package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog/log"

	"github.com/bodul/xword/crossword"
)

const (
	cellWidth  = 4
	cellHeight = 2
	gridLeft   = 1
	gridTop    = 2
	cluesGap   = 3
)

var (
	styleBase    = tcell.StyleDefault
	styleBlock   = tcell.StyleDefault.Background(tcell.ColorDarkSlateGray)
	styleCell    = tcell.StyleDefault.Background(tcell.ColorWhite).Foreground(tcell.ColorBlack)
	styleWord    = tcell.StyleDefault.Background(tcell.ColorLightSkyBlue).Foreground(tcell.ColorBlack)
	styleCursor  = tcell.StyleDefault.Background(tcell.ColorGold).Foreground(tcell.ColorBlack)
	styleTitle   = tcell.StyleDefault.Bold(true)
	styleClueOn  = tcell.StyleDefault.Reverse(true)
	styleStatus  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleMessage = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)

	wrongColor = tcell.ColorRed
)

// clueLine maps a screen row of the clue panel to a word.
type clueLine struct {
	y      int
	wordID int
}

type app struct {
	screen tcell.Screen
	title  string
	ctrl   *crossword.Controller

	across, down []crossword.Clue
	clueLines    []clueLine
	message      string
}

func newApp(screen tcell.Screen, title string, ctrl *crossword.Controller) *app {
	a := &app{screen: screen, title: title, ctrl: ctrl}
	a.across, a.down = ctrl.Board().Puzzle().Clues()
	return a
}

func (a *app) run() {
	a.draw()
	for {
		ev := a.screen.PollEvent()
		if ev == nil {
			return
		}
		if !a.handleEvent(ev) {
			return
		}
		a.draw()
	}
}

// handleEvent applies one terminal event. It returns false to quit.
func (a *app) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return a.handleKey(ev)
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			a.click(ev.Position())
		}
	case *tcell.EventResize:
		a.screen.Sync()
	}
	return true
}

func (a *app) handleKey(ev *tcell.EventKey) bool {
	switch ctrlKey(ev) {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyCtrlK:
		a.ctrl.Check()
		a.message = "Vérification"
		return true
	case tcell.KeyCtrlL:
		a.report(a.ctrl.RevealLetter())
		return true
	case tcell.KeyCtrlW:
		a.report(a.ctrl.RevealWord())
		return true
	case tcell.KeyCtrlR:
		a.report(a.ctrl.RevealAll())
		return true
	case tcell.KeyCtrlX:
		a.ctrl.ClearAll()
		a.ctrl.FocusFirst()
		a.message = "Grille effacée"
		return true
	}

	k, ok := keyOf(ev)
	if !ok {
		return true
	}
	a.message = ""
	if prog, ok := a.ctrl.HandleKey(k); ok {
		a.report(prog)
	}
	return true
}

// ctrlKey folds Ctrl+letter reported as a rune back into tcell's control
// key codes.
func ctrlKey(ev *tcell.EventKey) tcell.Key {
	r := ev.Rune()
	if ev.Key() == tcell.KeyRune && ev.Modifiers()&tcell.ModCtrl != 0 && r >= 'a' && r <= 'z' {
		return tcell.KeyCtrlA + tcell.Key(r-'a')
	}
	return ev.Key()
}

// keyOf translates a terminal key into controller input.
func keyOf(ev *tcell.EventKey) (crossword.Key, bool) {
	switch ev.Key() {
	case tcell.KeyLeft:
		return crossword.Key{Kind: crossword.KeyLeft}, true
	case tcell.KeyRight:
		return crossword.Key{Kind: crossword.KeyRight}, true
	case tcell.KeyUp:
		return crossword.Key{Kind: crossword.KeyUp}, true
	case tcell.KeyDown:
		return crossword.Key{Kind: crossword.KeyDown}, true
	case tcell.KeyEnter, tcell.KeyTab:
		return crossword.Key{Kind: crossword.KeyEnter}, true
	case tcell.KeyBackspace, tcell.KeyBackspace2, tcell.KeyDelete:
		return crossword.Key{Kind: crossword.KeyBackspace}, true
	case tcell.KeyRune:
		if ev.Modifiers()&(tcell.ModCtrl|tcell.ModAlt) != 0 {
			return crossword.Key{}, false
		}
		return crossword.Key{Kind: crossword.KeyRune, Rune: ev.Rune()}, true
	}
	return crossword.Key{}, false
}

func (a *app) report(prog crossword.Progress) {
	switch {
	case prog.Solved:
		a.message = "Bravo, grille terminée !"
		log.Info().Msg("puzzle solved")
	case len(prog.Completed) > 0:
		a.message = fmt.Sprintf("Mot trouvé (%d/%d)", a.ctrl.Board().CompletedCount(), len(a.across)+len(a.down))
	}
}

// click focuses the grid cell or selects the clue under (x, y).
func (a *app) click(x, y int) {
	if row, col, ok := a.cellAt(x, y); ok {
		a.ctrl.Focus(row, col)
		return
	}
	for _, l := range a.clueLines {
		if l.y == y && x >= a.cluesLeft() {
			a.ctrl.SelectWord(l.wordID)
			return
		}
	}
}

// cellAt converts screen coordinates to grid coordinates.
func (a *app) cellAt(x, y int) (row, col int, ok bool) {
	b := a.ctrl.Board().Puzzle().Bounds
	if b.Empty() || x < gridLeft || y < gridTop {
		return 0, 0, false
	}
	r, c := (y-gridTop)/cellHeight, (x-gridLeft)/cellWidth
	if r >= b.Rows() || c >= b.Cols() {
		return 0, 0, false
	}
	return b.RowMin + r, b.ColMin + c, true
}

func (a *app) cluesLeft() int {
	return gridLeft + a.ctrl.Board().Puzzle().Bounds.Cols()*cellWidth + cluesGap
}
