package main

import (
	"fmt"
	"strconv"

	"github.com/gdamore/tcell/v2"

	"github.com/bodul/xword/crossword"
)

func (a *app) draw() {
	a.screen.Clear()
	puts(a.screen, gridLeft, 0, styleTitle, a.title)

	view := a.ctrl.View()
	for r, row := range view {
		for c, cell := range row {
			a.drawCell(gridLeft+c*cellWidth, gridTop+r*cellHeight, cell)
		}
	}

	a.drawClues()

	_, h := a.screen.Size()
	puts(a.screen, gridLeft, h-2, styleMessage, a.message)
	puts(a.screen, gridLeft, h-1, styleStatus,
		"^K vérifier  ^L lettre  ^W mot  ^R tout  ^X effacer  Entrée définition suivante  Échap quitter")
	a.screen.Show()
}

func (a *app) drawCell(x, y int, cell crossword.CellView) {
	if cell.Block {
		fill(a.screen, x, y, cellWidth, cellHeight, styleBlock)
		return
	}
	st := styleCell
	switch {
	case cell.Active:
		st = styleCursor
	case cell.InActiveWord:
		st = styleWord
	}
	fill(a.screen, x, y, cellWidth-1, cellHeight, st)
	if cell.Label > 0 {
		puts(a.screen, x, y, st.Dim(true), strconv.Itoa(cell.Label))
	}
	if cell.Letter != "" {
		lst := st
		if cell.Wrong {
			lst = st.Foreground(wrongColor).Bold(true)
		}
		puts(a.screen, x+1, y+1, lst, cell.Letter)
	}
}

func (a *app) drawClues() {
	x := a.cluesLeft()
	y := gridTop
	active, hasActive := a.ctrl.ActiveWord()

	a.clueLines = a.clueLines[:0]
	for _, section := range []struct {
		title string
		clues []crossword.Clue
	}{
		{"Horizontalement", a.across},
		{"Verticalement", a.down},
	} {
		puts(a.screen, x, y, styleTitle, section.title)
		y++
		for _, cl := range section.clues {
			st := styleBase
			if hasActive && cl.ID == active.ID {
				st = styleClueOn
			}
			if a.ctrl.Board().Completed(cl.ID) {
				st = st.Foreground(tcell.ColorGreen)
			}
			puts(a.screen, x, y, st, fmt.Sprintf("%2d. %s (%d)", cl.Label, cl.Text, cl.Length))
			a.clueLines = append(a.clueLines, clueLine{y: y, wordID: cl.ID})
			y++
		}
		y++
	}
}

func puts(s tcell.Screen, x, y int, st tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, st)
		x++
	}
}

func fill(s tcell.Screen, x, y, w, h int, st tcell.Style) {
	for dy := range h {
		for dx := range w {
			s.SetContent(x+dx, y+dy, ' ', nil, st)
		}
	}
}
