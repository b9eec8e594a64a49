package crossword

import "unicode/utf8"

// KeyKind identifies an input key.
type KeyKind int

const (
	KeyRune KeyKind = iota
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyEnter
	KeyBackspace
)

// Key is one keystroke from the display layer.
type Key struct {
	Kind KeyKind
	Rune rune
}

var namedKeys = map[string]KeyKind{
	"ArrowLeft":  KeyLeft,
	"ArrowRight": KeyRight,
	"ArrowUp":    KeyUp,
	"ArrowDown":  KeyDown,
	"Enter":      KeyEnter,
	"Backspace":  KeyBackspace,
}

// ParseKey reads a DOM-style key name ("ArrowLeft", "Enter", "a", ...).
func ParseKey(name string) (Key, bool) {
	if k, ok := namedKeys[name]; ok {
		return Key{Kind: k}, true
	}
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || size != len(name) {
		return Key{}, false
	}
	return Key{Kind: KeyRune, Rune: r}, true
}

// HandleKey routes a key to its controller operation. The bool is false
// when the key was ignored.
func (c *Controller) HandleKey(k Key) (Progress, bool) {
	switch k.Kind {
	case KeyRight:
		return Progress{}, c.Move(Across, 1)
	case KeyLeft:
		return Progress{}, c.Move(Across, -1)
	case KeyDown:
		return Progress{}, c.Move(Down, 1)
	case KeyUp:
		return Progress{}, c.Move(Down, -1)
	case KeyEnter:
		return Progress{}, c.NextClue()
	case KeyBackspace:
		return c.Backspace()
	case KeyRune:
		return c.TypeLetter(k.Rune)
	}
	return Progress{}, false
}
