// Package glossary loads the (term, clue) lists crosswords are built from.
package glossary

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bodul/xword/crossword"
)

//go:embed genai.yaml
var defaultGlossary []byte

// Glossary is a titled, ordered list of entries.
type Glossary struct {
	Title   string            `yaml:"title" json:"title"`
	Entries []crossword.Entry `yaml:"entries" json:"entries"`
}

// Default returns the built-in GenAI glossary.
func Default() *Glossary {
	g, err := Parse(bytes.NewReader(defaultGlossary))
	if err != nil {
		panic(fmt.Sprintf("embedded glossary: %v", err))
	}
	return g
}

// Load reads a glossary file. An empty path selects the built-in glossary.
func Load(path string) (*Glossary, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open glossary: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a YAML glossary. Entries with an empty term are skipped;
// term and clue are trimmed.
func Parse(r io.Reader) (*Glossary, error) {
	var g Glossary
	if err := yaml.NewDecoder(r).Decode(&g); err != nil {
		return nil, fmt.Errorf("parse glossary: %w", err)
	}
	entries := g.Entries[:0]
	for _, e := range g.Entries {
		e.Term = strings.TrimSpace(e.Term)
		e.Clue = strings.TrimSpace(e.Clue)
		if e.Term == "" {
			continue
		}
		entries = append(entries, e)
	}
	g.Entries = entries
	if len(g.Entries) == 0 {
		return nil, fmt.Errorf("glossary has no entries")
	}
	return &g, nil
}
