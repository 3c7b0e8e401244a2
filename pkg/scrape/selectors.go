package scrape

import (
	"fmt"

	"github.com/andybalholm/cascadia"
)

// Mode selects how a listing page is turned into records.
type Mode string

const (
	// ModeTable reads one record per table row on the listing page.
	ModeTable Mode = "table"
	// ModeLinks follows every post link on the listing page and reads one
	// record per detail page.
	ModeLinks Mode = "links"
)

// Selectors maps deck fields to CSS selectors. In table mode field selectors
// are relative to each row; in links mode they apply to the detail page.
type Selectors struct {
	Rows       string
	Links      string
	DeckName   string
	Date       string
	Author     string
	Tournament string
	SourceLink string
	// DecklistBlock locates the element holding the free-text card list.
	DecklistBlock string
	// DecklistLabel is the text after which the card list starts inside the
	// block. Empty means the whole block.
	DecklistLabel string
}

type compiled struct {
	rows          cascadia.Selector
	links         cascadia.Selector
	deckName      cascadia.Selector
	date          cascadia.Selector
	author        cascadia.Selector
	tournament    cascadia.Selector
	sourceLink    cascadia.Selector
	decklistBlock cascadia.Selector
}

// compile parses every non-empty selector.
func (s Selectors) compile() (compiled, error) {
	var c compiled
	targets := []struct {
		name string
		expr string
		dst  *cascadia.Selector
	}{
		{"rows", s.Rows, &c.rows},
		{"links", s.Links, &c.links},
		{"deck_name", s.DeckName, &c.deckName},
		{"date", s.Date, &c.date},
		{"author", s.Author, &c.author},
		{"tournament", s.Tournament, &c.tournament},
		{"source_link", s.SourceLink, &c.sourceLink},
		{"decklist_block", s.DecklistBlock, &c.decklistBlock},
	}
	for _, t := range targets {
		if t.expr == "" {
			continue
		}
		sel, err := cascadia.Compile(t.expr)
		if err != nil {
			return compiled{}, fmt.Errorf("invalid %s selector %q: %w", t.name, t.expr, err)
		}
		*t.dst = sel
	}
	return c, nil
}

// Validate checks that the selectors required by mode are present and parse.
func (s Selectors) Validate(mode Mode) error {
	switch mode {
	case ModeTable:
		if s.Rows == "" {
			return fmt.Errorf("table mode requires a rows selector")
		}
		if s.DeckName == "" || s.Date == "" || s.Author == "" || s.Tournament == "" {
			return fmt.Errorf("table mode requires deck_name, date, author and tournament selectors")
		}
	case ModeLinks:
		if s.Links == "" {
			return fmt.Errorf("links mode requires a links selector")
		}
		if s.DeckName == "" {
			return fmt.Errorf("links mode requires a deck_name selector")
		}
	default:
		return fmt.Errorf("unknown extraction mode %q", mode)
	}
	_, err := s.compile()
	return err
}
