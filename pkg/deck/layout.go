package deck

import "fmt"

// Column header names used by the destination table.
const (
	ColDeckName   = "Deck Name"
	ColDate       = "Date"
	ColDecklist   = "Decklist"
	ColAuthor     = "Author"
	ColTournament = "Tournament"
	ColStatus     = "Status"
)

// Layout is the positional column order of the destination table.
type Layout struct {
	Name    string
	Columns []string
}

var (
	// StandardLayout places the decklist right after the date.
	StandardLayout = Layout{
		Name:    "standard",
		Columns: []string{ColDeckName, ColDate, ColDecklist, ColAuthor, ColTournament, ColStatus},
	}
	// AuthorFirstLayout places the decklist after the tournament.
	AuthorFirstLayout = Layout{
		Name:    "author_first",
		Columns: []string{ColDeckName, ColDate, ColAuthor, ColTournament, ColDecklist, ColStatus},
	}
)

// LayoutByName resolves a configured layout name.
func LayoutByName(name string) (Layout, error) {
	switch name {
	case "", StandardLayout.Name:
		return StandardLayout, nil
	case AuthorFirstLayout.Name:
		return AuthorFirstLayout, nil
	default:
		return Layout{}, fmt.Errorf("unknown column layout %q", name)
	}
}

// Row renders r as an ordered list of cells. Unused cells are empty strings.
func (l Layout) Row(r Record, status string) []string {
	row := make([]string, len(l.Columns))
	for i, col := range l.Columns {
		switch col {
		case ColDeckName:
			row[i] = r.DeckName
		case ColDate:
			row[i] = r.Date
		case ColDecklist:
			row[i] = r.Decklist
		case ColAuthor:
			row[i] = r.Author
		case ColTournament:
			row[i] = r.Tournament
		case ColStatus:
			row[i] = status
		}
	}
	return row
}

// FromRow maps a header-keyed table row back into a Record.
// Missing columns read as empty strings.
func FromRow(row map[string]string) Record {
	return Record{
		DeckName:   row[ColDeckName],
		Date:       row[ColDate],
		Author:     row[ColAuthor],
		Tournament: row[ColTournament],
		Decklist:   row[ColDecklist],
	}
}

// Header returns a copy of the layout's column names.
func (l Layout) Header() []string {
	return append([]string(nil), l.Columns...)
}
