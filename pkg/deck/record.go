package deck

import "strings"

// Record is one deck listing extracted from a source page.
type Record struct {
	DeckName   string `json:"deck_name"`
	Date       string `json:"date"`
	Author     string `json:"author"`
	Tournament string `json:"tournament"`
	Decklist   string `json:"decklist,omitempty"`
	SourceLink string `json:"source_link,omitempty"`
}

// Identity is the normalized duplicate key of a record.
type Identity struct {
	DeckName   string
	Date       string
	Author     string
	Tournament string
}

// IdentityOf normalizes the identity fields of r. Name, author and tournament
// are trimmed and lower-cased; the date is only trimmed.
func IdentityOf(r Record) Identity {
	return Identity{
		DeckName:   fold(r.DeckName),
		Date:       strings.TrimSpace(r.Date),
		Author:     fold(r.Author),
		Tournament: fold(r.Tournament),
	}
}

// Key renders the identity as a single string, usable as a map or cache key.
func (id Identity) Key() string {
	return strings.Join([]string{id.DeckName, id.Date, id.Author, id.Tournament}, "\x1f")
}

// SameDeck reports whether a and b describe the same deck.
func SameDeck(a, b Record) bool {
	return IdentityOf(a) == IdentityOf(b)
}

// IsDuplicate reports whether r matches any of the existing records.
func IsDuplicate(r Record, existing []Record) bool {
	id := IdentityOf(r)
	for _, e := range existing {
		if IdentityOf(e) == id {
			return true
		}
	}
	return false
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
