package deck

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("letter case in name, author and tournament is ignored", prop.ForAll(
		func(name, date, author, tournament string) bool {
			a := Record{DeckName: name, Date: date, Author: author, Tournament: tournament}
			b := Record{
				DeckName:   strings.ToUpper(name),
				Date:       date,
				Author:     strings.ToUpper(author),
				Tournament: strings.ToLower(tournament),
			}
			return SameDeck(a, b)
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("surrounding whitespace is ignored on every field", prop.ForAll(
		func(name, date, author, tournament string) bool {
			a := Record{DeckName: name, Date: date, Author: author, Tournament: tournament}
			b := Record{
				DeckName:   "  " + name + " ",
				Date:       date + " ",
				Author:     "\t" + author,
				Tournament: tournament + "\n",
			}
			return SameDeck(a, b)
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("different dates never match", prop.ForAll(
		func(name, d1, d2 string) bool {
			if d1 == d2 {
				return true
			}
			a := Record{DeckName: name, Date: d1}
			b := Record{DeckName: name, Date: d2}
			return !SameDeck(a, b)
		},
		gen.Identifier(),
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestDateIsCaseSensitive(t *testing.T) {
	a := Record{DeckName: "Red Zoro", Date: "May 1"}
	b := Record{DeckName: "Red Zoro", Date: "may 1"}
	assert.False(t, SameDeck(a, b))
}

func TestIsDuplicate(t *testing.T) {
	existing := []Record{
		{DeckName: "Red Zoro", Date: "2024-05-01", Author: "Alice", Tournament: "Regional"},
	}

	assert.True(t, IsDuplicate(Record{DeckName: "red zoro", Date: "2024-05-01", Author: "ALICE", Tournament: "regional"}, existing))
	assert.False(t, IsDuplicate(Record{DeckName: "red zoro", Date: "2024-05-02", Author: "ALICE", Tournament: "regional"}, existing))
	assert.False(t, IsDuplicate(Record{DeckName: "Red Zoro"}, nil))
}

func TestLayoutRow(t *testing.T) {
	r := Record{DeckName: "Red Zoro", Date: "2024-05-01", Author: "Alice", Tournament: "Regional"}

	assert.Equal(t,
		[]string{"Red Zoro", "2024-05-01", "", "Alice", "Regional", ""},
		StandardLayout.Row(r, ""))

	r.Decklist = "4xOP01-001"
	assert.Equal(t,
		[]string{"Red Zoro", "2024-05-01", "Alice", "Regional", "4xOP01-001", "Not Processed"},
		AuthorFirstLayout.Row(r, "Not Processed"))
}

func TestLayoutByName(t *testing.T) {
	l, err := LayoutByName("")
	require.NoError(t, err)
	assert.Equal(t, StandardLayout.Name, l.Name)

	l, err = LayoutByName("author_first")
	require.NoError(t, err)
	assert.Equal(t, AuthorFirstLayout.Columns, l.Columns)

	_, err = LayoutByName("sideways")
	assert.Error(t, err)
}

func TestFromRowMissingColumns(t *testing.T) {
	r := FromRow(map[string]string{ColDeckName: "Blue Doffy", ColAuthor: "Bob"})
	assert.Equal(t, "Blue Doffy", r.DeckName)
	assert.Equal(t, "Bob", r.Author)
	assert.Empty(t, r.Date)
	assert.Empty(t, r.Tournament)
}
