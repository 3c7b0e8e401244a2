package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// DecklistAfterLabel returns the trimmed text following the first occurrence
// of label. An empty label returns the whole trimmed text. The boolean is
// false when the label does not occur or nothing follows it.
func DecklistAfterLabel(text, label string) (string, bool) {
	if label == "" {
		out := strings.TrimSpace(text)
		return out, out != ""
	}
	i := strings.Index(text, label)
	if i < 0 {
		return "", false
	}
	out := strings.TrimSpace(text[i+len(label):])
	return out, out != ""
}

// decklist pulls the card list out of a detail page. Configured blocks are
// tried in document order; if none carries the label, the readability
// article text of the page is searched instead.
func (e *Extractor) decklist(doc *goquery.Document) string {
	if e.sel.decklistBlock != nil {
		var found string
		doc.FindMatcher(e.sel.decklistBlock).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if text, ok := DecklistAfterLabel(s.Text(), e.label); ok {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}

	if e.label == "" || doc.Url == nil {
		return ""
	}
	html, err := doc.Html()
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(html), doc.Url)
	if err != nil {
		return ""
	}
	text, _ := DecklistAfterLabel(article.TextContent, e.label)
	return text
}
