package scrape

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"decksync/pkg/deck"
	"decksync/pkg/failure"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

var (
	errNoRows  = errors.New("row container not found")
	errNoLinks = errors.New("no detail links found")
)

// Result is the outcome of extracting one listing page.
type Result struct {
	URL      string
	Records  []deck.Record
	Failures []*failure.Error
	// PagesFetched counts the listing page and every detail page opened.
	PagesFetched int
}

func (r *Result) fail(f *failure.Error) {
	r.Failures = append(r.Failures, f)
}

// Extractor turns listing pages into deck records. It keeps no state between
// calls; every Extract re-fetches the page.
type Extractor struct {
	session     Session
	mode        Mode
	sel         compiled
	label       string
	hasDecklist bool
}

// NewExtractor creates a new Extractor for one job configuration.
func NewExtractor(session Session, mode Mode, s Selectors) (*Extractor, error) {
	if err := s.Validate(mode); err != nil {
		return nil, err
	}
	c, err := s.compile()
	if err != nil {
		return nil, err
	}
	return &Extractor{
		session:     session,
		mode:        mode,
		sel:         c,
		label:       s.DecklistLabel,
		hasDecklist: s.DecklistBlock != "" || s.DecklistLabel != "",
	}, nil
}

// WithSession returns a copy of e that loads pages through s.
func (e *Extractor) WithSession(s Session) *Extractor {
	c := *e
	c.session = s
	return &c
}

// Extract loads pageURL and returns every record it yields. A page that fails
// to load produces an empty Result carrying a PageLoadFailure; a record with a
// missing field is dropped and carries a FieldNotFound.
func (e *Extractor) Extract(ctx context.Context, pageURL string) Result {
	res := Result{URL: pageURL}

	doc, err := e.session.Open(ctx, pageURL)
	if err != nil {
		res.fail(failure.PageLoad(pageURL, err))
		return res
	}
	res.PagesFetched++

	switch e.mode {
	case ModeLinks:
		e.extractLinks(ctx, doc, &res)
	default:
		e.extractTable(ctx, doc, &res)
	}
	return res
}

func (e *Extractor) extractTable(ctx context.Context, doc *goquery.Document, res *Result) {
	rows := doc.FindMatcher(e.sel.rows)
	if rows.Length() == 0 {
		res.fail(failure.PageLoad(res.URL, errNoRows))
		return
	}

	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		if ctx.Err() != nil {
			return false
		}
		rec, ferr := e.fields(row, res.URL, i+1)
		if ferr != nil {
			res.fail(ferr)
			return true
		}

		if e.sel.sourceLink != nil {
			if href, ok := row.FindMatcher(e.sel.sourceLink).First().Attr("href"); ok {
				rec.SourceLink = resolve(doc.Url, href)
			}
		}
		if rec.SourceLink != "" && e.hasDecklist {
			detail, err := e.session.Open(ctx, rec.SourceLink)
			if err != nil {
				// The decklist is optional; the record is kept without it.
				res.fail(failure.PageLoad(rec.SourceLink, err))
			} else {
				res.PagesFetched++
				rec.Decklist = e.decklist(detail)
			}
		}

		res.Records = append(res.Records, rec)
		return true
	})
}

func (e *Extractor) extractLinks(ctx context.Context, doc *goquery.Document, res *Result) {
	links := e.detailLinks(doc)
	if len(links) == 0 {
		res.fail(failure.PageLoad(res.URL, errNoLinks))
		return
	}

	for _, link := range links {
		if ctx.Err() != nil {
			return
		}
		detail, err := e.session.Open(ctx, link)
		if err != nil {
			res.fail(failure.PageLoad(link, err))
			continue
		}
		res.PagesFetched++

		rec, ferr := e.fields(detail.Selection, link, 0)
		if ferr != nil {
			res.fail(ferr)
			continue
		}
		rec.SourceLink = link
		if e.hasDecklist {
			rec.Decklist = e.decklist(detail)
		}
		res.Records = append(res.Records, rec)
	}
}

// detailLinks returns the resolved, de-duplicated post links in page order.
func (e *Extractor) detailLinks(doc *goquery.Document) []string {
	var links []string
	seen := make(map[string]bool)
	doc.FindMatcher(e.sel.links).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		link := resolve(doc.Url, href)
		if seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	})
	return links
}

// fields reads the identity fields under scope. Every configured selector
// must match; unconfigured ones leave the field empty.
func (e *Extractor) fields(scope *goquery.Selection, pageURL string, row int) (deck.Record, *failure.Error) {
	var rec deck.Record
	targets := []struct {
		name string
		sel  cascadia.Selector
		dst  *string
	}{
		{"deck_name", e.sel.deckName, &rec.DeckName},
		{"date", e.sel.date, &rec.Date},
		{"author", e.sel.author, &rec.Author},
		{"tournament", e.sel.tournament, &rec.Tournament},
	}
	for _, t := range targets {
		if t.sel == nil {
			continue
		}
		found := scope.FindMatcher(t.sel).First()
		if found.Length() == 0 {
			return deck.Record{}, failure.MissingField(pageURL, t.name, row)
		}
		*t.dst = strings.TrimSpace(found.Text())
	}
	return rec, nil
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
