// Package scrape loads deck listing pages and extracts deck records from them.
package scrape

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// Session loads pages. Implementations hold the browser or HTTP client for
// the lifetime of one job run and release it on Close.
type Session interface {
	// Open navigates to url and returns the parsed document. The returned
	// document's Url is the final location after redirects.
	Open(ctx context.Context, url string) (*goquery.Document, error)

	// Close releases the underlying browser or client.
	Close() error
}
