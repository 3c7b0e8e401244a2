// Package failure defines the typed errors produced while extracting and
// storing deck records.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by the boundary it crossed.
type Kind int

const (
	// FieldNotFound means one expected field was missing on a row or page.
	// Only the affected record is dropped.
	FieldNotFound Kind = iota + 1
	// PageLoadFailure means a page or its row container could not be loaded.
	// The page yields no records.
	PageLoadFailure
	// StoreConnectionFailure means the destination table could not be opened
	// or accessed. The job stops.
	StoreConnectionFailure
)

func (k Kind) String() string {
	switch k {
	case FieldNotFound:
		return "field_not_found"
	case PageLoadFailure:
		return "page_load_failure"
	case StoreConnectionFailure:
		return "store_connection_failure"
	default:
		return "unknown"
	}
}

// Error is a failure with the context it occurred in.
type Error struct {
	Kind  Kind
	URL   string
	Table string
	Field string
	Row   int
	Err   error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg += fmt.Sprintf(" field=%s", e.Field)
	}
	if e.Row > 0 {
		msg += fmt.Sprintf(" row=%d", e.Row)
	}
	if e.URL != "" {
		msg += fmt.Sprintf(" url=%s", e.URL)
	}
	if e.Table != "" {
		msg += fmt.Sprintf(" table=%s", e.Table)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, failure.ErrPageLoad) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.URL == "" && t.Table == "" && t.Field == "" && t.Err == nil
}

// Sentinels for errors.Is.
var (
	ErrFieldNotFound   = &Error{Kind: FieldNotFound}
	ErrPageLoad        = &Error{Kind: PageLoadFailure}
	ErrStoreConnection = &Error{Kind: StoreConnectionFailure}
)

// MissingField builds a FieldNotFound failure for row (1-based, 0 for page-level fields).
func MissingField(url, field string, row int) *Error {
	return &Error{Kind: FieldNotFound, URL: url, Field: field, Row: row}
}

// PageLoad wraps err as a PageLoadFailure.
func PageLoad(url string, err error) *Error {
	return &Error{Kind: PageLoadFailure, URL: url, Err: err}
}

// StoreConnection wraps err as a StoreConnectionFailure.
func StoreConnection(table string, err error) *Error {
	return &Error{Kind: StoreConnectionFailure, Table: table, Err: err}
}

// KindOf returns the failure kind carried by err, or 0 if none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}
