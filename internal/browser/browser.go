// Package browser defines the thin driver abstraction the automation flows
// run against, plus human-like input helpers. The only production
// implementation wraps a go-rod page; tests script fake pages.
package browser

import (
	"errors"
	"time"
)

// QueryKind selects how a query expression addresses an element.
type QueryKind int

const (
	// QueryCSS addresses elements by CSS selector
	QueryCSS QueryKind = iota
	// QueryXPath addresses elements by XPath expression
	QueryXPath
)

// ErrElementNotFound is returned by Page.Find when no element matched the
// query within the allotted time. Callers treat this as expected absence.
var ErrElementNotFound = errors.New("element not found")

// Element is a handle to a located page element
type Element interface {
	Click() error
	// Input appends text at the element's cursor position
	Input(text string) error
	// Clear empties the element's current value
	Clear() error
	Backspace() error
	Text() (string, error)
	// Attribute reads a live DOM property (href, disabled, ...). Properties
	// are used instead of raw attributes so relative URLs come back resolved.
	Attribute(name string) (string, error)
	Visible() (bool, error)
	Enabled() (bool, error)
	ScrollIntoView() error
}

// Page is the surface the orchestrator, locator and auth flows drive
type Page interface {
	// Navigate loads the URL and blocks until the page load event
	Navigate(url string) error
	URL() (string, error)
	ScrollBy(deltaY float64) error
	ScrollTop() (float64, error)
	ScrollHeight() (float64, error)
	// Find waits up to timeout for a single element matching the query
	Find(kind QueryKind, expr string, timeout time.Duration) (Element, error)
	// FindAll returns the elements matching the query right now, no waiting
	FindAll(kind QueryKind, expr string) ([]Element, error)
}
