// Package page wraps a live browser tab behind a narrow accessor
// interface. Core components receive a Page already authenticated and
// pointed at a base URL; they never construct a browser themselves.
package page

import "time"

// Element is a handle on a DOM node returned by a query. Scoped queries
// on an element see only its subtree, which is what keeps popup
// extraction from leaking into sibling sections.
type Element interface {
	// Attribute returns the attribute value and whether it is present.
	Attribute(name string) (string, bool, error)
	// Text returns the element's visible text.
	Text() (string, error)
	// Click dispatches a click on the element.
	Click() error
	// Type focuses the element and sends keystrokes into it.
	Type(text string) error
	// ScrollIntoView scrolls the element into the viewport.
	ScrollIntoView() error
	// Query finds descendants of this element matching a CSS selector.
	Query(selector string) ([]Element, error)
}

// Page is the accessor for a live, authenticated browser tab.
type Page interface {
	// Navigate loads a URL, retrying within bounds. It fails with an
	// auth-expired error when the target redirects to a login surface.
	Navigate(url string) error
	// Query finds all elements matching a CSS selector. A selector that
	// matches nothing returns an empty slice, not an error.
	Query(selector string) ([]Element, error)
	// QueryXPath finds all elements matching a path expression.
	QueryXPath(expr string) ([]Element, error)
	// WaitVisible blocks until the selector is visible or the timeout
	// elapses.
	WaitVisible(selector string, timeout time.Duration) error
	// ScrollBy scrolls the main viewport by a pixel delta.
	ScrollBy(pixels int) error
	// ScrollToBottom jumps the main viewport to the document end.
	ScrollToBottom() error
	// Evaluate runs a script in the page, decoding the result into out
	// when out is non-nil.
	Evaluate(script string, out interface{}) error
	// PressEscape sends an Escape keystroke to the page.
	PressEscape() error
	// HTML returns a full document snapshot for offline parsing.
	HTML() (string, error)
	// Location returns the current page URL.
	Location() (string, error)
}
