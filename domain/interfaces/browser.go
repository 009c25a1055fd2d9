package interfaces

import (
	"time"

	"ui_harness/domain/entities"
)

// LoadState is a document readiness milestone
type LoadState string

const (
	LoadStateLoad             LoadState = "load"
	LoadStateDOMContentLoaded LoadState = "domcontentloaded"
	LoadStateNetworkIdle      LoadState = "networkidle"
)

// ElementState is a condition an element can be waited for
type ElementState string

const (
	ElementVisible  ElementState = "visible"
	ElementHidden   ElementState = "hidden"
	ElementAttached ElementState = "attached"
	ElementDetached ElementState = "detached"
)

// MouseButton used by click operations
type MouseButton string

const (
	MouseLeft   MouseButton = "left"
	MouseRight  MouseButton = "right"
	MouseMiddle MouseButton = "middle"
)

// ClickOptions tunes a click
type ClickOptions struct {
	Button     MouseButton
	ClickCount int
	Timeout    time.Duration
}

// Document is the live page of a session backend
type Document interface {
	// Navigate loads url and waits for the load event
	Navigate(url string, timeout time.Duration) error

	// Reload reloads the current document
	Reload(timeout time.Duration) error

	// URL returns the current document URL
	URL() string

	// Title returns the document title
	Title() (string, error)

	// Locate returns a lazy locator; nothing is resolved until an operation runs
	Locate(selector string) Locator

	// Screenshot captures the viewport or the full page
	Screenshot(fullPage bool) ([]byte, error)

	// WaitForLoad waits until the document reaches state
	WaitForLoad(state LoadState, timeout time.Duration) error

	// IsClosed reports whether the document can still be used
	IsClosed() bool
}

// Locator performs operations against every element currently matching a
// selector. Implementations re-query the document on each call.
type Locator interface {
	Selector() string

	Click(opts ClickOptions) error
	Fill(value string, timeout time.Duration) error
	Type(text string, delay, timeout time.Duration) error
	Clear(timeout time.Duration) error
	Hover(timeout time.Duration) error
	Focus(timeout time.Duration) error
	DragTo(target Locator, timeout time.Duration) error
	SelectByValue(value string, timeout time.Duration) error
	SelectByLabel(label string, timeout time.Duration) error
	ScrollIntoView(timeout time.Duration) error
	Screenshot(timeout time.Duration) ([]byte, error)

	IsVisible() (bool, error)
	IsHidden() (bool, error)
	IsEnabled() (bool, error)
	IsChecked() (bool, error)
	IsEditable() (bool, error)
	IsFocused() (bool, error)
	InViewport() (bool, error)
	Count() (int, error)

	TextContent(timeout time.Duration) (string, error)
	Attribute(name string, timeout time.Duration) (string, error)
	InputValue(timeout time.Duration) (string, error)
	InnerHTML(timeout time.Duration) (string, error)
	CSSValue(property string, timeout time.Duration) (string, error)

	WaitFor(state ElementState, timeout time.Duration) error
}

// DocumentProvider resolves the document an element handle acts on
type DocumentProvider interface {
	Document() (Document, error)
}

// Backend is one running automation engine owned by a session
type Backend interface {
	DocumentProvider

	// Kind reports the engine family
	Kind() entities.BackendKind

	// Platform reports which device family the engine drives
	Platform() entities.Platform

	// Screenshot captures the current document
	Screenshot(fullPage bool) ([]byte, error)

	// WaitForNetworkIdle blocks until no requests are in flight or timeout
	WaitForNetworkIdle(timeout time.Duration) error

	// Close releases every resource the backend holds
	Close() error
}
