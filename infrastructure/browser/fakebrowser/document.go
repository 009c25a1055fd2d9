// Package fakebrowser is an in-memory document and backend used by tests.
// Elements are keyed by the exact selector string that locates them.
package fakebrowser

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"ui_harness/domain/entities"
	"ui_harness/domain/interfaces"
)

// ErrClosed is returned by every operation on a closed document
var ErrClosed = errors.New("target page, context or browser has been closed")

// Option is one entry of a select element
type Option struct {
	Value string
	Label string
}

// Element is a fake DOM node
type Element struct {
	Text       string
	Value      string
	HTML       string
	Attrs      map[string]string
	CSS        map[string]string
	Options    []Option
	Visible    bool
	Disabled   bool
	Checked    bool
	ReadOnly   bool
	Focused    bool
	OffScreen  bool
	ClickCount int
}

// Visible returns a visible, enabled element with text
func Visible(text string) *Element {
	return &Element{Text: text, Visible: true}
}

// Action is one recorded interaction
type Action struct {
	Op       string
	Selector string
	Arg      string
}

// Document is a fake interfaces.Document. The zero value is not usable; call New.
type Document struct {
	mu       sync.Mutex
	url      string
	title    string
	elements map[string][]*Element
	routes   map[string]func(*Document)
	clicks   map[string]func(*Document)
	closed   bool
	actions  []Action
	lookups  int

	NavigateErr   error
	ScreenshotErr error
	LoadErr       error
}

var _ interfaces.Document = (*Document)(nil)

// New creates an empty open document
func New() *Document {
	return &Document{
		url:      "about:blank",
		elements: make(map[string][]*Element),
		routes:   make(map[string]func(*Document)),
		clicks:   make(map[string]func(*Document)),
	}
}

// Put replaces the elements matching selector
func (d *Document) Put(selector string, els ...*Element) *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements[selector] = els
	return d
}

// Remove detaches every element matching selector
func (d *Document) Remove(selector string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.elements, selector)
}

// Mutate runs fn under the document lock, e.g. to simulate a re-render
func (d *Document) Mutate(fn func(elements map[string][]*Element)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.elements)
}

// Route registers a page builder invoked when url is navigated to
func (d *Document) Route(url string, build func(*Document)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routes[url] = build
}

// OnClick registers an effect run after a successful left click on selector,
// e.g. a form submit that navigates
func (d *Document) OnClick(selector string, effect func(*Document)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clicks[selector] = effect
}

// SetTitle sets the document title
func (d *Document) SetTitle(title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.title = title
}

// Close marks the document closed
func (d *Document) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

// Actions returns the interactions recorded so far
func (d *Document) Actions() []Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Action(nil), d.actions...)
}

// Lookups returns how many times a selector was resolved
func (d *Document) Lookups() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lookups
}

func (d *Document) Navigate(url string, timeout time.Duration) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	if d.NavigateErr != nil {
		d.mu.Unlock()
		return d.NavigateErr
	}
	d.url = url
	d.elements = make(map[string][]*Element)
	d.actions = append(d.actions, Action{Op: "navigate", Arg: url})
	build := d.routes[url]
	d.mu.Unlock()

	if build != nil {
		build(d)
	}
	return nil
}

func (d *Document) Reload(timeout time.Duration) error {
	return d.Navigate(d.URL(), timeout)
}

func (d *Document) URL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url
}

func (d *Document) Title() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return "", ErrClosed
	}
	return d.title, nil
}

func (d *Document) Locate(selector string) interfaces.Locator {
	return &locator{doc: d, selector: selector}
}

func (d *Document) Screenshot(fullPage bool) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	if d.ScreenshotErr != nil {
		return nil, d.ScreenshotErr
	}
	return []byte(fmt.Sprintf("PNG:%s:full=%t", d.url, fullPage)), nil
}

func (d *Document) WaitForLoad(state interfaces.LoadState, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return d.LoadErr
}

func (d *Document) IsClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// resolve must be called with d.mu held
func (d *Document) resolve(selector string) ([]*Element, error) {
	if d.closed {
		return nil, ErrClosed
	}
	d.lookups++
	base, indexes := entities.SplitNth(selector)
	matches := d.elements[base]
	for _, idx := range indexes {
		i, ok := entities.PickNth(len(matches), idx)
		if !ok {
			return nil, nil
		}
		matches = matches[i : i+1]
	}
	return matches, nil
}

func (d *Document) record(op, selector, arg string) {
	d.actions = append(d.actions, Action{Op: op, Selector: selector, Arg: arg})
}

// single resolves selector to exactly one element, like a strict locator
func (d *Document) single(selector string) (*Element, error) {
	matches, err := d.resolve(selector)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no element matches %q", selector)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("strict mode violation: %q resolved to %d elements", selector, len(matches))
	}
}

// poll re-evaluates cond until it holds or timeout elapses
func (d *Document) poll(timeout time.Duration, cond func() (bool, error)) error {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout %s exceeded", timeout)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
