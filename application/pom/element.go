package pom

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"ui_harness/domain/entities"
	"ui_harness/domain/faults"
	"ui_harness/domain/interfaces"
)

// Element is a handle to whatever currently matches one selector. It keeps
// no backend locator: every call resolves the document through its source,
// so a handle can never act on a session other than the one it was bound to.
type Element struct {
	src      interfaces.DocumentProvider
	selector string
	name     string
	timeout  time.Duration
	log      *logrus.Entry
}

// NewElement - creates a handle outside of a page object
func NewElement(src interfaces.DocumentProvider, name string, by entities.FindBy) (*Element, error) {
	var e *Element
	err := Bind(src, bindFunc(func(b *Binder) { b.Element(&e, name, by) }))
	return e, err
}

type bindFunc func(b *Binder)

func (f bindFunc) DeclareElements(b *Binder) { f(b) }

// Selector returns the resolved selector
func (e *Element) Selector() string { return e.selector }

// Name returns the declared field name
func (e *Element) Name() string { return e.name }

// Timeout returns the per-call timeout
func (e *Element) Timeout() time.Duration { return e.timeout }

func (e *Element) String() string {
	return fmt.Sprintf("%s(%s)", e.name, e.selector)
}

func (e *Element) derive(selector, name string, timeout time.Duration) *Element {
	return &Element{
		src:      e.src,
		selector: selector,
		name:     name,
		timeout:  timeout,
		log:      e.log.WithField("element", name),
	}
}

// Nth returns a handle to the index-th match; negative indexes count from the end
func (e *Element) Nth(index int) *Element {
	return e.derive(entities.WithNth(e.selector, index), fmt.Sprintf("%s[%d]", e.name, index), e.timeout)
}

// First returns a handle to the first match
func (e *Element) First() *Element { return e.Nth(0) }

// Last returns a handle to the last match
func (e *Element) Last() *Element { return e.Nth(-1) }

// Within returns a handle to the descendants of this element matching selector
func (e *Element) Within(name, selector string) *Element {
	return e.derive(e.selector+" >> "+selector, name, e.timeout)
}

// WithTimeout returns a copy of the handle using a different per-call timeout
func (e *Element) WithTimeout(seconds int) *Element {
	return e.derive(e.selector, e.name, time.Duration(seconds)*time.Second)
}

func (e *Element) locate() (interfaces.Locator, error) {
	doc, err := e.src.Document()
	if err != nil {
		return nil, err
	}
	return doc.Locate(e.selector), nil
}

// interact runs an action, wrapping backend failures as InteractionError.
// Session failures pass through untouched.
func (e *Element) interact(op string, fn func(interfaces.Locator) error) error {
	loc, err := e.locate()
	if err != nil {
		return err
	}
	if err := fn(loc); err != nil {
		return &faults.InteractionError{Op: op, Selector: e.selector, Err: err}
	}
	e.log.Debugf("%s done", op)
	return nil
}

func (e *Element) query(op string, fn func(interfaces.Locator) (bool, error)) bool {
	loc, err := e.locate()
	if err != nil {
		e.log.WithError(err).Debugf("%s: no document", op)
		return false
	}
	ok, err := fn(loc)
	if err != nil {
		e.log.WithError(err).Debugf("%s treated as false", op)
		return false
	}
	return ok
}

func (e *Element) content(op string, fn func(interfaces.Locator) (string, error)) (string, error) {
	loc, err := e.locate()
	if err != nil {
		return "", err
	}
	s, err := fn(loc)
	if err != nil {
		return "", &faults.InteractionError{Op: op, Selector: e.selector, Err: err}
	}
	return s, nil
}

// Click clicks the element once
func (e *Element) Click() error {
	return e.interact("click", func(l interfaces.Locator) error {
		return l.Click(interfaces.ClickOptions{Button: interfaces.MouseLeft, ClickCount: 1, Timeout: e.timeout})
	})
}

func (e *Element) DoubleClick() error {
	return e.interact("double click", func(l interfaces.Locator) error {
		return l.Click(interfaces.ClickOptions{Button: interfaces.MouseLeft, ClickCount: 2, Timeout: e.timeout})
	})
}

func (e *Element) RightClick() error {
	return e.interact("right click", func(l interfaces.Locator) error {
		return l.Click(interfaces.ClickOptions{Button: interfaces.MouseRight, ClickCount: 1, Timeout: e.timeout})
	})
}

// Fill replaces the element value
func (e *Element) Fill(text string) error {
	return e.interact("fill", func(l interfaces.Locator) error {
		return l.Fill(text, e.timeout)
	})
}

// TypeWithDelay types text key by key, pausing delay between keys
func (e *Element) TypeWithDelay(text string, delay time.Duration) error {
	return e.interact("type", func(l interfaces.Locator) error {
		return l.Type(text, delay, e.timeout)
	})
}

func (e *Element) Clear() error {
	return e.interact("clear", func(l interfaces.Locator) error { return l.Clear(e.timeout) })
}

func (e *Element) Hover() error {
	return e.interact("hover", func(l interfaces.Locator) error { return l.Hover(e.timeout) })
}

func (e *Element) Focus() error {
	return e.interact("focus", func(l interfaces.Locator) error { return l.Focus(e.timeout) })
}

// DragTo drags this element onto target. Both are resolved in this handle's document.
func (e *Element) DragTo(target *Element) error {
	if target == nil {
		return &faults.InteractionError{Op: "drag", Selector: e.selector, Err: errors.New("no drop target")}
	}
	return e.interact("drag", func(l interfaces.Locator) error {
		doc, err := target.src.Document()
		if err != nil {
			return err
		}
		return l.DragTo(doc.Locate(target.selector), e.timeout)
	})
}

func (e *Element) SelectByValue(value string) error {
	return e.interact("select by value", func(l interfaces.Locator) error {
		return l.SelectByValue(value, e.timeout)
	})
}

// SelectByText selects the option whose visible label is text
func (e *Element) SelectByText(text string) error {
	return e.interact("select by text", func(l interfaces.Locator) error {
		return l.SelectByLabel(text, e.timeout)
	})
}

func (e *Element) ScrollIntoView() error {
	return e.interact("scroll into view", func(l interfaces.Locator) error {
		return l.ScrollIntoView(e.timeout)
	})
}

// Screenshot captures the element alone
func (e *Element) Screenshot() ([]byte, error) {
	var png []byte
	err := e.interact("screenshot", func(l interfaces.Locator) error {
		var err error
		png, err = l.Screenshot(e.timeout)
		return err
	})
	return png, err
}

func (e *Element) IsVisible() bool {
	return e.query("is visible", func(l interfaces.Locator) (bool, error) { return l.IsVisible() })
}

func (e *Element) IsHidden() bool {
	return e.query("is hidden", func(l interfaces.Locator) (bool, error) { return l.IsHidden() })
}

func (e *Element) IsEnabled() bool {
	return e.query("is enabled", func(l interfaces.Locator) (bool, error) { return l.IsEnabled() })
}

func (e *Element) IsChecked() bool {
	return e.query("is checked", func(l interfaces.Locator) (bool, error) { return l.IsChecked() })
}

func (e *Element) IsEditable() bool {
	return e.query("is editable", func(l interfaces.Locator) (bool, error) { return l.IsEditable() })
}

// Count returns how many elements match, 0 on failure
func (e *Element) Count() int {
	loc, err := e.locate()
	if err != nil {
		e.log.WithError(err).Debug("count: no document")
		return 0
	}
	n, err := loc.Count()
	if err != nil {
		e.log.WithError(err).Debug("count treated as 0")
		return 0
	}
	return n
}

// Text returns the text content
func (e *Element) Text() (string, error) {
	return e.content("text", func(l interfaces.Locator) (string, error) { return l.TextContent(e.timeout) })
}

func (e *Element) Attribute(name string) (string, error) {
	return e.content("attribute "+name, func(l interfaces.Locator) (string, error) {
		return l.Attribute(name, e.timeout)
	})
}

// Value returns the current input value
func (e *Element) Value() (string, error) {
	return e.content("value", func(l interfaces.Locator) (string, error) { return l.InputValue(e.timeout) })
}

func (e *Element) InnerHTML() (string, error) {
	return e.content("inner html", func(l interfaces.Locator) (string, error) { return l.InnerHTML(e.timeout) })
}

// WaitForVisible waits up to seconds for the element to become visible.
// A timeout is reported as false.
func (e *Element) WaitForVisible(seconds int) bool {
	return e.waitFor(interfaces.ElementVisible, time.Duration(seconds)*time.Second)
}

// WaitForHidden waits up to seconds for the element to be hidden or detached
func (e *Element) WaitForHidden(seconds int) bool {
	return e.waitFor(interfaces.ElementHidden, time.Duration(seconds)*time.Second)
}

func (e *Element) waitFor(state interfaces.ElementState, timeout time.Duration) bool {
	loc, err := e.locate()
	if err != nil {
		e.log.WithError(err).Debugf("wait for %s: no document", state)
		return false
	}
	if err := loc.WaitFor(state, timeout); err != nil {
		e.log.WithError(err).Infof("element did not become %s within %s", state, timeout)
		return false
	}
	return true
}
