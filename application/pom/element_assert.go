package pom

import (
	"regexp"
	"strings"

	"ui_harness/domain/faults"
	"ui_harness/domain/interfaces"
)

func (e *Element) fail(check string, expected, actual interface{}, err error) error {
	return &faults.AssertionError{Check: check, Selector: e.selector, Expected: expected, Actual: actual, Err: err}
}

// readFor reads a value for an assertion. A dead session is returned as is;
// any other read failure becomes the assertion's failure.
func (e *Element) readFor(check string, expected interface{}, read func() (string, error)) (string, error) {
	s, err := read()
	if err == nil {
		return s, nil
	}
	if faults.IsFatal(err) {
		return "", err
	}
	return "", e.fail(check, expected, nil, err)
}

func (e *Element) checkState(check string, want bool, read func(interfaces.Locator) (bool, error)) error {
	loc, err := e.locate()
	if err != nil {
		return err
	}
	got, err := read(loc)
	if err != nil {
		return e.fail(check, want, nil, err)
	}
	if got != want {
		return e.fail(check, want, got, nil)
	}
	return nil
}

func (e *Element) checkWait(check string, state interfaces.ElementState) error {
	loc, err := e.locate()
	if err != nil {
		return err
	}
	if err := loc.WaitFor(state, e.timeout); err != nil {
		return e.fail(check, string(state), "not "+string(state), err)
	}
	return nil
}

// AssertVisible waits up to the handle timeout for the element to be visible
func (e *Element) AssertVisible() error {
	return e.checkWait("AssertVisible", interfaces.ElementVisible)
}

// AssertHidden waits up to the handle timeout for the element to be hidden
func (e *Element) AssertHidden() error {
	return e.checkWait("AssertHidden", interfaces.ElementHidden)
}

func (e *Element) AssertEnabled() error {
	return e.checkState("AssertEnabled", true, interfaces.Locator.IsEnabled)
}

func (e *Element) AssertDisabled() error {
	return e.checkState("AssertDisabled", false, interfaces.Locator.IsEnabled)
}

func (e *Element) AssertChecked() error {
	return e.checkState("AssertChecked", true, interfaces.Locator.IsChecked)
}

func (e *Element) AssertUnchecked() error {
	return e.checkState("AssertUnchecked", false, interfaces.Locator.IsChecked)
}

func (e *Element) AssertEditable() error {
	return e.checkState("AssertEditable", true, interfaces.Locator.IsEditable)
}

func (e *Element) AssertNotEditable() error {
	return e.checkState("AssertNotEditable", false, interfaces.Locator.IsEditable)
}

func (e *Element) AssertFocused() error {
	return e.checkState("AssertFocused", true, interfaces.Locator.IsFocused)
}

func (e *Element) AssertNotFocused() error {
	return e.checkState("AssertNotFocused", false, interfaces.Locator.IsFocused)
}

// AssertInViewport checks the element box lies inside the visible viewport
func (e *Element) AssertInViewport() error {
	return e.checkState("AssertInViewport", true, interfaces.Locator.InViewport)
}

func (e *Element) count(check string, expected interface{}) (int, error) {
	loc, err := e.locate()
	if err != nil {
		return 0, err
	}
	n, err := loc.Count()
	if err != nil {
		return 0, e.fail(check, expected, nil, err)
	}
	return n, nil
}

// AssertExists checks at least one element matches
func (e *Element) AssertExists() error {
	n, err := e.count("AssertExists", "count > 0")
	if err != nil {
		return err
	}
	if n == 0 {
		return e.fail("AssertExists", "count > 0", n, nil)
	}
	return nil
}

func (e *Element) AssertNotExists() error {
	n, err := e.count("AssertNotExists", 0)
	if err != nil {
		return err
	}
	if n > 0 {
		return e.fail("AssertNotExists", 0, n, nil)
	}
	return nil
}

func (e *Element) AssertCountEquals(expected int) error {
	n, err := e.count("AssertCountEquals", expected)
	if err != nil {
		return err
	}
	if n != expected {
		return e.fail("AssertCountEquals", expected, n, nil)
	}
	return nil
}

func (e *Element) AssertCountGreaterThan(expected int) error {
	n, err := e.count("AssertCountGreaterThan", expected)
	if err != nil {
		return err
	}
	if n <= expected {
		return e.fail("AssertCountGreaterThan", expected, n, nil)
	}
	return nil
}

// AssertTextEquals compares the text content exactly
func (e *Element) AssertTextEquals(expected string) error {
	actual, err := e.readFor("AssertTextEquals", expected, e.Text)
	if err != nil {
		return err
	}
	if actual != expected {
		return e.fail("AssertTextEquals", expected, actual, nil)
	}
	return nil
}

func (e *Element) AssertTextContains(expected string) error {
	actual, err := e.readFor("AssertTextContains", expected, e.Text)
	if err != nil {
		return err
	}
	if !strings.Contains(actual, expected) {
		return e.fail("AssertTextContains", expected, actual, nil)
	}
	return nil
}

// AssertTextMatches requires the whole text content to match pattern
func (e *Element) AssertTextMatches(pattern string) error {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return &faults.ConfigurationError{Subject: e.name, Reason: "invalid text pattern", Err: err}
	}
	actual, err := e.readFor("AssertTextMatches", pattern, e.Text)
	if err != nil {
		return err
	}
	if !re.MatchString(actual) {
		return e.fail("AssertTextMatches", pattern, actual, nil)
	}
	return nil
}

func (e *Element) AssertValueEquals(expected string) error {
	actual, err := e.readFor("AssertValueEquals", expected, e.Value)
	if err != nil {
		return err
	}
	if actual != expected {
		return e.fail("AssertValueEquals", expected, actual, nil)
	}
	return nil
}

func (e *Element) AssertAttributeEquals(name, expected string) error {
	check := "AssertAttributeEquals(" + name + ")"
	actual, err := e.readFor(check, expected, func() (string, error) { return e.Attribute(name) })
	if err != nil {
		return err
	}
	if actual != expected {
		return e.fail(check, expected, actual, nil)
	}
	return nil
}

func (e *Element) AssertAttributeContains(name, expected string) error {
	check := "AssertAttributeContains(" + name + ")"
	actual, err := e.readFor(check, expected, func() (string, error) { return e.Attribute(name) })
	if err != nil {
		return err
	}
	if !strings.Contains(actual, expected) {
		return e.fail(check, expected, actual, nil)
	}
	return nil
}

// AssertHasClass checks class is one of the element's classes
func (e *Element) AssertHasClass(class string) error {
	actual, err := e.readFor("AssertHasClass", class, func() (string, error) { return e.Attribute("class") })
	if err != nil {
		return err
	}
	for _, c := range strings.Fields(actual) {
		if c == class {
			return nil
		}
	}
	return e.fail("AssertHasClass", class, actual, nil)
}

// AssertCSSEquals compares one computed style property
func (e *Element) AssertCSSEquals(property, expected string) error {
	check := "AssertCSSEquals(" + property + ")"
	actual, err := e.readFor(check, expected, func() (string, error) {
		return e.content("css "+property, func(l interfaces.Locator) (string, error) {
			return l.CSSValue(property, e.timeout)
		})
	})
	if err != nil {
		return err
	}
	if actual != expected {
		return e.fail(check, expected, actual, nil)
	}
	return nil
}
