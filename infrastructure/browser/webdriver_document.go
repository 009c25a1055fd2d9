package browser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tebeka/selenium"

	"ui_harness/domain/entities"
	"ui_harness/domain/interfaces"
)

const pollInterval = 100 * time.Millisecond

// Appium and WinAppDriver locator strategies that tebeka/selenium has no constant for
const (
	byAccessibilityID = "accessibility id"
	byNativeID        = "id"
)

// queryStep is one hop of a translated selector: either a find or an nth pick
type queryStep struct {
	by    string
	value string
	nth   *int
}

// translateSelector turns the harness selector dialect into WebDriver
// strategies. Chains split on " >> "; later hops search inside earlier matches.
func translateSelector(selector string, platform entities.Platform) []queryStep {
	var steps []queryStep
	for i, part := range strings.Split(selector, " >> ") {
		part = strings.TrimSpace(part)
		if v, ok := strings.CutPrefix(part, "nth="); ok {
			if n, err := strconv.Atoi(v); err == nil {
				steps = append(steps, queryStep{nth: &n})
				continue
			}
		}
		by, value := translatePart(part, platform)
		if i > 0 && by == selenium.ByXPATH && strings.HasPrefix(value, "/") {
			value = "." + value
		}
		steps = append(steps, queryStep{by: by, value: value})
	}
	return steps
}

func translatePart(part string, platform entities.Platform) (string, string) {
	native := platform != entities.PlatformWeb

	switch {
	case strings.HasPrefix(part, "xpath="):
		return selenium.ByXPATH, strings.TrimPrefix(part, "xpath=")
	case strings.HasPrefix(part, "css="):
		return selenium.ByCSSSelector, strings.TrimPrefix(part, "css=")
	case strings.HasPrefix(part, "/"), strings.HasPrefix(part, "("):
		return selenium.ByXPATH, part
	case strings.HasPrefix(part, "~"):
		return byAccessibilityID, strings.TrimPrefix(part, "~")
	case strings.HasPrefix(part, "name="):
		return selenium.ByName, strings.TrimPrefix(part, "name=")
	case strings.HasPrefix(part, "text="):
		return selenium.ByXPATH, textXPath(strings.TrimPrefix(part, "text="), native)
	case strings.HasPrefix(part, "label="):
		return selenium.ByXPATH, labelXPath(strings.TrimPrefix(part, "label="))
	case strings.HasPrefix(part, "role="):
		return selenium.ByCSSSelector, roleCSS(strings.TrimPrefix(part, "role="))
	}

	if native && isSimpleID(part) {
		if platform == entities.PlatformDesktop {
			return byAccessibilityID, part[1:]
		}
		return byNativeID, part[1:]
	}
	return selenium.ByCSSSelector, part
}

func isSimpleID(s string) bool {
	return len(s) > 1 && s[0] == '#' && !strings.ContainsAny(s[1:], " .#[:>+~,")
}

// textXPath follows the text= engine: a quoted value matches exactly, a bare one by substring
func textXPath(value string, native bool) string {
	exact := len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0]
	if exact {
		value = value[1 : len(value)-1]
	}
	lit := xpathLiteral(value)
	if native {
		if exact {
			return fmt.Sprintf("//*[@text=%[1]s or @name=%[1]s or @label=%[1]s or @content-desc=%[1]s]", lit)
		}
		return fmt.Sprintf("//*[contains(@text,%[1]s) or contains(@name,%[1]s) or contains(@label,%[1]s) or contains(@content-desc,%[1]s)]", lit)
	}
	if exact {
		return fmt.Sprintf("//*[text()[normalize-space(.)=%s]]", lit)
	}
	return fmt.Sprintf("//*[text()[contains(normalize-space(.),%s)]]", lit)
}

func labelXPath(value string) string {
	lit := xpathLiteral(value)
	return fmt.Sprintf("//*[@id=//label[normalize-space(.)=%[1]s]/@for or (self::input or self::select or self::textarea) and ancestor::label[normalize-space(.)=%[1]s] or @aria-label=%[1]s]", lit)
}

var implicitRoles = map[string][]string{
	"button":   {"button", "input[type='button']", "input[type='submit']", "input[type='reset']"},
	"link":     {"a[href]"},
	"textbox":  {"input:not([type])", "input[type='text']", "input[type='email']", "input[type='password']", "textarea"},
	"checkbox": {"input[type='checkbox']"},
	"radio":    {"input[type='radio']"},
	"combobox": {"select"},
	"heading":  {"h1", "h2", "h3", "h4", "h5", "h6"},
	"list":     {"ul", "ol"},
	"listitem": {"li"},
	"img":      {"img[alt]"},
}

// roleCSS covers explicit roles plus the common implicit ones. Name filters are not supported.
func roleCSS(value string) string {
	role, _, _ := strings.Cut(value, "[")
	role = strings.TrimSpace(role)
	sels := append([]string{fmt.Sprintf("[role='%s']", role)}, implicitRoles[role]...)
	return strings.Join(sels, ", ")
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = "'" + p + "'"
	}
	return "concat(" + strings.Join(quoted, `, "'", `) + ")"
}

// finder is the part of selenium.WebDriver and selenium.WebElement used to search
type finder interface {
	FindElements(by, value string) ([]selenium.WebElement, error)
}

func resolveSteps(root finder, steps []queryStep) ([]selenium.WebElement, error) {
	var set []selenium.WebElement
	for i, step := range steps {
		if step.nth != nil {
			idx, ok := entities.PickNth(len(set), *step.nth)
			if !ok {
				return nil, nil
			}
			set = []selenium.WebElement{set[idx]}
			continue
		}
		if i == 0 {
			found, err := root.FindElements(step.by, step.value)
			if err != nil {
				return nil, err
			}
			set = found
			continue
		}
		var next []selenium.WebElement
		for _, el := range set {
			found, err := el.FindElements(step.by, step.value)
			if err != nil {
				return nil, err
			}
			next = append(next, found...)
		}
		set = next
	}
	return set, nil
}

type wdDocument struct {
	wd       selenium.WebDriver
	platform entities.Platform
	closed   *atomic.Bool
}

var _ interfaces.Document = (*wdDocument)(nil)

func (d *wdDocument) Navigate(url string, timeout time.Duration) error {
	if err := d.wd.Get(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return d.WaitForLoad(interfaces.LoadStateLoad, timeout)
}

func (d *wdDocument) Reload(timeout time.Duration) error {
	if err := d.wd.Refresh(); err != nil {
		return err
	}
	return d.WaitForLoad(interfaces.LoadStateLoad, timeout)
}

func (d *wdDocument) URL() string {
	u, _ := d.wd.CurrentURL()
	return u
}

func (d *wdDocument) Title() (string, error) { return d.wd.Title() }

func (d *wdDocument) Locate(selector string) interfaces.Locator {
	return &wdLocator{wd: d.wd, selector: selector, steps: translateSelector(selector, d.platform)}
}

func (d *wdDocument) Screenshot(bool) ([]byte, error) { return d.wd.Screenshot() }

// WaitForLoad polls document.readyState. Native apps have no document and are always loaded.
func (d *wdDocument) WaitForLoad(state interfaces.LoadState, timeout time.Duration) error {
	if d.platform != entities.PlatformWeb {
		return nil
	}
	want := "complete"
	if state == interfaces.LoadStateDOMContentLoaded {
		want = "interactive"
	}
	return waitUntil(d.wd, timeout, func(wd selenium.WebDriver) (bool, error) {
		v, err := wd.ExecuteScript("return document.readyState", nil)
		if err != nil {
			return false, nil
		}
		s, _ := v.(string)
		return s == "complete" || s == want, nil
	})
}

func (d *wdDocument) IsClosed() bool { return d.closed != nil && d.closed.Load() }

func waitUntil(wd selenium.WebDriver, timeout time.Duration, cond selenium.Condition) error {
	if timeout < pollInterval {
		timeout = pollInterval
	}
	return wd.WaitWithTimeoutAndInterval(cond, timeout, pollInterval)
}

type wdLocator struct {
	wd       selenium.WebDriver
	selector string
	steps    []queryStep
}

var _ interfaces.Locator = (*wdLocator)(nil)

var errNoMatch = errors.New("no element matches")

func (l *wdLocator) Selector() string { return l.selector }

func (l *wdLocator) all() ([]selenium.WebElement, error) {
	return resolveSteps(l.wd, l.steps)
}

func (l *wdLocator) first() (selenium.WebElement, error) {
	els, err := l.all()
	if err != nil {
		return nil, err
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("%w %s", errNoMatch, l.selector)
	}
	return els[0], nil
}

// actionable waits until the first match is displayed and enabled
func (l *wdLocator) actionable(timeout time.Duration) (selenium.WebElement, error) {
	var el selenium.WebElement
	err := waitUntil(l.wd, timeout, func(selenium.WebDriver) (bool, error) {
		e, err := l.first()
		if err != nil {
			return false, nil
		}
		shown, _ := e.IsDisplayed()
		enabled, _ := e.IsEnabled()
		if shown && enabled {
			el = e
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("waiting for %s to be actionable: %w", l.selector, err)
	}
	return el, nil
}

// attached waits until at least one element matches
func (l *wdLocator) attached(timeout time.Duration) (selenium.WebElement, error) {
	var el selenium.WebElement
	err := waitUntil(l.wd, timeout, func(selenium.WebDriver) (bool, error) {
		e, err := l.first()
		if err != nil {
			return false, nil
		}
		el = e
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", l.selector, err)
	}
	return el, nil
}

func (l *wdLocator) script(el selenium.WebElement, js string, args ...interface{}) (interface{}, error) {
	return l.wd.ExecuteScript(js, append([]interface{}{el}, args...))
}

const dispatchMouseScript = `arguments[0].dispatchEvent(new MouseEvent(arguments[1], {bubbles: true, cancelable: true, view: window, button: arguments[2], detail: arguments[3]}));`

func (l *wdLocator) Click(opts interfaces.ClickOptions) error {
	el, err := l.actionable(opts.Timeout)
	if err != nil {
		return err
	}
	switch {
	case opts.Button == interfaces.MouseRight:
		_, err = l.script(el, dispatchMouseScript, "contextmenu", 2, 1)
		return err
	case opts.ClickCount >= 2:
		if err := el.Click(); err != nil {
			return err
		}
		_, err = l.script(el, dispatchMouseScript, "dblclick", 0, 2)
		return err
	case opts.Button == interfaces.MouseMiddle:
		_, err = l.script(el, dispatchMouseScript, "auxclick", 1, 1)
		return err
	}
	return el.Click()
}

func (l *wdLocator) Fill(value string, timeout time.Duration) error {
	el, err := l.actionable(timeout)
	if err != nil {
		return err
	}
	if err := el.Clear(); err != nil {
		return err
	}
	return el.SendKeys(value)
}

func (l *wdLocator) Type(text string, delay, timeout time.Duration) error {
	el, err := l.actionable(timeout)
	if err != nil {
		return err
	}
	for _, r := range text {
		if err := el.SendKeys(string(r)); err != nil {
			return err
		}
		time.Sleep(delay)
	}
	return nil
}

func (l *wdLocator) Clear(timeout time.Duration) error {
	el, err := l.actionable(timeout)
	if err != nil {
		return err
	}
	return el.Clear()
}

func (l *wdLocator) Hover(timeout time.Duration) error {
	el, err := l.actionable(timeout)
	if err != nil {
		return err
	}
	_, err = l.script(el, `for (const t of ["mouseover", "mouseenter", "mousemove"]) {
		arguments[0].dispatchEvent(new MouseEvent(t, {bubbles: true, view: window}));
	}`)
	return err
}

func (l *wdLocator) Focus(timeout time.Duration) error {
	el, err := l.attached(timeout)
	if err != nil {
		return err
	}
	_, err = l.script(el, "arguments[0].focus();")
	return err
}

const dragScript = `const src = arguments[0], dst = arguments[1];
const dt = new DataTransfer();
const fire = (el, type) => el.dispatchEvent(new DragEvent(type, {bubbles: true, cancelable: true, dataTransfer: dt}));
fire(src, "dragstart"); fire(dst, "dragenter"); fire(dst, "dragover"); fire(dst, "drop"); fire(src, "dragend");`

func (l *wdLocator) DragTo(target interfaces.Locator, timeout time.Duration) error {
	t, ok := target.(*wdLocator)
	if !ok {
		return fmt.Errorf("drag target %q does not belong to a webdriver session", target.Selector())
	}
	src, err := l.actionable(timeout)
	if err != nil {
		return err
	}
	dst, err := t.attached(timeout)
	if err != nil {
		return err
	}
	_, err = l.script(src, dragScript, dst)
	return err
}

func (l *wdLocator) selectOption(by, value string, timeout time.Duration) error {
	el, err := l.actionable(timeout)
	if err != nil {
		return err
	}
	option, err := el.FindElement(by, value)
	if err != nil {
		return fmt.Errorf("no option %s in %s: %w", value, l.selector, err)
	}
	return option.Click()
}

func (l *wdLocator) SelectByValue(value string, timeout time.Duration) error {
	return l.selectOption(selenium.ByXPATH, ".//option[@value="+xpathLiteral(value)+"]", timeout)
}

func (l *wdLocator) SelectByLabel(label string, timeout time.Duration) error {
	return l.selectOption(selenium.ByXPATH, ".//option[normalize-space(.)="+xpathLiteral(label)+"]", timeout)
}

func (l *wdLocator) ScrollIntoView(timeout time.Duration) error {
	el, err := l.attached(timeout)
	if err != nil {
		return err
	}
	_, err = l.script(el, "arguments[0].scrollIntoView({block: 'center', inline: 'center'});")
	return err
}

func (l *wdLocator) Screenshot(timeout time.Duration) ([]byte, error) {
	el, err := l.attached(timeout)
	if err != nil {
		return nil, err
	}
	return el.Screenshot(true)
}

func (l *wdLocator) IsVisible() (bool, error) {
	els, err := l.all()
	if err != nil || len(els) == 0 {
		return false, err
	}
	return els[0].IsDisplayed()
}

func (l *wdLocator) IsHidden() (bool, error) {
	visible, err := l.IsVisible()
	return !visible, err
}

func (l *wdLocator) IsEnabled() (bool, error) {
	el, err := l.first()
	if err != nil {
		return false, err
	}
	return el.IsEnabled()
}

func (l *wdLocator) IsChecked() (bool, error) {
	el, err := l.first()
	if err != nil {
		return false, err
	}
	return el.IsSelected()
}

func (l *wdLocator) IsEditable() (bool, error) {
	el, err := l.first()
	if err != nil {
		return false, err
	}
	enabled, err := el.IsEnabled()
	if err != nil || !enabled {
		return false, err
	}
	readonly, err := el.GetAttribute("readonly")
	if err != nil {
		// absent attribute
		return true, nil
	}
	return readonly == "" || readonly == "false", nil
}

func (l *wdLocator) evalBool(js string) (bool, error) {
	el, err := l.first()
	if err != nil {
		return false, err
	}
	v, err := l.script(el, js)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("script returned %T, not bool", v)
	}
	return b, nil
}

func (l *wdLocator) IsFocused() (bool, error) {
	return l.evalBool("return arguments[0] === document.activeElement;")
}

func (l *wdLocator) InViewport() (bool, error) {
	return l.evalBool(`const r = arguments[0].getBoundingClientRect();
return r.top >= 0 && r.left >= 0 && r.bottom <= window.innerHeight && r.right <= window.innerWidth;`)
}

func (l *wdLocator) Count() (int, error) {
	els, err := l.all()
	return len(els), err
}

func (l *wdLocator) TextContent(timeout time.Duration) (string, error) {
	el, err := l.attached(timeout)
	if err != nil {
		return "", err
	}
	return el.Text()
}

func (l *wdLocator) Attribute(name string, timeout time.Duration) (string, error) {
	el, err := l.attached(timeout)
	if err != nil {
		return "", err
	}
	return el.GetAttribute(name)
}

func (l *wdLocator) InputValue(timeout time.Duration) (string, error) {
	return l.Attribute("value", timeout)
}

func (l *wdLocator) InnerHTML(timeout time.Duration) (string, error) {
	el, err := l.attached(timeout)
	if err != nil {
		return "", err
	}
	v, err := l.script(el, "return arguments[0].innerHTML;")
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

func (l *wdLocator) CSSValue(property string, timeout time.Duration) (string, error) {
	el, err := l.attached(timeout)
	if err != nil {
		return "", err
	}
	return el.CSSProperty(property)
}

func (l *wdLocator) WaitFor(state interfaces.ElementState, timeout time.Duration) error {
	err := waitUntil(l.wd, timeout, func(selenium.WebDriver) (bool, error) {
		els, err := l.all()
		if err != nil {
			return false, nil
		}
		switch state {
		case interfaces.ElementAttached:
			return len(els) > 0, nil
		case interfaces.ElementDetached:
			return len(els) == 0, nil
		}
		visible := false
		if len(els) > 0 {
			visible, _ = els[0].IsDisplayed()
		}
		if state == interfaces.ElementHidden {
			return !visible, nil
		}
		return visible, nil
	})
	if err != nil {
		return fmt.Errorf("waiting for %s to be %s: %w", l.selector, state, err)
	}
	return nil
}
