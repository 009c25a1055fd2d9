package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"ui_harness/domain/entities"
	"ui_harness/domain/interfaces"
)

type pwDocument struct {
	page playwright.Page
}

var _ interfaces.Document = (*pwDocument)(nil)

func (d *pwDocument) Navigate(url string, timeout time.Duration) error {
	_, err := d.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(ms(timeout)),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (d *pwDocument) Reload(timeout time.Duration) error {
	_, err := d.page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(ms(timeout)),
	})
	return err
}

func (d *pwDocument) URL() string { return d.page.URL() }

func (d *pwDocument) Title() (string, error) { return d.page.Title() }

// Locate resolves the harness selector dialect: nth suffixes become Nth
// calls and label= goes through GetByLabel. Everything else is native.
func (d *pwDocument) Locate(selector string) interfaces.Locator {
	base, indexes := entities.SplitNth(selector)

	var loc playwright.Locator
	if label, ok := strings.CutPrefix(base, "label="); ok && !strings.Contains(label, " >> ") {
		loc = d.page.GetByLabel(label)
	} else {
		loc = d.page.Locator(base)
	}
	for _, i := range indexes {
		loc = loc.Nth(i)
	}
	return &pwLocator{loc: loc, selector: selector}
}

func (d *pwDocument) Screenshot(fullPage bool) ([]byte, error) {
	return d.page.Screenshot(playwright.PageScreenshotOptions{FullPage: playwright.Bool(fullPage)})
}

func (d *pwDocument) WaitForLoad(state interfaces.LoadState, timeout time.Duration) error {
	ls := playwright.LoadStateLoad
	switch state {
	case interfaces.LoadStateDOMContentLoaded:
		ls = playwright.LoadStateDomcontentloaded
	case interfaces.LoadStateNetworkIdle:
		ls = playwright.LoadStateNetworkidle
	}
	return d.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   ls,
		Timeout: playwright.Float(ms(timeout)),
	})
}

func (d *pwDocument) IsClosed() bool { return d.page.IsClosed() }

type pwLocator struct {
	loc      playwright.Locator
	selector string
}

var _ interfaces.Locator = (*pwLocator)(nil)

func (l *pwLocator) Selector() string { return l.selector }

func (l *pwLocator) Click(opts interfaces.ClickOptions) error {
	button := playwright.MouseButtonLeft
	switch opts.Button {
	case interfaces.MouseRight:
		button = playwright.MouseButtonRight
	case interfaces.MouseMiddle:
		button = playwright.MouseButtonMiddle
	}
	count := opts.ClickCount
	if count < 1 {
		count = 1
	}
	return l.loc.Click(playwright.LocatorClickOptions{
		Button:     button,
		ClickCount: playwright.Int(count),
		Timeout:    playwright.Float(ms(opts.Timeout)),
	})
}

func (l *pwLocator) Fill(value string, timeout time.Duration) error {
	return l.loc.Fill(value, playwright.LocatorFillOptions{Timeout: playwright.Float(ms(timeout))})
}

func (l *pwLocator) Type(text string, delay, timeout time.Duration) error {
	return l.loc.PressSequentially(text, playwright.LocatorPressSequentiallyOptions{
		Delay:   playwright.Float(ms(delay)),
		Timeout: playwright.Float(ms(timeout)),
	})
}

func (l *pwLocator) Clear(timeout time.Duration) error {
	return l.loc.Clear(playwright.LocatorClearOptions{Timeout: playwright.Float(ms(timeout))})
}

func (l *pwLocator) Hover(timeout time.Duration) error {
	return l.loc.Hover(playwright.LocatorHoverOptions{Timeout: playwright.Float(ms(timeout))})
}

func (l *pwLocator) Focus(timeout time.Duration) error {
	return l.loc.Focus(playwright.LocatorFocusOptions{Timeout: playwright.Float(ms(timeout))})
}

func (l *pwLocator) DragTo(target interfaces.Locator, timeout time.Duration) error {
	t, ok := target.(*pwLocator)
	if !ok {
		return fmt.Errorf("drag target %q does not belong to a playwright page", target.Selector())
	}
	return l.loc.DragTo(t.loc, playwright.LocatorDragToOptions{Timeout: playwright.Float(ms(timeout))})
}

func (l *pwLocator) SelectByValue(value string, timeout time.Duration) error {
	_, err := l.loc.SelectOption(playwright.SelectOptionValues{Values: playwright.StringSlice(value)},
		playwright.LocatorSelectOptionOptions{Timeout: playwright.Float(ms(timeout))})
	return err
}

func (l *pwLocator) SelectByLabel(label string, timeout time.Duration) error {
	_, err := l.loc.SelectOption(playwright.SelectOptionValues{Labels: playwright.StringSlice(label)},
		playwright.LocatorSelectOptionOptions{Timeout: playwright.Float(ms(timeout))})
	return err
}

func (l *pwLocator) ScrollIntoView(timeout time.Duration) error {
	return l.loc.ScrollIntoViewIfNeeded(playwright.LocatorScrollIntoViewIfNeededOptions{
		Timeout: playwright.Float(ms(timeout)),
	})
}

func (l *pwLocator) Screenshot(timeout time.Duration) ([]byte, error) {
	return l.loc.Screenshot(playwright.LocatorScreenshotOptions{Timeout: playwright.Float(ms(timeout))})
}

func (l *pwLocator) IsVisible() (bool, error) { return l.loc.IsVisible() }

func (l *pwLocator) IsHidden() (bool, error) { return l.loc.IsHidden() }

func (l *pwLocator) IsEnabled() (bool, error) { return l.loc.IsEnabled() }

func (l *pwLocator) IsChecked() (bool, error) { return l.loc.IsChecked() }

func (l *pwLocator) IsEditable() (bool, error) { return l.loc.IsEditable() }

const (
	focusedScript  = "el => el === document.activeElement"
	viewportScript = `el => {
		const r = el.getBoundingClientRect();
		return r.top >= 0 && r.left >= 0 && r.bottom <= window.innerHeight && r.right <= window.innerWidth;
	}`
	cssScript = "(el, prop) => getComputedStyle(el).getPropertyValue(prop)"
)

func (l *pwLocator) evalBool(script string) (bool, error) {
	v, err := l.loc.Evaluate(script, nil)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("script returned %T, not bool", v)
	}
	return b, nil
}

func (l *pwLocator) IsFocused() (bool, error) { return l.evalBool(focusedScript) }

func (l *pwLocator) InViewport() (bool, error) { return l.evalBool(viewportScript) }

func (l *pwLocator) Count() (int, error) { return l.loc.Count() }

func (l *pwLocator) TextContent(timeout time.Duration) (string, error) {
	return l.loc.TextContent(playwright.LocatorTextContentOptions{Timeout: playwright.Float(ms(timeout))})
}

func (l *pwLocator) Attribute(name string, timeout time.Duration) (string, error) {
	return l.loc.GetAttribute(name, playwright.LocatorGetAttributeOptions{Timeout: playwright.Float(ms(timeout))})
}

func (l *pwLocator) InputValue(timeout time.Duration) (string, error) {
	return l.loc.InputValue(playwright.LocatorInputValueOptions{Timeout: playwright.Float(ms(timeout))})
}

func (l *pwLocator) InnerHTML(timeout time.Duration) (string, error) {
	return l.loc.InnerHTML(playwright.LocatorInnerHTMLOptions{Timeout: playwright.Float(ms(timeout))})
}

func (l *pwLocator) CSSValue(property string, timeout time.Duration) (string, error) {
	v, err := l.loc.Evaluate(cssScript, property, playwright.LocatorEvaluateOptions{Timeout: playwright.Float(ms(timeout))})
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

func (l *pwLocator) WaitFor(state interfaces.ElementState, timeout time.Duration) error {
	ws := playwright.WaitForSelectorStateVisible
	switch state {
	case interfaces.ElementHidden:
		ws = playwright.WaitForSelectorStateHidden
	case interfaces.ElementAttached:
		ws = playwright.WaitForSelectorStateAttached
	case interfaces.ElementDetached:
		ws = playwright.WaitForSelectorStateDetached
	}
	return l.loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   ws,
		Timeout: playwright.Float(ms(timeout)),
	})
}
