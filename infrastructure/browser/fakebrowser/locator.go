package fakebrowser

import (
	"errors"
	"fmt"
	"time"

	"ui_harness/domain/interfaces"
)

type locator struct {
	doc      *Document
	selector string
}

var _ interfaces.Locator = (*locator)(nil)

func (l *locator) Selector() string { return l.selector }

// act waits until the single matching element passes check, then applies do
func (l *locator) act(op, arg string, timeout time.Duration, check func(*Element) error, do func(*Element)) error {
	var lastErr error
	err := l.doc.poll(timeout, func() (bool, error) {
		l.doc.mu.Lock()
		defer l.doc.mu.Unlock()
		el, err := l.doc.single(l.selector)
		if errors.Is(err, ErrClosed) {
			return false, err
		}
		if err == nil && check != nil {
			err = check(el)
		}
		if err != nil {
			lastErr = err
			return false, nil
		}
		do(el)
		l.doc.record(op, l.selector, arg)
		return true, nil
	})
	if err != nil && lastErr != nil && !errors.Is(err, ErrClosed) {
		return fmt.Errorf("%w: %v", err, lastErr)
	}
	return err
}

func visibleEnabled(el *Element) error {
	if !el.Visible {
		return errors.New("element is not visible")
	}
	if el.Disabled {
		return errors.New("element is not enabled")
	}
	return nil
}

func editable(el *Element) error {
	if err := visibleEnabled(el); err != nil {
		return err
	}
	if el.ReadOnly {
		return errors.New("element is not editable")
	}
	return nil
}

func (l *locator) Click(opts interfaces.ClickOptions) error {
	op := "click"
	if opts.Button == interfaces.MouseRight {
		op = "right-click"
	} else if opts.ClickCount == 2 {
		op = "double-click"
	}
	err := l.act(op, "", opts.Timeout, visibleEnabled, func(el *Element) {
		n := opts.ClickCount
		if n == 0 {
			n = 1
		}
		el.ClickCount += n
	})
	if err != nil || op != "click" {
		return err
	}
	l.doc.mu.Lock()
	effect := l.doc.clicks[l.selector]
	l.doc.mu.Unlock()
	if effect != nil {
		effect(l.doc)
	}
	return nil
}

func (l *locator) Fill(value string, timeout time.Duration) error {
	return l.act("fill", value, timeout, editable, func(el *Element) { el.Value = value })
}

func (l *locator) Type(text string, delay, timeout time.Duration) error {
	return l.act("type", text, timeout, editable, func(el *Element) { el.Value += text })
}

func (l *locator) Clear(timeout time.Duration) error {
	return l.act("clear", "", timeout, editable, func(el *Element) { el.Value = "" })
}

func (l *locator) Hover(timeout time.Duration) error {
	return l.act("hover", "", timeout, func(el *Element) error {
		if !el.Visible {
			return errors.New("element is not visible")
		}
		return nil
	}, func(*Element) {})
}

func (l *locator) Focus(timeout time.Duration) error {
	return l.act("focus", "", timeout, nil, func(el *Element) {
		for _, els := range l.doc.elements {
			for _, other := range els {
				other.Focused = false
			}
		}
		el.Focused = true
	})
}

func (l *locator) DragTo(target interfaces.Locator, timeout time.Duration) error {
	if _, err := target.Count(); err != nil {
		return err
	}
	return l.act("drag", target.Selector(), timeout, visibleEnabled, func(*Element) {})
}

func (l *locator) selectOption(op, want string, timeout time.Duration, match func(Option) bool) error {
	return l.act(op, want, timeout, func(el *Element) error {
		if err := visibleEnabled(el); err != nil {
			return err
		}
		for _, o := range el.Options {
			if match(o) {
				return nil
			}
		}
		return fmt.Errorf("no option %q", want)
	}, func(el *Element) {
		for _, o := range el.Options {
			if match(o) {
				el.Value = o.Value
				return
			}
		}
	})
}

func (l *locator) SelectByValue(value string, timeout time.Duration) error {
	return l.selectOption("select", value, timeout, func(o Option) bool { return o.Value == value })
}

func (l *locator) SelectByLabel(label string, timeout time.Duration) error {
	return l.selectOption("select", label, timeout, func(o Option) bool { return o.Label == label })
}

func (l *locator) ScrollIntoView(timeout time.Duration) error {
	return l.act("scroll", "", timeout, nil, func(el *Element) { el.OffScreen = false })
}

func (l *locator) Screenshot(timeout time.Duration) ([]byte, error) {
	var out []byte
	err := l.act("screenshot", "", timeout, nil, func(el *Element) {
		out = []byte("PNG:" + l.selector)
	})
	return out, err
}

// query reads one property of the single matching element without waiting
func (l *locator) query(read func(*Element) bool) (bool, error) {
	l.doc.mu.Lock()
	defer l.doc.mu.Unlock()
	el, err := l.doc.single(l.selector)
	if err != nil {
		return false, err
	}
	return read(el), nil
}

func (l *locator) IsVisible() (bool, error) {
	l.doc.mu.Lock()
	defer l.doc.mu.Unlock()
	matches, err := l.doc.resolve(l.selector)
	if err != nil || len(matches) == 0 {
		return false, err
	}
	if len(matches) > 1 {
		return false, fmt.Errorf("strict mode violation: %q resolved to %d elements", l.selector, len(matches))
	}
	return matches[0].Visible, nil
}

func (l *locator) IsHidden() (bool, error) {
	v, err := l.IsVisible()
	if err != nil {
		return false, err
	}
	return !v, nil
}

func (l *locator) IsEnabled() (bool, error) {
	return l.query(func(el *Element) bool { return !el.Disabled })
}

func (l *locator) IsChecked() (bool, error) {
	return l.query(func(el *Element) bool { return el.Checked })
}

func (l *locator) IsEditable() (bool, error) {
	return l.query(func(el *Element) bool { return !el.Disabled && !el.ReadOnly })
}

func (l *locator) IsFocused() (bool, error) {
	return l.query(func(el *Element) bool { return el.Focused })
}

func (l *locator) InViewport() (bool, error) {
	return l.query(func(el *Element) bool { return el.Visible && !el.OffScreen })
}

func (l *locator) Count() (int, error) {
	l.doc.mu.Lock()
	defer l.doc.mu.Unlock()
	matches, err := l.doc.resolve(l.selector)
	return len(matches), err
}

// read waits for the element to be attached, then reads a string property
func (l *locator) read(timeout time.Duration, get func(*Element) string) (string, error) {
	var out string
	err := l.act("read", "", timeout, nil, func(el *Element) { out = get(el) })
	return out, err
}

func (l *locator) TextContent(timeout time.Duration) (string, error) {
	return l.read(timeout, func(el *Element) string { return el.Text })
}

func (l *locator) Attribute(name string, timeout time.Duration) (string, error) {
	return l.read(timeout, func(el *Element) string { return el.Attrs[name] })
}

func (l *locator) InputValue(timeout time.Duration) (string, error) {
	return l.read(timeout, func(el *Element) string { return el.Value })
}

func (l *locator) InnerHTML(timeout time.Duration) (string, error) {
	return l.read(timeout, func(el *Element) string { return el.HTML })
}

func (l *locator) CSSValue(property string, timeout time.Duration) (string, error) {
	return l.read(timeout, func(el *Element) string { return el.CSS[property] })
}

func (l *locator) WaitFor(state interfaces.ElementState, timeout time.Duration) error {
	return l.doc.poll(timeout, func() (bool, error) {
		l.doc.mu.Lock()
		defer l.doc.mu.Unlock()
		matches, err := l.doc.resolve(l.selector)
		if err != nil {
			return false, err
		}
		visible := len(matches) > 0 && matches[0].Visible
		switch state {
		case interfaces.ElementVisible:
			return visible, nil
		case interfaces.ElementHidden:
			return !visible, nil
		case interfaces.ElementAttached:
			return len(matches) > 0, nil
		case interfaces.ElementDetached:
			return len(matches) == 0, nil
		}
		return false, fmt.Errorf("unknown state %q", state)
	})
}
