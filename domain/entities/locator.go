package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// Strategy identifies which FindBy slot produced a selector
type Strategy string

const (
	StrategyNone        Strategy = ""
	StrategyCSS         Strategy = "css"
	StrategyXPath       Strategy = "xpath"
	StrategyID          Strategy = "id"
	StrategyText        Strategy = "text"
	StrategyRole        Strategy = "role"
	StrategyTestID      Strategy = "testId"
	StrategyPlaceholder Strategy = "placeholder"
	StrategyLabel       Strategy = "label"
)

// StrategyOrder is the fixed priority in which FindBy slots are consulted.
var StrategyOrder = []Strategy{
	StrategyCSS,
	StrategyXPath,
	StrategyID,
	StrategyText,
	StrategyRole,
	StrategyTestID,
	StrategyPlaceholder,
	StrategyLabel,
}

// FindBy declares how to locate one on-screen element. The slots are
// alternatives: only the highest-priority non-empty slot is used.
type FindBy struct {
	CSS         string `json:"css,omitempty"`
	XPath       string `json:"xpath,omitempty"`
	ID          string `json:"id,omitempty"`
	Text        string `json:"text,omitempty"`
	Role        string `json:"role,omitempty"`
	TestID      string `json:"testId,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Label       string `json:"label,omitempty"`
}

// Value returns the raw slot value for a strategy
func (f FindBy) Value(s Strategy) string {
	switch s {
	case StrategyCSS:
		return f.CSS
	case StrategyXPath:
		return f.XPath
	case StrategyID:
		return f.ID
	case StrategyText:
		return f.Text
	case StrategyRole:
		return f.Role
	case StrategyTestID:
		return f.TestID
	case StrategyPlaceholder:
		return f.Placeholder
	case StrategyLabel:
		return f.Label
	}
	return ""
}

// Selector resolves the effective selector. ok is false when every slot is empty.
func (f FindBy) Selector() (selector string, strategy Strategy, ok bool) {
	for _, s := range StrategyOrder {
		if v := f.Value(s); v != "" {
			return Transform(s, v), s, true
		}
	}
	return "", StrategyNone, false
}

// IsZero reports whether no slot is set
func (f FindBy) IsZero() bool {
	_, _, ok := f.Selector()
	return !ok
}

func (f FindBy) String() string {
	sel, s, ok := f.Selector()
	if !ok {
		return "FindBy{}"
	}
	return fmt.Sprintf("FindBy{%s: %q}", s, sel)
}

// Transform applies the per-strategy selector rule to a raw value.
func Transform(s Strategy, value string) string {
	switch s {
	case StrategyID:
		return "#" + value
	case StrategyText:
		return "text=" + value
	case StrategyRole:
		return "role=" + value
	case StrategyTestID:
		return "[data-testid='" + value + "']"
	case StrategyPlaceholder:
		return "[placeholder='" + value + "']"
	case StrategyLabel:
		return "label=" + value
	default:
		return value
	}
}

const nthSeparator = " >> nth="

// WithNth derives a selector addressing the index-th match of selector.
// Negative indexes count from the end (-1 is the last match).
func WithNth(selector string, index int) string {
	return fmt.Sprintf("%s%s%d", selector, nthSeparator, index)
}

// SplitNth undoes WithNth, returning the base selector and the chain of
// indexes in application order.
func SplitNth(selector string) (string, []int) {
	var indexes []int
	for {
		i := strings.LastIndex(selector, nthSeparator)
		if i < 0 {
			break
		}
		n, err := strconv.Atoi(selector[i+len(nthSeparator):])
		if err != nil {
			break
		}
		indexes = append([]int{n}, indexes...)
		selector = selector[:i]
	}
	return selector, indexes
}

// PickNth applies one nth index to a match count, returning the position or
// false when it is out of range.
func PickNth(count, index int) (int, bool) {
	if index < 0 {
		index = count + index
	}
	if index < 0 || index >= count {
		return 0, false
	}
	return index, true
}
