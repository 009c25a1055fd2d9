// Package pom binds declared locators to element handles and manages the
// page objects of one session.
package pom

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"ui_harness/domain/entities"
	"ui_harness/domain/faults"
	"ui_harness/domain/interfaces"
)

const defaultTimeout = 30 * time.Second

// Bindable is implemented by every page object and reusable component that
// owns element handles.
type Bindable interface {
	// DeclareElements registers each element field with the binder. Embedded
	// components declare theirs first.
	DeclareElements(b *Binder)
}

type declaration struct {
	dst  **Element
	name string
	by   entities.FindBy
}

// Binder collects element declarations and writes the handles once every
// declaration has resolved.
type Binder struct {
	decls []declaration
}

// Element declares one element field
func (b *Binder) Element(dst **Element, name string, by entities.FindBy) {
	b.decls = append(b.decls, declaration{dst: dst, name: name, by: by})
}

// Component lets an embedded component declare its elements into the same bind
func (b *Binder) Component(c Bindable) {
	if c != nil {
		c.DeclareElements(b)
	}
}

// handleDefaults is satisfied by the session context
type handleDefaults interface {
	DefaultTimeout() time.Duration
	Logger() *logrus.Entry
}

// Bind resolves every declaration of target against src. Either every field
// is written or, on the first unresolvable declaration, none is.
func Bind(src interfaces.DocumentProvider, target Bindable) error {
	timeout := defaultTimeout
	log := logrus.NewEntry(logrus.StandardLogger())
	if d, ok := src.(handleDefaults); ok {
		timeout = d.DefaultTimeout()
		log = d.Logger()
	}
	return bind(src, target, timeout, log)
}

func bind(src interfaces.DocumentProvider, target Bindable, timeout time.Duration, log *logrus.Entry) error {
	if target == nil {
		return &faults.ConfigurationError{Subject: "page object", Reason: "nothing to bind"}
	}
	b := &Binder{}
	target.DeclareElements(b)

	seen := make(map[string]bool, len(b.decls))
	handles := make([]*Element, len(b.decls))
	for i, d := range b.decls {
		if d.dst == nil {
			return &faults.ConfigurationError{Subject: d.name, Reason: "nil destination"}
		}
		if seen[d.name] {
			return &faults.ConfigurationError{Subject: d.name, Reason: "element declared twice"}
		}
		seen[d.name] = true

		selector, strategy, ok := d.by.Selector()
		if !ok {
			return &faults.ConfigurationError{
				Subject: d.name,
				Reason:  fmt.Sprintf("no locator strategy set on %T", target),
			}
		}
		handles[i] = &Element{
			src:      src,
			selector: selector,
			name:     d.name,
			timeout:  timeout,
			log:      log.WithFields(logrus.Fields{"element": d.name, "strategy": strategy}),
		}
	}

	for i, d := range b.decls {
		*d.dst = handles[i]
	}
	log.WithField("elements", len(handles)).Debugf("bound %T", target)
	return nil
}
