package pom

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"ui_harness/application/session"
	"ui_harness/domain/entities"
	"ui_harness/domain/faults"
	"ui_harness/domain/interfaces"
)

// PageObject is implemented by every screen of the application under test
type PageObject interface {
	// NavigateToPage opens the page from a cold start
	NavigateToPage() error

	// IsPageLoaded reports whether the page is showing. It must not change
	// page state and must map every failure to false.
	IsPageLoaded() bool
}

// Base carries what every page object shares: where its document comes from,
// the per-call timeout, a logger and the reporting collaborator.
type Base struct {
	src      interfaces.DocumentProvider
	timeout  time.Duration
	log      *logrus.Entry
	reporter interfaces.Reporter
	cfg      interfaces.Config
}

// BaseOption configures a Base built from a raw document
type BaseOption func(*Base)

// WithTimeout sets the per-call timeout of bound handles
func WithTimeout(d time.Duration) BaseOption {
	return func(b *Base) { b.timeout = d }
}

// WithLogger sets the logger
func WithLogger(log *logrus.Entry) BaseOption {
	return func(b *Base) { b.log = log }
}

// WithReporter sets the reporting collaborator
func WithReporter(r interfaces.Reporter) BaseOption {
	return func(b *Base) { b.reporter = r }
}

// WithConfig sets the configuration store pages read URLs from
func WithConfig(cfg interfaces.Config) BaseOption {
	return func(b *Base) { b.cfg = cfg }
}

// NewBase - creates a base bound to a session context
func NewBase(sc *session.Context) Base {
	return Base{
		src:      sc,
		timeout:  sc.DefaultTimeout(),
		log:      sc.Logger(),
		reporter: sc.Reporter(),
		cfg:      sc.Config(),
	}
}

// NewBaseFromDocument - creates a base over a raw backend document
func NewBaseFromDocument(doc interfaces.Document, opts ...BaseOption) Base {
	b := Base{
		src:      documentSource{doc: doc},
		timeout:  defaultTimeout,
		log:      logrus.NewEntry(logrus.StandardLogger()),
		reporter: discardReporter{},
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

type documentSource struct {
	doc interfaces.Document
}

func (s documentSource) Document() (interfaces.Document, error) {
	if s.doc == nil {
		return nil, &faults.SessionError{Op: "resolve document", Err: faults.ErrNoBackend}
	}
	if s.doc.IsClosed() {
		return nil, &faults.SessionError{Op: "resolve document", Err: faults.ErrSessionClosed}
	}
	return s.doc, nil
}

type discardReporter struct{}

func (discardReporter) RecordResult(string, string, entities.Severity) {}

// Bind binds the element handles of page against this base's document
func (b *Base) Bind(page Bindable) error {
	return bind(b.src, page, b.timeout, b.log)
}

// Rebind moves page onto another session and overwrites every handle
func (b *Base) Rebind(sc *session.Context, page Bindable) error {
	next := NewBase(sc)
	if err := bind(next.src, page, next.timeout, next.log); err != nil {
		return err
	}
	*b = next
	return nil
}

// Document returns the live document
func (b *Base) Document() (interfaces.Document, error) { return b.src.Document() }

// Logger returns the page logger
func (b *Base) Logger() *logrus.Entry { return b.log }

// Setting reads a configuration string, returning def without a config store
func (b *Base) Setting(key, def string) string {
	if b.cfg == nil {
		return def
	}
	return b.cfg.String(key, def)
}

// NavigateTo - loads url and waits for the load event
func (b *Base) NavigateTo(url string) error {
	doc, err := b.src.Document()
	if err != nil {
		return err
	}
	if err := doc.Navigate(url, b.timeout); err != nil {
		return &faults.InteractionError{Op: "navigate", Selector: url, Err: err}
	}
	b.log.WithField("url", url).Info("navigated")
	return nil
}

// Reload - reloads the current document, rebuilding whatever it renders
func (b *Base) Reload() error {
	doc, err := b.src.Document()
	if err != nil {
		return err
	}
	if err := doc.Reload(b.timeout); err != nil {
		return &faults.InteractionError{Op: "reload", Selector: doc.URL(), Err: err}
	}
	b.log.WithField("url", doc.URL()).Info("reloaded")
	return nil
}

// Title returns the document title, or "" when it cannot be read
func (b *Base) Title() string {
	doc, err := b.src.Document()
	if err != nil {
		return ""
	}
	title, err := doc.Title()
	if err != nil {
		b.log.WithError(err).Debug("could not read title")
		return ""
	}
	return title
}

// CurrentURL returns the document URL, or "" without a live session
func (b *Base) CurrentURL() string {
	doc, err := b.src.Document()
	if err != nil {
		return ""
	}
	return doc.URL()
}

// WaitForPageLoad waits for the load event, then for the network to go idle
func (b *Base) WaitForPageLoad() error {
	doc, err := b.src.Document()
	if err != nil {
		return err
	}
	if err := doc.WaitForLoad(interfaces.LoadStateLoad, b.timeout); err != nil {
		return fmt.Errorf("failed waiting for load: %w", err)
	}
	if err := doc.WaitForLoad(interfaces.LoadStateNetworkIdle, b.timeout); err != nil {
		b.log.WithError(err).Debug("network did not go idle")
	}
	return nil
}

// Pause sleeps for seconds
func (b *Base) Pause(seconds int) {
	time.Sleep(time.Duration(seconds) * time.Second)
}

// Log records a step result with the reporter
func (b *Base) Log(step, message string, severity entities.Severity) {
	b.reporter.RecordResult(step, message, severity)
}

// Step runs fn and reports it. An interaction or assertion failure is
// reported as FAIL and turned into false; session errors are reported too.
func (b *Base) Step(name string, fn func() error) bool {
	if err := fn(); err != nil {
		b.log.WithError(err).WithField("step", name).Warn("step failed")
		b.Log(name, err.Error(), entities.SeverityFail)
		return false
	}
	return true
}

// SafeLoaded runs an IsPageLoaded body, turning a panic into false
func SafeLoaded(fn func() bool) (loaded bool) {
	defer func() {
		if r := recover(); r != nil {
			loaded = false
		}
	}()
	return fn()
}
