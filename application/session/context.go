package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ui_harness/domain/entities"
	"ui_harness/domain/faults"
	"ui_harness/domain/interfaces"
)

// Context is the single live session of one scenario on one worker. Every
// page object and element handle reaches the backend through it.
type Context struct {
	id       string
	kind     entities.BackendKind
	mode     entities.ExecutionMode
	timeout  time.Duration
	cfg      interfaces.Config
	reporter interfaces.Reporter
	log      *logrus.Entry

	mu       sync.Mutex
	scenario entities.Scenario
	modern   interfaces.Backend
	handles  map[entities.Platform]interfaces.Backend
	closed   bool
	onClose  []func()
}

var _ interfaces.DocumentProvider = (*Context)(nil)

func newContext(scenario entities.Scenario, kind entities.BackendKind, mode entities.ExecutionMode, cfg interfaces.Config, reporter interfaces.Reporter, log *logrus.Logger) *Context {
	id := uuid.NewString()
	return &Context{
		id:       id,
		kind:     kind,
		mode:     mode,
		timeout:  time.Duration(cfg.Int(interfaces.KeyDefaultTimeout, 30)) * time.Second,
		cfg:      cfg,
		reporter: reporter,
		log: log.WithFields(logrus.Fields{
			"session":  id[:8],
			"scenario": scenario.Name,
		}),
		scenario: scenario,
		handles:  make(map[entities.Platform]interfaces.Backend),
	}
}

// ID returns the unique session identifier
func (c *Context) ID() string { return c.id }

// Kind returns the backend family chosen at INIT
func (c *Context) Kind() entities.BackendKind { return c.kind }

// Mode returns the execution mode chosen at INIT
func (c *Context) Mode() entities.ExecutionMode { return c.mode }

// Platform returns the device family derived from the execution mode
func (c *Context) Platform() entities.Platform { return c.mode.Platform() }

// IsMobile reports a mobile (Appium) session
func (c *Context) IsMobile() bool { return c.Platform() == entities.PlatformMobile }

// IsDesktop reports a desktop (WinAppDriver) session
func (c *Context) IsDesktop() bool { return c.Platform() == entities.PlatformDesktop }

// DefaultTimeout is the per-call timeout used when none is given
func (c *Context) DefaultTimeout() time.Duration { return c.timeout }

// Config returns the configuration store
func (c *Context) Config() interfaces.Config { return c.cfg }

// Reporter returns the reporting collaborator
func (c *Context) Reporter() interfaces.Reporter { return c.reporter }

// Logger returns a logger scoped to this session
func (c *Context) Logger() *logrus.Entry { return c.log }

// Scenario returns a copy of the scenario metadata
func (c *Context) Scenario() entities.Scenario {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scenario
}

// MarkFailed flags the scenario as failed
func (c *Context) MarkFailed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scenario.Failed = true
}

// Backend returns the active backend, or nil for API-only sessions
func (c *Context) Backend() interfaces.Backend {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLocked()
}

func (c *Context) activeLocked() interfaces.Backend {
	if c.kind == entities.BackendModern {
		return c.modern
	}
	return c.handles[c.mode.Platform()]
}

// Handle returns the legacy backend registered for platform, if any
func (c *Context) Handle(platform entities.Platform) interfaces.Backend {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handles[platform]
}

// Attach registers an additional legacy handle, e.g. a WebDriver session
// running next to a playwright one.
func (c *Context) Attach(b interfaces.Backend) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handles[b.Platform()] = b
}

func (c *Context) setBackend(b interfaces.Backend) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b.Kind() == entities.BackendModern {
		c.modern = b
		return
	}
	c.handles[b.Platform()] = b
}

// Document resolves the live document of the active backend. It fails with a
// SessionError once the context is closed.
func (c *Context) Document() (interfaces.Document, error) {
	c.mu.Lock()
	closed := c.closed
	b := c.activeLocked()
	c.mu.Unlock()

	if closed {
		return nil, &faults.SessionError{Op: "resolve document", Err: faults.ErrSessionClosed}
	}
	if b == nil {
		return nil, &faults.SessionError{Op: "resolve document", Err: faults.ErrNoBackend}
	}
	doc, err := b.Document()
	if err != nil {
		return nil, &faults.SessionError{Op: "resolve document", Err: err}
	}
	return doc, nil
}

// IsClosed reports whether the context was torn down
func (c *Context) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// OnClose registers fn to run when the context is torn down. Registering on
// a closed context runs fn immediately.
func (c *Context) OnClose(fn func()) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		fn()
		return
	}
	c.onClose = append(c.onClose, fn)
	c.mu.Unlock()
}

// detach marks the context closed, runs the close callbacks and hands back
// the backends in teardown order: the active one first.
func (c *Context) detach() []interfaces.Backend {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	callbacks := c.onClose
	c.onClose = nil

	var order []interfaces.Backend
	if active := c.activeLocked(); active != nil {
		order = append(order, active)
	}
	for _, p := range []entities.Platform{entities.PlatformMobile, entities.PlatformDesktop, entities.PlatformWeb} {
		if h := c.handles[p]; h != nil && (len(order) == 0 || h != order[0]) {
			order = append(order, h)
		}
	}
	c.modern = nil
	c.handles = make(map[entities.Platform]interfaces.Backend)
	c.mu.Unlock()

	for _, fn := range callbacks {
		c.runCallback(fn)
	}
	return order
}

func (c *Context) runCallback(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Debugf("close callback panicked: %v", r)
		}
	}()
	fn()
}

func (c *Context) String() string {
	return fmt.Sprintf("session %s (%s/%s) for %q", c.id, c.kind, c.mode, c.Scenario().Name)
}
