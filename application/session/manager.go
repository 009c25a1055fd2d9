package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"ui_harness/domain/entities"
	"ui_harness/domain/faults"
	"ui_harness/domain/interfaces"
)

// State of the per-scenario lifecycle
type State int

const (
	StateIdle State = iota
	StateInit
	StateReady
	StateTeardown
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInit:
		return "init"
	case StateReady:
		return "ready"
	case StateTeardown:
		return "teardown"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// LaunchOptions is what a launcher needs to start one backend
type LaunchOptions struct {
	Scenario entities.Scenario
	Mode     entities.ExecutionMode
	Platform entities.Platform
	Headless bool
	Config   interfaces.Config
	Logger   *logrus.Entry
}

// Launcher starts a backend. It must release everything it allocated when it fails.
type Launcher func(ctx context.Context, opts LaunchOptions) (interfaces.Backend, error)

// Launchers holds one launcher per backend flavour. Modern is used for the
// playwright family; Web, Mobile and Desktop for the legacy WebDriver family.
type Launchers struct {
	Modern  Launcher
	Web     Launcher
	Mobile  Launcher
	Desktop Launcher
}

// Manager drives INIT → READY → (STEP)* → TEARDOWN → CLOSED for the
// scenarios of one worker. It is not shared between workers.
type Manager struct {
	cfg       interfaces.Config
	launchers Launchers
	store     interfaces.ArtifactStore
	reporter  interfaces.Reporter
	log       *logrus.Logger

	mu      sync.Mutex
	state   State
	current *Context
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithReporter sets the reporting collaborator handed to every context
func WithReporter(r interfaces.Reporter) Option {
	return func(m *Manager) { m.reporter = r }
}

// WithArtifactStore sets where captured diagnostics are written
func WithArtifactStore(s interfaces.ArtifactStore) Option {
	return func(m *Manager) { m.store = s }
}

// NewManager - creates a lifecycle manager for one worker
func NewManager(cfg interfaces.Config, launchers Launchers, opts ...Option) *Manager {
	m := &Manager{
		cfg:       cfg,
		launchers: launchers,
		reporter:  nopReporter{},
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the lifecycle state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns the open context, or nil
func (m *Manager) Current() *Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Initialize runs INIT and READY for scenario. When a context is already
// open it is returned unchanged and nothing is allocated.
func (m *Manager) Initialize(ctx context.Context, scenario entities.Scenario) (*Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && !m.current.IsClosed() {
		m.current.Logger().Debug("session already open, initialize is a no-op")
		return m.current, nil
	}

	m.state = StateInit
	kind, err := entities.ParseBackendKind(m.cfg.String(interfaces.KeyFramework, string(entities.BackendLegacy)))
	if err != nil {
		m.state = StateIdle
		return nil, &faults.ConfigurationError{Subject: interfaces.KeyFramework, Reason: "unresolvable backend kind", Err: err}
	}
	mode, err := entities.ParseExecutionMode(m.cfg.String(interfaces.KeyExecutionMode, string(entities.ModeLocal)))
	if err != nil {
		m.state = StateIdle
		return nil, &faults.ConfigurationError{Subject: interfaces.KeyExecutionMode, Reason: "unresolvable execution mode", Err: err}
	}

	sc := newContext(scenario, kind, mode, m.cfg, m.reporter, m.log)
	if scenario.APIOnly {
		sc.Logger().Info("API-only scenario, no automation backend started")
		m.current = sc
		m.state = StateReady
		return sc, nil
	}

	launcher, err := m.pickLauncher(kind, mode.Platform())
	if err != nil {
		m.state = StateIdle
		return nil, err
	}

	opts := LaunchOptions{
		Scenario: scenario,
		Mode:     mode,
		Platform: mode.Platform(),
		Headless: mode == entities.ModeHeadless || m.cfg.Bool(interfaces.KeyHeadless, false),
		Config:   m.cfg,
		Logger:   sc.Logger(),
	}
	backend, err := launcher(ctx, opts)
	if err != nil {
		m.state = StateIdle
		return nil, &faults.SessionError{Op: fmt.Sprintf("start %s backend", kind), Err: err}
	}
	sc.setBackend(backend)

	sc.Logger().WithFields(logrus.Fields{
		"backend":  kind,
		"mode":     mode,
		"headless": opts.Headless,
	}).Info("session ready")

	m.current = sc
	m.state = StateReady
	return sc, nil
}

// pickLauncher dispatches INIT. The modern family never touches the legacy
// launchers.
func (m *Manager) pickLauncher(kind entities.BackendKind, platform entities.Platform) (Launcher, error) {
	var l Launcher
	if kind == entities.BackendModern {
		l = m.launchers.Modern
	} else {
		switch platform {
		case entities.PlatformMobile:
			l = m.launchers.Mobile
		case entities.PlatformDesktop:
			l = m.launchers.Desktop
		default:
			l = m.launchers.Web
		}
	}
	if l == nil {
		return nil, &faults.ConfigurationError{
			Subject: interfaces.KeyFramework,
			Reason:  fmt.Sprintf("no launcher for %s backend on %s", kind, platform),
		}
	}
	return l, nil
}

// Teardown closes the open context. Every cleanup failure, including a
// panic, is logged and discarded. Calling it again is a no-op.
func (m *Manager) Teardown() {
	m.mu.Lock()
	sc := m.current
	if sc == nil {
		m.mu.Unlock()
		return
	}
	m.current = nil
	m.state = StateTeardown
	m.mu.Unlock()

	for _, b := range sc.detach() {
		closeQuietly(sc.Logger(), b)
	}
	sc.Logger().Info("session closed")

	m.mu.Lock()
	m.state = StateClosed
	m.mu.Unlock()
}

func closeQuietly(log *logrus.Entry, b interfaces.Backend) {
	defer func() {
		if r := recover(); r != nil {
			log.Debugf("ignoring panic while closing %s backend: %v", b.Kind(), r)
		}
	}()
	if err := b.Close(); err != nil && !isAlreadyClosed(err) {
		log.Debugf("ignoring error while closing %s backend: %v", b.Kind(), err)
	}
}

func isAlreadyClosed(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "closed") || strings.Contains(msg, "target closed")
}

type nopReporter struct{}

func (nopReporter) RecordResult(string, string, entities.Severity) {}
