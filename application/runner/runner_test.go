package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ui_harness/application/pom"
	"ui_harness/application/session"
	"ui_harness/domain/entities"
	"ui_harness/domain/faults"
	"ui_harness/domain/interfaces"
	"ui_harness/infrastructure/browser/fakebrowser"
	"ui_harness/infrastructure/config"
	"ui_harness/infrastructure/storage"
)

const homeURL = "https://app.test/"

type homePage struct {
	pom.Base
	Banner *pom.Element
}

func (p *homePage) DeclareElements(b *pom.Binder) {
	b.Element(&p.Banner, "Banner", entities.FindBy{ID: "banner"})
}

func (p *homePage) NavigateToPage() error { return p.NavigateTo(homeURL) }

func (p *homePage) IsPageLoaded() bool { return p.Banner.IsVisible() }

const keyHome pom.PageKey = "home"

func catalog() *pom.Catalog {
	return pom.NewCatalog().Register(keyHome, func(doc interfaces.Document, opts ...pom.BaseOption) (pom.PageObject, error) {
		p := &homePage{Base: pom.NewBaseFromDocument(doc, opts...)}
		return p, p.Bind(p)
	})
}

type fleet struct {
	mu       sync.Mutex
	backends []*fakebrowser.Backend
	fail     error
}

func (f *fleet) launchers() session.Launchers {
	return session.Launchers{
		Web: func(ctx context.Context, o session.LaunchOptions) (interfaces.Backend, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.fail != nil {
				return nil, f.fail
			}
			b := fakebrowser.NewBackend(entities.BackendLegacy, entities.PlatformWeb)
			b.Doc.Route(homeURL, func(d *fakebrowser.Document) {
				d.Put("#banner", fakebrowser.Visible("Welcome"))
			})
			f.backends = append(f.backends, b)
			return b, nil
		},
	}
}

func (f *fleet) allClosed(t *testing.T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.backends {
		assert.Equal(t, 1, b.Closes())
	}
}

type mockReporter struct {
	mock.Mock
}

func (m *mockReporter) RecordResult(step, message string, severity entities.Severity) {
	m.Called(step, message, severity)
}

func newTestRunner(t *testing.T, f *fleet, extra ...Option) *Runner {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store, err := storage.NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	cfg := config.FromMap(map[string]interface{}{
		interfaces.KeyDefaultTimeout: 1,
		"data.user":                  "standard_user",
	})
	opts := append([]Option{
		WithLogger(logger),
		WithArtifactStore(store),
		WithTestData(func(name string) interfaces.TestData { return config.NewTestData(cfg, name) }),
	}, extra...)
	return NewRunner(cfg, f.launchers(), catalog(), opts...)
}

var openHome = Step{Name: "I open the home page", Run: func(w *World) error {
	p, err := Page[*homePage](w, keyHome)
	if err != nil {
		return err
	}
	return p.NavigateToPage()
}}

var seeBanner = Step{Name: "I see the banner", Run: func(w *World) error {
	p, err := Page[*homePage](w, keyHome)
	if err != nil {
		return err
	}
	return p.Banner.AssertTextEquals("Welcome")
}}

func TestRunPassingScenario(t *testing.T) {
	f := &fleet{}
	r := newTestRunner(t, f)

	res := r.Run(context.Background(), Scenario{
		Info:  entities.Scenario{Name: "home"},
		Steps: []Step{openHome, seeBanner},
	})

	assert.Equal(t, entities.ScenarioPassed, res.Status)
	assert.False(t, res.Scenario.Failed)
	assert.Len(t, res.Steps, 2)
	assert.Empty(t, res.Diagnostics, "on-failure policy captures nothing for a passing scenario")
	assert.NotEmpty(t, res.SessionID)
	f.allClosed(t)
}

func TestRunFailureSkipsRemainingSteps(t *testing.T) {
	f := &fleet{}
	r := newTestRunner(t, f)
	ran := false

	res := r.Run(context.Background(), Scenario{
		Info: entities.Scenario{Name: "wrong banner"},
		Steps: []Step{
			openHome,
			{Name: "I see a greeting", Run: func(w *World) error {
				p, err := Page[*homePage](w, keyHome)
				require.NoError(t, err)
				return p.Banner.AssertTextEquals("Hello")
			}},
			{Name: "never", Run: func(*World) error { ran = true; return nil }},
		},
	})

	assert.Equal(t, entities.ScenarioFailed, res.Status)
	assert.True(t, res.Scenario.Failed)
	assert.False(t, ran)
	require.Len(t, res.Steps, 2)
	assert.True(t, res.Steps[1].Failed)
	assert.Contains(t, res.Error, "Expected: 'Hello', Actual: 'Welcome'")
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "I see a greeting", res.Diagnostics[0].Step)
	f.allClosed(t)
}

func TestRunRecoversPanics(t *testing.T) {
	f := &fleet{}
	r := newTestRunner(t, f)

	res := r.Run(context.Background(), Scenario{
		Info: entities.Scenario{Name: "panics"},
		Steps: []Step{{Name: "boom", Run: func(*World) error {
			var m map[string]int
			m["x"]++
			return nil
		}}},
	})

	assert.Equal(t, entities.ScenarioFailed, res.Status)
	assert.Contains(t, res.Error, "unexpected panic in step \"boom\"")
	f.allClosed(t)
}

func TestRunAbortsWhenSessionCannotStart(t *testing.T) {
	f := &fleet{fail: fakebrowser.ErrLaunch}
	r := newTestRunner(t, f)

	res := r.Run(context.Background(), Scenario{Info: entities.Scenario{Name: "no browser"}, Steps: []Step{openHome}})

	assert.Equal(t, entities.ScenarioAborted, res.Status)
	assert.Empty(t, res.Steps)
	assert.Contains(t, res.Error, fakebrowser.ErrLaunch.Error())
}

func TestRunFatalStepAborts(t *testing.T) {
	f := &fleet{}
	r := newTestRunner(t, f)

	res := r.Run(context.Background(), Scenario{
		Info: entities.Scenario{Name: "missing page"},
		Steps: []Step{{Name: "open checkout", Run: func(w *World) error {
			_, err := w.Pages.GetOrCreate("checkout")
			return err
		}}},
	})

	assert.Equal(t, entities.ScenarioAborted, res.Status)
}

func TestRunCanceledBeforeNextStep(t *testing.T) {
	f := &fleet{}
	r := newTestRunner(t, f)
	ctx, cancel := context.WithCancel(context.Background())

	res := r.Run(ctx, Scenario{
		Info: entities.Scenario{Name: "canceled"},
		Steps: []Step{
			{Name: "cancel", Run: func(*World) error { cancel(); return nil }},
			openHome,
		},
	})

	assert.Equal(t, entities.ScenarioAborted, res.Status)
	assert.Len(t, res.Steps, 1)
	f.allClosed(t)
}

func TestRunAllUsesIsolatedSessions(t *testing.T) {
	f := &fleet{}
	r := newTestRunner(t, f)

	var scenarios []Scenario
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		scenarios = append(scenarios, Scenario{Info: entities.Scenario{Name: name}, Steps: []Step{openHome, seeBanner}})
	}

	results, err := r.RunAll(context.Background(), scenarios, 3)
	require.NoError(t, err)
	require.Len(t, results, 5)

	ids := map[string]bool{}
	for i, res := range results {
		assert.Equal(t, scenarios[i].Info.Name, res.Scenario.Name)
		assert.Equal(t, entities.ScenarioPassed, res.Status)
		assert.GreaterOrEqual(t, res.Worker, 1)
		assert.LessOrEqual(t, res.Worker, 3)
		ids[res.SessionID] = true
	}
	assert.Len(t, ids, 5)
	assert.Len(t, f.backends, 5)
	f.allClosed(t)
}

func TestRunAllCanceled(t *testing.T) {
	f := &fleet{}
	r := newTestRunner(t, f)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := r.RunAll(ctx, []Scenario{{Info: entities.Scenario{Name: "x"}, Steps: []Step{openHome}}}, 2)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 1)
	assert.NotEqual(t, entities.ScenarioPassed, results[0].Status)
}

func TestWorldInputAndReporting(t *testing.T) {
	rep := &mockReporter{}
	rep.On("RecordResult", "Performance", mock.MatchedBy(func(msg string) bool { return len(msg) > 0 }), entities.SeverityPass).Once()
	rep.On("RecordResult", "Assertion", "user is set", entities.SeverityPass).Once()
	rep.On("RecordResult", "Assertion", "banner missing", entities.SeverityFail).Once()

	f := &fleet{}
	r := newTestRunner(t, f, WithReporter(rep))

	res := r.Run(context.Background(), Scenario{
		Info: entities.Scenario{Name: "data"},
		Steps: []Step{{Name: "read data", Run: func(w *World) error {
			user, err := w.Input("user")
			if err != nil {
				return err
			}
			if _, err := w.Measure("login", func() error { return nil }); err != nil {
				return err
			}
			if err := w.Check(user == "standard_user", "user is set", "user missing"); err != nil {
				return err
			}
			_, err = w.Input("password")
			var ce *faults.ConfigurationError
			if !errors.As(err, &ce) {
				return errors.New("missing data must be a configuration error")
			}
			return w.Check(false, "banner shown", "banner missing")
		}}},
	})

	assert.Equal(t, entities.ScenarioFailed, res.Status)
	assert.Contains(t, res.Error, "banner missing")
	rep.AssertExpectations(t)
}

func TestRetry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = Retry(context.Background(), 2, time.Millisecond, func() error { calls++; return errors.New("down") })
	assert.EqualError(t, err, "operation failed after 2 retries: down")
	assert.Equal(t, 3, calls)

	calls = 0
	fatal := &faults.SessionError{Op: "resolve document", Err: faults.ErrSessionClosed}
	err = Retry(context.Background(), 5, time.Millisecond, func() error { calls++; return fatal })
	assert.Same(t, fatal, err)
	assert.Equal(t, 1, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Retry(ctx, 5, time.Hour, func() error { return errors.New("flaky") })
	assert.ErrorIs(t, err, context.Canceled)
}
