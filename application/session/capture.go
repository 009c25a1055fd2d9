package session

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"ui_harness/domain/entities"
	"ui_harness/domain/faults"
	"ui_harness/domain/interfaces"
)

const defaultIdleWait = 5 * time.Second

// AfterStep applies the diagnostic capture policy for a finished step and
// returns what was captured, or nil. It never fails: capture problems are
// logged and dropped.
//
// Precedence:
//  1. API-only and grid scenarios are skipped.
//  2. The modern backend always captures a full page after a best-effort
//     network-idle wait, falling back once to the legacy web handle.
//  3. Legacy backends dispatch mobile, then desktop, then web, gated by the
//     screenshot policy.
func (m *Manager) AfterStep(outcome entities.StepOutcome) *entities.Diagnostic {
	sc := m.Current()
	if sc == nil || sc.IsClosed() {
		return nil
	}
	if outcome.Failed || outcome.ScenarioFailed {
		sc.MarkFailed()
	}

	scenario := sc.Scenario()
	if scenario.APIOnly || sc.Mode() == entities.ModeGrid {
		return nil
	}
	if sc.Kind() == entities.BackendModern {
		return m.captureModern(sc, outcome.Name)
	}
	return m.captureLegacy(sc, outcome.Name)
}

func (m *Manager) captureModern(sc *Context, step string) *entities.Diagnostic {
	log := sc.Logger().WithField("step", step)

	png, err := m.modernScreenshot(sc)
	if err == nil {
		return m.keep(sc, step, png, "playwright", false)
	}
	log.WithError(err).Warn("playwright screenshot failed, falling back to webdriver")

	legacy := sc.Handle(entities.PlatformWeb)
	if legacy == nil {
		m.drop(sc, &faults.DiagnosticError{Step: step, Err: errors.Join(err, faults.ErrNoBackend)})
		return nil
	}
	png, ferr := legacy.Screenshot(false)
	if ferr != nil {
		m.drop(sc, &faults.DiagnosticError{Step: step, Err: errors.Join(err, ferr)})
		return nil
	}
	return m.keep(sc, step, png, "webdriver", true)
}

func (m *Manager) modernScreenshot(sc *Context) ([]byte, error) {
	b := sc.Backend()
	if b == nil {
		return nil, faults.ErrNoBackend
	}
	idle := m.cfg.Duration(interfaces.KeyIdleWait, defaultIdleWait)
	if err := b.WaitForNetworkIdle(idle); err != nil {
		sc.Logger().WithError(err).Debug("network did not settle before screenshot")
	}
	return b.Screenshot(true)
}

func (m *Manager) captureLegacy(sc *Context, step string) *entities.Diagnostic {
	policy := entities.ParseScreenshotPolicy(m.cfg.String(interfaces.KeyScreenshotPolicy, string(entities.CaptureOnFailure)))
	if policy == entities.CaptureOnFailure && !sc.Scenario().Failed {
		return nil
	}

	var (
		b      interfaces.Backend
		source string
	)
	switch {
	case sc.IsMobile():
		b, source = sc.Handle(entities.PlatformMobile), "appium"
	case sc.IsDesktop():
		b, source = sc.Handle(entities.PlatformDesktop), "winappdriver"
	default:
		b, source = sc.Handle(entities.PlatformWeb), "webdriver"
	}
	if b == nil {
		m.drop(sc, &faults.DiagnosticError{Step: step, Err: faults.ErrNoBackend})
		return nil
	}

	png, err := b.Screenshot(false)
	if err != nil {
		m.drop(sc, &faults.DiagnosticError{Step: step, Err: err})
		return nil
	}
	return m.keep(sc, step, png, source, false)
}

func (m *Manager) keep(sc *Context, step string, png []byte, source string, fallback bool) *entities.Diagnostic {
	d := &entities.Diagnostic{Step: step, Source: source, Bytes: len(png), Fallback: fallback}
	if m.store != nil {
		path, err := m.store.SaveScreenshot(sc.Scenario(), step, png)
		if err != nil {
			m.drop(sc, &faults.DiagnosticError{Step: step, Err: err})
			return nil
		}
		d.Path = path
	}
	sc.Logger().WithFields(logrus.Fields{
		"step":   step,
		"source": source,
		"path":   d.Path,
	}).Debug("captured step screenshot")
	return d
}

func (m *Manager) drop(sc *Context, err *faults.DiagnosticError) {
	sc.Logger().WithError(err).Warn("diagnostic capture dropped")
}
