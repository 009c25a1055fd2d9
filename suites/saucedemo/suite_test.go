package saucedemo

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ui_harness/application/runner"
	"ui_harness/application/session"
	"ui_harness/domain/entities"
	"ui_harness/domain/interfaces"
	"ui_harness/infrastructure/browser/fakebrowser"
	"ui_harness/infrastructure/config"
	"ui_harness/infrastructure/report"
	"ui_harness/infrastructure/storage"
	"ui_harness/pages"
)

func newSuiteRunner(t *testing.T, overrides map[string]interface{}) (*runner.Runner, *report.LogReporter) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	values := Defaults()
	values[interfaces.KeyDefaultTimeout] = 1
	for k, v := range overrides {
		values[k] = v
	}
	cfg := config.FromMap(values)
	store, err := storage.NewArtifactStore(t.TempDir())
	require.NoError(t, err)
	rep := report.NewLogReporter(logger, nil)

	launch := func(ctx context.Context, o session.LaunchOptions) (interfaces.Backend, error) {
		b := fakebrowser.NewBackend(entities.BackendLegacy, entities.PlatformWeb)
		fakebrowser.Storefront(b.Doc, pages.DefaultBaseURL)
		return b, nil
	}
	r := runner.NewRunner(cfg, session.Launchers{Web: launch}, pages.Catalog(),
		runner.WithLogger(logger),
		runner.WithReporter(rep),
		runner.WithArtifactStore(store),
		runner.WithTestData(func(name string) interfaces.TestData { return config.NewTestData(cfg, name) }),
	)
	return r, rep
}

func TestSuitePassesAgainstStorefront(t *testing.T) {
	r, rep := newSuiteRunner(t, nil)
	scenarios := Scenarios()

	results, err := r.RunAll(context.Background(), scenarios, 2)
	require.NoError(t, err)
	require.Len(t, results, len(scenarios))
	for _, res := range results {
		assert.Equal(t, entities.ScenarioPassed, res.Status, "%s: %s", res.Scenario.Name, res.Error)
	}
	assert.Zero(t, rep.Count(entities.SeverityFail))
	assert.Positive(t, rep.Count(entities.SeverityPass))
}

func TestSuiteFailsWithWrongPassword(t *testing.T) {
	r, _ := newSuiteRunner(t, map[string]interface{}{"data." + DataPassword: "nope"})

	res := r.Run(context.Background(), Scenarios()[0])

	assert.Equal(t, entities.ScenarioFailed, res.Status)
	require.Len(t, res.Steps, 3)
	assert.True(t, res.Steps[2].Failed)
	assert.Len(t, res.Diagnostics, 1, "the failing step is captured")
}

func TestFilter(t *testing.T) {
	all := Scenarios()
	assert.Len(t, Filter(all, nil), len(all))

	smoke := Filter(all, []string{"@smoke"})
	require.Len(t, smoke, 2)
	assert.Equal(t, "Standard user logs in", smoke[0].Info.Name)

	assert.Len(t, Filter(all, []string{"cart", "login"}), len(all))
	assert.Empty(t, Filter(all, []string{"checkout"}))
}
