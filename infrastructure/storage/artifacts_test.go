package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ui_harness/domain/entities"
)

func TestSaveScreenshotNumbersPerScenario(t *testing.T) {
	dir := t.TempDir()
	store, err := NewArtifactStore(dir)
	require.NoError(t, err)

	sc := entities.Scenario{Name: "Valid login", Line: 12}
	p1, err := store.SaveScreenshot(sc, "I open the login page", []byte("one"))
	require.NoError(t, err)
	p2, err := store.SaveScreenshot(sc, "I log in!", []byte("two"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "valid-login-L12", "001-i-open-the-login-page.png"), p1)
	assert.Equal(t, filepath.Join(dir, "valid-login-L12", "002-i-log-in.png"), p2)

	data, err := os.ReadFile(p2)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestResultsHistory(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)

	empty, err := store.LoadResults()
	require.NoError(t, err)
	assert.Empty(t, empty)

	in := []entities.ScenarioResult{{
		Scenario: entities.Scenario{Name: "Locked out", Failed: true},
		Status:   entities.ScenarioFailed,
		Steps:    []entities.StepOutcome{{Name: "login", Failed: true, Error: "boom"}},
	}}
	require.NoError(t, store.SaveResults(in))

	out, err := store.LoadResults()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, entities.ScenarioFailed, out[0].Status)
	assert.Equal(t, "boom", out[0].Steps[0].Error)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "unnamed", slug("!!!"))
	assert.Equal(t, "add-item-cart", slug("  Add item -> cart "))
}
