package config

import (
	"strings"

	"ui_harness/domain/interfaces"
)

// TestData resolves scenario inputs from the data.* subtree. A value under
// data.<scenario>.<name> wins over data.<name>.
type TestData struct {
	store    *Store
	scenario string
}

var _ interfaces.TestData = (*TestData)(nil)

// NewTestData scopes lookups to one scenario
func NewTestData(store *Store, scenario string) *TestData {
	return &TestData{store: store, scenario: normalizeKey(scenario)}
}

func (d *TestData) Value(name string) (string, bool) {
	name = normalizeKey(name)
	keys := []string{"data." + name}
	if d.scenario != "" {
		keys = append([]string{"data." + d.scenario + "." + name}, keys...)
	}
	for _, k := range keys {
		if d.store.v.IsSet(k) {
			return d.store.v.GetString(k), true
		}
	}
	return "", false
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", ".", "_").Replace(s)
}
