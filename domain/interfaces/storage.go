package interfaces

import "ui_harness/domain/entities"

// ArtifactStore persists diagnostics and run history
type ArtifactStore interface {
	// SaveScreenshot stores a PNG captured after a step and returns its path
	SaveScreenshot(scenario entities.Scenario, step string, png []byte) (string, error)

	// SaveResults stores the results of a run
	SaveResults(results []entities.ScenarioResult) error

	// LoadResults loads the results of the previous run
	LoadResults() ([]entities.ScenarioResult, error)
}
