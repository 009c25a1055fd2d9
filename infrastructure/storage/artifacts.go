package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"ui_harness/domain/entities"
	"ui_harness/domain/interfaces"
)

const historyFile = "results.json"

type artifactStore struct {
	dir string

	mu       sync.Mutex
	counters map[string]int
}

// NewArtifactStore - creates a store rooted at dir
func NewArtifactStore(dir string) (interfaces.ArtifactStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	return &artifactStore{dir: dir, counters: make(map[string]int)}, nil
}

// SaveScreenshot - writes png to <dir>/<scenario>/<nnn>-<step>.png
func (s *artifactStore) SaveScreenshot(scenario entities.Scenario, step string, png []byte) (string, error) {
	scenarioDir := slug(scenario.Name)
	if scenario.Line > 0 {
		scenarioDir = fmt.Sprintf("%s-L%d", scenarioDir, scenario.Line)
	}

	s.mu.Lock()
	s.counters[scenarioDir]++
	n := s.counters[scenarioDir]
	s.mu.Unlock()

	dir := filepath.Join(s.dir, scenarioDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("%03d-%s.png", n, slug(step)))
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// SaveResults - saves the results of a run
func (s *artifactStore) SaveResults(results []entities.ScenarioResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, historyFile), data, 0644)
}

// LoadResults - loads the results of the previous run
func (s *artifactStore) LoadResults() ([]entities.ScenarioResult, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, historyFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []entities.ScenarioResult{}, nil
		}
		return nil, err
	}

	var results []entities.ScenarioResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, err
	}
	return results, nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	s = nonSlug.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "unnamed"
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}
