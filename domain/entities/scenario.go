package entities

import (
	"strings"
	"time"
)

// Scenario carries the metadata of one test scenario
type Scenario struct {
	Name    string   `json:"name"`
	Tags    []string `json:"tags,omitempty"`
	Line    int      `json:"line,omitempty"`
	APIOnly bool     `json:"api_only,omitempty"` // no UI backend is needed
	Failed  bool     `json:"failed"`
}

// HasTag reports whether the scenario carries tag (with or without a leading @)
func (s Scenario) HasTag(tag string) bool {
	tag = strings.TrimPrefix(tag, "@")
	for _, t := range s.Tags {
		if strings.EqualFold(strings.TrimPrefix(t, "@"), tag) {
			return true
		}
	}
	return false
}

// ScenarioStatus represents the status of a scenario run
type ScenarioStatus string

const (
	ScenarioPending ScenarioStatus = "pending"
	ScenarioRunning ScenarioStatus = "running"
	ScenarioPassed  ScenarioStatus = "passed"
	ScenarioFailed  ScenarioStatus = "failed"
	ScenarioAborted ScenarioStatus = "aborted"
)

// StepOutcome is handed to the lifecycle manager after every step
type StepOutcome struct {
	Name           string        `json:"name"`
	Index          int           `json:"index"`
	Failed         bool          `json:"failed"`
	ScenarioFailed bool          `json:"scenario_failed"`
	Duration       time.Duration `json:"duration"`
	Error          string        `json:"error,omitempty"`
}

// Diagnostic describes one captured artifact
type Diagnostic struct {
	Step     string `json:"step"`
	Path     string `json:"path"`
	Source   string `json:"source"` // which capture path produced it
	Bytes    int    `json:"bytes"`
	Fallback bool   `json:"fallback,omitempty"`
}

// ScenarioResult summarizes a finished scenario
type ScenarioResult struct {
	SessionID   string         `json:"session_id,omitempty"`
	Scenario    Scenario       `json:"scenario"`
	Status      ScenarioStatus `json:"status"`
	Steps       []StepOutcome  `json:"steps"`
	Diagnostics []Diagnostic   `json:"diagnostics,omitempty"`
	Error       string         `json:"error,omitempty"`
	Worker      int            `json:"worker"`
	StartedAt   time.Time      `json:"started_at"`
	Duration    time.Duration  `json:"duration"`
}
