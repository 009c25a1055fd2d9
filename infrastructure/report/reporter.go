package report

import (
	"sync"

	"github.com/sirupsen/logrus"

	"ui_harness/domain/entities"
	"ui_harness/domain/interfaces"
)

// LogReporter writes every step result to a logrus logger and keeps them
// in memory for the run summary.
type LogReporter struct {
	logger *logrus.Logger
	fields logrus.Fields
	redact func(string) string

	mu      sync.Mutex
	results []entities.StepResult
}

var _ interfaces.Reporter = (*LogReporter)(nil)

// NewLogReporter - creates a reporter on top of logger
func NewLogReporter(logger *logrus.Logger, fields logrus.Fields) *LogReporter {
	return &LogReporter{logger: logger, fields: fields}
}

// Redacting filters every message through fn before it is logged or kept
func (r *LogReporter) Redacting(fn func(string) string) *LogReporter {
	r.redact = fn
	return r
}

// RecordResult logs one result; FAIL maps to error level, WARNING to warn
func (r *LogReporter) RecordResult(stepName, message string, severity entities.Severity) {
	if r.redact != nil {
		message = r.redact(message)
	}
	r.mu.Lock()
	r.results = append(r.results, entities.StepResult{Step: stepName, Message: message, Severity: severity})
	r.mu.Unlock()

	entry := r.logger.WithFields(r.fields).WithFields(logrus.Fields{
		"step":     stepName,
		"severity": severity,
	})
	switch severity {
	case entities.SeverityFail:
		entry.Error(message)
	case entities.SeverityWarning:
		entry.Warn(message)
	case entities.SeverityInfo:
		entry.Debug(message)
	default:
		entry.Info(message)
	}
}

// Results returns a copy of everything recorded so far
func (r *LogReporter) Results() []entities.StepResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entities.StepResult(nil), r.results...)
}

// Count returns how many results have the given severity
func (r *LogReporter) Count(severity entities.Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, res := range r.results {
		if res.Severity == severity {
			n++
		}
	}
	return n
}
