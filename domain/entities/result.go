package entities

// Severity of a reported step result
type Severity string

const (
	SeverityPass    Severity = "PASS"
	SeverityFail    Severity = "FAIL"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
	SeverityDone    Severity = "DONE"
)

// StepResult is one record handed to the reporting collaborator
type StepResult struct {
	Step     string   `json:"step"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}
