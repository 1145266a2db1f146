package domain

import "fmt"

// Severity classifies a rule and the error records it produces. Fatal errors
// block publication; warnings do not.
type Severity string

const (
	SeverityFatal   Severity = "fatal"
	SeverityWarning Severity = "warning"
)

var validSeverities = map[Severity]bool{
	SeverityFatal:   true,
	SeverityWarning: true,
}

// AllSeverities lists both severities in execution order: fatal rules run
// before warnings so consumers can short-circuit on fatal count.
func AllSeverities() []Severity {
	return []Severity{SeverityFatal, SeverityWarning}
}

// ParseSeverity constructs a Severity from external input.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if !sev.IsValid() {
		return "", fmt.Errorf("unknown severity: %q", s)
	}
	return sev, nil
}

// IsValid checks if the severity is one of the supported enum values.
func (s Severity) IsValid() bool {
	return validSeverities[s]
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}
