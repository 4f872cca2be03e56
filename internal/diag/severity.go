package diag

import (
	"fmt"
	"strings"
)

// Severity orders diagnostics; a higher value is more serious.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{
	SevInfo:    "info",
	SevWarning: "warning",
	SevError:   "error",
}

// String is the upper-case label used in formatted output.
func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return strings.ToUpper(severityNames[s])
	}
	return "UNKNOWN"
}

// ParseSeverity reads a severity name in any case.
func ParseSeverity(name string) (Severity, error) {
	for i, n := range severityNames {
		if strings.EqualFold(name, n) {
			return Severity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q (must be info|warning|error)", name)
}
