package remediation

// Severity tiers how aggressively a session's activity mix gets
// overridden.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// rank orders severities for the escalation reduction.
func rank(s Severity) int {
	switch s {
	case SeveritySevere:
		return 3
	case SeverityModerate:
		return 2
	case SeverityMild:
		return 1
	default:
		return 0
	}
}

// maxSeverity returns the higher of two severities. Diagnosis only ever
// escalates; it never walks back a floor an earlier rule set.
func maxSeverity(a, b Severity) Severity {
	if rank(b) > rank(a) {
		return b
	}
	return a
}
