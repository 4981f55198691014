package domain

// Severity captures check outcomes. Nothing in the core is fatal: conflicting
// assignments and incomplete planning surface as warnings for human
// resolution, never as errors.
type Severity string

// Check severities.
const (
	// SeverityWarn flags a condition that needs operator attention.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports one failed check evaluation.
type Violation struct {
	Check    string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the check engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// Warnings returns the subset of violations at warning severity.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityWarn {
			out = append(out, v)
		}
	}
	return out
}
