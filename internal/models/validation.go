package models

// Operation names what the caller is about to do with a placement. Checkers
// use it to decide whether they apply.
type Operation string

const (
	OpCreate        Operation = "CREATE"
	OpUpdate        Operation = "UPDATE"
	OpCancel        Operation = "CANCEL"
	OpRangeValidate Operation = "RANGE_VALIDATE"
)

// Severity splits findings into blocking errors and advisory warnings.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one rule outcome tied to the field it concerns.
type Finding struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// ValidationResult is the aggregate outcome of running all applicable rules.
// Errors and Warnings keep checker declaration order so repeated runs over
// the same input produce identical output.
type ValidationResult struct {
	IsValid  bool      `json:"is_valid"`
	Errors   []Finding `json:"errors"`
	Warnings []Finding `json:"warnings"`
}

// NewValidationResult returns an empty, valid result with non-nil slices so
// the wire form always carries arrays.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{IsValid: true, Errors: []Finding{}, Warnings: []Finding{}}
}

// AddError records a blocking finding and flips validity.
func (r *ValidationResult) AddError(field, message string) {
	r.IsValid = false
	r.Errors = append(r.Errors, Finding{Field: field, Message: message, Severity: SeverityError})
}

// AddWarning records an advisory finding. Validity is unaffected.
func (r *ValidationResult) AddWarning(field, message string) {
	r.Warnings = append(r.Warnings, Finding{Field: field, Message: message, Severity: SeverityWarning})
}

// Merge appends another result's findings onto r.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	if !other.IsValid {
		r.IsValid = false
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}
