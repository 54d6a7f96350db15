// Package validate checks normalized records against the required-field
// rules. Validation is intentionally shallow: presence and nullness only.
package validate

import (
	"fmt"

	"lorry/internal/record"
)

// Validator evaluates records against a fixed required-field set.
type Validator struct {
	required []string
}

// New constructs a Validator for the given canonical field names.
func New(required []string) *Validator {
	return &Validator{required: append([]string(nil), required...)}
}

// Check returns one human-readable violation per missing or null required
// field. An empty result means the record is valid. Violations never halt a
// run; callers count and log them.
func (v *Validator) Check(rec *record.Record) []string {
	var violations []string
	for _, field := range v.required {
		value, ok := rec.Get(field)
		if !ok || value.IsZero() {
			violations = append(violations, fmt.Sprintf("missing required field: %s", field))
		}
	}
	return violations
}
