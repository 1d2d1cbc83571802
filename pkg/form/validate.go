package form

import (
	"errors"
	"fmt"
)

var (
	errLabelMissing     = errors.New("form: field label is required")
	errOptionsMissing   = errors.New("form: choice field requires at least one option")
	errOptionsMisplaced = errors.New("form: options are only valid on dropdown and checkbox fields")
)

// Validate checks a definition for authoring-time integrity errors: empty
// labels, missing options on choice fields, options on non-choice fields, and
// duplicate labels or keys. It returns every problem found, not just the
// first, so an authoring UI can surface them together. Fill-time validation
// of applicant input lives in pkg/validation.
func (d FormDefinition) Validate() error {
	var errs []error
	seenLabels := make(map[string]int, len(d))
	seenKeys := make(map[string]int, len(d))

	for i, field := range d {
		if field.Label == "" {
			errs = append(errs, fmt.Errorf("field %d: %w", i, errLabelMissing))
		}
		switch field.Type {
		case FieldTypeDropdown, FieldTypeCheckbox:
			if len(field.Options) == 0 {
				errs = append(errs, fmt.Errorf("field %q: %w", field.Label, errOptionsMissing))
			}
		default:
			if len(field.Options) > 0 {
				errs = append(errs, fmt.Errorf("field %q: %w", field.Label, errOptionsMisplaced))
			}
		}
		if field.Label != "" {
			if prev, dup := seenLabels[field.Label]; dup {
				errs = append(errs, fmt.Errorf("form: duplicate label %q (fields %d and %d)", field.Label, prev, i))
			} else {
				seenLabels[field.Label] = i
			}
		}
		if field.Key != "" {
			if prev, dup := seenKeys[field.Key]; dup {
				errs = append(errs, fmt.Errorf("form: duplicate key %q (fields %d and %d)", field.Key, prev, i))
			} else {
				seenKeys[field.Key] = i
			}
		}
	}
	return errors.Join(errs...)
}
