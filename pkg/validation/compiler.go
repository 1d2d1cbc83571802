// Package validation compiles a sponsor-authored form definition into a
// runtime validator for applicant input. Compilation cannot fail: fields with
// an unrecognized type validate as plain text.
package validation

import (
	"fmt"

	"github.com/LouieCads/iskolar-forms/pkg/fieldtype"
	"github.com/LouieCads/iskolar-forms/pkg/form"
)

// FieldError is one validation failure attributed to one field.
type FieldError struct {
	Key     string `json:"key,omitempty"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

// Result collects the outcome of validating one candidate response.
type Result struct {
	Errors []FieldError `json:"errors,omitempty"`
}

// Valid reports whether the candidate passed every rule.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Bounded returns at most max error messages, summarizing the overflow as a
// single trailing count line. It keeps long forms from producing an unbounded
// wall of inline errors.
func (r Result) Bounded(max int) []string {
	if max <= 0 || len(r.Errors) == 0 {
		return nil
	}
	shown := len(r.Errors)
	if shown > max {
		shown = max
	}
	out := make([]string, 0, shown+1)
	for _, fieldErr := range r.Errors[:shown] {
		out = append(out, fieldErr.Message)
	}
	if rest := len(r.Errors) - shown; rest > 0 {
		out = append(out, fmt.Sprintf("and %d more field(s) need attention", rest))
	}
	return out
}

type compiledField struct {
	field form.FieldDefinition
	desc  fieldtype.Descriptor
	rule  Rule
}

// Validator holds one compiled rule per field, in definition order.
type Validator struct {
	fields []compiledField
}

// Option configures compilation.
type Option func(*compileConfig)

type compileConfig struct {
	registry *fieldtype.Registry
}

// WithRegistry compiles against a custom field-type registry instead of the
// shared default.
func WithRegistry(registry *fieldtype.Registry) Option {
	return func(cfg *compileConfig) {
		if registry != nil {
			cfg.registry = registry
		}
	}
}

// Compile builds a Validator for the definition. One rule per field, keyed by
// the field's identity (synthetic key, label for legacy definitions).
func Compile(def form.FormDefinition, options ...Option) *Validator {
	cfg := compileConfig{registry: fieldtype.Default()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	fields := make([]compiledField, 0, len(def))
	for _, field := range def {
		desc := cfg.registry.Lookup(field.Type)
		fields = append(fields, compiledField{
			field: field,
			desc:  desc,
			rule:  ruleForKind(desc.RuleKind),
		})
	}
	return &Validator{fields: fields}
}

// Validate checks a candidate response keyed by field identity. Errors come
// back in definition order; required file fields are exempt here and checked
// by RequiredFiles before submission.
func (v *Validator) Validate(input map[string]any) Result {
	var result Result
	for _, compiled := range v.fields {
		field := compiled.field
		value, present := lookupValue(input, field)

		if isEmpty(value) || !present {
			if field.Required && compiled.desc.RuleKind != fieldtype.RuleFile {
				result.Errors = append(result.Errors, FieldError{
					Key:     field.Key,
					Label:   field.Label,
					Message: requiredMessage(field, compiled.desc),
				})
			}
			continue
		}

		if msg := compiled.rule(field, value); msg != "" {
			result.Errors = append(result.Errors, FieldError{
				Key:     field.Key,
				Label:   field.Label,
				Message: msg,
			})
		}
	}
	return result
}

// RequiredFiles is the submission-level pass for file fields, run before any
// network call: every required file field must have at least one pending
// attachment. Attachment counts are keyed by field identity.
func RequiredFiles(def form.FormDefinition, attachments map[string]int) Result {
	var result Result
	for _, field := range def {
		if field.Type != form.FieldTypeFile || !field.Required {
			continue
		}
		count := attachments[field.Identity()]
		if count == 0 && field.Key != "" {
			count = attachments[field.Label]
		}
		if count == 0 {
			result.Errors = append(result.Errors, FieldError{
				Key:     field.Key,
				Label:   field.Label,
				Message: fmt.Sprintf("%s is required", field.Label),
			})
		}
	}
	return result
}

func requiredMessage(field form.FieldDefinition, desc fieldtype.Descriptor) string {
	if desc.RuleKind == fieldtype.RuleCheckbox {
		return fmt.Sprintf("%s requires at least one selection", field.Label)
	}
	return fmt.Sprintf("%s is required", field.Label)
}

func lookupValue(input map[string]any, field form.FieldDefinition) (any, bool) {
	if value, ok := input[field.Identity()]; ok {
		return value, true
	}
	if field.Key != "" {
		if value, ok := input[field.Label]; ok {
			return value, true
		}
	}
	return nil, false
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}
