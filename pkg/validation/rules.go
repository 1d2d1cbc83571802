package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/LouieCads/iskolar-forms/pkg/fieldtype"
	"github.com/LouieCads/iskolar-forms/pkg/form"
)

// Rule checks one present value against one field. An empty return means the
// value passes; anything else is the end-user message. Presence enforcement
// for required fields happens before rules run, so rules only see non-empty
// values.
type Rule func(field form.FieldDefinition, value any) string

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Philippine numbering accepted by the phone rule, applied to the digits-only
// form of the value: 11 digits starting 09 (mobile), 12 digits starting 63
// (mobile, country-prefixed), 10 digits starting 02 (Metro Manila landline).
var phonePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^09\d{9}$`),
	regexp.MustCompile(`^63\d{10}$`),
	regexp.MustCompile(`^02\d{8}$`),
}

func ruleForKind(kind string) Rule {
	switch kind {
	case fieldtype.RuleEmail:
		return emailRule
	case fieldtype.RulePhone:
		return phoneRule
	case fieldtype.RuleNumber:
		return numberRule
	case fieldtype.RuleDropdown:
		return dropdownRule
	case fieldtype.RuleCheckbox:
		return checkboxRule
	case fieldtype.RuleFile:
		return fileRule
	case fieldtype.RuleDate, fieldtype.RuleText:
		return textRule
	default:
		return textRule
	}
}

// textRule also serves date fields: the date picker boundary guarantees the
// format, so a present value only needs to be a string.
func textRule(field form.FieldDefinition, value any) string {
	if _, ok := value.(string); !ok {
		return fmt.Sprintf("%s must be text", field.Label)
	}
	return ""
}

func emailRule(field form.FieldDefinition, value any) string {
	s, ok := value.(string)
	if !ok || !emailPattern.MatchString(s) {
		return fmt.Sprintf("%s must be a valid email address", field.Label)
	}
	return ""
}

func phoneRule(field form.FieldDefinition, value any) string {
	s, ok := value.(string)
	if !ok {
		return fmt.Sprintf("%s must be a valid phone number", field.Label)
	}
	digits := digitsOnly(s)
	for _, pattern := range phonePatterns {
		if pattern.MatchString(digits) {
			return ""
		}
	}
	return fmt.Sprintf("%s must be a valid PH phone number", field.Label)
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func numberRule(field form.FieldDefinition, value any) string {
	switch v := value.(type) {
	case float64, float32, int, int32, int64:
		return ""
	case string:
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return ""
		}
	}
	return fmt.Sprintf("%s must be a number", field.Label)
}

func dropdownRule(field form.FieldDefinition, value any) string {
	s, ok := value.(string)
	if !ok {
		return fmt.Sprintf("%s must be one of the listed options", field.Label)
	}
	for _, option := range field.Options {
		if s == option {
			return ""
		}
	}
	return fmt.Sprintf("%s must be one of the listed options", field.Label)
}

func checkboxRule(field form.FieldDefinition, value any) string {
	selections, ok := stringSlice(value)
	if !ok {
		return fmt.Sprintf("%s must be a list of selections", field.Label)
	}
	for _, selection := range selections {
		if !containsString(field.Options, selection) {
			return fmt.Sprintf("%s contains an unknown selection %q", field.Label, selection)
		}
	}
	return ""
}

// fileRule never fails: file fields are validated by the submission-level
// required-file pass and the upload pipeline, not the compiled schema.
func fileRule(form.FieldDefinition, any) string {
	return ""
}

func stringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
