// Package response turns validated form state into the canonical stored
// payload and back into a display model. Entry order always mirrors the
// owning definition, never the order the applicant touched the inputs in.
package response

import (
	"errors"
	"fmt"

	"github.com/LouieCads/iskolar-forms/pkg/form"
)

var (
	// ErrNoSuchEntry is returned when a file patch targets a field the
	// response has no entry for.
	ErrNoSuchEntry = errors.New("response: no entry for field")

	// ErrNotFileEntry is returned when a file patch targets an entry that
	// already holds a scalar or selection value.
	ErrNotFileEntry = errors.New("response: entry does not hold a file value")
)

// Assemble builds a FormResponse from the validated field state. The state is
// keyed by field identity (key, label for legacy clients). File fields always
// assemble to nil: uploads happen after the base response is accepted and are
// patched in with PatchFiles. Absent values assemble to the type's empty
// shape so every definition field has exactly one entry.
func Assemble(def form.FormDefinition, state map[string]any) form.FormResponse {
	resp := make(form.FormResponse, 0, len(def))
	for _, field := range def {
		entry := form.ResponseEntry{Key: field.Key, Label: field.Label}

		if field.Type == form.FieldTypeFile {
			entry.Value = nil
			resp = append(resp, entry)
			continue
		}

		value, ok := state[field.Identity()]
		if !ok && field.Key != "" {
			value, ok = state[field.Label]
		}
		entry.Value = canonicalValue(field, value, ok)
		resp = append(resp, entry)
	}
	return resp
}

// PatchFiles replaces the nil value of the file entry identified by id (field
// key, label for legacy responses) with the uploaded reference list. It
// returns the patched copy; the input response is not mutated.
func PatchFiles(resp form.FormResponse, id string, urls []string) (form.FormResponse, error) {
	out := make(form.FormResponse, len(resp))
	copy(out, resp)

	entry := out.Entry(id)
	if entry == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchEntry, id)
	}
	switch entry.Value.(type) {
	case nil:
	case []string, []any:
		// Re-patching an already uploaded entry is allowed so a retry can
		// overwrite a partial result.
	default:
		return nil, fmt.Errorf("%w: %q", ErrNotFileEntry, id)
	}

	entry.Value = append([]string(nil), urls...)
	return out, nil
}

// canonicalValue normalizes a submitted value into the stored shape: string
// for scalar fields, []string for checkbox selections.
func canonicalValue(field form.FieldDefinition, value any, present bool) form.ResponseValue {
	if field.Type == form.FieldTypeCheckbox {
		if !present {
			return []string{}
		}
		switch v := value.(type) {
		case []string:
			return append([]string(nil), v...)
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				out = append(out, fmt.Sprint(item))
			}
			return out
		default:
			return []string{}
		}
	}

	if !present || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
