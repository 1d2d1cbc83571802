package form

import (
	"github.com/google/uuid"
)

// FieldType is the enum of input kinds a sponsor can put on an application
// form.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeDropdown FieldType = "dropdown"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeEmail    FieldType = "email"
	FieldTypePhone    FieldType = "phone"
	FieldTypeFile     FieldType = "file"
)

// FieldDefinition describes one input on a sponsor-authored application form.
// Key is a stable synthetic identifier assigned when the field is first
// created; Label is the sponsor-facing name. Validators, stored responses and
// upload patching all key on Key so a sponsor renaming a field does not orphan
// existing answers. Definitions written before keys existed carry an empty
// Key and fall back to Label identity.
type FieldDefinition struct {
	Key      string    `json:"key,omitempty"`
	Type     FieldType `json:"type"`
	Label    string    `json:"label"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
}

// Identity returns the value downstream components key this field by: the
// synthetic Key when present, otherwise the legacy Label.
func (f FieldDefinition) Identity() string {
	if f.Key != "" {
		return f.Key
	}
	return f.Label
}

// NewField constructs a FieldDefinition with a generated key.
func NewField(t FieldType, label string, required bool, options ...string) FieldDefinition {
	return FieldDefinition{
		Key:      uuid.NewString(),
		Type:     t,
		Label:    label,
		Required: required,
		Options:  options,
	}
}

// FormDefinition is the ordered list of fields attached to one scholarship.
// Field order is authoring order and is preserved through validation,
// rendering and response assembly.
type FormDefinition []FieldDefinition

// EnsureKeys returns a copy of the definition where every field has a
// synthetic key, generating one for fields that predate key assignment.
func (d FormDefinition) EnsureKeys() FormDefinition {
	out := make(FormDefinition, len(d))
	for i, field := range d {
		if field.Key == "" {
			field.Key = uuid.NewString()
		}
		out[i] = field
	}
	return out
}

// FieldByIdentity finds a field by its Key, falling back to Label for legacy
// definitions.
func (d FormDefinition) FieldByIdentity(id string) (FieldDefinition, bool) {
	for _, field := range d {
		if field.Key == id || field.Label == id {
			return field, true
		}
	}
	return FieldDefinition{}, false
}

// ResponseValue is the value stored for one answered field: a string, a
// []string (checkbox selections or uploaded file URLs), or nil for a file
// field whose upload has not completed.
type ResponseValue any

// ResponseEntry pairs a field with its submitted value. Entries keep the
// label captured at submission time so responses stay readable even if the
// owning definition is later edited.
type ResponseEntry struct {
	Key   string        `json:"key,omitempty"`
	Label string        `json:"label"`
	Value ResponseValue `json:"value"`
}

// FormResponse is an applicant's answers in definition order. Order is set by
// the FormDefinition at assembly time, not by the order the applicant filled
// the form in.
type FormResponse []ResponseEntry

// Entry returns a pointer to the entry matching the given field identity
// (Key, then legacy Label), or nil.
func (r FormResponse) Entry(id string) *ResponseEntry {
	for i := range r {
		if r[i].Key == id || r[i].Label == id {
			return &r[i]
		}
	}
	return nil
}
