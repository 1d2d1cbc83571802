// Package fieldtype is the single site that knows the closed set of form
// field types. The schema compiler, the renderers and the response
// interpreter all consult the same registry, so adding a field type is one
// registration instead of three parallel switch edits.
package fieldtype

import (
	"sort"
	"sync"

	"github.com/LouieCads/iskolar-forms/pkg/form"
)

// Control tags name the input behaviour a renderer should use for a field.
const (
	ControlInput         = "input"
	ControlTextarea      = "textarea"
	ControlSelect        = "select"
	ControlCheckboxGroup = "checkbox-group"
	ControlFile          = "file"
)

// Rule kinds name the validation behaviour the schema compiler attaches.
const (
	RuleText     = "text"
	RuleEmail    = "email"
	RulePhone    = "phone"
	RuleNumber   = "number"
	RuleDate     = "date"
	RuleDropdown = "dropdown"
	RuleCheckbox = "checkbox"
	RuleFile     = "file"
)

// Descriptor carries everything type-specific the engine needs for one field
// type.
type Descriptor struct {
	Type        form.FieldType
	DisplayName string
	Icon        string
	Control     string
	RuleKind    string
	HasOptions  bool
	InputMode   string // HTML inputmode / input type hint for scalar controls
}

// Registry maps field types to descriptors. The zero value is unusable; call
// NewRegistry, which seeds the built-in types.
type Registry struct {
	mu    sync.RWMutex
	types map[form.FieldType]Descriptor
}

// NewRegistry constructs a registry with the built-in field types registered.
func NewRegistry() *Registry {
	r := &Registry{types: make(map[form.FieldType]Descriptor)}
	r.registerBuiltins()
	return r
}

// Register adds or replaces a descriptor. Descriptors with an empty Type are
// ignored.
func (r *Registry) Register(desc Descriptor) {
	if r == nil || desc.Type == "" {
		return
	}
	if desc.Control == "" {
		desc.Control = ControlInput
	}
	if desc.RuleKind == "" {
		desc.RuleKind = RuleText
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[desc.Type] = desc
}

// Lookup returns the descriptor for a field type. Unrecognized types fall
// back to the text descriptor so compilation and rendering never fail on a
// definition written by a newer authoring client.
func (r *Registry) Lookup(t form.FieldType) Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if desc, ok := r.types[t]; ok {
		return desc
	}
	fallback := r.types[form.FieldTypeText]
	fallback.Type = t
	return fallback
}

// Known reports whether the type is registered.
func (r *Registry) Known(t form.FieldType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[t]
	return ok
}

// Types returns the registered field types sorted by name, for authoring UIs
// that present a type picker.
func (r *Registry) Types() []form.FieldType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]form.FieldType, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var defaultRegistry = NewRegistry()

// Default returns the shared registry seeded with the built-in types.
func Default() *Registry {
	return defaultRegistry
}

func (r *Registry) registerBuiltins() {
	builtins := []Descriptor{
		{Type: form.FieldTypeText, DisplayName: "Short Answer", Icon: "text-cursor", Control: ControlInput, RuleKind: RuleText, InputMode: "text"},
		{Type: form.FieldTypeTextarea, DisplayName: "Paragraph", Icon: "align-left", Control: ControlTextarea, RuleKind: RuleText},
		{Type: form.FieldTypeDropdown, DisplayName: "Dropdown", Icon: "chevron-down", Control: ControlSelect, RuleKind: RuleDropdown, HasOptions: true},
		{Type: form.FieldTypeCheckbox, DisplayName: "Checkboxes", Icon: "check-square", Control: ControlCheckboxGroup, RuleKind: RuleCheckbox, HasOptions: true},
		{Type: form.FieldTypeNumber, DisplayName: "Number", Icon: "hash", Control: ControlInput, RuleKind: RuleNumber, InputMode: "numeric"},
		{Type: form.FieldTypeDate, DisplayName: "Date", Icon: "calendar", Control: ControlInput, RuleKind: RuleDate, InputMode: "date"},
		{Type: form.FieldTypeEmail, DisplayName: "Email", Icon: "mail", Control: ControlInput, RuleKind: RuleEmail, InputMode: "email"},
		{Type: form.FieldTypePhone, DisplayName: "Phone", Icon: "phone", Control: ControlInput, RuleKind: RulePhone, InputMode: "tel"},
		{Type: form.FieldTypeFile, DisplayName: "File Upload", Icon: "paperclip", Control: ControlFile, RuleKind: RuleFile},
	}
	for _, desc := range builtins {
		r.types[desc.Type] = desc
	}
}
