// Package tui renders a form definition as an interactive terminal session
// and returns the collected answers as JSON. It backs the formcli preview
// command so sponsors can walk through a definition as an applicant would.
package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/LouieCads/iskolar-forms/pkg/fieldtype"
	"github.com/LouieCads/iskolar-forms/pkg/form"
	"github.com/LouieCads/iskolar-forms/pkg/render"
	"github.com/LouieCads/iskolar-forms/pkg/validation"
)

// Renderer implements render.Renderer over a PromptDriver.
type Renderer struct {
	driver   PromptDriver
	registry *fieldtype.Registry
}

// Option configures the renderer.
type Option func(*Renderer)

// WithDriver swaps the prompt implementation, primarily for tests.
func WithDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithRegistry renders against a custom field-type registry.
func WithRegistry(registry *fieldtype.Registry) Option {
	return func(r *Renderer) {
		if registry != nil {
			r.registry = registry
		}
	}
}

// New constructs a TUI renderer with the survey-backed driver.
func New(options ...Option) *Renderer {
	r := &Renderer{
		driver:   newSurveyDriver(),
		registry: fieldtype.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string { return "tui" }

// ContentType reports the serialization of the collected answers.
func (r *Renderer) ContentType() string { return "application/json" }

// Render walks the definition prompting per field and returns the collected
// state as a JSON object keyed by field identity. Scalar answers are checked
// against the compiled schema rule as they are typed; choice prompts cannot
// produce invalid values. File fields only collect local paths, mirroring
// the deferred-upload model.
func (r *Renderer) Render(ctx context.Context, def form.FormDefinition, opts render.Options) ([]byte, error) {
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is required")
	}

	state := make(map[string]any, len(def))
	for _, field := range def {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		value, err := r.promptField(ctx, field, opts)
		if err != nil {
			return nil, err
		}
		if value != nil {
			state[field.Identity()] = value
		}
	}
	return json.MarshalIndent(state, "", "  ")
}

func (r *Renderer) promptField(ctx context.Context, field form.FieldDefinition, opts render.Options) (any, error) {
	desc := r.registry.Lookup(field.Type)
	message := field.Label
	if field.Required {
		message += " (required)"
	}

	switch desc.Control {
	case fieldtype.ControlSelect:
		if len(field.Options) == 0 {
			return nil, fmt.Errorf("tui: dropdown %q has no options", field.Label)
		}
		return r.driver.Select(ctx, SelectConfig{Message: message, Options: field.Options})

	case fieldtype.ControlCheckboxGroup:
		if len(field.Options) == 0 {
			return nil, fmt.Errorf("tui: checkbox %q has no options", field.Label)
		}
		selections, err := r.driver.MultiSelect(ctx, SelectConfig{Message: message, Options: field.Options})
		if err != nil {
			return nil, err
		}
		if field.Required && len(selections) == 0 {
			return nil, fmt.Errorf("tui: %s requires at least one selection", field.Label)
		}
		return selections, nil

	case fieldtype.ControlTextarea:
		return r.driver.Multiline(ctx, InputConfig{
			Message:   message,
			Default:   defaultString(opts, field),
			Validator: r.inlineValidator(field, desc),
		})

	case fieldtype.ControlFile:
		// Preview sessions collect a local path; nothing is uploaded.
		path, err := r.driver.Input(ctx, InputConfig{
			Message: message + " (local file path)",
			Help:    "Files upload after the application is submitted.",
		})
		if err != nil {
			return nil, err
		}
		if path == "" {
			return nil, nil
		}
		return []string{path}, nil

	default:
		return r.driver.Input(ctx, InputConfig{
			Message:   message,
			Default:   defaultString(opts, field),
			Validator: r.inlineValidator(field, desc),
		})
	}
}

// inlineValidator adapts the field's compiled rule into a prompt validator so
// a typo is caught before the session moves on.
func (r *Renderer) inlineValidator(field form.FieldDefinition, desc fieldtype.Descriptor) func(string) error {
	single := validation.Compile(form.FormDefinition{field}, validation.WithRegistry(r.registry))
	return func(answer string) error {
		result := single.Validate(map[string]any{field.Identity(): answer})
		if result.Valid() {
			return nil
		}
		return errors.New(result.Errors[0].Message)
	}
}

func defaultString(opts render.Options, field form.FieldDefinition) string {
	value, ok := opts.ValueFor(field.Identity(), field.Label)
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
