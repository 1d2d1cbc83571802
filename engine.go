// Package iskolarforms is the dynamic custom-form engine behind scholarship
// applications: sponsors author a typed field list per scholarship, and the
// engine turns it into a runtime validator, a rendered input surface, and an
// ordered response payload that survives the round trip back to review.
package iskolarforms

import (
	"context"
	"log/slog"

	"github.com/LouieCads/iskolar-forms/pkg/fieldtype"
	"github.com/LouieCads/iskolar-forms/pkg/form"
	"github.com/LouieCads/iskolar-forms/pkg/render"
	htmlrenderer "github.com/LouieCads/iskolar-forms/pkg/renderers/html"
	"github.com/LouieCads/iskolar-forms/pkg/response"
	"github.com/LouieCads/iskolar-forms/pkg/validation"
)

// Core types re-exported for convenience so most callers only import the
// root package.
type (
	FieldDefinition = form.FieldDefinition
	FieldType       = form.FieldType
	FormDefinition  = form.FormDefinition
	FormResponse    = form.FormResponse
	ResponseEntry   = form.ResponseEntry
	DisplayEntry    = response.DisplayEntry
	Result          = validation.Result
)

// Normalize coerces a stored definition of any legacy shape into a
// FormDefinition. See form.Normalize for the precedence rules.
func Normalize(value any, logger *slog.Logger) FormDefinition {
	return form.Normalize(value, logger)
}

// Compile builds a runtime validator for a definition.
func Compile(def FormDefinition, options ...validation.Option) *validation.Validator {
	return validation.Compile(def, options...)
}

// Assemble converts validated field state into the canonical ordered
// response.
func Assemble(def FormDefinition, state map[string]any) FormResponse {
	return response.Assemble(def, state)
}

// Interpret maps a stored response back to display entries for review
// screens.
func Interpret(def FormDefinition, resp FormResponse) []DisplayEntry {
	return response.Interpret(def, resp)
}

// NewRendererRegistry returns a registry with the HTML renderer registered.
// Callers add the TUI renderer themselves when they have a terminal to drive.
func NewRendererRegistry() *render.Registry {
	registry := render.NewRegistry()
	registry.MustRegister(htmlrenderer.New())
	return registry
}

// RenderHTML normalizes a raw stored definition and renders it with the HTML
// renderer in one call, the common path for server handlers.
func RenderHTML(ctx context.Context, raw any, opts render.Options, logger *slog.Logger) ([]byte, error) {
	return htmlrenderer.New().Render(ctx, Normalize(raw, logger), opts)
}

// FieldTypes exposes the registered field types for authoring UIs.
func FieldTypes() []form.FieldType {
	return fieldtype.Default().Types()
}
