// Package html renders a form definition as a self-contained HTML fragment.
// Sponsor-authored text (labels, options, titles) is sanitized before it
// reaches the markup; everything else is escaped.
package html

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/LouieCads/iskolar-forms/pkg/fieldtype"
	"github.com/LouieCads/iskolar-forms/pkg/form"
	"github.com/LouieCads/iskolar-forms/pkg/render"
)

const defaultMaxInlineErrors = 3

// Renderer implements render.Renderer for HTML output.
type Renderer struct {
	registry *fieldtype.Registry
	policy   *bluemonday.Policy
}

// Option configures the renderer.
type Option func(*Renderer)

// WithRegistry renders against a custom field-type registry.
func WithRegistry(registry *fieldtype.Registry) Option {
	return func(r *Renderer) {
		if registry != nil {
			r.registry = registry
		}
	}
}

// New constructs an HTML renderer. Sponsor text passes through a strict
// bluemonday policy, so any markup a sponsor types into a label is stripped
// rather than shipped to applicants.
func New(options ...Option) *Renderer {
	r := &Renderer{
		registry: fieldtype.Default(),
		policy:   bluemonday.StrictPolicy(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string { return "html" }

// ContentType reports the MIME type of Render output.
func (r *Renderer) ContentType() string { return "text/html; charset=utf-8" }

// Render emits one <form> with one block per field, in definition order.
func (r *Renderer) Render(ctx context.Context, def form.FormDefinition, opts render.Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var b strings.Builder
	method := opts.Method
	if method == "" {
		method = "POST"
	}

	b.WriteString(`<form class="custom-form" method="`)
	b.WriteString(html.EscapeString(method))
	b.WriteString(`"`)
	if opts.Action != "" {
		b.WriteString(` action="`)
		b.WriteString(html.EscapeString(opts.Action))
		b.WriteString(`"`)
	}
	b.WriteString(">\n")

	if opts.Title != "" {
		b.WriteString(`  <h2 class="custom-form-title">`)
		b.WriteString(r.sanitize(opts.Title))
		b.WriteString("</h2>\n")
	}

	for _, field := range def {
		if err := r.renderField(&b, field, opts); err != nil {
			return nil, err
		}
	}

	b.WriteString("  <button type=\"submit\">Submit Application</button>\n</form>\n")
	return []byte(b.String()), nil
}

func (r *Renderer) renderField(b *strings.Builder, field form.FieldDefinition, opts render.Options) error {
	desc := r.registry.Lookup(field.Type)
	id := field.Identity()

	b.WriteString(`  <div class="form-field" data-type="`)
	b.WriteString(html.EscapeString(string(field.Type)))
	b.WriteString("\">\n    <label for=\"")
	b.WriteString(html.EscapeString(id))
	b.WriteString(`">`)
	b.WriteString(r.sanitize(field.Label))
	if field.Required {
		b.WriteString(`<span class="required" aria-hidden="true">*</span>`)
	}
	b.WriteString("</label>\n")

	if desc.HasOptions && len(field.Options) == 0 {
		// A choice field with no options is a broken definition; make that
		// visible instead of rendering an empty control.
		b.WriteString("    <p class=\"field-error\" role=\"alert\">This question is misconfigured: it has no options.</p>\n  </div>\n")
		return nil
	}

	switch desc.Control {
	case fieldtype.ControlTextarea:
		r.renderTextarea(b, field, id, opts)
	case fieldtype.ControlSelect:
		r.renderSelect(b, field, id, opts)
	case fieldtype.ControlCheckboxGroup:
		r.renderCheckboxGroup(b, field, id, opts)
	case fieldtype.ControlFile:
		r.renderFileInput(b, field, id)
	case fieldtype.ControlInput:
		r.renderInput(b, field, id, desc, opts)
	default:
		return fmt.Errorf("html: no control for field type %q", field.Type)
	}

	r.renderInlineErrors(b, id, field.Label, opts)
	b.WriteString("  </div>\n")
	return nil
}

func (r *Renderer) renderInput(b *strings.Builder, field form.FieldDefinition, id string, desc fieldtype.Descriptor, opts render.Options) {
	inputType := desc.InputMode
	if inputType == "" || inputType == "numeric" {
		inputType = "text"
	}
	b.WriteString(`    <input type="`)
	b.WriteString(html.EscapeString(inputType))
	b.WriteString(`" name="`)
	b.WriteString(html.EscapeString(id))
	b.WriteString(`" id="`)
	b.WriteString(html.EscapeString(id))
	b.WriteString(`"`)
	if desc.InputMode == "numeric" {
		b.WriteString(` inputmode="numeric"`)
	}
	if value, ok := opts.ValueFor(id, field.Label); ok {
		b.WriteString(` value="`)
		b.WriteString(html.EscapeString(fmt.Sprint(value)))
		b.WriteString(`"`)
	}
	if field.Required {
		b.WriteString(" required")
	}
	b.WriteString(">\n")
}

func (r *Renderer) renderTextarea(b *strings.Builder, field form.FieldDefinition, id string, opts render.Options) {
	b.WriteString(`    <textarea name="`)
	b.WriteString(html.EscapeString(id))
	b.WriteString(`" id="`)
	b.WriteString(html.EscapeString(id))
	b.WriteString(`" rows="4"`)
	if field.Required {
		b.WriteString(" required")
	}
	b.WriteString(">")
	if value, ok := opts.ValueFor(id, field.Label); ok {
		b.WriteString(html.EscapeString(fmt.Sprint(value)))
	}
	b.WriteString("</textarea>\n")
}

func (r *Renderer) renderSelect(b *strings.Builder, field form.FieldDefinition, id string, opts render.Options) {
	selected, _ := opts.ValueFor(id, field.Label)

	b.WriteString(`    <select name="`)
	b.WriteString(html.EscapeString(id))
	b.WriteString(`" id="`)
	b.WriteString(html.EscapeString(id))
	b.WriteString(`"`)
	if field.Required {
		b.WriteString(" required")
	}
	b.WriteString(">\n      <option value=\"\">Select an option</option>\n")
	for _, option := range field.Options {
		b.WriteString(`      <option value="`)
		b.WriteString(html.EscapeString(option))
		b.WriteString(`"`)
		if s, ok := selected.(string); ok && s == option {
			b.WriteString(" selected")
		}
		b.WriteString(">")
		b.WriteString(r.sanitize(option))
		b.WriteString("</option>\n")
	}
	b.WriteString("    </select>\n")
}

func (r *Renderer) renderCheckboxGroup(b *strings.Builder, field form.FieldDefinition, id string, opts render.Options) {
	checked := checkedSet(opts, id, field.Label)

	b.WriteString("    <fieldset class=\"checkbox-group\">\n")
	for i, option := range field.Options {
		optionID := fmt.Sprintf("%s-%d", id, i)
		b.WriteString(`      <input type="checkbox" name="`)
		b.WriteString(html.EscapeString(id))
		b.WriteString(`" id="`)
		b.WriteString(html.EscapeString(optionID))
		b.WriteString(`" value="`)
		b.WriteString(html.EscapeString(option))
		b.WriteString(`"`)
		if checked[option] {
			b.WriteString(" checked")
		}
		b.WriteString(`><label for="`)
		b.WriteString(html.EscapeString(optionID))
		b.WriteString(`">`)
		b.WriteString(r.sanitize(option))
		b.WriteString("</label>\n")
	}
	b.WriteString("    </fieldset>\n")
}

func (r *Renderer) renderFileInput(b *strings.Builder, field form.FieldDefinition, id string) {
	// Files never post with the form body; the client collects them locally
	// and uploads after the response row is accepted.
	b.WriteString(`    <input type="file" name="`)
	b.WriteString(html.EscapeString(id))
	b.WriteString(`" id="`)
	b.WriteString(html.EscapeString(id))
	b.WriteString(`" multiple data-deferred-upload="true">` + "\n")
}

func (r *Renderer) renderInlineErrors(b *strings.Builder, id, label string, opts render.Options) {
	msgs := opts.ErrorsFor(id, label)
	if len(msgs) == 0 {
		return
	}
	max := opts.MaxInlineErrors
	if max <= 0 {
		max = defaultMaxInlineErrors
	}
	shown := len(msgs)
	if shown > max {
		shown = max
	}
	for _, msg := range msgs[:shown] {
		b.WriteString(`    <p class="field-error" role="alert">`)
		b.WriteString(html.EscapeString(msg))
		b.WriteString("</p>\n")
	}
	if rest := len(msgs) - shown; rest > 0 {
		b.WriteString(fmt.Sprintf("    <p class=\"field-error-more\">and %d more</p>\n", rest))
	}
}

func (r *Renderer) sanitize(s string) string {
	return html.EscapeString(r.policy.Sanitize(s))
}

func checkedSet(opts render.Options, id, label string) map[string]bool {
	value, ok := opts.ValueFor(id, label)
	if !ok {
		return nil
	}
	out := make(map[string]bool)
	switch v := value.(type) {
	case []string:
		for _, s := range v {
			out[s] = true
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out[s] = true
			}
		}
	}
	return out
}
