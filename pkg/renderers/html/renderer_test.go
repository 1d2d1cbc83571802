package html_test

import (
	"context"
	"strings"
	"testing"

	"github.com/LouieCads/iskolar-forms/pkg/form"
	"github.com/LouieCads/iskolar-forms/pkg/render"
	htmlrenderer "github.com/LouieCads/iskolar-forms/pkg/renderers/html"
)

func renderString(t *testing.T, def form.FormDefinition, opts render.Options) string {
	t.Helper()
	out, err := htmlrenderer.New().Render(context.Background(), def, opts)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	return string(out)
}

func TestRenderControlsPerType(t *testing.T) {
	def := form.FormDefinition{
		{Key: "k-name", Type: form.FieldTypeText, Label: "Full Name", Required: true},
		{Key: "k-essay", Type: form.FieldTypeTextarea, Label: "Essay"},
		{Key: "k-year", Type: form.FieldTypeDropdown, Label: "Year", Options: []string{"1st", "2nd"}},
		{Key: "k-orgs", Type: form.FieldTypeCheckbox, Label: "Orgs", Options: []string{"A"}},
		{Key: "k-email", Type: form.FieldTypeEmail, Label: "Email"},
		{Key: "k-tor", Type: form.FieldTypeFile, Label: "Transcript"},
	}

	out := renderString(t, def, render.Options{Title: "STEM Grant"})

	for _, want := range []string{
		`<h2 class="custom-form-title">STEM Grant</h2>`,
		`<input type="text" name="k-name" id="k-name" required>`,
		`<textarea name="k-essay" id="k-essay" rows="4">`,
		`<select name="k-year" id="k-year">`,
		`<option value="2nd">2nd</option>`,
		`<fieldset class="checkbox-group">`,
		`<input type="email" name="k-email"`,
		`<input type="file" name="k-tor" id="k-tor" multiple data-deferred-upload="true">`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	// Field blocks appear in definition order.
	if strings.Index(out, "k-name") > strings.Index(out, "k-essay") {
		t.Fatal("fields rendered out of definition order")
	}
}

func TestRenderSanitizesSponsorText(t *testing.T) {
	def := form.FormDefinition{
		{Key: "k-x", Type: form.FieldTypeText, Label: `<script>alert(1)</script>Name`},
	}

	out := renderString(t, def, render.Options{})
	if strings.Contains(out, "<script>") {
		t.Fatal("script tag survived sanitization")
	}
	if !strings.Contains(out, "Name") {
		t.Fatal("label text lost during sanitization")
	}
}

func TestRenderEmptyOptionsIsVisibleError(t *testing.T) {
	def := form.FormDefinition{
		{Key: "k-pick", Type: form.FieldTypeDropdown, Label: "Pick", Required: true},
	}

	out := renderString(t, def, render.Options{})
	if !strings.Contains(out, "misconfigured") {
		t.Fatalf("expected definition-integrity error block:\n%s", out)
	}
	if strings.Contains(out, "<select") {
		t.Fatal("empty select should not render")
	}
}

func TestRenderPrefillAndInlineErrors(t *testing.T) {
	def := form.FormDefinition{
		{Key: "k-year", Type: form.FieldTypeDropdown, Label: "Year", Options: []string{"1st", "2nd"}},
		{Key: "k-orgs", Type: form.FieldTypeCheckbox, Label: "Orgs", Options: []string{"A", "B"}},
	}
	opts := render.Options{
		Values: map[string]any{
			"k-year": "2nd",
			"k-orgs": []string{"B"},
		},
		Errors: map[string][]string{
			"k-year": {"Year is required"},
		},
	}

	out := renderString(t, def, opts)
	if !strings.Contains(out, `<option value="2nd" selected>`) {
		t.Fatal("dropdown prefill missing")
	}
	if !strings.Contains(out, `value="B" checked>`) {
		t.Fatal("checkbox prefill missing")
	}
	if !strings.Contains(out, `<p class="field-error" role="alert">Year is required</p>`) {
		t.Fatal("inline error missing")
	}
}

func TestRenderBoundsInlineErrors(t *testing.T) {
	def := form.FormDefinition{
		{Key: "k-x", Type: form.FieldTypeText, Label: "X"},
	}
	opts := render.Options{
		MaxInlineErrors: 1,
		Errors: map[string][]string{
			"k-x": {"first", "second", "third"},
		},
	}

	out := renderString(t, def, opts)
	if !strings.Contains(out, ">first<") {
		t.Fatal("first error missing")
	}
	if strings.Contains(out, ">second<") {
		t.Fatal("errors not bounded")
	}
	if !strings.Contains(out, "and 2 more") {
		t.Fatal("overflow summary missing")
	}
}
