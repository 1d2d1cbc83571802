package form_test

import (
	"strings"
	"testing"

	"github.com/LouieCads/iskolar-forms/pkg/form"
)

func TestValidateAcceptsWellFormedDefinition(t *testing.T) {
	def := sampleDefinition()
	if err := def.Validate(); err != nil {
		t.Fatalf("expected valid definition, got %v", err)
	}
}

func TestValidateRejectsChoiceFieldWithoutOptions(t *testing.T) {
	for _, fieldType := range []form.FieldType{form.FieldTypeDropdown, form.FieldTypeCheckbox} {
		t.Run(string(fieldType), func(t *testing.T) {
			def := form.FormDefinition{
				{Type: fieldType, Label: "Pick", Required: true},
			}
			err := def.Validate()
			if err == nil {
				t.Fatal("expected options error")
			}
			if !strings.Contains(err.Error(), "at least one option") {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateRejectsDuplicateLabels(t *testing.T) {
	def := form.FormDefinition{
		{Key: "a", Type: form.FieldTypeText, Label: "Name"},
		{Key: "b", Type: form.FieldTypeText, Label: "Name"},
	}
	err := def.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate label") {
		t.Fatalf("expected duplicate label error, got %v", err)
	}
}

func TestValidateRejectsOptionsOnScalarField(t *testing.T) {
	def := form.FormDefinition{
		{Type: form.FieldTypeText, Label: "Name", Options: []string{"A"}},
	}
	err := def.Validate()
	if err == nil || !strings.Contains(err.Error(), "only valid on dropdown") {
		t.Fatalf("expected misplaced options error, got %v", err)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	def := form.FormDefinition{
		{Type: form.FieldTypeText, Label: ""},
		{Type: form.FieldTypeDropdown, Label: "Pick"},
	}
	err := def.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "label is required") || !strings.Contains(msg, "at least one option") {
		t.Fatalf("expected both problems reported, got %v", err)
	}
}

func TestEnsureKeysGeneratesMissingKeysOnly(t *testing.T) {
	def := form.FormDefinition{
		{Key: "keep-me", Type: form.FieldTypeText, Label: "Name"},
		{Type: form.FieldTypeText, Label: "Email"},
	}

	keyed := def.EnsureKeys()
	if keyed[0].Key != "keep-me" {
		t.Fatalf("existing key replaced: %q", keyed[0].Key)
	}
	if keyed[1].Key == "" {
		t.Fatal("missing key not generated")
	}
	if def[1].Key != "" {
		t.Fatal("EnsureKeys mutated its receiver")
	}
}

func TestFieldByIdentityFallsBackToLabel(t *testing.T) {
	def := sampleDefinition()

	if _, ok := def.FieldByIdentity("k-year"); !ok {
		t.Fatal("lookup by key failed")
	}
	if _, ok := def.FieldByIdentity("Transcript"); !ok {
		t.Fatal("lookup by label failed")
	}
	if _, ok := def.FieldByIdentity("nope"); ok {
		t.Fatal("lookup of unknown identity succeeded")
	}
}
