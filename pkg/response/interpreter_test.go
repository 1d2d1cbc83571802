package response_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/LouieCads/iskolar-forms/pkg/form"
	"github.com/LouieCads/iskolar-forms/pkg/response"
)

func TestInterpretScalarListAndMissing(t *testing.T) {
	def := applicationDefinition()
	resp := form.FormResponse{
		{Key: "k-name", Label: "Full Name", Value: "Juan Dela Cruz"},
		{Key: "k-year", Label: "Year", Value: ""},
		{Key: "k-orgs", Label: "Organizations", Value: []string{"Math Club", "Debate"}},
		{Key: "k-tor", Label: "Transcript", Value: nil},
	}

	got := response.Interpret(def, resp)
	want := []response.DisplayEntry{
		{Key: "k-name", Label: "Full Name", Kind: response.KindScalar, Display: "Juan Dela Cruz"},
		{Key: "k-year", Label: "Year", Kind: response.KindScalar, Display: "N/A"},
		{Key: "k-orgs", Label: "Organizations", Kind: response.KindList, Display: "Math Club, Debate"},
		{Key: "k-tor", Label: "Transcript", Kind: response.KindScalar, Display: "N/A"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("display entries mismatch (-want +got):\n%s", diff)
	}
}

func TestInterpretFileReferences(t *testing.T) {
	resp := form.FormResponse{
		{Key: "k-tor", Label: "Transcript", Value: []string{
			"https://cdn.iskolar.ph/apps/123/transcript.pdf",
			"https://cdn.iskolar.ph/apps/123/",
		}},
	}

	got := response.Interpret(nil, resp)
	if len(got) != 1 || got[0].Kind != response.KindFiles {
		t.Fatalf("expected a files entry, got %+v", got)
	}
	files := got[0].Files
	if len(files) != 2 {
		t.Fatalf("expected two file refs, got %d", len(files))
	}
	if files[0].Name != "transcript.pdf" {
		t.Fatalf("trailing segment name expected, got %q", files[0].Name)
	}
	if files[1].Name != "File 2" {
		t.Fatalf("positional fallback expected, got %q", files[1].Name)
	}
}

func TestInterpretRefreshesLabelFromDefinition(t *testing.T) {
	def := form.FormDefinition{
		{Key: "k-name", Type: form.FieldTypeText, Label: "Complete Name"},
	}
	resp := form.FormResponse{
		{Key: "k-name", Label: "Full Name", Value: "Juan"},
	}

	got := response.Interpret(def, resp)
	if got[0].Label != "Complete Name" {
		t.Fatalf("expected refreshed label, got %q", got[0].Label)
	}
}

func TestInterpretDecodedJSONValues(t *testing.T) {
	// Values read back from storage decode as []any rather than []string.
	resp := form.FormResponse{
		{Label: "Organizations", Value: []any{"Math Club", "Debate"}},
		{Label: "Transcript", Value: []any{"https://cdn.iskolar.ph/t.pdf"}},
	}

	got := response.Interpret(nil, resp)
	if got[0].Kind != response.KindList || got[0].Display != "Math Club, Debate" {
		t.Fatalf("decoded list mishandled: %+v", got[0])
	}
	if got[1].Kind != response.KindFiles {
		t.Fatalf("decoded file list mishandled: %+v", got[1])
	}
}
