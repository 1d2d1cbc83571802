package response

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/LouieCads/iskolar-forms/pkg/form"
)

// EntryKind classifies how a stored value should be presented.
type EntryKind string

const (
	KindScalar EntryKind = "scalar"
	KindList   EntryKind = "list"
	KindFiles  EntryKind = "files"
)

// FileRef is one uploaded file reference with a human-readable name.
type FileRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// DisplayEntry is the review-screen model for one answered field.
type DisplayEntry struct {
	Key     string    `json:"key,omitempty"`
	Label   string    `json:"label"`
	Kind    EntryKind `json:"kind"`
	Display string    `json:"display"`
	Files   []FileRef `json:"files,omitempty"`
}

// missingValue is shown for nil entries: unanswered optional fields and file
// fields whose upload never completed.
const missingValue = "N/A"

// Interpret maps a stored response back to display entries, in stored order.
// The definition refreshes labels for entries that still match a live field;
// entries for fields that no longer exist keep their captured label. Arrays
// whose first element looks like a URL are treated as uploaded file lists.
func Interpret(def form.FormDefinition, resp form.FormResponse) []DisplayEntry {
	out := make([]DisplayEntry, 0, len(resp))
	for _, entry := range resp {
		display := DisplayEntry{Key: entry.Key, Label: entry.Label}
		if field, ok := def.FieldByIdentity(entryIdentity(entry)); ok && field.Label != "" {
			display.Label = field.Label
		}

		switch value := entry.Value.(type) {
		case nil:
			display.Kind = KindScalar
			display.Display = missingValue
		case string:
			display.Kind = KindScalar
			if value == "" {
				display.Display = missingValue
			} else {
				display.Display = value
			}
		case []string:
			fillListEntry(&display, value)
		case []any:
			items := make([]string, 0, len(value))
			for _, item := range value {
				items = append(items, fmt.Sprint(item))
			}
			fillListEntry(&display, items)
		default:
			display.Kind = KindScalar
			display.Display = fmt.Sprint(value)
		}
		out = append(out, display)
	}
	return out
}

func fillListEntry(display *DisplayEntry, items []string) {
	if len(items) > 0 && strings.HasPrefix(items[0], "http") {
		display.Kind = KindFiles
		display.Files = make([]FileRef, 0, len(items))
		for i, ref := range items {
			display.Files = append(display.Files, FileRef{
				Name: fileDisplayName(ref, i),
				URL:  ref,
			})
		}
		display.Display = fmt.Sprintf("%d file(s)", len(items))
		return
	}

	display.Kind = KindList
	if len(items) == 0 {
		display.Display = missingValue
		return
	}
	display.Display = strings.Join(items, ", ")
}

// fileDisplayName derives a name from the URL's trailing path segment,
// falling back to a positional "File N" when the URL does not yield one.
func fileDisplayName(ref string, index int) string {
	fallback := fmt.Sprintf("File %d", index+1)
	parsed, err := url.Parse(ref)
	if err != nil {
		return fallback
	}
	segment := parsed.Path
	if i := strings.LastIndex(segment, "/"); i >= 0 {
		segment = segment[i+1:]
	}
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return fallback
	}
	if unescaped, err := url.PathUnescape(segment); err == nil && unescaped != "" {
		segment = unescaped
	}
	return segment
}

func entryIdentity(entry form.ResponseEntry) string {
	if entry.Key != "" {
		return entry.Key
	}
	return entry.Label
}
