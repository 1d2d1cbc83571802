package form

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Normalize coerces whatever shape a stored form definition arrives in into a
// FormDefinition. Older write paths persisted the definition as a native
// array, a JSON-encoded string, or an object wrapping the array under
// "fields"; every reader goes through this shim so downstream code only ever
// sees the canonical slice.
//
// Precedence, first match wins:
//  1. native sequence ([]FieldDefinition, []any, []map[string]any)
//  2. string containing a JSON array
//  3. keyed structure with a "fields" sequence
//  4. anything else: empty definition
//
// Normalize never returns nil and never fails; malformed input is logged and
// absorbed. The logger is optional.
func Normalize(value any, logger *slog.Logger) FormDefinition {
	if value == nil {
		return FormDefinition{}
	}

	switch v := value.(type) {
	case FormDefinition:
		return v
	case []FieldDefinition:
		return FormDefinition(v)
	case []any:
		return decodeSequence(v, logger)
	case []map[string]any:
		seq := make([]any, len(v))
		for i, item := range v {
			seq[i] = item
		}
		return decodeSequence(seq, logger)
	case string:
		return normalizeString(v, logger)
	case []byte:
		return normalizeString(string(v), logger)
	case map[string]any:
		if fields, ok := v["fields"]; ok {
			if seq, ok := fields.([]any); ok {
				return decodeSequence(seq, logger)
			}
			if def, ok := fields.(FormDefinition); ok {
				return def
			}
			if def, ok := fields.([]FieldDefinition); ok {
				return FormDefinition(def)
			}
		}
		logf(logger, "form definition object has no fields sequence")
		return FormDefinition{}
	default:
		logf(logger, "unrecognized form definition shape", "type", typeName(value))
		return FormDefinition{}
	}
}

func normalizeString(raw string, logger *slog.Logger) FormDefinition {
	if raw == "" {
		return FormDefinition{}
	}
	var def FormDefinition
	if err := json.Unmarshal([]byte(raw), &def); err != nil {
		logf(logger, "form definition string is not a JSON array", "error", err)
		return FormDefinition{}
	}
	return def
}

// decodeSequence re-encodes the loosely typed sequence through JSON to pick
// up field tags. Items that do not decode into a FieldDefinition drop out of
// the result rather than aborting the whole definition.
func decodeSequence(seq []any, logger *slog.Logger) FormDefinition {
	def := make(FormDefinition, 0, len(seq))
	for i, item := range seq {
		if field, ok := item.(FieldDefinition); ok {
			def = append(def, field)
			continue
		}
		raw, err := json.Marshal(item)
		if err != nil {
			logf(logger, "skipping unencodable definition entry", "index", i, "error", err)
			continue
		}
		var field FieldDefinition
		if err := json.Unmarshal(raw, &field); err != nil {
			logf(logger, "skipping malformed definition entry", "index", i, "error", err)
			continue
		}
		def = append(def, field)
	}
	return def
}

func logf(logger *slog.Logger, msg string, args ...any) {
	if logger == nil {
		return
	}
	logger.Warn(msg, args...)
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
