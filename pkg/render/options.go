package render

// Options carries per-request rendering state: where the form posts, values
// to prefill, and server-side validation errors to surface inline.
type Options struct {
	// Title is the heading shown above the fields, typically the
	// scholarship name.
	Title string

	// Action and Method describe the submission endpoint for renderers that
	// emit a self-contained form.
	Action string
	Method string

	// Values prefills inputs, keyed by field identity.
	Values map[string]any

	// Errors attaches validation messages to fields, keyed by field
	// identity.
	Errors map[string][]string

	// MaxInlineErrors bounds how many messages a renderer shows per field;
	// zero means renderer default.
	MaxInlineErrors int
}

// ValueFor returns the prefill value for a field identity.
func (o Options) ValueFor(id, label string) (any, bool) {
	if o.Values == nil {
		return nil, false
	}
	if v, ok := o.Values[id]; ok {
		return v, true
	}
	if label != "" && label != id {
		if v, ok := o.Values[label]; ok {
			return v, true
		}
	}
	return nil, false
}

// ErrorsFor returns the inline messages for a field identity.
func (o Options) ErrorsFor(id, label string) []string {
	if o.Errors == nil {
		return nil
	}
	if msgs, ok := o.Errors[id]; ok {
		return msgs
	}
	if label != "" && label != id {
		return o.Errors[label]
	}
	return nil
}
