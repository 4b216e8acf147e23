package wizard

// FieldValues maps selectors to the values the runner should enter. It is
// built per execution by joining caller-supplied field_id keyed data
// against the wizard structure, handed to the engine, and discarded when
// the run ends. It is never persisted.
type FieldValues map[string]any

// ResolveValues joins user data (field_id -> value) against the wizard
// structure, producing the selector-keyed map the runner consumes. Field
// ids present in userData but absent from the structure are ignored, and
// an explicit JSON null counts as no value at all; whether a missing
// value is an error is decided later, per field, by the page runner
// (only required fields fail).
func ResolveValues(w *Wizard, userData map[string]any) FieldValues {
	values := make(FieldValues)
	for _, page := range w.Pages {
		for _, field := range page.Fields {
			if v, ok := userData[field.FieldID]; ok && v != nil {
				values[field.Selector] = v
			}
		}
	}
	return values
}

// UnmappedFields returns the field_ids in userData that do not correspond
// to any field in the structure. Useful for surfacing typos to the caller
// before an execution is attempted.
func UnmappedFields(w *Wizard, userData map[string]any) []string {
	var unmapped []string
	for fieldID := range userData {
		if w.FieldByID(fieldID) == nil {
			unmapped = append(unmapped, fieldID)
		}
	}
	return unmapped
}
