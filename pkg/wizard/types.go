// Package wizard defines the structure model for discovered multi-page
// form wizards. Structures are produced once by the discovery agent,
// written to disk as JSON, and loaded read-only per execution; nothing in
// this package mutates a structure after it has been decoded.
package wizard

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// SelectorType identifies how a selector string locates an element.
type SelectorType string

const (
	SelectorText SelectorType = "text"
	SelectorID   SelectorType = "id"
	SelectorCSS  SelectorType = "css"
	// SelectorAuto appears in older structure files; execution treats it as CSS.
	SelectorAuto SelectorType = "auto"
)

// FieldType classifies a form field.
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldNumber    FieldType = "number"
	FieldRadio     FieldType = "radio"
	FieldSelect    FieldType = "select"
	FieldTypeahead FieldType = "typeahead"
	FieldCheckbox  FieldType = "checkbox"
	FieldGroup     FieldType = "group"
	FieldTextarea  FieldType = "textarea"
	FieldSearch    FieldType = "search"
)

// Interaction is the method used to manipulate a field element.
// The set is closed: the runner dispatches on it exhaustively, so adding
// a new kind is a compile-visible change there.
type Interaction string

const (
	InteractFill            Interaction = "fill"
	InteractClick           Interaction = "click"
	InteractSelect          Interaction = "select"
	InteractJavaScriptClick Interaction = "javascript_click"
	InteractFillEnter       Interaction = "fill_enter"
)

// SubField is one component of a grouped field (for example a single
// input inside a repeatable "add a loan" entry form).
type SubField struct {
	FieldID      string      `json:"field_id"`
	Selector     string      `json:"selector"`
	FieldType    FieldType   `json:"field_type"`
	Interaction  Interaction `json:"interaction"`
	ExampleValue string      `json:"example_value,omitempty"`
	Notes        string      `json:"notes,omitempty"`
}

// Field describes a single form field on a wizard page.
type Field struct {
	Label                string      `json:"label,omitempty"`
	FieldID              string      `json:"field_id"`
	Selector             string      `json:"selector"`
	SelectorAlternatives []string    `json:"selector_alternatives,omitempty"`
	FieldType            FieldType   `json:"field_type"`
	Interaction          Interaction `json:"interaction"`
	Required             bool        `json:"required"`
	ExampleValue         any         `json:"example_value,omitempty"`
	Notes                string      `json:"notes,omitempty"`

	// SubFields is present iff FieldType == FieldGroup.
	SubFields []SubField `json:"sub_fields,omitempty"`

	// AddButtonSelector reveals the entry form for repeatable groups.
	AddButtonSelector string `json:"add_button_selector,omitempty"`
}

// IsGroup reports whether this field is a repeatable/grouped field.
func (f *Field) IsGroup() bool {
	return f.FieldType == FieldGroup
}

// ContinueButton advances the wizard to the next page.
type ContinueButton struct {
	Text         string       `json:"text,omitempty"`
	Selector     string       `json:"selector"`
	SelectorType SelectorType `json:"selector_type,omitempty"`
}

// StartAction begins the wizard from its landing page, when the wizard
// requires one (for example clicking "Start estimate").
type StartAction struct {
	Description  string       `json:"description,omitempty"`
	Selector     string       `json:"selector"`
	SelectorType SelectorType `json:"selector_type,omitempty"`
}

// ValidationRules carries discovery hints about per-page validation.
type ValidationRules struct {
	ErrorSelector  string   `json:"error_selector,omitempty"`
	RequiredFields []string `json:"required_fields,omitempty"`
}

// Page describes a single page of the wizard.
type Page struct {
	PageNumber     int              `json:"page_number"`
	PageTitle      string           `json:"page_title"`
	URLPattern     string           `json:"url_pattern,omitempty"`
	Fields         []Field          `json:"fields"`
	ContinueButton ContinueButton   `json:"continue_button"`
	Validation     *ValidationRules `json:"validation,omitempty"`
}

// Wizard is the complete discovered structure of a multi-page form.
type Wizard struct {
	WizardID         string       `json:"wizard_id"`
	Name             string       `json:"name"`
	URL              string       `json:"url"`
	DiscoveredAt     time.Time    `json:"discovered_at,omitempty"`
	DiscoveryVersion string       `json:"discovery_version,omitempty"`
	TotalPages       int          `json:"total_pages"`
	StartAction      *StartAction `json:"start_action,omitempty"`
	Pages            []Page       `json:"pages"`
}

// Decode parses and validates a wizard structure from JSON.
func Decode(data []byte) (*Wizard, error) {
	var w Wizard
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode wizard structure: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

// LoadFile reads and validates a wizard structure from a JSON file.
func LoadFile(path string) (*Wizard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wizard file: %w", err)
	}
	w, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("invalid wizard structure in %s: %w", path, err)
	}
	return w, nil
}

// PageByNumber returns the page with the given 1-indexed number, or nil.
func (w *Wizard) PageByNumber(n int) *Page {
	for i := range w.Pages {
		if w.Pages[i].PageNumber == n {
			return &w.Pages[i]
		}
	}
	return nil
}

// FieldByID returns the field with the given id across all pages, or nil.
func (w *Wizard) FieldByID(fieldID string) *Field {
	for i := range w.Pages {
		for j := range w.Pages[i].Fields {
			if w.Pages[i].Fields[j].FieldID == fieldID {
				return &w.Pages[i].Fields[j]
			}
		}
	}
	return nil
}

// RequiredFields returns every required field across all pages, in
// declared order.
func (w *Wizard) RequiredFields() []Field {
	var required []Field
	for _, page := range w.Pages {
		for _, field := range page.Fields {
			if field.Required {
				required = append(required, field)
			}
		}
	}
	return required
}

// TotalFields returns the number of fields declared across all pages.
func (w *Wizard) TotalFields() int {
	total := 0
	for _, page := range w.Pages {
		total += len(page.Fields)
	}
	return total
}
