package wizard

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var wizardIDPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Validate checks the structural invariants of a wizard. A structure that
// passes is safe to hand to the execution engine: page numbers cover
// exactly 1..TotalPages, selectors are non-empty, field ids are unique,
// and grouped fields declare their sub-fields.
func (w *Wizard) Validate() error {
	if !wizardIDPattern.MatchString(w.WizardID) {
		return fmt.Errorf("wizard_id %q must be a lowercase slug (a-z, 0-9, hyphens)", w.WizardID)
	}
	if strings.TrimSpace(w.URL) == "" {
		return fmt.Errorf("wizard %s: url cannot be empty", w.WizardID)
	}
	if !strings.HasPrefix(w.URL, "http://") && !strings.HasPrefix(w.URL, "https://") {
		return fmt.Errorf("wizard %s: url must start with http:// or https://", w.WizardID)
	}
	if w.TotalPages < 1 {
		return fmt.Errorf("wizard %s: total_pages must be at least 1", w.WizardID)
	}
	if len(w.Pages) != w.TotalPages {
		return fmt.Errorf("wizard %s: total_pages (%d) does not match actual page count (%d)",
			w.WizardID, w.TotalPages, len(w.Pages))
	}

	if err := w.validatePageNumbers(); err != nil {
		return err
	}

	if w.StartAction != nil && strings.TrimSpace(w.StartAction.Selector) == "" {
		return fmt.Errorf("wizard %s: start_action selector cannot be empty", w.WizardID)
	}

	seen := make(map[string]int)
	for _, page := range w.Pages {
		if err := page.validate(w.WizardID); err != nil {
			return err
		}
		for _, field := range page.Fields {
			if prev, dup := seen[field.FieldID]; dup {
				return fmt.Errorf("wizard %s: field_id %q appears on both page %d and page %d",
					w.WizardID, field.FieldID, prev, page.PageNumber)
			}
			seen[field.FieldID] = page.PageNumber
		}
	}

	return nil
}

// validatePageNumbers ensures page numbers are exactly 1..N with no gaps
// or duplicates.
func (w *Wizard) validatePageNumbers() error {
	numbers := make([]int, 0, len(w.Pages))
	for _, page := range w.Pages {
		numbers = append(numbers, page.PageNumber)
	}
	sort.Ints(numbers)
	for i, n := range numbers {
		if n != i+1 {
			return fmt.Errorf("wizard %s: page numbers must be sequential starting from 1, found %v",
				w.WizardID, numbers)
		}
	}
	return nil
}

func (p *Page) validate(wizardID string) error {
	if p.PageNumber < 1 {
		return fmt.Errorf("wizard %s: page_number must be at least 1", wizardID)
	}
	if strings.TrimSpace(p.PageTitle) == "" {
		return fmt.Errorf("wizard %s: page %d has an empty page_title", wizardID, p.PageNumber)
	}
	if strings.TrimSpace(p.ContinueButton.Selector) == "" {
		return fmt.Errorf("wizard %s: page %d continue_button selector cannot be empty",
			wizardID, p.PageNumber)
	}
	for i := range p.Fields {
		if err := p.Fields[i].validate(wizardID, p.PageNumber); err != nil {
			return err
		}
	}
	return nil
}

func (f *Field) validate(wizardID string, pageNumber int) error {
	if strings.TrimSpace(f.FieldID) == "" {
		return fmt.Errorf("wizard %s: page %d has a field with an empty field_id", wizardID, pageNumber)
	}
	if strings.TrimSpace(f.Selector) == "" {
		return fmt.Errorf("wizard %s: field %q on page %d has an empty selector",
			wizardID, f.FieldID, pageNumber)
	}

	if f.FieldType == FieldGroup {
		if len(f.SubFields) == 0 {
			return fmt.Errorf("wizard %s: grouped field %q on page %d must have at least one sub_field",
				wizardID, f.FieldID, pageNumber)
		}
		for _, sub := range f.SubFields {
			if strings.TrimSpace(sub.FieldID) == "" {
				return fmt.Errorf("wizard %s: group %q on page %d has a sub_field with an empty field_id",
					wizardID, f.FieldID, pageNumber)
			}
			if strings.TrimSpace(sub.Selector) == "" {
				return fmt.Errorf("wizard %s: sub_field %q of group %q has an empty selector",
					wizardID, sub.FieldID, f.FieldID)
			}
		}
	} else if len(f.SubFields) > 0 {
		return fmt.Errorf("wizard %s: field %q on page %d declares sub_fields but is not a group",
			wizardID, f.FieldID, pageNumber)
	}

	return nil
}
