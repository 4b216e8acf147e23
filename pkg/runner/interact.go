package runner

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/entrhq/formrunner/pkg/logging"
	"github.com/entrhq/formrunner/pkg/wizard"
)

// Live option text on government sites frequently uses the typographic
// right single quote where caller-supplied values use the ASCII
// apostrophe ("Bachelor's degree"). Select resolution substitutes one for
// the other as a fallback.
const unicodeApostrophe = "’"

// Save controls inside repeatable entry forms are not declared in the
// structure; they are resolved by their visible text.
const groupSaveText = "Save"

// Resolver executes one field's value against the live page using the
// field's declared interaction kind.
type Resolver struct {
	elementTimeoutMs  float64
	strategyTimeoutMs float64
	settleDelay       time.Duration
	logger            *logging.Logger
}

// NewResolver builds a field interaction resolver. elementTimeoutMs
// bounds ordinary interactions; strategyTimeoutMs bounds each select
// strategy attempt so the fallback chain fails fast.
func NewResolver(elementTimeoutMs, strategyTimeoutMs float64, settleDelay time.Duration, logger *logging.Logger) *Resolver {
	return &Resolver{
		elementTimeoutMs:  elementTimeoutMs,
		strategyTimeoutMs: strategyTimeoutMs,
		settleDelay:       settleDelay,
		logger:            logger,
	}
}

// Apply enters value into field on the live page. Repeatable group fields
// take a list value and run the add/fill/save sequence per item; all
// other fields dispatch on the field's interaction kind. Failures are
// wrapped in *InteractionError carrying the field id and selector.
func (r *Resolver) Apply(page Page, field *wizard.Field, value any) error {
	r.logger.Debugf("Filling %s: %s = %v", field.FieldID, field.Selector, value)

	if field.IsGroup() {
		if items, ok := asList(value); ok {
			return r.applyGroup(page, field, items)
		}
	}

	if err := r.applyInteraction(page, field.Interaction, field.Selector, value); err != nil {
		r.logger.Errorf("Failed to fill field %s: %v", field.FieldID, err)
		return &InteractionError{FieldID: field.FieldID, Selector: field.Selector, Err: err}
	}
	return nil
}

// applyInteraction dispatches on the closed interaction enum. The switch
// is exhaustive over wizard's interaction kinds; an unknown kind is a
// structure bug and fails loudly rather than being silently skipped.
func (r *Resolver) applyInteraction(page Page, kind wizard.Interaction, selector string, value any) error {
	switch kind {
	case wizard.InteractFill:
		return page.Fill(selector, stringify(value), r.elementTimeoutMs)

	case wizard.InteractFillEnter:
		// Typeahead controls need the value confirmed with Enter, then a
		// moment for the suggestion dropdown to close.
		if err := page.Fill(selector, stringify(value), r.elementTimeoutMs); err != nil {
			return err
		}
		if err := page.Press(selector, "Enter", r.elementTimeoutMs); err != nil {
			return err
		}
		time.Sleep(r.settleDelay)
		return nil

	case wizard.InteractClick:
		return page.Click(selector, r.elementTimeoutMs)

	case wizard.InteractJavaScriptClick:
		return page.ClickViaScript(selector)

	case wizard.InteractSelect:
		return r.applySelect(page, selector, stringify(value))

	default:
		return fmt.Errorf("unknown interaction kind %q", kind)
	}
}

// selectStrategy is one attempt in the ordered dropdown fallback chain.
type selectStrategy struct {
	name  string
	apply func(page Page, selector string, timeoutMs float64) error
}

// selectStrategies builds the ordered strategy list for one value:
// value as given, value with the unicode apostrophe substitution, label
// match with the original text, label match with the substitution.
func selectStrategies(value string) []selectStrategy {
	unicodeValue := strings.ReplaceAll(value, "'", unicodeApostrophe)
	return []selectStrategy{
		{"value (original)", func(p Page, sel string, t float64) error { return p.SelectByValue(sel, value, t) }},
		{"value (unicode apostrophe)", func(p Page, sel string, t float64) error { return p.SelectByValue(sel, unicodeValue, t) }},
		{"label (original)", func(p Page, sel string, t float64) error { return p.SelectByLabel(sel, value, t) }},
		{"label (unicode apostrophe)", func(p Page, sel string, t float64) error { return p.SelectByLabel(sel, unicodeValue, t) }},
	}
}

// applySelect walks the strategy list in order and returns on the first
// success. Each attempt is bounded by the strategy timeout so a unicode
// mismatch costs one short failure, not a full element timeout.
func (r *Resolver) applySelect(page Page, selector, value string) error {
	var lastErr error
	for _, strategy := range selectStrategies(value) {
		if err := strategy.apply(page, selector, r.strategyTimeoutMs); err != nil {
			lastErr = err
			r.logger.Debugf("Select strategy %q failed: %v", strategy.name, err)
			continue
		}
		r.logger.Debugf("Selected dropdown option using strategy: %s", strategy.name)
		return nil
	}
	return fmt.Errorf("all select strategies exhausted: %w", lastErr)
}

// applyGroup runs the repeatable-field sequence: per item, click the add
// control to reveal the entry form, fill each declared sub-field by its
// own interaction kind, then click the text-matched save control. An
// empty list is a valid "no items" input and performs zero interactions.
func (r *Resolver) applyGroup(page Page, field *wizard.Field, items []map[string]any) error {
	if len(items) == 0 {
		r.logger.Debugf("Skipped group field %s (empty list, no items to add)", field.FieldID)
		return nil
	}

	if field.AddButtonSelector == "" {
		return &InteractionError{
			FieldID:  field.FieldID,
			Selector: field.Selector,
			Err:      fmt.Errorf("repeatable field is missing add_button_selector"),
		}
	}

	r.logger.Debugf("Repeatable field %s: adding %d item(s)", field.FieldID, len(items))

	for i, item := range items {
		r.logger.Debugf("Adding item %d/%d to %s", i+1, len(items), field.FieldID)

		if err := page.Click(field.AddButtonSelector, r.elementTimeoutMs); err != nil {
			return &InteractionError{
				FieldID:  field.FieldID,
				Selector: field.AddButtonSelector,
				Err:      fmt.Errorf("failed to click add button for item %d: %w", i+1, err),
			}
		}
		time.Sleep(r.settleDelay) // entry form reveal

		for _, sub := range field.SubFields {
			subValue, ok := item[sub.FieldID]
			if !ok || subValue == nil {
				r.logger.Warnf("Missing value for sub_field %s in item %d of %s", sub.FieldID, i+1, field.FieldID)
				continue
			}
			if err := r.applySubField(page, &sub, subValue); err != nil {
				return &InteractionError{FieldID: sub.FieldID, Selector: sub.Selector, Err: err}
			}
		}

		if err := page.ClickByText(groupSaveText, r.elementTimeoutMs); err != nil {
			return &InteractionError{
				FieldID:  field.FieldID,
				Selector: field.Selector,
				Err:      fmt.Errorf("could not save item %d: %w", i+1, err),
			}
		}
		time.Sleep(r.settleDelay) // item lands in the table
	}

	r.logger.Debugf("Completed adding %d item(s) to %s", len(items), field.FieldID)
	return nil
}

// applySubField fills one component of a group entry form. Sub-fields
// support the fill and select kinds; selects get the same unicode
// fallback chain as top-level selects. Any other kind is skipped with a
// warning so one odd sub-field does not sink the whole item.
func (r *Resolver) applySubField(page Page, sub *wizard.SubField, value any) error {
	switch sub.Interaction {
	case wizard.InteractFill:
		return page.Fill(sub.Selector, stringify(value), r.elementTimeoutMs)
	case wizard.InteractSelect:
		return r.applySelect(page, sub.Selector, stringify(value))
	default:
		r.logger.Warnf("Unsupported interaction kind %q for sub_field %s, skipping", sub.Interaction, sub.FieldID)
		return nil
	}
}

// asList accepts the list shapes a group value can arrive in: decoded
// JSON ([]any of objects) or typed []map[string]any.
func asList(value any) ([]map[string]any, bool) {
	switch v := value.(type) {
	case []map[string]any:
		return v, true
	case []any:
		items := make([]map[string]any, 0, len(v))
		for _, elem := range v {
			m, ok := elem.(map[string]any)
			if !ok {
				return nil, false
			}
			items = append(items, m)
		}
		return items, true
	default:
		return nil, false
	}
}

// stringify renders a value the way a human would type it into a form.
// JSON numbers arrive as float64; integral ones must not grow a ".0".
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
