package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/formrunner/pkg/logging"
	"github.com/entrhq/formrunner/pkg/wizard"
)

// PageRunner fills every field on one page, captures the page's audit
// screenshot, and advances through the continue control.
type PageRunner struct {
	resolver         *Resolver
	recorder         *Recorder
	fieldPause       time.Duration
	pageSettle       time.Duration
	elementTimeoutMs float64
	logger           *logging.Logger
}

// NewPageRunner wires a page runner from its collaborators.
func NewPageRunner(resolver *Resolver, recorder *Recorder, fieldPause, pageSettle time.Duration, elementTimeoutMs float64, logger *logging.Logger) *PageRunner {
	return &PageRunner{
		resolver:         resolver,
		recorder:         recorder,
		fieldPause:       fieldPause,
		pageSettle:       pageSettle,
		elementTimeoutMs: elementTimeoutMs,
		logger:           logger,
	}
}

// Run executes one page: fields in declared order, audit screenshot,
// continue click, settle. Values are looked up by selector; the field_id
// join happened upstream. The returned screenshot may be an empty
// placeholder when capture failed (non-fatal).
func (pr *PageRunner) Run(page Page, structure *wizard.Page, values wizard.FieldValues) (string, error) {
	for i := range structure.Fields {
		field := &structure.Fields[i]
		value, present := values[field.Selector]

		// A nil value (an explicit JSON null that slipped past the join)
		// is no value at all
		if !present || value == nil {
			if field.Required {
				return "", &MissingRequiredFieldError{
					FieldID:  field.FieldID,
					Selector: field.Selector,
					Page:     structure.PageNumber,
				}
			}
			continue
		}

		if err := pr.resolver.Apply(page, field, value); err != nil {
			return "", err
		}

		// Target pages run client-side validation and debounce handlers
		// between inputs
		time.Sleep(pr.fieldPause)
	}

	label := fmt.Sprintf("page_%d_filled", structure.PageNumber)
	screenshot, _ := pr.recorder.Capture(page, label) // empty on failure, run continues

	pr.logger.Infof("Clicking continue button for page %d", structure.PageNumber)
	if err := clickControl(page, structure.ContinueButton.Selector, structure.ContinueButton.SelectorType, pr.elementTimeoutMs); err != nil {
		return screenshot, &InteractionError{
			FieldID:  "continue_button",
			Selector: structure.ContinueButton.Selector,
			Err:      err,
		}
	}

	if err := page.WaitForNetworkIdle(); err != nil {
		return screenshot, &InteractionError{
			FieldID:  "continue_button",
			Selector: structure.ContinueButton.Selector,
			Err:      fmt.Errorf("next page did not settle: %w", err),
		}
	}
	time.Sleep(pr.pageSettle)

	return screenshot, nil
}

// clickControl resolves a declared control (continue button or start
// action) by its selector type: exact text match, id (normalized to a
// "#" prefix), or raw CSS for everything else.
func clickControl(page Page, selector string, selectorType wizard.SelectorType, timeoutMs float64) error {
	switch selectorType {
	case wizard.SelectorText:
		return page.ClickByText(selector, timeoutMs)
	case wizard.SelectorID:
		if !strings.HasPrefix(selector, "#") {
			selector = "#" + selector
		}
		return page.Click(selector, timeoutMs)
	default:
		return page.Click(selector, timeoutMs)
	}
}
