package runner

import "fmt"

// Error type tags surfaced in Result.ErrorType so callers can dispatch
// on failure class without parsing messages.
const (
	ErrorTypeNavigation           = "navigation_failure"
	ErrorTypeMissingRequiredField = "missing_required_field"
	ErrorTypeInteraction          = "interaction_failure"
	ErrorTypeExtraction           = "extraction_failure"
	ErrorTypeExecution            = "execution_failure"
)

// NavigationError is fatal: every attempt in the retry budget failed.
type NavigationError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// MissingRequiredFieldError is fatal: a required field's selector has no
// supplied value.
type MissingRequiredFieldError struct {
	FieldID  string
	Selector string
	Page     int
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("missing required field %q on page %d (selector: %s); check that user data includes this field_id",
		e.FieldID, e.Page, e.Selector)
}

// InteractionError is fatal: an element could not be filled, clicked, or
// selected after exhausting the applicable strategies.
type InteractionError struct {
	FieldID  string
	Selector string
	Err      error
}

func (e *InteractionError) Error() string {
	return fmt.Sprintf("failed to interact with field %q (selector: %s): %v; element may not be visible or selector may be incorrect",
		e.FieldID, e.Selector, e.Err)
}

func (e *InteractionError) Unwrap() error { return e.Err }

// ScreenshotError is non-fatal: capture failures are logged and an empty
// placeholder is substituted so the run continues.
type ScreenshotError struct {
	Label string
	Err   error
}

func (e *ScreenshotError) Error() string {
	return fmt.Sprintf("screenshot %q failed: %v", e.Label, e.Err)
}

func (e *ScreenshotError) Unwrap() error { return e.Err }

// ExtractionError is non-fatal: the run reports a degraded result payload
// instead of aborting.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("result extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
