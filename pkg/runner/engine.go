// Package runner implements the wizard execution engine: the component
// that takes a discovered wizard structure plus selector-keyed field
// values and atomically drives a browser through navigation, field entry,
// and result extraction, with bounded retries and guaranteed cleanup.
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/entrhq/formrunner/pkg/config"
	"github.com/entrhq/formrunner/pkg/logging"
	"github.com/entrhq/formrunner/pkg/wizard"
)

// State names the steps of one atomic execution.
type State string

const (
	StateIdle                State = "idle"
	StateBrowserLaunched     State = "browser_launched"
	StateNavigated           State = "navigated"
	StateStartActionExecuted State = "start_action_executed"
	StatePageLoop            State = "page_loop"
	StateResultsExtracted    State = "results_extracted"
	StateClosed              State = "closed"
	StateError               State = "error"
)

// Result is the outcome of one execution, success or failure. Failures
// always report how far the run got (PagesCompleted) and, when any page
// was reached, at least one screenshot, so a reviewer can diagnose where
// the form broke.
type Result struct {
	Success         bool        `json:"success"`
	WizardID        string      `json:"wizard_id,omitempty"`
	Results         *Extraction `json:"results,omitempty"`
	Error           string      `json:"error,omitempty"`
	ErrorType       string      `json:"error_type,omitempty"`
	Screenshots     []string    `json:"screenshots"`
	PagesCompleted  int         `json:"pages_completed"`
	ExecutionTimeMs int64       `json:"execution_time_ms"`
	Timestamp       time.Time   `json:"timestamp"`
}

// Engine executes wizards atomically. Each call to Execute owns an
// exclusive browser/context/page triple for its whole lifetime and
// releases it on every exit path; nothing survives a run, so multiple
// engines (or repeated calls) never share browser state.
type Engine struct {
	cfg       *config.Config
	newDriver func() (Driver, error)
	extractor Extractor
	logger    *logging.Logger
}

// NewEngine builds an engine over the Playwright driver and the generic
// extractor.
func NewEngine(cfg *config.Config) *Engine {
	logger, _ := logging.NewLogger("engine")
	return &Engine{
		cfg:       cfg,
		newDriver: func() (Driver, error) { return NewPlaywrightDriver() },
		extractor: NewGenericExtractor(0, logger),
		logger:    logger,
	}
}

// SetDriverFactory swaps the browser-automation backend. Used by tests
// and by callers embedding a different automation library.
func (e *Engine) SetDriverFactory(factory func() (Driver, error)) {
	e.newDriver = factory
}

// SetExtractor installs wizard-specific result extraction.
func (e *Engine) SetExtractor(extractor Extractor) {
	e.extractor = extractor
}

// Execute runs the wizard end to end: launch, navigate, optional start
// action, one page-runner pass per page, extraction, close. Fatal errors
// abort immediately (no partial commit, no resume), trigger a best-effort
// error screenshot, and still release every browser resource. The engine
// never self-cancels; bound the run by passing a context with a deadline,
// which is honored at state boundaries.
func (e *Engine) Execute(ctx context.Context, w *wizard.Wizard, values wizard.FieldValues) *Result {
	start := time.Now()
	state := StateIdle
	var screenshots []string
	pagesCompleted := 0

	recorder := NewRecorder(e.cfg.ScreenshotQuality, e.cfg.SaveScreenshots, e.cfg.ScreenshotDir, e.logger)
	resolver := NewResolver(e.cfg.ElementTimeoutMs, e.cfg.StrategyTimeoutMs,
		time.Duration(e.cfg.GroupItemSettleMs)*time.Millisecond, e.logger)
	pageRunner := NewPageRunner(resolver, recorder,
		time.Duration(e.cfg.FieldPauseMs)*time.Millisecond,
		time.Duration(e.cfg.PageSettleMs)*time.Millisecond,
		e.cfg.ElementTimeoutMs, e.logger)
	navigator := NewNavigator(e.cfg.NavigationAttempts, e.cfg.NavigationTimeoutMs,
		time.Duration(e.cfg.NavigationRetryDelayMs)*time.Millisecond, e.logger)

	// Pause after navigation and after the start action, letting the
	// first page settle before its audit screenshot
	initialSettle := time.Duration(e.cfg.InitialSettleMs) * time.Millisecond

	e.logger.Infof("Starting atomic execution: %s (url=%s, pages=%d)", w.WizardID, w.URL, w.TotalPages)

	var driver Driver
	var browser Browser
	var page Page

	// Closed is reached from every path, success or failure. Secondary
	// close errors are logged and swallowed: cleanup must not mask the
	// run's outcome.
	defer func() {
		if page != nil {
			if err := page.Close(); err != nil {
				e.logger.Warnf("Error closing page: %v", err)
			}
		}
		if browser != nil {
			if err := browser.Close(); err != nil {
				e.logger.Warnf("Error closing browser: %v", err)
			}
		}
		if driver != nil {
			if err := driver.Stop(); err != nil {
				e.logger.Warnf("Error stopping driver: %v", err)
			}
		}
		e.logger.Infof("Browser closed (state=%s)", StateClosed)
	}()

	fail := func(err error) *Result {
		failedIn := state
		state = StateError
		e.logger.Errorf("Execution failed in state %s: %v", failedIn, err)

		// Best-effort error screenshot; its own failure must not
		// displace the run's real error
		if page != nil {
			if shot, shotErr := recorder.Capture(page, "error"); shotErr == nil {
				screenshots = append(screenshots, shot)
			}
		}

		return &Result{
			Success:         false,
			Error:           err.Error(),
			ErrorType:       classifyError(err),
			Screenshots:     e.responseScreenshots(screenshots),
			PagesCompleted:  pagesCompleted,
			ExecutionTimeMs: time.Since(start).Milliseconds(),
			Timestamp:       time.Now().UTC(),
		}
	}

	// Idle -> BrowserLaunched
	driver, err := e.newDriver()
	if err != nil {
		return fail(err)
	}
	browser, err = driver.Launch(LaunchOptions{
		BrowserType: e.cfg.BrowserType,
		Headless:    e.cfg.Headless,
		SlowMoMs:    e.cfg.SlowMoMs,
	})
	if err != nil {
		return fail(err)
	}
	page, err = browser.NewPage(PageOptions{
		ViewportWidth:  e.cfg.ViewportWidth,
		ViewportHeight: e.cfg.ViewportHeight,
	})
	if err != nil {
		return fail(err)
	}
	state = StateBrowserLaunched
	e.logger.Infof("Browser launched: %s (headless=%v, viewport=%dx%d)",
		e.cfg.BrowserType, e.cfg.Headless, e.cfg.ViewportWidth, e.cfg.ViewportHeight)

	// BrowserLaunched -> Navigated
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := navigator.Navigate(page, w.URL); err != nil {
		return fail(err)
	}
	state = StateNavigated
	time.Sleep(initialSettle)
	if shot, err := recorder.Capture(page, "initial_page"); err == nil {
		screenshots = append(screenshots, shot)
	}

	// Optional start action
	if w.StartAction != nil {
		e.logger.Infof("Executing start action: %s", w.StartAction.Selector)
		if err := clickControl(page, w.StartAction.Selector, w.StartAction.SelectorType, e.cfg.ElementTimeoutMs); err != nil {
			return fail(&InteractionError{
				FieldID:  "start_action",
				Selector: w.StartAction.Selector,
				Err:      err,
			})
		}
		if err := page.WaitForNetworkIdle(); err != nil {
			return fail(&InteractionError{
				FieldID:  "start_action",
				Selector: w.StartAction.Selector,
				Err:      err,
			})
		}
		state = StateStartActionExecuted
		time.Sleep(initialSettle)
		if shot, err := recorder.Capture(page, "after_start_action"); err == nil {
			screenshots = append(screenshots, shot)
		}
	}

	// PageLoop: pages in numeric order; pages_completed increments only
	// after a page's continue action succeeds
	state = StatePageLoop
	for n := 1; n <= w.TotalPages; n++ {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		pageStructure := w.PageByNumber(n)
		e.logger.Infof("Page %d/%d: %s", n, w.TotalPages, pageStructure.PageTitle)

		shot, err := pageRunner.Run(page, pageStructure, values)
		if shot != "" {
			screenshots = append(screenshots, shot)
		}
		if err != nil {
			return fail(err)
		}
		pagesCompleted++
	}

	// ResultsExtracted
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	e.logger.Infof("Extracting results from final page")
	finalShot, shotErr := recorder.Capture(page, "final_results")
	if shotErr == nil {
		screenshots = append(screenshots, finalShot)
	}

	results, err := e.extractor.Extract(page)
	if err != nil {
		// Non-fatal: degrade the payload, keep the successful run
		e.logger.Warnf("Result extraction degraded: %v", err)
		results = &Extraction{
			PageURL: page.URL(),
			Note:    err.Error(),
		}
	}
	state = StateResultsExtracted

	executionTime := time.Since(start).Milliseconds()
	e.logger.Infof("Execution completed in %dms (state=%s)", executionTime, state)

	return &Result{
		Success:         true,
		WizardID:        w.WizardID,
		Results:         results,
		Screenshots:     e.responseScreenshots(screenshots),
		PagesCompleted:  pagesCompleted,
		ExecutionTimeMs: executionTime,
		Timestamp:       time.Now().UTC(),
	}
}

// responseScreenshots applies the payload policy: in headless (reduced
// payload) mode only the most recent screenshot is returned, which on
// failure is the error screenshot; in full mode the whole audit trail is
// kept. Bounding the payload keeps responses small enough for transport
// clients with strict limits.
func (e *Engine) responseScreenshots(screenshots []string) []string {
	if !e.cfg.Headless || len(screenshots) == 0 {
		return screenshots
	}
	return screenshots[len(screenshots)-1:]
}

// classifyError maps the error taxonomy onto the result's error_type tag.
func classifyError(err error) string {
	var navErr *NavigationError
	if errors.As(err, &navErr) {
		return ErrorTypeNavigation
	}
	var missingErr *MissingRequiredFieldError
	if errors.As(err, &missingErr) {
		return ErrorTypeMissingRequiredField
	}
	var interactionErr *InteractionError
	if errors.As(err, &interactionErr) {
		return ErrorTypeInteraction
	}
	var extractionErr *ExtractionError
	if errors.As(err, &extractionErr) {
		return ErrorTypeExtraction
	}
	return ErrorTypeExecution
}
