package runner

// Driver abstracts the browser-automation library behind the small set of
// capabilities the engine needs. The engine drives a single exclusively
// owned browser/page pair through this interface; the concrete library
// (Playwright today) is an implementation detail and swappable, which
// also makes the engine testable without a live browser.
type Driver interface {
	// Launch starts the configured browser engine and returns a handle
	// that owns the underlying process.
	Launch(opts LaunchOptions) (Browser, error)

	// Stop releases the automation runtime itself. Called once per run,
	// after the browser is closed.
	Stop() error
}

// Browser is one launched browser instance.
type Browser interface {
	// NewPage opens a page in a fresh context with the given viewport.
	NewPage(opts PageOptions) (Page, error)

	// Close tears down the browser and its contexts.
	Close() error
}

// Page is the engine's view of a live page. Every method suspends until
// the underlying operation completes; there is no concurrent use of one
// Page within a run.
type Page interface {
	// Goto navigates and waits for network idle, bounded by timeoutMs.
	Goto(url string, timeoutMs float64) error

	// WaitForNetworkIdle blocks until in-flight requests settle.
	WaitForNetworkIdle() error

	// Click clicks the first element matching a CSS selector.
	Click(selector string, timeoutMs float64) error

	// ClickByText clicks the element whose visible text matches exactly.
	ClickByText(text string, timeoutMs float64) error

	// ClickViaScript dispatches a click through script evaluation, for
	// elements that are not hit-testable through normal input.
	ClickViaScript(selector string) error

	// Fill sets an input element's value directly.
	Fill(selector, value string, timeoutMs float64) error

	// Press sends a keystroke to the element (for example "Enter").
	Press(selector, key string, timeoutMs float64) error

	// SelectByValue selects a dropdown option by its value attribute.
	SelectByValue(selector, value string, timeoutMs float64) error

	// SelectByLabel selects a dropdown option by its visible label.
	SelectByLabel(selector, label string, timeoutMs float64) error

	// Screenshot captures a viewport-only JPEG at the given quality.
	Screenshot(quality int) ([]byte, error)

	// URL returns the page's current URL.
	URL() string

	// Title returns the page's current title.
	Title() (string, error)

	// InnerText returns the rendered text of the matching element.
	InnerText(selector string) (string, error)

	// Content returns the page's full HTML.
	Content() (string, error)

	// Close closes the page and its context.
	Close() error
}

// LaunchOptions configures browser launch.
type LaunchOptions struct {
	// BrowserType selects the engine: chromium, firefox, or webkit.
	BrowserType string

	// Headless runs without a visible window.
	Headless bool

	// SlowMoMs slows every operation down, for visual debugging.
	SlowMoMs float64
}

// PageOptions configures a new page and its context.
type PageOptions struct {
	ViewportWidth  int
	ViewportHeight int

	// UserAgent overrides the context user agent when non-empty.
	UserAgent string
}
