package runner

import (
	"fmt"
	"io"

	"github.com/playwright-community/playwright-go"
)

// Desktop user agent applied to every context. Some target sites serve
// degraded markup to unknown agents.
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// PlaywrightDriver implements Driver on top of playwright-go.
type PlaywrightDriver struct {
	pw *playwright.Playwright
}

// NewPlaywrightDriver installs (if needed) and starts the Playwright
// runtime. Driver output is discarded so it cannot pollute stdout, which
// carries the run's JSON result.
func NewPlaywrightDriver() (*PlaywrightDriver, error) {
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	return &PlaywrightDriver{pw: pw}, nil
}

// Launch starts the browser engine named in opts.
func (d *PlaywrightDriver) Launch(opts LaunchOptions) (Browser, error) {
	var browserType playwright.BrowserType
	switch opts.BrowserType {
	case "webkit":
		browserType = d.pw.WebKit
	case "firefox":
		browserType = d.pw.Firefox
	default:
		browserType = d.pw.Chromium
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.SlowMoMs > 0 {
		launchOpts.SlowMo = playwright.Float(opts.SlowMoMs)
	}

	browser, err := browserType.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", opts.BrowserType, err)
	}

	return &playwrightBrowser{browser: browser}, nil
}

// Stop shuts down the Playwright runtime.
func (d *PlaywrightDriver) Stop() error {
	if d.pw == nil {
		return nil
	}
	if err := d.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

type playwrightBrowser struct {
	browser playwright.Browser
}

func (b *playwrightBrowser) NewPage(opts PageOptions) (Page, error) {
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	context, err := b.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
		UserAgent: playwright.String(userAgent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return &playwrightPage{page: page, context: context}, nil
}

func (b *playwrightBrowser) Close() error {
	return b.browser.Close()
}

type playwrightPage struct {
	page    playwright.Page
	context playwright.BrowserContext
}

func (p *playwrightPage) Goto(url string, timeoutMs float64) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(timeoutMs),
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) WaitForNetworkIdle() error {
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	})
}

func (p *playwrightPage) Click(selector string, timeoutMs float64) error {
	err := p.page.Click(selector, playwright.PageClickOptions{
		Timeout: playwright.Float(timeoutMs),
	})
	if err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) ClickByText(text string, timeoutMs float64) error {
	locator := p.page.GetByText(text, playwright.PageGetByTextOptions{
		Exact: playwright.Bool(true),
	})
	err := locator.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(timeoutMs),
	})
	if err != nil {
		return fmt.Errorf("click by text %q failed: %w", text, err)
	}
	return nil
}

func (p *playwrightPage) ClickViaScript(selector string) error {
	// Script-dispatched click for elements that are not hit-testable,
	// e.g. visually hidden radio inputs styled through sibling labels.
	_, err := p.page.Evaluate(`sel => document.querySelector(sel).click()`, selector)
	if err != nil {
		return fmt.Errorf("script click failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) Fill(selector, value string, timeoutMs float64) error {
	err := p.page.Fill(selector, value, playwright.PageFillOptions{
		Timeout: playwright.Float(timeoutMs),
	})
	if err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

func (p *playwrightPage) Press(selector, key string, timeoutMs float64) error {
	err := p.page.Press(selector, key, playwright.PagePressOptions{
		Timeout: playwright.Float(timeoutMs),
	})
	if err != nil {
		return fmt.Errorf("press %s failed: %w", key, err)
	}
	return nil
}

func (p *playwrightPage) SelectByValue(selector, value string, timeoutMs float64) error {
	selected, err := p.page.SelectOption(selector, playwright.SelectOptionValues{
		Values: &[]string{value},
	}, playwright.PageSelectOptionOptions{
		Timeout: playwright.Float(timeoutMs),
	})
	if err != nil {
		return fmt.Errorf("select by value failed: %w", err)
	}
	if len(selected) == 0 {
		return fmt.Errorf("no option matched value %q", value)
	}
	return nil
}

func (p *playwrightPage) SelectByLabel(selector, label string, timeoutMs float64) error {
	selected, err := p.page.SelectOption(selector, playwright.SelectOptionValues{
		Labels: &[]string{label},
	}, playwright.PageSelectOptionOptions{
		Timeout: playwright.Float(timeoutMs),
	})
	if err != nil {
		return fmt.Errorf("select by label failed: %w", err)
	}
	if len(selected) == 0 {
		return fmt.Errorf("no option matched label %q", label)
	}
	return nil
}

func (p *playwrightPage) Screenshot(quality int) ([]byte, error) {
	return p.page.Screenshot(playwright.PageScreenshotOptions{
		Type:     playwright.ScreenshotTypeJpeg,
		Quality:  playwright.Int(quality),
		FullPage: playwright.Bool(false),
	})
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Title() (string, error) {
	return p.page.Title()
}

func (p *playwrightPage) InnerText(selector string) (string, error) {
	return p.page.InnerText(selector)
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) Close() error {
	// Ignore page close errors, continue cleanup with the context
	_ = p.page.Close()
	return p.context.Close()
}
