package runner

import (
	"fmt"
)

// fakeOp records one operation performed against the fake page.
type fakeOp struct {
	Kind     string
	Selector string
	Value    string
}

// fakeSelect models a live <select> element's option values and labels.
type fakeSelect struct {
	values []string
	labels []string
}

// fakePage is a scripted in-memory Page. Tests configure failures per
// selector and assert on the recorded operation sequence.
type fakePage struct {
	ops []fakeOp

	url      string
	title    string
	bodyText string
	content  string

	// gotoFail makes the first N Goto calls fail.
	gotoFail  int
	gotoCalls int

	failFill      map[string]error
	failClick     map[string]error
	failClickText map[string]error
	selects       map[string]fakeSelect

	screenshotErr error
	screenshots   int

	closed bool
}

func newFakePage() *fakePage {
	return &fakePage{
		title:         "Your Results",
		bodyText:      "Estimated aid: $5,000",
		content:       "<html><body><h1>Your Results</h1></body></html>",
		failFill:      make(map[string]error),
		failClick:     make(map[string]error),
		failClickText: make(map[string]error),
		selects:       make(map[string]fakeSelect),
	}
}

func (p *fakePage) record(kind, selector, value string) {
	p.ops = append(p.ops, fakeOp{Kind: kind, Selector: selector, Value: value})
}

func (p *fakePage) Goto(url string, timeoutMs float64) error {
	p.gotoCalls++
	if p.gotoCalls <= p.gotoFail {
		return fmt.Errorf("timeout %gms exceeded navigating to %s", timeoutMs, url)
	}
	p.record("goto", url, "")
	p.url = url
	return nil
}

func (p *fakePage) WaitForNetworkIdle() error {
	p.record("wait_network_idle", "", "")
	return nil
}

func (p *fakePage) Click(selector string, timeoutMs float64) error {
	if err := p.failClick[selector]; err != nil {
		return err
	}
	p.record("click", selector, "")
	return nil
}

func (p *fakePage) ClickByText(text string, timeoutMs float64) error {
	if err := p.failClickText[text]; err != nil {
		return err
	}
	p.record("click_text", text, "")
	return nil
}

func (p *fakePage) ClickViaScript(selector string) error {
	p.record("script_click", selector, "")
	return nil
}

func (p *fakePage) Fill(selector, value string, timeoutMs float64) error {
	if err := p.failFill[selector]; err != nil {
		return err
	}
	p.record("fill", selector, value)
	return nil
}

func (p *fakePage) Press(selector, key string, timeoutMs float64) error {
	p.record("press", selector, key)
	return nil
}

func (p *fakePage) SelectByValue(selector, value string, timeoutMs float64) error {
	options, ok := p.selects[selector]
	if !ok {
		return fmt.Errorf("no select element matching %s", selector)
	}
	for _, v := range options.values {
		if v == value {
			p.record("select_value", selector, value)
			return nil
		}
	}
	return fmt.Errorf("timeout %gms exceeded: no option with value %q", timeoutMs, value)
}

func (p *fakePage) SelectByLabel(selector, label string, timeoutMs float64) error {
	options, ok := p.selects[selector]
	if !ok {
		return fmt.Errorf("no select element matching %s", selector)
	}
	for _, l := range options.labels {
		if l == label {
			p.record("select_label", selector, label)
			return nil
		}
	}
	return fmt.Errorf("timeout %gms exceeded: no option with label %q", timeoutMs, label)
}

func (p *fakePage) Screenshot(quality int) ([]byte, error) {
	if p.screenshotErr != nil {
		return nil, p.screenshotErr
	}
	p.screenshots++
	return []byte(fmt.Sprintf("jpeg-%d-q%d", p.screenshots, quality)), nil
}

func (p *fakePage) URL() string { return p.url }

func (p *fakePage) Title() (string, error) { return p.title, nil }

func (p *fakePage) InnerText(selector string) (string, error) {
	return p.bodyText, nil
}

func (p *fakePage) Content() (string, error) { return p.content, nil }

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

// opsOfKind filters the recorded operations by kind.
func (p *fakePage) opsOfKind(kind string) []fakeOp {
	var matched []fakeOp
	for _, op := range p.ops {
		if op.Kind == kind {
			matched = append(matched, op)
		}
	}
	return matched
}

type fakeBrowser struct {
	page       *fakePage
	newPageErr error
	closed     bool
}

func (b *fakeBrowser) NewPage(opts PageOptions) (Page, error) {
	if b.newPageErr != nil {
		return nil, b.newPageErr
	}
	return b.page, nil
}

func (b *fakeBrowser) Close() error {
	b.closed = true
	return nil
}

type fakeDriver struct {
	browser   *fakeBrowser
	launchErr error
	stopped   bool
}

func (d *fakeDriver) Launch(opts LaunchOptions) (Browser, error) {
	if d.launchErr != nil {
		return nil, d.launchErr
	}
	return d.browser, nil
}

func (d *fakeDriver) Stop() error {
	d.stopped = true
	return nil
}

func newFakeDriver(page *fakePage) *fakeDriver {
	return &fakeDriver{browser: &fakeBrowser{page: page}}
}
