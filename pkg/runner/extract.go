package runner

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/entrhq/formrunner/pkg/logging"
)

// Extraction is the snapshot pulled from a wizard's terminal page.
type Extraction struct {
	PageURL   string   `json:"page_url"`
	PageTitle string   `json:"page_title"`
	BodyText  string   `json:"body_text"`
	Headings  []string `json:"headings,omitempty"`
	Note      string   `json:"note,omitempty"`
}

// Extractor pulls results from the terminal page. GenericExtractor is the
// default; wizard-specific structured extraction plugs in through this
// interface.
type Extractor interface {
	Extract(page Page) (*Extraction, error)
}

// Bound on the extracted text snapshot, in bytes.
const defaultBodyTextLimit = 2000

// GenericExtractor returns the final page's URL, title, a bounded text
// snapshot, and the page's headings as structural anchors for whoever
// parses the result downstream.
type GenericExtractor struct {
	bodyTextLimit int
	logger        *logging.Logger
}

// NewGenericExtractor builds the default extractor. A non-positive limit
// selects the default snapshot bound.
func NewGenericExtractor(bodyTextLimit int, logger *logging.Logger) *GenericExtractor {
	if bodyTextLimit <= 0 {
		bodyTextLimit = defaultBodyTextLimit
	}
	return &GenericExtractor{bodyTextLimit: bodyTextLimit, logger: logger}
}

// Extract snapshots the current page. Errors here are wrapped in
// *ExtractionError; the engine treats them as non-fatal and degrades the
// payload instead of aborting the run.
func (e *GenericExtractor) Extract(page Page) (*Extraction, error) {
	pageURL := page.URL()

	title, err := page.Title()
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}

	bodyText, err := page.InnerText("body")
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}
	if len(bodyText) > e.bodyTextLimit {
		bodyText = bodyText[:e.bodyTextLimit]
	}

	extraction := &Extraction{
		PageURL:   pageURL,
		PageTitle: title,
		BodyText:  bodyText,
		Note:      "Result extraction is generic; wizard-specific parsing plugs in via the Extractor interface.",
	}

	// Headings are best effort: a page whose HTML will not parse still
	// yields the text snapshot.
	if content, err := page.Content(); err == nil {
		extraction.Headings = extractHeadings(content)
	} else {
		e.logger.Warnf("Could not read page content for heading extraction: %v", err)
	}

	e.logger.Infof("Results extracted from: %s", pageURL)
	return extraction, nil
}

// extractHeadings parses the page HTML and collects h1-h3 text in
// document order.
func extractHeadings(content string) []string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil
	}

	var headings []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "h1", "h2", "h3":
				if text := strings.TrimSpace(nodeText(n)); text != "" {
					headings = append(headings, text)
				}
				return
			case "script", "style", "noscript":
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return headings
}

// nodeText concatenates the text nodes beneath n.
func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var builder strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		builder.WriteString(nodeText(child))
	}
	return builder.String()
}
