package extract

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"browserd/browser"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	// MaxContentLength is the most characters returned as page content.
	MaxContentLength = 10000
	// NavigationTimeout bounds the page load of an extraction.
	NavigationTimeout = 30 * time.Second
)

// Rule selects a main content candidate. The first element matching
// Selector wins if its trimmed text is longer than MinLength characters.
type Rule struct {
	Selector  string
	MinLength int
}

// BoilerplateSelector matches nodes removed before any text is read.
const BoilerplateSelector = `script, style, nav, footer, aside, .ad, .advertisement`

// DefaultRules are tried in order.
var DefaultRules = []Rule{
	{Selector: `main`, MinLength: 100},
	{Selector: `article`, MinLength: 100},
	{Selector: `[role="main"]`, MinLength: 100},
	{Selector: `.content`, MinLength: 100},
	{Selector: `.post`, MinLength: 100},
	{Selector: `.entry`, MinLength: 100},
}

type ExtractRequest struct {
	URL     string         `json:"url"`
	Options map[string]any `json:"options,omitempty"`
}

type ExtractedContent struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// Selection reports which rule produced the content. Rule is empty when the
// body fallback was used.
type Selection struct {
	Rule string
	Text string
}

// SelectContent strips boilerplate from html and returns the text of the
// first rule that clears its threshold, else the body text, truncated to
// limit characters.
func SelectContent(html string, rules []Rule, limit int) (Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Selection{}, err
	}
	doc.Find(BoilerplateSelector).Remove()

	for _, rule := range rules {
		el := doc.Find(rule.Selector).First()
		if el.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(el.Text())
		if utf8.RuneCountInString(text) > rule.MinLength {
			return Selection{Rule: rule.Selector, Text: Truncate(text, limit)}, nil
		}
	}

	body := strings.TrimSpace(doc.Find("body").First().Text())
	return Selection{Text: Truncate(body, limit)}, nil
}

// Truncate returns the first limit characters of s.
func Truncate(s string, limit int) string {
	if limit < 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// Extractor pulls the main readable text out of a page.
type Extractor struct {
	rules      []Rule
	limit      int
	navTimeout time.Duration
	logger     *zap.Logger
}

func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{
		rules:      DefaultRules,
		limit:      MaxContentLength,
		navTimeout: NavigationTimeout,
		logger:     logger,
	}
}

func (e *Extractor) Extract(ctx context.Context, page browser.Page, url string) (*ExtractedContent, error) {
	if err := page.Navigate(ctx, url, e.navTimeout); err != nil {
		return nil, err
	}

	snap, err := page.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	sel, err := SelectContent(snap.HTML, e.rules, e.limit)
	if err != nil {
		e.logger.Warn("failed to parse document", zap.String("url", snap.URL), zap.Error(err))
	}

	e.logger.Info("content_extraction_result",
		zap.String("url", snap.URL),
		zap.String("title", snap.Title),
		zap.String("rule", sel.Rule),
		zap.Int("text_length", len(sel.Text)))

	return &ExtractedContent{
		Title:   snap.Title,
		Content: sel.Text,
		URL:     snap.URL,
	}, nil
}
