// Package browsertest provides in-memory pages for testing code that runs
// against a browser.Page.
package browsertest

import (
	"context"
	"errors"
	"sync"
	"time"

	"browserd/browser"
)

// ErrNameNotResolved is returned when navigating to a URL the Site lacks.
var ErrNameNotResolved = errors.New("net::ERR_NAME_NOT_RESOLVED")

// Response is what a page renders for one URL.
type Response struct {
	HTML  string
	Title string
	// FinalURL simulates a redirect; empty means the requested URL.
	FinalURL string
	// Err fails the navigation.
	Err error
	// Delay holds the navigation before it completes.
	Delay time.Duration
}

// Site maps URLs to responses.
type Site map[string]Response

// Opener hands out fake pages and counts their lifecycle.
type Opener struct {
	Site Site
	// OpenErr fails every NewPage call.
	OpenErr error
	// CloseErr is returned by Close on every page.
	CloseErr error

	mu    sync.Mutex
	pages []*Page
}

func NewOpener(site Site) *Opener {
	return &Opener{Site: site}
}

func (o *Opener) NewPage(ctx context.Context) (browser.Page, error) {
	if o.OpenErr != nil {
		return nil, o.OpenErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := &Page{site: o.Site, closeErr: o.CloseErr}
	o.mu.Lock()
	o.pages = append(o.pages, p)
	o.mu.Unlock()
	return p, nil
}

// Pages returns every page opened so far.
func (o *Opener) Pages() []*Page {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Page(nil), o.pages...)
}

// Opened is the number of pages handed out.
func (o *Opener) Opened() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pages)
}

// Closed is the number of Close calls across all pages.
func (o *Opener) Closed() int {
	n := 0
	for _, p := range o.Pages() {
		n += p.CloseCount()
	}
	return n
}

// Page is an in-memory browser.Page.
type Page struct {
	site Site

	mu         sync.Mutex
	userAgent  string
	current    *browser.Snapshot
	navigated  []string
	closeCount int
	closeErr   error
}

func (p *Page) SetUserAgent(_ context.Context, userAgent string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userAgent = userAgent
	return nil
}

func (p *Page) UserAgent() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userAgent
}

func (p *Page) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	p.mu.Lock()
	p.navigated = append(p.navigated, url)
	p.mu.Unlock()

	resp, ok := p.site[url]
	if !ok {
		return &browser.NavigationError{URL: url, Err: ErrNameNotResolved}
	}

	if resp.Delay > 0 {
		var expired <-chan time.Time
		if timeout > 0 {
			t := time.NewTimer(timeout)
			defer t.Stop()
			expired = t.C
		}
		select {
		case <-time.After(resp.Delay):
		case <-expired:
			return &browser.NavigationError{URL: url, Err: errors.New("navigation timeout exceeded")}
		case <-ctx.Done():
			return &browser.NavigationError{URL: url, Err: ctx.Err()}
		}
	}
	if resp.Err != nil {
		return &browser.NavigationError{URL: url, Err: resp.Err}
	}

	final := resp.FinalURL
	if final == "" {
		final = url
	}
	p.mu.Lock()
	p.current = &browser.Snapshot{HTML: resp.HTML, Title: resp.Title, URL: final}
	p.mu.Unlock()
	return nil
}

func (p *Page) Snapshot(context.Context) (*browser.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return &browser.Snapshot{URL: "about:blank"}, nil
	}
	snap := *p.current
	return &snap, nil
}

// Navigated lists the URLs passed to Navigate.
func (p *Page) Navigated() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigated...)
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeCount++
	return p.closeErr
}

func (p *Page) CloseCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCount
}
