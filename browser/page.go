package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Chrome emits this lifecycle event once no more than two network
// connections have been open for 500ms.
const networkAlmostIdle = "networkAlmostIdle"

// Snapshot is the rendered state of a loaded page.
type Snapshot struct {
	HTML  string `json:"html"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Page is an isolated browsing context used by exactly one task.
type Page interface {
	SetUserAgent(ctx context.Context, userAgent string) error
	// Navigate loads url and waits for the network to settle. A zero
	// timeout leaves the wait bounded by ctx alone.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	Snapshot(ctx context.Context) (*Snapshot, error)
	Close() error
}

type PageOpener interface {
	NewPage(ctx context.Context) (Page, error)
}

// Tab is a Page backed by a chromedp target.
type Tab struct {
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

func newTab(ctx context.Context, cancel context.CancelFunc) *Tab {
	return &Tab{ctx: ctx, cancel: cancel}
}

// runContext derives a context from the tab that also ends when the caller's
// ctx does.
func (t *Tab) runContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(t.ctx)
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, timeout)
		inner := cancel
		cancel = func() {
			cancelTimeout()
			inner()
		}
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (t *Tab) SetUserAgent(ctx context.Context, userAgent string) error {
	runCtx, cancel := t.runContext(ctx, 0)
	defer cancel()
	return chromedp.Run(runCtx, emulation.SetUserAgentOverride(userAgent))
}

func (t *Tab) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	runCtx, cancel := t.runContext(ctx, timeout)
	defer cancel()

	err := chromedp.Run(runCtx, navigateAndSettle(url))
	if err == nil {
		return nil
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = fmt.Errorf("navigation timeout of %s exceeded", timeout)
	}
	return &NavigationError{URL: url, Err: err}
}

const snapshotScript = `({
	html: document.documentElement ? document.documentElement.outerHTML : "",
	title: document.title,
	url: window.location.href
})`

func (t *Tab) Snapshot(ctx context.Context) (*Snapshot, error) {
	runCtx, cancel := t.runContext(ctx, 0)
	defer cancel()

	var snap Snapshot
	if err := chromedp.Run(runCtx, chromedp.Evaluate(snapshotScript, &snap)); err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	return &snap, nil
}

// Close closes the tab. Only the first call does any work.
func (t *Tab) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = chromedp.Cancel(t.ctx)
		t.cancel()
		if errors.Is(t.closeErr, context.Canceled) {
			t.closeErr = nil
		}
	})
	return t.closeErr
}

// navigateAndSettle navigates the main frame and returns once Chrome reports
// networkAlmostIdle for the new document.
func navigateAndSettle(url string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		tree, err := page.GetFrameTree().Do(ctx)
		if err != nil {
			return err
		}
		mainFrame := tree.Frame.ID

		var (
			mu      sync.Mutex
			armed   bool
			loader  cdp.LoaderID
			once    sync.Once
			settled = make(chan struct{})
		)

		listenCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		chromedp.ListenTarget(listenCtx, func(ev interface{}) {
			e, ok := ev.(*page.EventLifecycleEvent)
			if !ok || e.FrameID != mainFrame {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if !armed {
				return
			}
			switch e.Name {
			case "init":
				loader = e.LoaderID
			case networkAlmostIdle:
				if loader != "" && e.LoaderID == loader {
					once.Do(func() { close(settled) })
				}
			}
		})

		if err := page.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
			return err
		}
		// Events replayed for the previous document arrive before the
		// response above, so anything seen from here on is ours.
		mu.Lock()
		armed = true
		mu.Unlock()

		if err := chromedp.Navigate(url).Do(ctx); err != nil {
			return err
		}

		select {
		case <-settled:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}
