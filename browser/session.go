package browser

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// DefaultLaunchFlags are the switches needed to run Chromium as root inside
// a container.
var DefaultLaunchFlags = []string{
	"no-sandbox",
	"disable-setuid-sandbox",
	"disable-dev-shm-usage",
	"disable-accelerated-2d-canvas",
	"no-first-run",
	"no-zygote",
	"single-process",
	"disable-gpu",
}

type SessionOptions struct {
	ExecPath string
	ProxyURL string
	// Flags are "name" or "name=value" pairs, without the leading dashes,
	// added after DefaultLaunchFlags.
	Flags []string
}

// Session owns the single browser process of the service. Every Tab it hands
// out is a child of the browser context and dies with it.
type Session struct {
	logger *zap.Logger
	opts   SessionOptions

	mu            sync.RWMutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

func NewSession(opts SessionOptions, logger *zap.Logger) *Session {
	opts.Flags = append(slices.Clone(DefaultLaunchFlags), opts.Flags...)
	return &Session{
		logger: logger,
		opts:   opts,
	}
}

// Launch starts the browser process and waits until it accepts commands.
func (s *Session) Launch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browserCtx != nil {
		return errors.New("browser already launched")
	}
	if err := ctx.Err(); err != nil {
		return &LaunchError{ExecPath: s.opts.ExecPath, Err: err}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), s.allocatorOptions()...)
	sugar := s.logger.Sugar()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
	)

	started := make(chan error, 1)
	go func() { started <- chromedp.Run(browserCtx) }()

	var err error
	select {
	case err = <-started:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		browserCancel()
		allocCancel()
		return &LaunchError{ExecPath: s.opts.ExecPath, Err: err}
	}

	s.allocCancel = allocCancel
	s.browserCtx = browserCtx
	s.browserCancel = browserCancel

	s.logger.Info("Browser initialized",
		zap.String("exec_path", s.opts.ExecPath),
		zap.Strings("flags", s.opts.Flags))
	return nil
}

func (s *Session) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Headless)
	if s.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(s.opts.ExecPath))
	}
	if s.opts.ProxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(s.opts.ProxyURL))
	}
	for _, f := range s.opts.Flags {
		name, value, ok := strings.Cut(strings.TrimLeft(f, "-"), "=")
		if name == "" {
			continue
		}
		if ok {
			opts = append(opts, chromedp.Flag(name, value))
		} else {
			opts = append(opts, chromedp.Flag(name, true))
		}
	}
	return opts
}

// Alive reports whether a launched browser is currently held.
func (s *Session) Alive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.browserCtx != nil && s.browserCtx.Err() == nil
}

// NewPage opens a fresh tab in the shared browser.
func (s *Session) NewPage(ctx context.Context) (Page, error) {
	s.mu.RLock()
	browserCtx := s.browserCtx
	s.mu.RUnlock()

	if browserCtx == nil || browserCtx.Err() != nil {
		return nil, ErrNoSession
	}

	tabCtx, cancel := chromedp.NewContext(browserCtx)
	// The first Run allocates the target; it must run on the tab context
	// itself, since cancelling a derived context here would close the tab.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	if err := ctx.Err(); err != nil {
		_ = chromedp.Cancel(tabCtx)
		return nil, err
	}
	return newTab(tabCtx, cancel), nil
}

// Shutdown closes the browser. It is safe to call more than once and before
// Launch. If ctx expires first the process is killed and the wait abandoned.
func (s *Session) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	browserCtx, browserCancel, allocCancel := s.browserCtx, s.browserCancel, s.allocCancel
	s.browserCtx, s.browserCancel, s.allocCancel = nil, nil, nil
	s.mu.Unlock()

	if browserCtx == nil {
		return nil
	}
	defer allocCancel()
	defer browserCancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(browserCtx) }()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("failed to close browser: %w", err)
		}
		s.logger.Info("Browser closed")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Browser close timed out, killing process", zap.Error(ctx.Err()))
		return fmt.Errorf("failed to close browser: %w", ctx.Err())
	}
}
