package browser

import (
	"context"
	"fmt"
	"time"

	"browserd/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// DefaultUserAgent is sent by every page the executor opens.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// TaskFunc is a routine run against a page owned by the executor. The page
// must not be retained after the function returns.
type TaskFunc func(ctx context.Context, page Page) error

type ExecutorOptions struct {
	UserAgent string
	// MaxConcurrentPages bounds open pages; zero means unbounded.
	MaxConcurrentPages int
}

// Executor runs each task on its own page and always closes that page.
type Executor struct {
	opener    PageOpener
	userAgent string
	slots     *semaphore.Weighted
	logger    *zap.Logger
}

func NewExecutor(opener PageOpener, opts ExecutorOptions, logger *zap.Logger) *Executor {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	e := &Executor{
		opener:    opener,
		userAgent: opts.UserAgent,
		logger:    logger,
	}
	if opts.MaxConcurrentPages > 0 {
		e.slots = semaphore.NewWeighted(int64(opts.MaxConcurrentPages))
	}
	return e
}

// Run opens a page, applies the user agent and hands the page to fn. The
// page is closed on every exit path before Run returns; a close failure is
// logged and never replaces the result of fn.
func (e *Executor) Run(ctx context.Context, name string, fn TaskFunc) (err error) {
	if e.slots != nil {
		if err := e.slots.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("waiting for free page: %w", err)
		}
		defer e.slots.Release(1)
	}

	start := time.Now()
	page, err := e.opener.NewPage(ctx)
	if err != nil {
		metrics.RecordTask(name, err, time.Since(start))
		return err
	}
	metrics.RecordPageOpened()

	defer func() {
		r := recover()
		if cerr := page.Close(); cerr != nil {
			e.logger.Warn("failed to close page",
				zap.String("task", name),
				zap.Error(cerr))
		}
		metrics.RecordPageClosed()
		if r != nil {
			metrics.RecordTask(name, fmt.Errorf("task panicked: %v", r), time.Since(start))
			panic(r)
		}
		metrics.RecordTask(name, err, time.Since(start))
	}()

	if err = page.SetUserAgent(ctx, e.userAgent); err != nil {
		return fmt.Errorf("failed to set user agent: %w", err)
	}

	return fn(ctx, page)
}
