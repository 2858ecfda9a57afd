package main

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type launchFunc func(ctx context.Context) error

func (f launchFunc) Launch(ctx context.Context) error { return f(ctx) }

// blockingLaunch waits for ctx like a browser that never comes up.
var blockingLaunch = launchFunc(func(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
})

func TestLaunch_SignalAbortsLaunch(t *testing.T) {
	sigs := make(chan os.Signal, 1)
	sigs <- syscall.SIGTERM

	start := time.Now()
	sig, err := launch(blockingLaunch, time.Minute, sigs)

	assert.Equal(t, syscall.SIGTERM, sig)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestLaunch_Success(t *testing.T) {
	sigs := make(chan os.Signal, 1)

	sig, err := launch(launchFunc(func(context.Context) error { return nil }), time.Minute, sigs)

	require.NoError(t, err)
	assert.Nil(t, sig)

	// A signal arriving after launch is left for the shutdown handler.
	sigs <- syscall.SIGINT
	assert.Equal(t, syscall.SIGINT, <-sigs)
}

func TestLaunch_Timeout(t *testing.T) {
	sig, err := launch(blockingLaunch, 50*time.Millisecond, make(chan os.Signal))

	assert.Nil(t, sig)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLaunch_Failure(t *testing.T) {
	errLaunch := errors.New("exec: chromium not found")

	sig, err := launch(launchFunc(func(context.Context) error { return errLaunch }), time.Minute, make(chan os.Signal))

	assert.Nil(t, sig)
	assert.ErrorIs(t, err, errLaunch)
}
