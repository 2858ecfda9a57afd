package browser

import (
	"errors"
	"fmt"
)

// ErrNoSession is returned when a page is requested while no browser is running.
var ErrNoSession = errors.New("browser not initialized")

// LaunchError reports that the browser process could not be started.
type LaunchError struct {
	ExecPath string
	Err      error
}

func (e *LaunchError) Error() string {
	if e.ExecPath == "" {
		return fmt.Sprintf("failed to launch browser: %v", e.Err)
	}
	return fmt.Sprintf("failed to launch browser %s: %v", e.ExecPath, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// NavigationError reports a failed or timed out navigation.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }
