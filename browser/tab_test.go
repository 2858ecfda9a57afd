package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// findChromium returns a local Chromium binary or skips the test.
func findChromium(t *testing.T) string {
	t.Helper()
	candidates := []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable", "headless-shell"}
	if p := os.Getenv("BROWSER_EXECUTABLE_PATH"); p != "" {
		candidates = append([]string{p}, candidates...)
	}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	t.Skip("no Chromium binary found")
	return ""
}

// Three concurrent requests keep the page above the almost-idle threshold
// until they finish, and only then is the title updated.
const lateXHRPage = `<html><head><title>loading</title></head><body><script>
setTimeout(function () {
	Promise.all([fetch("/slow?n=1"), fetch("/slow?n=2"), fetch("/slow?n=3")])
		.then(function () { document.title = "settled"; });
}, 100);
</script></body></html>`

func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()
	done := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/late", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, lateXHRPage)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(700 * time.Millisecond):
			fmt.Fprint(w, "ok")
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/hang", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-done:
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>new page</title></head><body>moved</body></html>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	// Runs before srv.Close so blocked handlers return.
	t.Cleanup(func() { close(done) })
	return srv
}

func TestTab_Chromium(t *testing.T) {
	execPath := findChromium(t)
	srv := newTestSite(t)

	s := NewSession(SessionOptions{ExecPath: execPath}, zaptest.NewLogger(t))
	launchCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, s.Launch(launchCtx))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})

	openTab := func(t *testing.T) Page {
		t.Helper()
		p, err := s.NewPage(context.Background())
		require.NoError(t, err)
		t.Cleanup(func() { _ = p.Close() })
		return p
	}

	t.Run("WaitsForLateRequests", func(t *testing.T) {
		p := openTab(t)
		ctx := context.Background()

		require.NoError(t, p.Navigate(ctx, srv.URL+"/late", 15*time.Second))
		snap, err := p.Snapshot(ctx)
		require.NoError(t, err)

		assert.Equal(t, "settled", snap.Title)
		assert.Equal(t, srv.URL+"/late", snap.URL)
	})

	t.Run("Timeout", func(t *testing.T) {
		p := openTab(t)

		err := p.Navigate(context.Background(), srv.URL+"/hang", time.Second)

		var navErr *NavigationError
		require.ErrorAs(t, err, &navErr)
		assert.Equal(t, srv.URL+"/hang", navErr.URL)
		assert.Contains(t, err.Error(), "navigation timeout of 1s exceeded")
	})

	t.Run("Redirect", func(t *testing.T) {
		p := openTab(t)
		ctx := context.Background()

		require.NoError(t, p.Navigate(ctx, srv.URL+"/old", 15*time.Second))
		snap, err := p.Snapshot(ctx)
		require.NoError(t, err)

		assert.Equal(t, srv.URL+"/new", snap.URL)
		assert.Equal(t, "new page", snap.Title)
		assert.Contains(t, snap.HTML, "moved")
	})

	t.Run("CloseIsIdempotent", func(t *testing.T) {
		p, err := s.NewPage(context.Background())
		require.NoError(t, err)
		require.NoError(t, p.SetUserAgent(context.Background(), DefaultUserAgent))

		assert.NoError(t, p.Close())
		assert.NoError(t, p.Close())

		_, err = p.Snapshot(context.Background())
		assert.Error(t, err)
		assert.True(t, s.Alive())
	})
}
