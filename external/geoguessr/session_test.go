package geoguessr

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/geo-stats/internal/platform/logging"
	"github.com/riskibarqy/geo-stats/internal/usecase"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type loginServer struct {
	srv     *httptest.Server
	logins  atomic.Int32
	body    atomic.Value
	cookies func(w http.ResponseWriter)
	status  int
}

func newLoginServer(t *testing.T, status int, cookies func(w http.ResponseWriter)) *loginServer {
	t.Helper()

	ls := &loginServer{cookies: cookies, status: status}
	ls.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v4/guest-users" {
			http.NotFound(w, r)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		ls.body.Store(string(raw))
		ls.logins.Add(1)
		if ls.cookies != nil {
			ls.cookies(w)
		}
		w.WriteHeader(ls.status)
	}))
	t.Cleanup(ls.srv.Close)
	return ls
}

func newTestSession(t *testing.T, baseURL string, clock *fakeClock) *GuestSession {
	t.Helper()

	session, err := NewGuestSession(GuestSessionConfig{
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
		Logger:  logging.NewNop(),
		Now:     clock.Now,
	})
	if err != nil {
		t.Fatalf("new guest session: %v", err)
	}
	return session
}

func TestGuestSession_BuildsHeaderAndHonorsEarliestExpiry(t *testing.T) {
	t.Parallel()

	ls := newLoginServer(t, http.StatusOK, func(w http.ResponseWriter) {
		http.SetCookie(w, &http.Cookie{Name: "_ncfa", Value: "abc", MaxAge: 100})
		http.SetCookie(w, &http.Cookie{Name: "devicetoken", Value: "xyz", Expires: time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)})
	})
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	session := newTestSession(t, ls.srv.URL, clock)
	ctx := context.Background()

	header, err := session.Cookie(ctx)
	if err != nil {
		t.Fatalf("cookie: %v", err)
	}
	if header != "_ncfa=abc; devicetoken=xyz" {
		t.Fatalf("unexpected header: got=%q", header)
	}
	if got := ls.body.Load(); got != `{"nick":"geo_stats"}` {
		t.Fatalf("unexpected login body: got=%v", got)
	}

	clock.Advance(80 * time.Second)
	if _, err := session.Cookie(ctx); err != nil {
		t.Fatalf("cookie: %v", err)
	}
	if got := ls.logins.Load(); got != 1 {
		t.Fatalf("expected cached cookie inside the window, logins=%d", got)
	}

	// 90s + 15s refresh margin passes the 100s max-age.
	clock.Advance(10 * time.Second)
	if _, err := session.Cookie(ctx); err != nil {
		t.Fatalf("cookie: %v", err)
	}
	if got := ls.logins.Load(); got != 2 {
		t.Fatalf("expected refresh near expiry, logins=%d", got)
	}
}

func TestGuestSession_DefaultLifetimeWithoutExpiry(t *testing.T) {
	t.Parallel()

	ls := newLoginServer(t, http.StatusOK, func(w http.ResponseWriter) {
		http.SetCookie(w, &http.Cookie{Name: "_ncfa", Value: "session"})
	})
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	session := newTestSession(t, ls.srv.URL, clock)
	ctx := context.Background()

	if _, err := session.Cookie(ctx); err != nil {
		t.Fatalf("cookie: %v", err)
	}
	clock.Advance(49980 * time.Second)
	if _, err := session.Cookie(ctx); err != nil {
		t.Fatalf("cookie: %v", err)
	}
	if got := ls.logins.Load(); got != 1 {
		t.Fatalf("expected cookie to survive the default lifetime, logins=%d", got)
	}

	clock.Advance(10 * time.Second)
	if _, err := session.Cookie(ctx); err != nil {
		t.Fatalf("cookie: %v", err)
	}
	if got := ls.logins.Load(); got != 2 {
		t.Fatalf("expected refresh after the default lifetime, logins=%d", got)
	}
}

func TestGuestSession_InvalidateForcesLogin(t *testing.T) {
	t.Parallel()

	ls := newLoginServer(t, http.StatusOK, func(w http.ResponseWriter) {
		http.SetCookie(w, &http.Cookie{Name: "_ncfa", Value: "v"})
	})
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	session := newTestSession(t, ls.srv.URL, clock)

	if _, err := session.Cookie(context.Background()); err != nil {
		t.Fatalf("cookie: %v", err)
	}
	session.Invalidate()
	if _, err := session.Cookie(context.Background()); err != nil {
		t.Fatalf("cookie: %v", err)
	}
	if got := ls.logins.Load(); got != 2 {
		t.Fatalf("unexpected logins: got=%d want=2", got)
	}
}

func TestGuestSession_ConcurrentCallersShareOneLogin(t *testing.T) {
	t.Parallel()

	ls := newLoginServer(t, http.StatusOK, func(w http.ResponseWriter) {
		time.Sleep(20 * time.Millisecond)
		http.SetCookie(w, &http.Cookie{Name: "_ncfa", Value: "shared"})
	})
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	session := newTestSession(t, ls.srv.URL, clock)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			header, err := session.Cookie(context.Background())
			if err != nil || header != "_ncfa=shared" {
				t.Errorf("unexpected cookie result: header=%q err=%v", header, err)
			}
		}()
	}
	wg.Wait()

	if got := ls.logins.Load(); got != 1 {
		t.Fatalf("unexpected logins: got=%d want=1", got)
	}
}

func TestGuestSession_Failures(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}

	rejected := newLoginServer(t, http.StatusForbidden, nil)
	if _, err := newTestSession(t, rejected.srv.URL, clock).Cookie(context.Background()); !errors.Is(err, usecase.ErrUpstreamFetch) {
		t.Fatalf("expected ErrUpstreamFetch for rejected login, got %v", err)
	}

	empty := newLoginServer(t, http.StatusOK, nil)
	if _, err := newTestSession(t, empty.srv.URL, clock).Cookie(context.Background()); !errors.Is(err, usecase.ErrUpstreamFetch) {
		t.Fatalf("expected ErrUpstreamFetch for cookieless login, got %v", err)
	}
}

func TestGuestSession_CanceledCallerDoesNotAbortSharedLogin(t *testing.T) {
	t.Parallel()

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	ls := newLoginServer(t, http.StatusOK, func(w http.ResponseWriter) {
		started <- struct{}{}
		<-release
		http.SetCookie(w, &http.Cookie{Name: "_ncfa", Value: "late"})
	})
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	session := newTestSession(t, ls.srv.URL, clock)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := session.Cookie(ctx)
		first <- err
	}()

	<-started
	cancel()
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled caller to get context.Canceled, got %v", err)
	}

	second := make(chan string, 1)
	go func() {
		header, err := session.Cookie(context.Background())
		if err != nil {
			t.Errorf("second caller failed: %v", err)
		}
		second <- header
	}()
	close(release)

	if header := <-second; header != "_ncfa=late" {
		t.Fatalf("unexpected header got=%q want=%q", header, "_ncfa=late")
	}
	if got := ls.logins.Load(); got != 1 {
		t.Fatalf("unexpected logins: got=%d want=1", got)
	}
}
