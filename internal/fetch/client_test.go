package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/devpulse/devpulse/internal/types"
)

// fakeClock drives the client's notion of time so throttle and backoff tests
// never really sleep.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	return nil
}

func (f *fakeClock) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func TestDoBacksOffAndGivesUpOn429(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	clock := newFakeClock()
	c := NewClient(ClientConfig{Now: clock.Now, Sleep: clock.Sleep})

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})

	var rl types.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rl.Attempts != 6 {
		t.Errorf("attempts = %d, want 6", rl.Attempts)
	}
	if requests != 6 {
		t.Errorf("requests = %d, want 6", requests)
	}

	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
	if len(clock.sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", clock.sleeps, want)
	}
	for i := range want {
		if clock.sleeps[i] != want[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, clock.sleeps[i], want[i])
		}
	}
}

func TestDoHonorsRetryAfter(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	clock := newFakeClock()
	c := NewClient(ClientConfig{Now: clock.Now, Sleep: clock.Sleep})

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.Status)
	}
	if len(clock.sleeps) != 1 || clock.sleeps[0] != 7*time.Second {
		t.Errorf("sleeps = %v, want [7s]", clock.sleeps)
	}
}

func TestDoThrottlesFromResponseCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	clock := newFakeClock()
	c := NewClient(ClientConfig{Delay: 3 * time.Second, Now: clock.Now, Sleep: clock.Sleep})
	ctx := context.Background()
	req := Request{Method: http.MethodGet, URL: srv.URL}

	// First request goes straight out.
	if _, err := c.Do(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clock.sleeps) != 0 {
		t.Fatalf("first request should not wait, slept %v", clock.sleeps)
	}

	// 1s of local work elapsed, so only the remaining 2s is waited.
	clock.Advance(1 * time.Second)
	if _, err := c.Do(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clock.sleeps) != 1 || clock.sleeps[0] != 2*time.Second {
		t.Errorf("sleeps = %v, want [2s]", clock.sleeps)
	}

	// Past the window entirely: no wait.
	clock.Advance(5 * time.Second)
	if _, err := c.Do(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clock.sleeps) != 1 {
		t.Errorf("expected no further sleeps, got %v", clock.sleeps)
	}
}

func TestDoMapsStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"unauthorized", http.StatusUnauthorized, func(t *testing.T, err error) {
			var ae types.AuthError
			if !errors.As(err, &ae) {
				t.Fatalf("expected AuthError, got %v", err)
			}
			if ae.Status != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", ae.Status)
			}
		}},
		{"forbidden", http.StatusForbidden, func(t *testing.T, err error) {
			var ae types.AuthError
			if !errors.As(err, &ae) {
				t.Fatalf("expected AuthError, got %v", err)
			}
		}},
		{"server error", http.StatusInternalServerError, func(t *testing.T, err error) {
			var apiErr types.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Status != http.StatusInternalServerError {
				t.Errorf("status = %d, want 500", apiErr.Status)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests int
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests++
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			clock := newFakeClock()
			c := NewClient(ClientConfig{Now: clock.Now, Sleep: clock.Sleep})
			_, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
			tt.check(t, err)
			if requests != 1 {
				t.Errorf("requests = %d, want 1 (no retry on fatal status)", requests)
			}
		})
	}
}

func TestDoRetriesTransportFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL
	srv.Close()

	clock := newFakeClock()
	c := NewClient(ClientConfig{Now: clock.Now, Sleep: clock.Sleep})

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: target})
	if err == nil {
		t.Fatal("expected error against closed server")
	}
	var rl types.RateLimitError
	if errors.As(err, &rl) {
		t.Errorf("transport failure must not surface as RateLimitError: %v", err)
	}
	if len(clock.sleeps) != 5 {
		t.Errorf("sleeps = %v, want 5 backoff waits", clock.sleeps)
	}
}

func TestDoSendsHeadersAndQuery(t *testing.T) {
	var gotHeader http.Header
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		gotQuery = r.URL.Query()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	header := make(http.Header)
	header.Set("Authorization", "Bearer token123")
	clock := newFakeClock()
	c := NewClient(ClientConfig{Header: header, Now: clock.Now, Sleep: clock.Sleep})

	_, err := c.Do(context.Background(), Request{
		Method: http.MethodGet,
		URL:    srv.URL,
		Query:  url.Values{"page": {"2"}, "per_page": {"50"}},
		Header: http.Header{"Accept": {"application/vnd.github+json"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := gotHeader.Get("Authorization"); got != "Bearer token123" {
		t.Errorf("Authorization = %q", got)
	}
	if got := gotHeader.Get("Accept"); got != "application/vnd.github+json" {
		t.Errorf("Accept = %q", got)
	}
	if gotQuery.Get("page") != "2" || gotQuery.Get("per_page") != "50" {
		t.Errorf("query = %v", gotQuery)
	}
}

func TestRetryPolicyDelay(t *testing.T) {
	p := DefaultRetryPolicy()
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
	for i, w := range want {
		if got := p.Delay(i); got != w {
			t.Errorf("Delay(%d) = %v, want %v", i, got, w)
		}
	}

	capped := RetryPolicy{MaxRetries: 10, BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	if got := capped.Delay(9); got != 5*time.Second {
		t.Errorf("capped Delay(9) = %v, want 5s", got)
	}
}

func TestBasicAuth(t *testing.T) {
	if got := BasicAuth("user", "pass"); got != "Basic dXNlcjpwYXNz" {
		t.Errorf("BasicAuth = %q", got)
	}
}

func TestWaitWithContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := waitWithContext(ctx, time.Minute); err == nil {
		t.Error("expected context error")
	}
	if err := waitWithContext(context.Background(), 0); err != nil {
		t.Errorf("zero wait should not error: %v", err)
	}
}
