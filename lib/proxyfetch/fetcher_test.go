package proxyfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jishux2/bilibili-api/lib/proxypool"
	"github.com/jishux2/bilibili-api/lib/telemetry"

	"github.com/stretchr/testify/require"
)

type attemptLog struct {
	mu  sync.Mutex
	ids []string
}

func (l *attemptLog) add(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = append(l.ids, id)
}

func (l *attemptLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.ids...)
}

// newProxy spins up a local server posing as an http proxy, every
// request it receives gets recorded under `id`.
func newProxy(t *testing.T, log *attemptLog, id string, status int, body string) proxypool.Endpoint {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			log.add(id)
			w.WriteHeader(status)
			w.Write([]byte(body))
		},
	))
	t.Cleanup(server.Close)
	return proxypool.Endpoint(server.URL)
}

func TestFallbackOrder(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/proxyfetch")
	defer cleanup()

	log := &attemptLog{}
	source := proxypool.Static{
		newProxy(t, log, "a", 502, ""),
		newProxy(t, log, "b", 403, "blocked"),
		newProxy(t, log, "c", 200, "hello from c"),
	}

	fetcher := NewFetcher(source)
	fetcher.Backoff = time.Millisecond

	res, err := fetcher.Fetch(context.Background(), Request{
		Url: "http://upstream.invalid/page",
	})
	require.NoError(t, err)
	require.Equal(t, 200, res.StatusCode)
	require.Equal(t, "hello from c", res.Text)
	require.Equal(t, []string{"a", "b", "c"}, log.snapshot())
}

func TestAllProxiesExhausted(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/proxyfetch")
	defer cleanup()

	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	log := &attemptLog{}
	source := proxypool.Static{
		newProxy(t, log, "a", 502, ""),
		newProxy(t, log, "b", 500, ""),
		proxypool.Endpoint(dead.URL),
	}

	fetcher := NewFetcher(source)
	fetcher.Backoff = time.Millisecond

	_, err := fetcher.Fetch(context.Background(), Request{
		Url: "http://upstream.invalid/page",
	})

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 3, exhausted.Attempts)
	require.Equal(t, []string{"a", "b"}, log.snapshot())
}

func TestEmptyPool(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/proxyfetch")
	defer cleanup()

	log := &attemptLog{}
	target := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			log.add("direct")
			w.Write([]byte("should never be reached"))
		},
	))
	defer target.Close()

	fetcher := NewFetcher(proxypool.Static{})
	_, err := fetcher.Fetch(context.Background(), Request{Url: target.URL})

	// an empty pool fails immediately, it never falls back to a
	// direct connection
	require.ErrorIs(t, err, ErrNoProxies)
	require.Empty(t, log.snapshot())
}

func TestRequestHeadersAndCookies(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/proxyfetch")
	defer cleanup()

	var mu sync.Mutex
	var gotUserAgent string
	var gotCookies []*http.Cookie

	proxy := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			gotUserAgent = r.Header.Get("User-Agent")
			gotCookies = r.Cookies()
			mu.Unlock()
			w.Write([]byte("ok"))
		},
	))
	defer proxy.Close()

	fetcher := NewFetcher(proxypool.Static{proxypool.Endpoint(proxy.URL)})
	fetcher.Backoff = 0

	_, err := fetcher.Fetch(context.Background(), Request{
		Url:     "http://upstream.invalid/page",
		Headers: map[string]string{"User-Agent": "Mozilla/5.0"},
		Cookies: map[string]string{"SESSDATA": "abc123"},
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "Mozilla/5.0", gotUserAgent)
	require.Len(t, gotCookies, 1)
	require.Equal(t, "SESSDATA", gotCookies[0].Name)
	require.Equal(t, "abc123", gotCookies[0].Value)
}

func TestInsecureProxyTransport(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/proxyfetch")
	defer cleanup()

	log := &attemptLog{}
	proxy := httptest.NewTLSServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			log.add("tls")
			w.Write([]byte("ok"))
		},
	))
	defer proxy.Close()

	source := proxypool.Static{proxypool.Endpoint(proxy.URL)}

	// the self-signed proxy is accepted by default
	fetcher := NewFetcher(source)
	fetcher.Backoff = 0
	res, err := fetcher.Fetch(context.Background(), Request{
		Url: "http://upstream.invalid/page",
	})
	require.NoError(t, err)
	require.Equal(t, "ok", res.Text)
	require.Equal(t, []string{"tls"}, log.snapshot())

	// with verification on, the candidate fails its handshake and the
	// pool exhausts
	strict := NewFetcher(source)
	strict.Backoff = 0
	strict.Insecure = false
	_, err = strict.Fetch(context.Background(), Request{
		Url: "http://upstream.invalid/page",
	})
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, 1, exhausted.Attempts)
	require.Equal(t, []string{"tls"}, log.snapshot())
}

func TestCancelDuringBackoff(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/proxyfetch")
	defer cleanup()

	log := &attemptLog{}
	source := proxypool.Static{
		newProxy(t, log, "a", 500, ""),
		newProxy(t, log, "b", 200, "never reached"),
	}

	fetcher := NewFetcher(source)
	fetcher.Backoff = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*100)
	defer cancel()

	start := time.Now()
	_, err := fetcher.Fetch(ctx, Request{Url: "http://upstream.invalid/page"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second*5)
	require.Equal(t, []string{"a"}, log.snapshot())
}

func TestDefaults(t *testing.T) {
	fetcher := NewFetcher(proxypool.Static{})
	require.Equal(t, time.Second*30, fetcher.Timeout)
	require.Equal(t, time.Second, fetcher.Backoff)
	require.True(t, fetcher.Insecure)
}
