package proxyfetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jishux2/bilibili-api/lib/proxypool"
	"github.com/jishux2/bilibili-api/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrNoProxies = fmt.Errorf("no proxies available")

// ExhaustedError reports that every candidate in the pool was tried
// and none produced a usable response.
type ExhaustedError struct {
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d proxies failed", e.Attempts)
}

// Request describes one page fetch. It is treated as read-only for
// the duration of the fetch, every attempt sees the same headers and
// cookies.
type Request struct {
	Url     string
	Headers map[string]string
	Cookies map[string]string
}

// Result is the body and status of the single successful attempt.
// Anything partial from failed attempts is discarded.
type Result struct {
	Text       string
	StatusCode int
}

type Fetcher struct {
	Source proxypool.Source
	// Timeout caps each individual attempt. There is no overall
	// deadline across the sequence, use the context for that.
	Timeout time.Duration
	// Backoff is the pause between failed attempts, it bounds burst
	// load on the free proxies. Zero disables it.
	Backoff time.Duration
	// Insecure disables certificate validation on proxied
	// connections. On by default: free proxies are untrusted
	// convenience resources and most cannot complete a clean TLS
	// handshake, turning this off rejects nearly all of them.
	Insecure bool
}

func NewFetcher(source proxypool.Source) *Fetcher {
	return &Fetcher{
		Source:   source,
		Timeout:  time.Second * 30,
		Backoff:  time.Second,
		Insecure: true,
	}
}

// Fetch lists the pool and tries each candidate strictly in order,
// returning the first response with status 200. Candidates are never
// raced in parallel, sequential attempts keep failure attribution
// simple and avoid hammering the pool. The pool is listed fresh on
// every call, nothing is cached between fetches.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (Result, error) {
	ctx, span := tracer.Start(ctx, "fetcher:Fetch", trace.WithAttributes(
		attribute.String("url", req.Url),
	))
	defer span.End()

	proxies := f.Source.List(ctx)
	if len(proxies) == 0 {
		span.SetStatus(codes.Error, ErrNoProxies.Error())
		return Result{}, ErrNoProxies
	}
	slog.DebugContext(
		ctx, "listed proxy pool",
		"source", f.Source.Name(),
		"count", len(proxies),
	)

	for i, proxy := range proxies {
		res, err := f.attempt(ctx, proxy, req)
		if err == nil {
			span.SetAttributes(attribute.Int("attempts", i+1))
			return res, nil
		}
		if ctx.Err() != nil {
			span.RecordError(ctx.Err())
			span.SetStatus(codes.Error, "cancelled")
			return Result{}, ctx.Err()
		}

		slog.DebugContext(
			ctx, "proxy attempt failed",
			"proxy", string(proxy),
			"attempt", i+1,
			"total", len(proxies),
			"err", err,
		)
		span.AddEvent("attempt failed", trace.WithAttributes(
			attribute.String("proxy", string(proxy)),
			attribute.Int("attempt", i+1),
		))

		if i < len(proxies)-1 {
			err := sleep(ctx, f.Backoff)
			if err != nil {
				span.SetStatus(codes.Error, "cancelled")
				return Result{}, err
			}
		}
	}

	exhaustedCounter.Add(ctx, 1)
	err := &ExhaustedError{Attempts: len(proxies)}
	span.SetStatus(codes.Error, err.Error())
	return Result{}, err
}

// attempt issues the request through a single candidate on a client
// that exists only for this attempt. Only status 200 counts as
// success, anything else fails the candidate so iteration moves on.
func (f *Fetcher) attempt(ctx context.Context, proxy proxypool.Endpoint, req Request) (Result, error) {
	ctx, span := tracer.Start(ctx, "fetcher:attempt", trace.WithAttributes(
		attribute.String("proxy", string(proxy)),
	))
	defer span.End()

	attemptCounter.Add(ctx, 1)

	client := f.newAttemptClient(proxy)
	defer client.GetClient().CloseIdleConnections()

	r := client.R().
		SetContext(ctx).
		SetHeaders(req.Headers)
	for name, value := range req.Cookies {
		r.SetCookie(&http.Cookie{Name: name, Value: value})
	}

	res, err := r.Get(req.Url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return Result{}, err
	}
	if res.StatusCode() != 200 {
		span.SetStatus(codes.Error, "unexpected status")
		return Result{}, fmt.Errorf("unexpected status %d", res.StatusCode())
	}

	return Result{
		Text:       res.String(),
		StatusCode: res.StatusCode(),
	}, nil
}

// newAttemptClient routes both http and https traffic through the
// candidate.
func (f *Fetcher) newAttemptClient(proxy proxypool.Endpoint) *resty.Client {
	client := resty.New()
	client.SetProxy(string(proxy))
	client.SetTimeout(f.Timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	if f.Insecure {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)
	return client
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
