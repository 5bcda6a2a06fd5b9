package pagestate

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/jishux2/bilibili-api/lib/credential"
	"github.com/jishux2/bilibili-api/lib/proxyfetch"
	"github.com/jishux2/bilibili-api/lib/proxypool"
	"github.com/jishux2/bilibili-api/lib/session"
	"github.com/jishux2/bilibili-api/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = telemetry.Tracer("bilibili.lib.pagestate")

// the deliberately bland user-agent the state fetch goes out with
const conservativeUserAgent = "Mozilla/5.0"

// UseProxyEnv is the environment variable behind the default client's
// strategy switch.
const UseProxyEnv = "BILIBILI_USE_PROXY"

// Client fetches pages and extracts their embedded state. Safe for
// concurrent use, every call builds its own request and, in proxy
// mode, its own pool listing and per-attempt clients.
type Client struct {
	// Session serves direct-mode requests. Nil falls back to the
	// process-wide session.Default().
	Session *resty.Client
	// Fetcher serves proxy-mode requests.
	Fetcher *proxyfetch.Fetcher
	// UseProxy picks the fallback pool over a direct request. The
	// pool is only ever consulted when this is set.
	UseProxy bool
}

type Options struct {
	UseProxy bool
	// Source overrides where proxy-mode candidates come from.
	Source proxypool.Source
	// Session overrides the direct-mode client.
	Session *resty.Client
}

func NewClient(opts Options) *Client {
	source := opts.Source
	if source == nil {
		source = proxypool.NewScrapeAPI()
	}
	return &Client{
		Session:  opts.Session,
		Fetcher:  proxyfetch.NewFetcher(source),
		UseProxy: opts.UseProxy,
	}
}

var defaultClient *Client
var defaultOnce sync.Once

// Get fetches and extracts through a shared default client whose
// proxy switch comes from BILIBILI_USE_PROXY. Absent or falsy means
// direct.
func Get(ctx context.Context, url string, cred *credential.Credential) (State, error) {
	defaultOnce.Do(func() {
		defaultClient = NewClient(Options{UseProxy: UseProxyFromEnv()})
	})
	return defaultClient.Get(ctx, url, cred)
}

// UseProxyFromEnv reads the BILIBILI_USE_PROXY switch. Anything that
// doesn't parse as a bool counts as off.
func UseProxyFromEnv() bool {
	v := os.Getenv(UseProxyEnv)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

// Get fetches the page at url and extracts its embedded state. A nil
// credential is a valid anonymous one. Failures of any stage come
// back as *Error with the stage's kind.
func (c *Client) Get(ctx context.Context, url string, cred *credential.Credential) (State, error) {
	ctx, span := tracer.Start(ctx, "client:Get", trace.WithAttributes(
		attribute.String("url", url),
		attribute.Bool("use_proxy", c.UseProxy),
	))
	defer span.End()

	headers := map[string]string{"User-Agent": conservativeUserAgent}
	cookies := cred.Cookies()

	var text string
	var err error
	if c.UseProxy {
		text, err = c.fetchViaProxies(ctx, url, headers, cookies)
	} else {
		text, err = c.fetchDirect(ctx, url, headers, cookies)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return State{}, err
	}

	state, err := Extract(text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extract failed")
		return State{}, err
	}

	span.SetAttributes(attribute.String("format", state.Format.String()))
	return state, nil
}

func (c *Client) fetchViaProxies(ctx context.Context, url string, headers, cookies map[string]string) (string, error) {
	res, err := c.Fetcher.Fetch(ctx, proxyfetch.Request{
		Url:     url,
		Headers: headers,
		Cookies: cookies,
	})
	if err != nil {
		var exhausted *proxyfetch.ExhaustedError
		switch {
		case errors.Is(err, proxyfetch.ErrNoProxies):
			return "", wrapError(KindProxyUnavailable, err)
		case errors.As(err, &exhausted):
			return "", wrapError(KindProxiesExhausted, err)
		default:
			return "", wrapError(KindTransportFailure, err)
		}
	}
	return res.Text, nil
}

// fetchDirect hands back whatever body the server returned, status
// included. An interstitial or error page simply won't contain the
// state markers and surfaces downstream as state-not-found.
func (c *Client) fetchDirect(ctx context.Context, url string, headers, cookies map[string]string) (string, error) {
	sess := c.Session
	if sess == nil {
		sess = session.Default()
	}

	r := sess.R().
		SetContext(ctx).
		SetHeaders(headers)
	for name, value := range cookies {
		r.SetCookie(&http.Cookie{Name: name, Value: value})
	}

	res, err := r.Get(url)
	if err != nil {
		return "", wrapError(KindTransportFailure, err)
	}
	return res.String(), nil
}
