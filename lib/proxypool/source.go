package proxypool

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jishux2/bilibili-api/lib/restyutil"
	"github.com/jishux2/bilibili-api/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Endpoint is a proxy URI (scheme, host and port). It carries no
// state beyond identity and is never checked for reachability before
// use.
type Endpoint string

// Source produces candidate proxy endpoints in the order they should
// be tried. Implementations report "no candidates" as an empty slice,
// never as an error, callers must treat an empty pool as an ordinary
// outcome.
type Source interface {
	List(ctx context.Context) []Endpoint
	Name() string
}

const scrapeApiUrl = "https://api.proxyscrape.com/v2/?request=displayproxies&protocol=http&timeout=10000&country=all&ssl=all&anonymity=all"

// ScrapeAPI lists free proxies from the public proxyscrape API. The
// filters are static: http proxies, any country, any anonymity level.
type ScrapeAPI struct {
	http *resty.Client
	// Url of the listing service, overridable for tests.
	Url string
}

func NewScrapeAPI() *ScrapeAPI {
	client := resty.New()
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "proxypool/http")
	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &ScrapeAPI{
		http: client,
		Url:  scrapeApiUrl,
	}
}

func (s *ScrapeAPI) Name() string {
	return "proxyscrape"
}

func (s *ScrapeAPI) List(ctx context.Context) []Endpoint {
	ctx, span := tracer.Start(ctx, "scrapeapi:List")
	defer span.End()

	res, err := s.http.R().
		SetContext(ctx).
		Get(s.Url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch proxy list")
		slog.WarnContext(ctx, "failed to fetch proxy list", "source", s.Name(), "err", err)
		return nil
	}
	if res.StatusCode() != 200 {
		span.SetStatus(codes.Error, "proxy list request failed")
		slog.WarnContext(
			ctx, "proxy list request failed",
			"source", s.Name(),
			"status", res.StatusCode(),
		)
		return nil
	}

	endpoints := parseEndpoints(res.String())
	span.SetAttributes(attribute.Int("count", len(endpoints)))
	slog.DebugContext(ctx, "fetched proxy list", "source", s.Name(), "count", len(endpoints))
	return endpoints
}

// parseEndpoints turns a newline-delimited list of host:port pairs
// into endpoints. Lines are trimmed so both CRLF and LF bodies work,
// empty lines are skipped, everything else is taken as-is.
func parseEndpoints(body string) []Endpoint {
	var endpoints []Endpoint
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		endpoints = append(endpoints, Endpoint("http://"+line))
	}
	return endpoints
}

// Static is a fixed pool for when the proxies come from somewhere
// else entirely.
type Static []Endpoint

func (s Static) List(ctx context.Context) []Endpoint {
	return s
}

func (s Static) Name() string {
	return "static"
}
