// Package shortlink resolves b23.tv style share links to the page
// they actually point at.
package shortlink

import (
	"context"
	"fmt"

	"github.com/jishux2/bilibili-api/lib/session"
	"github.com/jishux2/bilibili-api/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = telemetry.Tracer("bilibili.lib.shortlink")

// Resolve follows the redirect chain behind url and reports the final
// address, tracking parameters and all. A nil client falls back to
// the process-wide session.Default().
func Resolve(ctx context.Context, client *resty.Client, url string) (string, error) {
	ctx, span := tracer.Start(ctx, "Resolve", trace.WithAttributes(
		attribute.String("url", url),
	))
	defer span.End()

	if client == nil {
		client = session.Default()
	}

	res, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("resolve short link: %w", err)
	}

	resolved := res.RawResponse.Request.URL.String()
	span.SetAttributes(attribute.String("resolved", resolved))
	return resolved, nil
}
