package session

import (
	"net/http/cookiejar"
	"time"

	"github.com/jishux2/bilibili-api/lib/restyutil"
	"github.com/jishux2/bilibili-api/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

// New builds a client with the baseline configuration every direct
// request to the site shares: a cookie jar so server-set cookies
// (buvid3 and friends) survive across requests, a browser user-agent,
// a cloudflare bypass transport and redirect following. Redirects are
// deliberately not restricted to one host, short links bounce through
// b23.tv before landing on the real page.
func New() *resty.Client {
	client := resty.New()

	jar, err := cookiejar.New(nil)
	if err != nil {
		panic(err)
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "session/http")

	return client
}

var client = New()

// Default returns the shared process-wide client.
func Default() *resty.Client {
	return client
}

// Set replaces the shared client, mainly so tests can point it at a
// local server.
func Set(c *resty.Client) {
	client = c
}

func SetRestyInstrumentOutput(output restyutil.InstrumentOutput) {
	restyutil.InstrumentClient(client, nil, output)
}
