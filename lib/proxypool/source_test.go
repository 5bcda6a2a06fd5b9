package proxypool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/jishux2/bilibili-api/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/proxypool")
	defer cleanup()

	cases := []struct {
		name   string
		status int
		body   string
		expect []Endpoint
	}{
		{
			name:   "crlf body",
			status: 200,
			body:   "1.2.3.4:8080\r\n5.6.7.8:3128\r\n",
			expect: []Endpoint{"http://1.2.3.4:8080", "http://5.6.7.8:3128"},
		},
		{
			name:   "lf body",
			status: 200,
			body:   "1.2.3.4:8080\n5.6.7.8:3128",
			expect: []Endpoint{"http://1.2.3.4:8080", "http://5.6.7.8:3128"},
		},
		{
			name:   "blank lines skipped",
			status: 200,
			body:   "\r\n1.2.3.4:8080\r\n\r\n",
			expect: []Endpoint{"http://1.2.3.4:8080"},
		},
		{
			name:   "empty body",
			status: 200,
			body:   "",
			expect: nil,
		},
		{
			name:   "server error",
			status: 500,
			body:   "1.2.3.4:8080",
			expect: nil,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(test.status)
					w.Write([]byte(test.body))
				},
			))
			defer server.Close()

			source := NewScrapeAPI()
			source.Url = server.URL

			got := source.List(context.Background())
			require.Equal(t, test.expect, got)
		})
	}
}

func TestListUnreachable(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:lib/proxypool")
	defer cleanup()

	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	source := NewScrapeAPI()
	source.Url = server.URL
	require.Empty(t, source.List(context.Background()))
}

func TestListingFilters(t *testing.T) {
	u, err := url.Parse(NewScrapeAPI().Url)
	require.NoError(t, err)

	q := u.Query()
	require.Equal(t, "displayproxies", q.Get("request"))
	require.Equal(t, "http", q.Get("protocol"))
	require.Equal(t, "all", q.Get("country"))
	require.Equal(t, "all", q.Get("anonymity"))
}

func TestStatic(t *testing.T) {
	source := Static{"http://1.2.3.4:8080"}
	require.Equal(t, []Endpoint{"http://1.2.3.4:8080"}, source.List(context.Background()))
	require.Equal(t, "static", source.Name())
}
