// Package origin provides a concrete engine.Fetcher that reaches a remote
// HTTP origin. The engine core treats the origin fetcher purely as an
// injected function (spec §6); this package is the one concrete
// implementation the CLI wires in, modeled on the teacher's upstream HTTP
// client.
package origin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/ionlayer/tiercache/internal/engine"
	"github.com/ionlayer/tiercache/internal/fingerprint"
)

// Client forwards descriptors to a remote HTTP origin using a shared,
// connection-pooled http.Client.
type Client struct {
	httpClient *http.Client
	scheme     string
}

// NewClient creates a Client with pooling and timeout defaults matching the
// teacher's upstream client, and a per-call timeout applied via the
// context the engine passes to Fetch (profiles configure this at the
// engine layer, not here).
func NewClient(scheme string, timeout time.Duration) *Client {
	if scheme == "" {
		scheme = "https"
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		scheme: scheme,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// Fetch satisfies engine.Fetcher: it issues an HTTP request built from d
// and maps the response into an engine.OriginResult. A 4xx response is
// still a successful fetch from the transport's point of view but is
// reported via engine.OriginBadResponse so the caller can cache it
// negatively (per spec §7, OriginBadResponse); a 5xx response and
// transport failures (DNS, connection refused, timeout) are returned as a
// plain error for stale-fallback.
func (c *Client) Fetch(ctx context.Context, d fingerprint.Descriptor) (engine.OriginResult, error) {
	url := fmt.Sprintf("%s://%s%s", c.scheme, d.Host, d.Path)
	if q := encodeQuery(d.Query); q != "" {
		url += "?" + q
	}

	method := d.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(d.Body) > 0 {
		body = bytes.NewReader(d.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return engine.OriginResult{}, fmt.Errorf("origin: building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return engine.OriginResult{}, fmt.Errorf("origin: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return engine.OriginResult{}, fmt.Errorf("origin: reading response body: %w", err)
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	var originExpiry time.Time
	if exp := resp.Header.Get("Expires"); exp != "" {
		if t, err := http.ParseTime(exp); err == nil {
			originExpiry = t
		}
	}

	result := engine.OriginResult{
		Body:                    respBody,
		Headers:                 headers,
		StatusCode:              fmt.Sprintf("%d", resp.StatusCode),
		OriginProvidedExpiresAt: originExpiry,
	}

	if resp.StatusCode >= 500 {
		return engine.OriginResult{}, fmt.Errorf("origin: upstream returned status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return result, &engine.OriginBadResponse{Result: result}
	}
	return result, nil
}

func encodeQuery(params []fingerprint.QueryParam) string {
	if len(params) == 0 {
		return ""
	}
	q := url.Values{}
	for _, p := range params {
		q.Add(p.Key, p.Value)
	}
	return q.Encode()
}
