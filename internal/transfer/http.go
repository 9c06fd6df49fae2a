package transfer

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"regexp"
	"time"
)

// ConnectTimeout bounds connection establishment. Transfers have no total cap.
const ConnectTimeout = 10 * time.Second

var httpRegex = regexp.MustCompile(`(?i)^https?://`)

// HTTPClient transfers artifacts over HTTP and HTTPS
type HTTPClient struct {
	client *http.Client
}

// NewHTTPClient returns a client with a bounded connect timeout and TLS 1.2+
func NewHTTPClient() *HTTPClient {
	dialer := &net.Dialer{
		Timeout:   ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   ConnectTimeout,
		ResponseHeaderTimeout: ConnectTimeout * 3,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		ForceAttemptHTTP2: true,
	}

	return &HTTPClient{client: &http.Client{Transport: transport}}
}

// NewHTTPClientWith wraps an existing http.Client
func NewHTTPClientWith(c *http.Client) *HTTPClient {
	return &HTTPClient{client: c}
}

func (c *HTTPClient) CanHandleProtocol(source string) bool {
	return httpRegex.MatchString(source)
}

func (c *HTTPClient) Probe(ctx context.Context, source string) (*ProbeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, source, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: source}
	}

	final := source
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return &ProbeResult{URL: final, Header: resp.Header}, nil
}

func (c *HTTPClient) Open(ctx context.Context, source string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: source}
	}

	return &Response{
		Body:          resp.Body,
		Header:        resp.Header,
		ContentLength: resp.ContentLength,
	}, nil
}

func (c *HTTPClient) ReadString(ctx context.Context, source string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, URL: source}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
