// Package catalog queries the remote package catalog.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ralt/appget/internal/httputil"
	"github.com/ralt/appget/internal/models"
	"github.com/sirupsen/logrus"
)

const maxResponseBytes = 10 << 20

// Client talks to the catalog REST API
type Client struct {
	root  string
	http  *http.Client
	retry httputil.RetryConfig
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithRetry replaces the retry policy
func WithRetry(cfg httputil.RetryConfig) Option {
	return func(cl *Client) {
		cl.retry = cfg
	}
}

// NewClient creates a catalog client rooted at apiRoot
func NewClient(apiRoot string, opts ...Option) *Client {
	c := &Client{
		root:  strings.TrimRight(apiRoot, "/"),
		http:  &http.Client{Timeout: 30 * time.Second},
		retry: httputil.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetLatest returns the latest release of the named package, or nil when
// the catalog does not know it
func (c *Client) GetLatest(ctx context.Context, name string) (*models.PackageInfo, error) {
	logrus.Infof("Getting package %s", name)

	endpoint := fmt.Sprintf("%s/packages/%s/latest", c.root, url.PathEscape(strings.TrimSpace(name)))
	var info models.PackageInfo
	found, err := c.get(ctx, endpoint, &info)
	if err != nil || !found {
		return nil, err
	}
	return &info, nil
}

// Search returns the packages matching term
func (c *Client) Search(ctx context.Context, term string) ([]models.PackageInfo, error) {
	logrus.Debugf("Searching for '%s' in %s", term, c.root)

	q := url.Values{}
	q.Set("q", strings.TrimSpace(term))
	endpoint := c.root + "/packages?" + q.Encode()

	var results []models.PackageInfo
	found, err := c.get(ctx, endpoint, &results)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return results, nil
}

// get decodes a JSON resource into out. found is false on 404.
func (c *Client) get(ctx context.Context, endpoint string, out any) (found bool, err error) {
	headers := http.Header{}
	headers.Set("Accept", "application/json")

	resp, err := httputil.Do(ctx, c.http, http.MethodGet, endpoint, nil, headers, c.retry)
	if err != nil {
		return false, &models.AppGetError{Type: models.ErrRemoteFailure, Source: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, &models.AppGetError{
			Type:   models.ErrRemoteFailure,
			Source: endpoint,
			Err:    &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))},
		}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return false, &models.AppGetError{Type: models.ErrRemoteFailure, Source: endpoint, Err: fmt.Errorf("invalid response: %w", err)}
	}
	return true, nil
}

// StatusError carries an unexpected catalog status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("catalog returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}
