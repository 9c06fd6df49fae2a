package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Response is an open artifact stream
type Response struct {
	Body io.ReadCloser
	// Header holds protocol metadata; Content-Type drives the corruption guard
	Header http.Header
	// ContentLength is -1 when unknown
	ContentLength int64
}

// ProbeResult is the metadata a client can report without fetching the body
type ProbeResult struct {
	// URL is the location the probe ended on, after any redirects
	URL    string
	Header http.Header
}

// Client implements one transfer protocol
type Client interface {
	// CanHandleProtocol reports whether the client understands the locator
	CanHandleProtocol(source string) bool

	// Probe fetches metadata used to name the artifact
	Probe(ctx context.Context, source string) (*ProbeResult, error)

	// Open starts streaming the artifact
	Open(ctx context.Context, source string) (*Response, error)

	// ReadString returns the body of a small text resource, bypassing caches
	ReadString(ctx context.Context, source string) (string, error)
}

// StatusError reports a non-success protocol status
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}
