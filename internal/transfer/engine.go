// Package transfer downloads installer artifacts over pluggable protocols
// and guards against corrupt or mislabelled payloads.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ralt/appget/internal/capability"
	"github.com/ralt/appget/internal/models"
	"github.com/ralt/appget/internal/utils"
	"github.com/ralt/appget/internal/verify"
	"github.com/sirupsen/logrus"
)

// TempSuffix marks a partially downloaded file
const TempSuffix = ".APPGET_DOWNLOAD"

const (
	defaultChunkSize = 32 * 1024
	maxProbeHops     = 10
)

var installerNameRegex = regexp.MustCompile(`(?i)\.(zip|7zip|7z|rar|msi|exe|rpm|tgz|tar\.gz|tar\.xz|tar\.zst)$`)

// Verification describes the integrity checks run after a transfer
type Verification struct {
	Sha256 string
	// Signature locates a detached signature, fetched with FetchText
	Signature string
}

// Engine routes each locator to the first client that accepts it
type Engine struct {
	clients          []Client
	verifiers        []verify.Verifier
	headers          *HeaderCache
	preserveExisting bool
	chunkSize        int
}

// Option configures an Engine
type Option func(*Engine)

// WithClients replaces the protocol clients. Order decides precedence.
func WithClients(clients ...Client) Option {
	return func(e *Engine) {
		e.clients = clients
	}
}

// WithVerifiers sets the signature verifiers, tried in order
func WithVerifiers(verifiers ...verify.Verifier) Option {
	return func(e *Engine) {
		e.verifiers = verifiers
	}
}

// WithPreserveExisting keeps an existing destination until the new file is
// complete instead of deleting it up front
func WithPreserveExisting(preserve bool) Option {
	return func(e *Engine) {
		e.preserveExisting = preserve
	}
}

// WithChunkSize sets the read size, and with it the progress granularity
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// DefaultClients returns HTTP(S), S3 and local file clients in that order
func DefaultClients(s3Region string) []Client {
	return []Client{NewHTTPClient(), NewS3Client(s3Region), NewFileClient()}
}

// NewEngine creates a transfer engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		headers:   NewHeaderCache(),
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.clients == nil {
		e.clients = DefaultClients("")
	}
	return e
}

func (e *Engine) clientFor(source string) (Client, error) {
	c, ok := capability.First(e.clients, func(c Client) bool {
		return c.CanHandleProtocol(source)
	})
	if !ok {
		return nil, models.NewError(models.ErrInvalidDownloadURL, source, "no transfer client handles this locator")
	}
	return c, nil
}

// CachedHeaders returns the response headers of the last successful transfer of source
func (e *Engine) CachedHeaders(source string) (http.Header, bool) {
	return e.headers.Get(source)
}

// ResolveFileName determines the local file name for source. Locators that
// already end in an installer extension are answered without any I/O.
func (e *Engine) ResolveFileName(ctx context.Context, source string) (string, error) {
	return e.resolveFileName(ctx, source, 0)
}

func (e *Engine) resolveFileName(ctx context.Context, source string, hops int) (string, error) {
	if name := nameFromLocator(source); installerNameRegex.MatchString(name) {
		return name, nil
	}

	if hops >= maxProbeHops {
		return "", models.NewError(models.ErrInvalidDownloadURL, source, "too many redirects while resolving file name")
	}

	c, err := e.clientFor(source)
	if err != nil {
		return "", err
	}

	probe, err := c.Probe(ctx, source)
	if err != nil {
		return "", &models.AppGetError{Type: models.ErrInvalidDownloadURL, Source: source, Err: err}
	}

	if probe.URL != "" && probe.URL != source {
		logrus.Debugf("Resolving file name through redirect %s -> %s", source, probe.URL)
		return e.resolveFileName(ctx, probe.URL, hops+1)
	}

	if name := dispositionFileName(probe.Header.Get("Content-Disposition")); name != "" {
		return name, nil
	}

	return "", models.NewError(models.ErrInvalidDownloadURL, source, "unable to determine file name")
}

func nameFromLocator(source string) string {
	p := source
	if i := strings.IndexAny(p, "?#"); i >= 0 && strings.Contains(p, "://") {
		p = p[:i]
	}
	return path.Base(strings.ReplaceAll(p, `\`, "/"))
}

func dispositionFileName(cd string) string {
	if cd == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	name := params["filename"]
	if name == "" {
		return ""
	}
	// servers control this value; keep only the last path element
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

// Transfer streams source into dest. The bytes land in dest+TempSuffix and
// are renamed into place only when the stream completes cleanly. A textual
// content type aborts the transfer as an invalid download URL.
func (e *Engine) Transfer(ctx context.Context, source, dest string, hooks Hooks) error {
	c, err := e.clientFor(source)
	if err != nil {
		return err
	}

	if !e.preserveExisting {
		if err := utils.RemoveIfExists(dest); err != nil {
			return &models.AppGetError{Type: models.ErrTransferFailure, Source: source, Err: err}
		}
	}

	tempFile := dest + TempSuffix
	state := &transferState{}

	fail := func(err error) error {
		if rmErr := utils.RemoveIfExists(tempFile); rmErr != nil {
			logrus.Warnf("Failed to remove partial download %s: %v", tempFile, rmErr)
		}
		var ae *models.AppGetError
		if errors.As(err, &ae) && ae.Type == models.ErrInvalidDownloadURL {
			return err
		}
		return &models.AppGetError{Type: models.ErrTransferFailure, Source: source, Err: err}
	}

	resp, err := c.Open(ctx, source)
	if err != nil {
		return fail(err)
	}

	out, err := createTemp(tempFile)
	if err != nil {
		resp.Body.Close()
		return fail(err)
	}

	logrus.Debugf("Downloading %s to %s", source, tempFile)

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.stream(source, resp, out, state, hooks)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		state.requestCancel(ctx.Err())
		resp.Body.Close()
		<-done
	}

	resp.Body.Close()
	closeErr := out.Close()

	if err := state.failure(); err != nil {
		return fail(err)
	}
	if closeErr != nil {
		return fail(closeErr)
	}

	if err := utils.MoveFile(tempFile, dest); err != nil {
		return fail(err)
	}

	e.headers.Put(source, resp.Header)
	hooks.completed(state.final())
	return nil
}

func createTemp(p string) (*os.File, error) {
	if err := utils.EnsureDir(filepath.Dir(p)); err != nil {
		return nil, err
	}
	return os.Create(p)
}

// stream copies the body chunk by chunk. A cancel request is honoured at the
// top of the next iteration.
func (e *Engine) stream(source string, resp *Response, out io.Writer, state *transferState, hooks Hooks) {
	var total *int64
	if resp.ContentLength > 0 {
		n := resp.ContentLength
		total = &n
	}
	contentType := resp.Header.Get("Content-Type")
	textual := strings.Contains(strings.ToLower(contentType), "text")
	rejectText := func() {
		state.requestCancel(models.NewError(models.ErrInvalidDownloadURL, source, "[ContentType=%s]", contentType))
	}

	buf := make([]byte, e.chunkSize)
	for {
		if state.cancelled() {
			return
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				state.fail(err)
				return
			}
			p := state.advance(int64(n), total)

			if textual {
				rejectText()
			}
			hooks.progress(p)
		}

		if readErr == io.EOF {
			// an empty textual body never reaches the per-chunk check
			if textual {
				rejectText()
			}
			return
		}
		if readErr != nil {
			state.fail(readErr)
			return
		}
	}
}

// TransferFile resolves the file name for source, downloads it into destDir
// and runs the requested verification. A file that fails verification is
// deleted.
func (e *Engine) TransferFile(ctx context.Context, source, destDir string, v *Verification, hooks Hooks) (string, error) {
	name, err := e.ResolveFileName(ctx, source)
	if err != nil {
		return "", err
	}

	dest, err := utils.SafeJoin(destDir, name)
	if err != nil {
		return "", &models.AppGetError{Type: models.ErrInvalidDownloadURL, Source: source, Err: err}
	}

	if err := e.Transfer(ctx, source, dest, hooks); err != nil {
		return "", err
	}

	if err := e.verify(ctx, source, dest, v); err != nil {
		e.headers.Delete(source)
		if rmErr := utils.RemoveIfExists(dest); rmErr != nil {
			logrus.Warnf("Failed to remove unverified file %s: %v", dest, rmErr)
		}
		return "", err
	}

	return dest, nil
}

func (e *Engine) verify(ctx context.Context, source, dest string, v *Verification) error {
	if v == nil {
		return nil
	}

	if v.Sha256 != "" {
		if err := utils.VerifySHA256(dest, v.Sha256); err != nil {
			return &models.AppGetError{Type: models.ErrIntegrity, Source: source, Err: err}
		}
		logrus.Debugf("Checksum verified for %s", dest)
	}

	if v.Signature == "" {
		return nil
	}
	if len(e.verifiers) == 0 {
		logrus.Warnf("Signature for %s not checked: no keyring configured", source)
		return nil
	}

	sig, err := e.FetchText(ctx, v.Signature)
	if err != nil {
		return &models.AppGetError{Type: models.ErrIntegrity, Source: v.Signature, Err: fmt.Errorf("failed to fetch signature: %w", err)}
	}
	if err := verify.VerifyFile(dest, []byte(sig), e.verifiers...); err != nil {
		return &models.AppGetError{Type: models.ErrIntegrity, Source: source, Err: err}
	}
	logrus.Debugf("Signature verified for %s", dest)
	return nil
}

// FetchText returns the body of a small text resource, always fresh
func (e *Engine) FetchText(ctx context.Context, source string) (string, error) {
	c, err := e.clientFor(source)
	if err != nil {
		return "", err
	}
	body, err := c.ReadString(ctx, source)
	if err != nil {
		return "", &models.AppGetError{Type: models.ErrTransferFailure, Source: source, Err: err}
	}
	return body, nil
}
