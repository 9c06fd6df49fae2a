package transfer

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FileClient copies artifacts from the local filesystem or a mounted share.
// It accepts file:// URLs and plain paths.
type FileClient struct{}

// NewFileClient creates a local file client
func NewFileClient() *FileClient {
	return &FileClient{}
}

func (c *FileClient) CanHandleProtocol(source string) bool {
	if strings.HasPrefix(strings.ToLower(source), "file://") {
		return true
	}
	return !strings.Contains(source, "://")
}

func localPath(source string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(source), "file://") {
		return source, nil
	}
	u, err := url.Parse(source)
	if err != nil {
		return "", err
	}
	p := u.Path
	// file://server/share/x becomes a UNC path
	if u.Host != "" && u.Host != "localhost" {
		p = "//" + u.Host + p
	}
	return filepath.FromSlash(p), nil
}

func (c *FileClient) Probe(ctx context.Context, source string) (*ProbeResult, error) {
	p, err := localPath(source)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", p)
	}

	h := http.Header{}
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(p)}))
	return &ProbeResult{URL: source, Header: h}, nil
}

func (c *FileClient) Open(ctx context.Context, source string) (*Response, error) {
	p, err := localPath(source)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	h := http.Header{}
	h.Set("Content-Length", fmt.Sprint(info.Size()))
	h.Set("Last-Modified", info.ModTime().UTC().Format(http.TimeFormat))
	return &Response{Body: f, Header: h, ContentLength: info.Size()}, nil
}

func (c *FileClient) ReadString(ctx context.Context, source string) (string, error) {
	p, err := localPath(source)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
