package transfer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ralt/appget/internal/models"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(f.types[key]),
	}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	if _, ok := f.objects[key]; !ok {
		return nil, errors.New("NotFound")
	}
	return &s3.HeadObjectOutput{
		ContentDisposition: aws.String(`attachment; filename="mirror-tool.bin"`),
		ContentType:        aws.String(f.types[key]),
	}, nil
}

func TestS3Transfer(t *testing.T) {
	api := &fakeS3{
		objects: map[string][]byte{
			"mirror/tools/tool.msi":    []byte("msi payload"),
			"mirror/tools/latest":      []byte("exe payload"),
			"mirror/pages/error.html":  []byte("<html/>"),
			"mirror/manifests/vlc.yml": []byte("id: vlc\n"),
		},
		types: map[string]string{
			"mirror/tools/tool.msi":   "application/x-msi",
			"mirror/tools/latest":     "application/octet-stream",
			"mirror/pages/error.html": "text/html",
		},
	}
	e := NewEngine(WithClients(NewHTTPClient(), newS3ClientWithAPI(api), NewFileClient()))
	dir := t.TempDir()

	p, err := e.TransferFile(context.Background(), "s3://mirror/tools/tool.msi", dir, nil, Hooks{})
	if err != nil {
		t.Fatalf("TransferFile failed: %v", err)
	}
	if got, _ := os.ReadFile(p); string(got) != "msi payload" {
		t.Errorf("Unexpected content %q", got)
	}

	p, err = e.TransferFile(context.Background(), "s3://mirror/tools/latest", dir, nil, Hooks{})
	if err != nil {
		t.Fatalf("TransferFile failed: %v", err)
	}
	if filepath.Base(p) != "mirror-tool.bin" {
		t.Errorf("Expected name from Content-Disposition, got %s", p)
	}

	err = e.Transfer(context.Background(), "s3://mirror/pages/error.html", filepath.Join(dir, "error.exe"), Hooks{})
	if !models.IsType(err, models.ErrInvalidDownloadURL) {
		t.Errorf("Expected InvalidDownloadUrl for text object, got %v", err)
	}

	body, err := e.FetchText(context.Background(), "s3://mirror/manifests/vlc.yml")
	if err != nil || body != "id: vlc\n" {
		t.Errorf("Unexpected FetchText result %q %v", body, err)
	}

	if _, _, err := parseS3("s3://bucket-only"); err == nil {
		t.Error("Expected error for locator without key")
	}
}
