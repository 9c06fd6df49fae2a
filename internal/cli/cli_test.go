package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
)

type testEnv struct {
	dir     string
	cfgPath string
	dataDir string
	srv     *httptest.Server
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to add %s: %v", name, err)
		}
		w.Write([]byte(content))
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	archive := buildZip(t, map[string]string{
		"tool/tool.exe":    "MZ fake executable",
		"tool/README.txt":  "readme",
		"tool/lib/lib.dll": "MZ fake library",
	})

	env := &testEnv{dir: dir, dataDir: filepath.Join(dir, "data")}

	mux := http.NewServeMux()
	mux.HandleFunc("/files/tool-1.2.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Length", fmt.Sprint(len(archive)))
		if r.Method == http.MethodHead {
			return
		}
		w.Write(archive)
	})
	mux.HandleFunc("/manifests/tool.yaml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, toolManifest(env.srv.URL))
	})
	mux.HandleFunc("/v1/packages/tool/latest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id":"tool","name":"Tool","version":"1.2","manifestPath":"%s/manifests/tool.yaml"}`, env.srv.URL)
	})
	mux.HandleFunc("/v1/packages", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"tool","name":"Tool","version":"1.2"}]`)
	})
	env.srv = httptest.NewServer(mux)
	t.Cleanup(env.srv.Close)

	env.cfgPath = filepath.Join(dir, "appget.yaml")
	cfg := fmt.Sprintf("api_root: %s/v1\ntemp_dir: %s\ndata_dir: %s\n",
		env.srv.URL, filepath.Join(dir, "tmp"), env.dataDir)
	if err := os.WriteFile(env.cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return env
}

func toolManifest(base string) string {
	return fmt.Sprintf(`id: tool
name: Tool
version: "1.2"
installMethod: zip
installers:
  - location: %s/files/tool-1.2.zip
`, base)
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestInstallFromManifestFileThenList(t *testing.T) {
	env := newTestEnv(t)

	manifestPath := filepath.Join(env.dir, "tool.yaml")
	if err := os.WriteFile(manifestPath, []byte(toolManifest(env.srv.URL)), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}

	if _, err := env.run(t, "install", "--no-progress", manifestPath); err != nil {
		t.Fatalf("install failed: %v", err)
	}

	exe := filepath.Join(env.dataDir, "apps", "tool", "tool", "tool.exe")
	if _, err := os.Stat(exe); err != nil {
		t.Errorf("Expected extracted executable at %s: %v", exe, err)
	}

	out, err := env.run(t, "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "tool") || !strings.Contains(out, "1.2") {
		t.Errorf("Installed product missing from list:\n%s", out)
	}
}

func TestInstallFromCatalog(t *testing.T) {
	env := newTestEnv(t)
	target := filepath.Join(env.dir, "custom")

	if _, err := env.run(t, "install", "--target-dir", target, "tool"); err != nil {
		t.Fatalf("install failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(target, "tool", "tool.exe")); err != nil {
		t.Errorf("Expected install in target dir: %v", err)
	}
}

func TestInstallUnknownPackage(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "install", "nonexistent")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestShowAndSearch(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "show", "tool")
	if err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out, "installMethod: zip") || !strings.Contains(out, "/files/tool-1.2.zip") {
		t.Errorf("Unexpected show output:\n%s", out)
	}

	out, err = env.run(t, "search", "to")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.Contains(out, "ID") || !strings.Contains(out, "tool") {
		t.Errorf("Unexpected search output:\n%s", out)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	env := newTestEnv(t)
	os.WriteFile(env.cfgPath, []byte("api_root: ftp://nowhere\n"), 0644)

	if _, err := env.run(t, "list"); err == nil {
		t.Error("Expected invalid config error")
	}
}

func TestLoadVerifierRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyring")
	os.WriteFile(path, []byte("not a key"), 0644)

	if _, err := loadVerifier(path); err == nil {
		t.Error("Expected error for unusable keyring")
	}
}

func TestIsManifestPath(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "pkg")
	os.WriteFile(existing, []byte("id: x"), 0644)

	tests := []struct {
		arg  string
		want bool
	}{
		{"vlc", false},
		{"vlc.yaml", true},
		{"VLC.YML", true},
		{existing, true},
		{dir, false},
	}
	for _, tt := range tests {
		if got := isManifestPath(tt.arg); got != tt.want {
			t.Errorf("isManifestPath(%q) = %v, want %v", tt.arg, got, tt.want)
		}
	}
}
