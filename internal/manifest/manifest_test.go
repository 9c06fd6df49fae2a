package manifest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ralt/appget/internal/models"
)

const vlcManifest = `id: vlc
name: VLC media player
version: 3.0.20
versionTag: Latest
home: https://www.videolan.org
installMethod: NSIS
installers:
  - location: https://get.videolan.org/vlc/3.0.20/win64/vlc-3.0.20-win64.exe
    architecture: amd64
    sha256: " D4ED6C1A3E5B0F3B0E7E1F0D5C6A1B2C3D4E5F60718293A4B5C6D7E8F9012345 "
  - location: https://get.videolan.org/vlc/3.0.20/win32/vlc-3.0.20-win32.exe
    architecture: i686
args:
  silent: ["/L=1033"]
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(vlcManifest))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if m.ID != "vlc" || m.DisplayName() != "VLC media player" {
		t.Errorf("Unexpected identity: %s %s", m.ID, m.DisplayName())
	}
	if m.VersionTag != nil {
		t.Errorf("Expected latest to be stored as nil, got %q", *m.VersionTag)
	}
	if m.InstallMethod != models.MethodNSIS {
		t.Errorf("Expected nsis, got %s", m.InstallMethod)
	}
	if m.Installers[0].Architecture != models.ArchX64 || m.Installers[1].Architecture != models.ArchX86 {
		t.Errorf("Architectures not normalized: %+v", m.Installers)
	}
	if m.Installers[0].Sha256 != strings.ToLower("D4ED6C1A3E5B0F3B0E7E1F0D5C6A1B2C3D4E5F60718293A4B5C6D7E8F9012345") {
		t.Errorf("Checksum not normalized: %q", m.Installers[0].Sha256)
	}
	if len(m.Args.Silent) != 1 || m.Args.Silent[0] != "/L=1033" {
		t.Errorf("Unexpected args: %+v", m.Args)
	}
}

func TestParseKeepsExplicitVersionTag(t *testing.T) {
	data := strings.Replace(vlcManifest, "versionTag: Latest", "versionTag: Beta", 1)
	m, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.VersionTag == nil || *m.VersionTag != "beta" {
		t.Errorf("Expected lowercased tag, got %v", m.VersionTag)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no installers", "id: x\ninstallMethod: msi\ninstallers: []\n"},
		{"missing id", "installMethod: msi\ninstallers:\n  - location: https://x/a.msi\n"},
		{"unknown method", "id: x\ninstallMethod: dmg\ninstallers:\n  - location: https://x/a.dmg\n"},
		{"unknown field", "id: x\ninstallMethod: msi\nlicense: MIT\ninstallers:\n  - location: https://x/a.msi\n"},
		{"bad checksum", "id: x\ninstallMethod: msi\ninstallers:\n  - location: https://x/a.msi\n    sha256: abc\n"},
		{"not yaml", "id: [unterminated\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !models.IsType(err, models.ErrInvalidManifest) {
				t.Errorf("Expected InvalidManifest, got %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vlc.yaml")
	if err := os.WriteFile(path, []byte(vlcManifest), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("id: x\n"), 0644)
	_, err := Load(bad)
	if !models.IsType(err, models.ErrInvalidManifest) || !strings.Contains(err.Error(), bad) {
		t.Errorf("Expected InvalidManifest naming the file, got %v", err)
	}
}

type staticFetcher map[string]string

func (f staticFetcher) FetchText(ctx context.Context, source string) (string, error) {
	body, ok := f[source]
	if !ok {
		return "", os.ErrNotExist
	}
	return body, nil
}

func TestFetch(t *testing.T) {
	f := staticFetcher{"https://example.com/vlc.yaml": vlcManifest}
	m, err := Fetch(context.Background(), f, "https://example.com/vlc.yaml")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if m.ID != "vlc" {
		t.Errorf("Unexpected manifest %s", m.ID)
	}

	if _, err := Fetch(context.Background(), f, "https://example.com/missing.yaml"); err == nil {
		t.Error("Expected error for missing manifest")
	}
}

func TestEncodeParses(t *testing.T) {
	m, err := Parse([]byte(vlcManifest))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	out, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if strings.Contains(string(out), "versionTag") {
		t.Errorf("Nil version tag should be omitted:\n%s", out)
	}
	again, err := Parse(out)
	if err != nil {
		t.Fatalf("Encoded manifest does not parse: %v\n%s", err, out)
	}
	if again.ID != m.ID || len(again.Installers) != len(m.Installers) {
		t.Errorf("Encoded manifest differs: %+v", again)
	}
}
