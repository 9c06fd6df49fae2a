package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestKindFromName(t *testing.T) {
	tests := map[string]InstallerKind{
		"http://host/path/setup.exe":              KindExe,
		"https://host/dl/7z1900-x64.MSI":          KindMSI,
		"https://host/app.tar.gz?token=abc":       KindTarGz,
		"s3://bucket/tools/app-1.0.tar.zst":       KindTarZst,
		`C:\Downloads\app.zip`:                    KindZip,
		"/tmp/pkg-1.0-1.x86_64.rpm":               KindRPM,
		"https://host/download?id=42":             KindUnknown,
		"https://github.com/x/y/releases/latest":  KindUnknown,
		"file:///opt/cache/tool.tar.xz#fragment":  KindTarXz,
	}

	for name, want := range tests {
		if got := KindFromName(name); got != want {
			t.Errorf("KindFromName(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestDetectKindPrefersMagicBytes(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name    string
		content []byte
		want    InstallerKind
	}{
		// a download saved under a generic name is still recognized
		{"download.bin", append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, 0, 0), KindMSI},
		{"setup", []byte("MZ\x90\x00"), KindExe},
		{"archive", []byte{0x50, 0x4B, 0x03, 0x04, 0x14}, KindZip},
		{"pkg", []byte{0xED, 0xAB, 0xEE, 0xDB, 0x03}, KindRPM},
		{"tool", []byte{0x7F, 'E', 'L', 'F', 2}, KindELF},
		{"run", []byte("#!/bin/sh\necho hi\n"), KindScript},
		{"notes.zip", []byte("not really a zip"), KindZip},
		{"notes.txt", []byte("plain text"), KindUnknown},
	}

	for _, tc := range cases {
		p := filepath.Join(dir, tc.name)
		if err := os.WriteFile(p, tc.content, 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", tc.name, err)
		}
		got, err := DetectKind(p)
		if err != nil {
			t.Fatalf("DetectKind(%s) failed: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("DetectKind(%s) = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestExecutableScanner(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "bin"), 0755)
	os.WriteFile(filepath.Join(dir, "bin", "tool"), []byte{0x7F, 'E', 'L', 'F', 2}, 0755)
	os.WriteFile(filepath.Join(dir, "bin", "start.sh"), []byte("#!/bin/sh\n"), 0755)
	os.WriteFile(filepath.Join(dir, "README"), []byte("docs"), 0644)
	os.WriteFile(filepath.Join(dir, "data.zip"), []byte{0x50, 0x4B, 0x03, 0x04}, 0644)

	files, err := NewExecutableScanner().Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("Expected 2 executables, got %d: %+v", len(files), files)
	}

	all, err := NewFileSystemScanner().Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 known files, got %d", len(all))
	}
}

func TestScanHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.exe"), []byte("MZ"), 0644)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewFileSystemScanner().Scan(ctx, dir); err == nil {
		t.Error("Expected cancelled scan to fail")
	}
}
