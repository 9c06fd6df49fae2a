package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// FileSystemScanner implements Scanner interface for filesystem scanning
type FileSystemScanner struct {
	// Match restricts results to the given kinds; nil accepts every known kind
	Match func(InstallerKind) bool
}

// NewFileSystemScanner creates a new filesystem scanner
func NewFileSystemScanner() *FileSystemScanner {
	return &FileSystemScanner{}
}

// NewExecutableScanner creates a scanner that only reports launchable files
func NewExecutableScanner() *FileSystemScanner {
	return &FileSystemScanner{Match: InstallerKind.IsExecutable}
}

// Scan recursively scans a directory for files of a known kind
func (s *FileSystemScanner) Scan(ctx context.Context, dir string) ([]ScannedFile, error) {
	var files []ScannedFile

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}

		kind, err := s.DetectKind(path)
		if err != nil {
			logrus.Warnf("Failed to detect kind for %s: %v", path, err)
			return nil
		}

		if kind == KindUnknown {
			return nil
		}
		if s.Match != nil && !s.Match(kind) {
			return nil
		}

		logrus.Debugf("Found %s file: %s", kind, path)

		files = append(files, ScannedFile{
			Path: path,
			Kind: kind,
			Size: info.Size(),
		})

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	return files, nil
}

// DetectKind determines the installer kind of a file
func (s *FileSystemScanner) DetectKind(path string) (InstallerKind, error) {
	return DetectKind(path)
}
