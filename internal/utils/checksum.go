package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Checksum contains the digest and size of a file
type Checksum struct {
	SHA256 string
	Size   int64
}

// CalculateChecksum streams a file through SHA-256
func CalculateChecksum(path string) (*Checksum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return nil, err
	}

	return &Checksum{
		SHA256: hex.EncodeToString(h.Sum(nil)),
		Size:   n,
	}, nil
}

// ChecksumMismatchError is returned when a file does not hash to the expected digest
type ChecksumMismatchError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

// VerifySHA256 compares a file's digest with an expected hex digest, ignoring case
func VerifySHA256(path, expected string) error {
	sum, err := CalculateChecksum(path)
	if err != nil {
		return err
	}
	expected = strings.ToLower(strings.TrimSpace(expected))
	if sum.SHA256 != expected {
		return &ChecksumMismatchError{Path: path, Expected: expected, Actual: sum.SHA256}
	}
	return nil
}
