// Package verify checks detached signatures of downloaded installers.
package verify

import (
	"errors"
	"io"
	"os"

	"github.com/ralt/appget/internal/capability"
)

// ErrNoVerifier is returned when no configured verifier understands a signature
var ErrNoVerifier = errors.New("no verifier accepts this signature format")

// Verifier interface for detached signature verification
type Verifier interface {
	// Accepts reports whether the signature is in a format this verifier reads
	Accepts(signature []byte) bool

	// VerifyDetached checks signature against the content read from data
	VerifyDetached(data io.Reader, signature []byte) error
}

// VerifyFile verifies the file at path with the first verifier that accepts
// the signature format
func VerifyFile(path string, signature []byte, verifiers ...Verifier) error {
	v, ok := capability.First(verifiers, func(v Verifier) bool {
		return v != nil && v.Accepts(signature)
	})
	if !ok {
		return ErrNoVerifier
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return v.VerifyDetached(f, signature)
}
