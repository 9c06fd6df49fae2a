package verify

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

var armoredSignatureHeader = []byte("-----BEGIN PGP SIGNATURE-----")

// GPGVerifier implements Verifier using an OpenPGP public keyring
type GPGVerifier struct {
	keyring openpgp.EntityList
}

// NewGPGVerifier creates a new GPG verifier from a public keyring file
func NewGPGVerifier(keyPath string) (*GPGVerifier, error) {
	if keyPath == "" {
		return nil, fmt.Errorf("key path is empty")
	}

	keyFile, err := os.Open(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file: %w", err)
	}
	defer keyFile.Close()

	return NewGPGVerifierFromReader(keyFile)
}

// NewGPGVerifierFromReader reads an armored or binary keyring from r
func NewGPGVerifierFromReader(r io.ReadSeeker) (*GPGVerifier, error) {
	// Try to parse as armored key first
	entityList, err := openpgp.ReadArmoredKeyRing(r)
	if err != nil {
		// Try as binary key
		if _, seekErr := r.Seek(0, io.SeekStart); seekErr != nil {
			return nil, fmt.Errorf("failed to rewind key: %w", seekErr)
		}
		entityList, err = openpgp.ReadKeyRing(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(entityList) == 0 {
		return nil, fmt.Errorf("no keys found in key file")
	}

	return &GPGVerifier{keyring: entityList}, nil
}

// Accepts reports whether signature is an armored or binary OpenPGP signature
func (v *GPGVerifier) Accepts(signature []byte) bool {
	if bytes.Contains(signature, armoredSignatureHeader) {
		return true
	}
	// binary packets always have the high bit of the tag byte set
	return len(signature) > 0 && signature[0]&0x80 != 0
}

// VerifyDetached checks a detached signature (e.g. setup.exe.asc)
func (v *GPGVerifier) VerifyDetached(data io.Reader, signature []byte) error {
	var err error
	if bytes.Contains(signature, armoredSignatureHeader) {
		_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, data, bytes.NewReader(signature), nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(v.keyring, data, bytes.NewReader(signature), nil)
	}
	if err != nil {
		return fmt.Errorf("openpgp signature check failed: %w", err)
	}
	return nil
}
