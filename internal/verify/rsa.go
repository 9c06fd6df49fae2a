package verify

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"os"
)

// RSAVerifier implements Verifier for raw RSA PKCS1v15 SHA-256 signatures
type RSAVerifier struct {
	publicKey *rsa.PublicKey
}

// NewRSAVerifier creates a new RSA verifier from a PEM public key file
func NewRSAVerifier(keyPath string) (*RSAVerifier, error) {
	if keyPath == "" {
		return nil, fmt.Errorf("key path is empty")
	}

	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	return NewRSAVerifierFromPEM(keyData)
}

// NewRSAVerifierFromPEM parses a PKIX or PKCS1 PEM encoded RSA public key
func NewRSAVerifierFromPEM(keyData []byte) (*RSAVerifier, error) {
	block, _ := pem.Decode(keyData)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	publicKey, err := parseRSAPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}

	return &RSAVerifier{publicKey: publicKey}, nil
}

// parseRSAPublicKey tries to parse RSA public key in PKIX or PKCS1 format
func parseRSAPublicKey(data []byte) (*rsa.PublicKey, error) {
	parsedKey, err := x509.ParsePKIXPublicKey(data)
	if err == nil {
		rsaKey, ok := parsedKey.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("key is not an RSA public key")
		}
		return rsaKey, nil
	}

	key, err := x509.ParsePKCS1PublicKey(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return key, nil
}

// Accepts reports whether signature has the size of this key's modulus
func (v *RSAVerifier) Accepts(signature []byte) bool {
	return len(signature) == v.publicKey.Size()
}

// VerifyDetached hashes data with SHA-256 and checks the PKCS1v15 signature
func (v *RSAVerifier) VerifyDetached(data io.Reader, signature []byte) error {
	h := sha256.New()
	if _, err := io.Copy(h, data); err != nil {
		return err
	}

	if err := rsa.VerifyPKCS1v15(v.publicKey, crypto.SHA256, h.Sum(nil), signature); err != nil {
		return fmt.Errorf("rsa signature check failed: %w", err)
	}
	return nil
}
