package verify

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

func writeInstaller(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "setup.exe")
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write installer: %v", err)
	}
	return p
}

func newGPGFixture(t *testing.T) (*openpgp.Entity, *GPGVerifier) {
	t.Helper()
	entity, err := openpgp.NewEntity("appget test", "", "test@example.com", nil)
	if err != nil {
		t.Fatalf("Failed to create entity: %v", err)
	}

	var pub bytes.Buffer
	w, err := armor.Encode(&pub, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("Failed to armor key: %v", err)
	}
	if err := entity.Serialize(w); err != nil {
		t.Fatalf("Failed to serialize key: %v", err)
	}
	w.Close()

	v, err := NewGPGVerifierFromReader(bytes.NewReader(pub.Bytes()))
	if err != nil {
		t.Fatalf("Failed to load keyring: %v", err)
	}
	return entity, v
}

func TestGPGVerifyDetached(t *testing.T) {
	entity, v := newGPGFixture(t)
	path := writeInstaller(t, "MZ installer bytes")

	var sig bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&sig, entity, bytes.NewReader([]byte("MZ installer bytes")), nil); err != nil {
		t.Fatalf("Failed to sign: %v", err)
	}

	if !v.Accepts(sig.Bytes()) {
		t.Fatal("Expected armored signature to be accepted")
	}
	if err := VerifyFile(path, sig.Bytes(), v); err != nil {
		t.Fatalf("Expected valid signature, got %v", err)
	}

	tampered := writeInstaller(t, "MZ installer bytes, patched")
	if err := VerifyFile(tampered, sig.Bytes(), v); err == nil {
		t.Error("Expected tampered file to fail verification")
	}
}

func TestGPGVerifyBinarySignature(t *testing.T) {
	entity, v := newGPGFixture(t)
	path := writeInstaller(t, "binary signed")

	var sig bytes.Buffer
	if err := openpgp.DetachSign(&sig, entity, bytes.NewReader([]byte("binary signed")), nil); err != nil {
		t.Fatalf("Failed to sign: %v", err)
	}
	if err := VerifyFile(path, sig.Bytes(), v); err != nil {
		t.Fatalf("Expected valid binary signature, got %v", err)
	}
}

func TestRSAVerifyDetached(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("Failed to marshal key: %v", err)
	}
	v, err := NewRSAVerifierFromPEM(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
	if err != nil {
		t.Fatalf("Failed to parse key: %v", err)
	}

	content := "#!/bin/sh\necho install\n"
	path := writeInstaller(t, content)
	hashed := sha256.Sum256([]byte(content))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, hashed[:])
	if err != nil {
		t.Fatalf("Failed to sign: %v", err)
	}

	// RSA is registered first so the raw blob never reaches the OpenPGP parser
	_, gpg := newGPGFixture(t)
	if err := VerifyFile(path, sig, v, gpg); err != nil {
		t.Fatalf("Expected valid signature, got %v", err)
	}

	sig[0] ^= 0xFF
	if err := VerifyFile(path, sig, v); err == nil {
		t.Error("Expected corrupted signature to fail")
	}
}

func TestVerifyFileWithoutVerifier(t *testing.T) {
	path := writeInstaller(t, "data")
	err := VerifyFile(path, []byte("-----BEGIN PGP SIGNATURE-----"))
	if !errors.Is(err, ErrNoVerifier) {
		t.Errorf("Expected ErrNoVerifier, got %v", err)
	}
}

func TestNewGPGVerifierErrors(t *testing.T) {
	if _, err := NewGPGVerifier(""); err == nil {
		t.Error("Expected error for empty path")
	}
	if _, err := NewGPGVerifierFromReader(bytes.NewReader([]byte("garbage"))); err == nil {
		t.Error("Expected error for garbage keyring")
	}
}
