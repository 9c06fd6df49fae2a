package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ralt/appget/internal/catalog"
	"github.com/ralt/appget/internal/config"
	"github.com/ralt/appget/internal/manifest"
	"github.com/ralt/appget/internal/models"
	"github.com/ralt/appget/internal/transfer"
	"github.com/ralt/appget/internal/verify"
	"github.com/sirupsen/logrus"
)

// isManifestPath reports whether arg names a local manifest rather than a
// catalog package
func isManifestPath(arg string) bool {
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	info, err := os.Stat(arg)
	return err == nil && !info.IsDir()
}

// resolveManifest loads arg from disk, or asks the catalog for the latest
// release and fetches its manifest
func resolveManifest(ctx context.Context, cfg *config.Config, fetcher manifest.Fetcher, arg string) (*models.PackageManifest, error) {
	if isManifestPath(arg) {
		logrus.Debugf("Loading manifest from %s", arg)
		return manifest.Load(arg)
	}

	info, err := catalog.NewClient(cfg.APIRoot).GetLatest(ctx, arg)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("package '%s' was not found in the catalog", arg)
	}
	if info.ManifestPath == "" {
		return nil, models.NewError(models.ErrRemoteFailure, cfg.APIRoot, "catalog entry for '%s' has no manifest", info.ID)
	}

	logrus.Debugf("Fetching manifest for %s %s from %s", info.ID, info.Version, info.ManifestPath)
	return manifest.Fetch(ctx, fetcher, info.ManifestPath)
}

// newEngine builds a transfer engine from cfg, loading the signature
// keyring when one is configured
func newEngine(cfg *config.Config) (*transfer.Engine, error) {
	opts := []transfer.Option{
		transfer.WithClients(transfer.DefaultClients(cfg.S3Region)...),
		transfer.WithPreserveExisting(cfg.PreserveExisting),
	}

	if cfg.KeyringPath != "" {
		v, err := loadVerifier(cfg.KeyringPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, transfer.WithVerifiers(v))
	}

	return transfer.NewEngine(opts...), nil
}

// loadVerifier accepts either an OpenPGP keyring or a PEM RSA public key
func loadVerifier(path string) (verify.Verifier, error) {
	gpgVerifier, gpgErr := verify.NewGPGVerifier(path)
	if gpgErr == nil {
		logrus.Debugf("Loaded OpenPGP keyring %s", path)
		return gpgVerifier, nil
	}

	rsaVerifier, rsaErr := verify.NewRSAVerifier(path)
	if rsaErr == nil {
		logrus.Debugf("Loaded RSA public key %s", path)
		return rsaVerifier, nil
	}

	return nil, models.NewError(models.ErrInvalidConfig, path, "keyring is neither OpenPGP (%v) nor RSA (%v)", gpgErr, rsaErr)
}
