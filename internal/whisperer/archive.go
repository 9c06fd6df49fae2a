package whisperer

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"github.com/ralt/appget/internal/models"
	"github.com/ralt/appget/internal/products"
	"github.com/ralt/appget/internal/scanner"
	"github.com/ralt/appget/internal/utils"
	"github.com/sirupsen/logrus"
)

// ArchiveWhisperer installs portable packages by extracting them into a
// target directory and recording them in the product ledger
type ArchiveWhisperer struct {
	installRoot string
	ledger      *products.Ledger
	registry    *products.Registry
	scanner     *scanner.FileSystemScanner
}

// NewArchiveWhisperer creates an archive strategy
func NewArchiveWhisperer(installRoot string, ledger *products.Ledger) *ArchiveWhisperer {
	return &ArchiveWhisperer{
		installRoot: installRoot,
		ledger:      ledger,
		scanner:     scanner.NewExecutableScanner(),
	}
}

func (w *ArchiveWhisperer) CanHandle(method models.InstallMethod) bool {
	return method == models.MethodZip
}

func targetDir(root string, manifest *models.PackageManifest, opts models.InstallOptions) (string, error) {
	if opts.TargetDir != "" {
		return opts.TargetDir, nil
	}
	if root == "" {
		return "", fmt.Errorf("no target directory given and no install root configured")
	}
	return utils.SafeJoin(root, manifest.ID)
}

func (w *ArchiveWhisperer) Install(ctx context.Context, path string, manifest *models.PackageManifest, opts models.InstallOptions) error {
	dest, err := targetDir(w.installRoot, manifest, opts)
	if err != nil {
		return installError(manifest, path, "%w", err)
	}

	kind, err := scanner.DetectKind(path)
	if err != nil {
		return installError(manifest, path, "%w", err)
	}

	logrus.Infof("Extracting %s (%s) to %s", filepath.Base(path), kind, dest)

	var count int
	switch {
	case kind == scanner.KindZip:
		count, err = extractZip(ctx, path, dest)
	case kind.IsArchive():
		count, err = extractTar(ctx, kind, path, dest)
	default:
		return installError(manifest, path, "%s is not a supported archive", kind)
	}
	if err != nil {
		return installError(manifest, path, "extraction failed: %w", err)
	}
	logrus.Debugf("Extracted %d files to %s", count, dest)

	found, err := w.scanner.Scan(ctx, dest)
	if err != nil {
		return installError(manifest, path, "%w", err)
	}
	var executables []string
	for _, f := range found {
		rel, err := filepath.Rel(dest, f.Path)
		if err != nil {
			rel = f.Path
		}
		executables = append(executables, filepath.ToSlash(rel))
	}

	return recordProduct(w.registry, w.ledger, manifest, opts, dest, map[string]any{
		"Executables": executables,
	})
}

// recordProduct writes the installed product to the ledger when one is
// configured. A product already known to the registry is recorded as an
// upgrade, keeping the version it replaced.
func recordProduct(registry *products.Registry, ledger *products.Ledger, manifest *models.PackageManifest, opts models.InstallOptions, location string, extra map[string]any) error {
	if ledger == nil {
		return nil
	}

	values := map[string]any{
		"DisplayName":     manifest.DisplayName(),
		"InstallLocation": location,
		"InstallMethod":   string(manifest.InstallMethod),
	}
	if manifest.Version != "" {
		values["DisplayVersion"] = manifest.Version
	}
	for k, v := range extra {
		values[k] = v
	}
	if registry != nil {
		if rec, ok := registry.Get(manifest.ID); ok {
			prev := rec.String("DisplayVersion")
			logrus.Infof("'%s' is already installed (%s), upgrading", manifest.DisplayName(), prev)
			if prev != "" && prev != manifest.Version {
				values["PreviousVersion"] = prev
			}
		}
	}

	err := ledger.Put(products.Record{
		ID:     manifest.ID,
		Is64:   opts.Architecture.Is64(),
		Values: values,
	})
	if err != nil {
		return installError(manifest, location, "failed to record product: %w", err)
	}
	return nil
}

func extractZip(ctx context.Context, path, dest string) (int, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	count := 0
	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		target, err := utils.SafeJoin(dest, f.Name)
		if err != nil {
			return count, fmt.Errorf("unsafe entry %q: %w", f.Name, err)
		}

		mode := f.Mode()
		if mode.IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return count, err
			}
			continue
		}
		if !mode.IsRegular() {
			logrus.Debugf("Skipping non-regular entry %s", f.Name)
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return count, err
		}
		err = writeEntry(target, rc, mode.Perm())
		rc.Close()
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func extractTar(ctx context.Context, kind scanner.InstallerKind, path, dest string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dr, err := utils.NewDecompressReader(kind, f)
	if err != nil {
		return 0, err
	}
	defer dr.Close()

	tr := tar.NewReader(dr)
	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, err
		}

		target, err := utils.SafeJoin(dest, hdr.Name)
		if err != nil {
			return count, fmt.Errorf("unsafe entry %q: %w", hdr.Name, err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return count, err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, os.FileMode(hdr.Mode).Perm()); err != nil {
				return count, err
			}
			count++
		default:
			logrus.Debugf("Skipping tar entry %s of type %c", hdr.Name, hdr.Typeflag)
		}
	}
}

func writeEntry(target string, r io.Reader, perm os.FileMode) error {
	if err := utils.EnsureDir(filepath.Dir(target)); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
