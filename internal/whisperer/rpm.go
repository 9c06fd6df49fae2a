package whisperer

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ralt/appget/internal/models"
	"github.com/ralt/appget/internal/products"
	"github.com/ralt/appget/internal/utils"
	"github.com/sassoftware/go-rpmutils"
	"github.com/sirupsen/logrus"
)

// RPMWhisperer installs an RPM as a relocatable portable package: the
// payload is expanded under the target directory and the product recorded
// in the ledger. Scriptlets are not run.
type RPMWhisperer struct {
	installRoot string
	ledger      *products.Ledger
	registry    *products.Registry
}

// NewRPMWhisperer creates an rpm strategy
func NewRPMWhisperer(installRoot string, ledger *products.Ledger) *RPMWhisperer {
	return &RPMWhisperer{installRoot: installRoot, ledger: ledger}
}

func (w *RPMWhisperer) CanHandle(method models.InstallMethod) bool {
	return method == models.MethodRPM
}

func (w *RPMWhisperer) Install(ctx context.Context, path string, manifest *models.PackageManifest, opts models.InstallOptions) error {
	dest, err := targetDir(w.installRoot, manifest, opts)
	if err != nil {
		return installError(manifest, path, "%w", err)
	}
	if err := utils.EnsureDir(dest); err != nil {
		return installError(manifest, path, "%w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return installError(manifest, path, "%w", err)
	}
	defer f.Close()

	rpm, err := rpmutils.ReadRpm(f)
	if err != nil {
		return installError(manifest, path, "failed to read RPM: %w", err)
	}

	name := getStringTag(rpm, rpmutils.NAME)
	version := getStringTag(rpm, rpmutils.VERSION)
	release := getStringTag(rpm, rpmutils.RELEASE)
	arch := getStringTag(rpm, rpmutils.ARCH)

	logrus.Infof("Expanding %s-%s-%s.%s to %s", name, version, release, arch, dest)
	if err := rpm.ExpandPayload(dest); err != nil {
		return installError(manifest, path, "failed to expand payload: %w", err)
	}

	if opts.Architecture.IsAny() && arch != "" {
		opts.Architecture = models.NormalizeArch(arch)
	}

	return recordProduct(w.registry, w.ledger, manifest, opts, dest, map[string]any{
		"RpmName":    name,
		"RpmVersion": strings.Trim(version+"-"+release, "-"),
		"RpmArch":    arch,
		"License":    getStringTag(rpm, rpmutils.LICENSE),
	})
}

// getStringTag safely gets a string tag from RPM
func getStringTag(rpm *rpmutils.Rpm, tag int) string {
	val, err := rpm.Header.Get(tag)
	if err != nil {
		return ""
	}

	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	default:
		return fmt.Sprintf("%v", v)
	}

	return ""
}
