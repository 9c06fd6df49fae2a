package whisperer

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/ralt/appget/internal/models"
	"github.com/sirupsen/logrus"
)

// Windows Installer exit codes
const (
	msiSuccess             = 0
	msiUserCancel          = 1602
	msiAnotherInstall      = 1618
	msiUnsupportedPlatform = 1633
	msiRebootInitiated     = 1641
	msiRebootRequired      = 3010
)

// MSIWhisperer installs Windows Installer packages through msiexec
type MSIWhisperer struct {
	runner  Runner
	msiexec string
}

// NewMSIWhisperer creates an MSI strategy
func NewMSIWhisperer(runner Runner) *MSIWhisperer {
	return &MSIWhisperer{runner: runner, msiexec: msiexecPath()}
}

func msiexecPath() string {
	if runtime.GOOS == "windows" {
		if windir := os.Getenv("WINDIR"); windir != "" {
			return filepath.Join(windir, "system32", "msiexec.exe")
		}
	}
	return "msiexec"
}

func (w *MSIWhisperer) CanHandle(method models.InstallMethod) bool {
	return method == models.MethodMSI
}

// Args builds the msiexec command line
func (w *MSIWhisperer) Args(path string, manifest *models.PackageManifest, opts models.InstallOptions) []string {
	args := []string{"/i", path}
	if opts.Interactive {
		args = append(args, manifest.Args.Interactive...)
	} else {
		args = append(args, "/quiet", "/norestart")
		args = append(args, manifest.Args.Silent...)
	}
	args = append(args, "/l*v", path+".log")
	if opts.TargetDir != "" {
		args = append(args, "INSTALLDIR="+opts.TargetDir)
	}
	return args
}

func (w *MSIWhisperer) Install(ctx context.Context, path string, manifest *models.PackageManifest, opts models.InstallOptions) error {
	code, output, err := w.runner.Run(ctx, w.msiexec, w.Args(path, manifest, opts)...)
	if err != nil {
		return installError(manifest, path, "%w", err)
	}

	switch code {
	case msiSuccess:
		return nil
	case msiRebootRequired, msiRebootInitiated:
		logrus.Warnf("%s installed; a reboot is required to complete the installation", manifest.DisplayName())
		return nil
	case msiUserCancel:
		return installError(manifest, path, "installation cancelled by user: %w", &ExitCodeError{Code: code})
	case msiAnotherInstall:
		return installError(manifest, path, "another installation is in progress: %w", &ExitCodeError{Code: code})
	case msiUnsupportedPlatform:
		return installError(manifest, path, "package is not supported on this platform: %w", &ExitCodeError{Code: code})
	default:
		return installError(manifest, path, "%w", &ExitCodeError{Code: code, Output: output})
	}
}
