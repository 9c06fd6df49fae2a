package whisperer

import (
	"context"

	"github.com/ralt/appget/internal/models"
	"github.com/sirupsen/logrus"
)

// exeProfile describes the command line of one self-contained installer technology
type exeProfile struct {
	method      models.InstallMethod
	silent      []string
	interactive []string
	targetDir   func(dir string) []string
	// rebootCodes are exit codes that mean success with a pending reboot
	rebootCodes []int
}

var exeProfiles = []exeProfile{
	{
		method:      models.MethodWix,
		silent:      []string{"/quiet", "/norestart"},
		interactive: []string{"/passive", "/norestart"},
		targetDir:   func(dir string) []string { return []string{"InstallFolder=" + dir} },
		rebootCodes: []int{msiRebootRequired, msiRebootInitiated},
	},
	{
		method:      models.MethodInno,
		silent:      []string{"/VERYSILENT", "/SUPPRESSMSGBOXES", "/NORESTART", "/SP-"},
		interactive: []string{"/SP-"},
		targetDir:   func(dir string) []string { return []string{"/DIR=" + dir} },
	},
	{
		method: models.MethodNSIS,
		silent: []string{"/S"},
		// NSIS requires /D to be the last argument and unquoted
		targetDir: func(dir string) []string { return []string{"/D=" + dir} },
	},
	{
		method:      models.MethodInstallBuilder,
		silent:      []string{"--mode", "unattended"},
		interactive: []string{"--mode", "qt"},
		targetDir:   func(dir string) []string { return []string{"--prefix", dir} },
	},
	{
		method: models.MethodSquirrel,
		silent: []string{"--silent"},
	},
	{
		method: models.MethodCustom,
	},
}

// ExeWhisperer runs a self-contained installer executable
type ExeWhisperer struct {
	profile exeProfile
	runner  Runner
}

// newExeWhisperer creates a strategy for one exe profile
func newExeWhisperer(profile exeProfile, runner Runner) *ExeWhisperer {
	return &ExeWhisperer{profile: profile, runner: runner}
}

func (w *ExeWhisperer) CanHandle(method models.InstallMethod) bool {
	return method == w.profile.method
}

// Args builds the installer command line. Manifest arguments follow the
// built-in ones, and the target directory flag goes last.
func (w *ExeWhisperer) Args(manifest *models.PackageManifest, opts models.InstallOptions) []string {
	var args []string
	if opts.Interactive {
		args = append(args, w.profile.interactive...)
		args = append(args, manifest.Args.Interactive...)
	} else {
		args = append(args, w.profile.silent...)
		args = append(args, manifest.Args.Silent...)
	}
	if opts.TargetDir != "" && w.profile.targetDir != nil {
		args = append(args, w.profile.targetDir(opts.TargetDir)...)
	}
	return args
}

func (w *ExeWhisperer) Install(ctx context.Context, path string, manifest *models.PackageManifest, opts models.InstallOptions) error {
	if w.profile.method == models.MethodCustom && !opts.Interactive && len(manifest.Args.Silent) == 0 {
		return installError(manifest, path, "custom installer has no silent arguments")
	}

	code, output, err := w.runner.Run(ctx, path, w.Args(manifest, opts)...)
	if err != nil {
		return installError(manifest, path, "%w", err)
	}
	if code == 0 {
		return nil
	}
	for _, rc := range w.profile.rebootCodes {
		if code == rc {
			logrus.Warnf("%s installed; a reboot is required to complete the installation", manifest.DisplayName())
			return nil
		}
	}
	return installError(manifest, path, "%w", &ExitCodeError{Code: code, Output: output})
}
