// Package hostenv reports facts about the machine appget runs on.
package hostenv

import (
	"os"
	"runtime"
	"strings"

	"github.com/ralt/appget/internal/models"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/sirupsen/logrus"
)

var kernelArch = host.KernelArch

// Architecture returns the native architecture of the host. A 32-bit build
// running on a 64-bit OS still reports the 64-bit architecture.
func Architecture() models.Architecture {
	// PROCESSOR_ARCHITEW6432 is set for 32-bit processes under WOW64
	if runtime.GOOS == "windows" {
		for _, env := range []string{"PROCESSOR_ARCHITEW6432", "PROCESSOR_ARCHITECTURE"} {
			if v := strings.TrimSpace(os.Getenv(env)); v != "" {
				return models.NormalizeArch(v)
			}
		}
	}

	arch, err := kernelArch()
	if err != nil || arch == "" {
		logrus.Debugf("Falling back to build architecture: %v", err)
		return models.NormalizeArch(runtime.GOARCH)
	}
	return models.NormalizeArch(arch)
}
