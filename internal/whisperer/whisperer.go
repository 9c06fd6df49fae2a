// Package whisperer runs downloaded installers with the strategy that
// matches their installer technology.
package whisperer

import (
	"context"
	"fmt"

	"github.com/ralt/appget/internal/capability"
	"github.com/ralt/appget/internal/models"
	"github.com/ralt/appget/internal/products"
)

// Whisperer installs one installer technology
type Whisperer interface {
	// CanHandle reports whether this strategy installs the given method
	CanHandle(method models.InstallMethod) bool

	// Install runs the installer at path for manifest
	Install(ctx context.Context, path string, manifest *models.PackageManifest, opts models.InstallOptions) error
}

// Dispatcher holds the registered strategies
type Dispatcher struct {
	whisperers []Whisperer
}

// NewDispatcher creates a dispatcher over the given strategies
func NewDispatcher(whisperers ...Whisperer) *Dispatcher {
	return &Dispatcher{whisperers: whisperers}
}

// Register adds a strategy
func (d *Dispatcher) Register(w Whisperer) {
	d.whisperers = append(d.whisperers, w)
}

// Resolve returns the single strategy that handles method. Zero or several
// matches is a configuration error and is never resolved by picking one.
func (d *Dispatcher) Resolve(method models.InstallMethod) (Whisperer, error) {
	w, matches := capability.Single(d.whisperers, func(w Whisperer) bool {
		return w.CanHandle(method)
	})
	switch matches {
	case 1:
		return w, nil
	case 0:
		return nil, models.NewError(models.ErrAmbiguousOrMissingInstaller, "", "no installer strategy handles %q", method)
	default:
		return nil, models.NewError(models.ErrAmbiguousOrMissingInstaller, "", "%d installer strategies handle %q", matches, method)
	}
}

// Options configures the default strategy set
type Options struct {
	Runner Runner
	Ledger *products.Ledger

	// Registry, when set, is consulted to detect upgrades of portable packages
	Registry *products.Registry

	// InstallRoot is where portable packages go when no target dir is given
	InstallRoot string
}

// NewDefaultDispatcher registers one strategy for every known install method
func NewDefaultDispatcher(opts Options) *Dispatcher {
	runner := opts.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	d := NewDispatcher(NewMSIWhisperer(runner))
	for _, p := range exeProfiles {
		d.Register(newExeWhisperer(p, runner))
	}
	archive := NewArchiveWhisperer(opts.InstallRoot, opts.Ledger)
	archive.registry = opts.Registry
	d.Register(archive)

	rpm := NewRPMWhisperer(opts.InstallRoot, opts.Ledger)
	rpm.registry = opts.Registry
	d.Register(rpm)
	return d
}

func installError(manifest *models.PackageManifest, path string, format string, args ...any) error {
	return &models.AppGetError{
		Type:    models.ErrInstallFailed,
		Package: manifest.ID,
		Source:  path,
		Err:     fmt.Errorf(format, args...),
	}
}
