// Package install drives a package installation from manifest to
// installed product.
package install

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/ralt/appget/internal/models"
	"github.com/ralt/appget/internal/selector"
	"github.com/ralt/appget/internal/transfer"
	"github.com/ralt/appget/internal/utils"
	"github.com/ralt/appget/internal/whisperer"
	"github.com/sirupsen/logrus"
)

// Transferer downloads an artifact into a directory and verifies it
type Transferer interface {
	TransferFile(ctx context.Context, source, destDir string, v *transfer.Verification, hooks transfer.Hooks) (string, error)
}

// Coordinator runs the installation pipeline: strategy resolution,
// artifact selection, transfer and strategy invocation
type Coordinator struct {
	dispatcher    *whisperer.Dispatcher
	selector      *selector.Selector
	engine        Transferer
	hostArch      models.Architecture
	tempRoot      string
	keepDownloads bool
	sink          Sink
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithHostArch sets the architecture artifacts are selected for
func WithHostArch(arch models.Architecture) Option {
	return func(c *Coordinator) {
		c.hostArch = arch
	}
}

// WithTempRoot sets the directory under which each install gets its own download dir
func WithTempRoot(dir string) Option {
	return func(c *Coordinator) {
		c.tempRoot = dir
	}
}

// WithKeepDownloads leaves downloaded installers in place after the install
func WithKeepDownloads(keep bool) Option {
	return func(c *Coordinator) {
		c.keepDownloads = keep
	}
}

// WithSink sets the event receiver
func WithSink(sink Sink) Option {
	return func(c *Coordinator) {
		c.sink = sink
	}
}

// WithSelector replaces the default artifact selector
func WithSelector(s *selector.Selector) Option {
	return func(c *Coordinator) {
		if s != nil {
			c.selector = s
		}
	}
}

// NewCoordinator creates a coordinator
func NewCoordinator(dispatcher *whisperer.Dispatcher, engine Transferer, opts ...Option) *Coordinator {
	c := &Coordinator{
		dispatcher: dispatcher,
		selector:   selector.New(),
		engine:     engine,
		hostArch:   models.ArchX64,
		tempRoot:   filepath.Join(os.TempDir(), "appget"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) emit(e Event) {
	if c.sink != nil {
		c.sink(e)
	}
}

// Install installs manifest. No rollback is attempted when a step fails;
// the error is returned as produced, tagged with the package id.
func (c *Coordinator) Install(ctx context.Context, manifest *models.PackageManifest, opts models.InstallOptions) (err error) {
	name := manifest.DisplayName()
	log := logrus.WithField("package", manifest.ID)

	log.Infof("Beginning installation of '%s'", name)
	c.emit(Event{Type: EventStarted, Package: name, ID: manifest.ID})

	defer func() {
		if err == nil {
			return
		}
		var ae *models.AppGetError
		if errors.As(err, &ae) && ae.Package == "" {
			ae.Package = manifest.ID
		}
		log.Errorf("Installation of '%s' failed: %v", name, err)
		c.emit(Event{Type: EventFailed, Package: name, ID: manifest.ID, Err: err})
	}()

	w, err := c.dispatcher.Resolve(manifest.InstallMethod)
	if err != nil {
		return err
	}

	artifact, err := c.selector.SelectBest(manifest.Installers, c.hostArch)
	if err != nil {
		return err
	}
	log.Debugf("Using %s installer %s", artifact.Architecture.Normalized(), artifact.Location)

	dir := filepath.Join(c.tempRoot, uuid.NewString())
	if err := utils.EnsureDir(dir); err != nil {
		return &models.AppGetError{Type: models.ErrTransferFailure, Package: manifest.ID, Source: dir, Err: err}
	}
	if !c.keepDownloads {
		defer func() {
			if rmErr := os.RemoveAll(dir); rmErr != nil {
				log.Warnf("Failed to clean up %s: %v", dir, rmErr)
			}
		}()
	}

	hooks := transfer.Hooks{
		OnProgress: func(p transfer.Progress) {
			c.emit(Event{Type: EventProgress, Package: name, ID: manifest.ID, Progress: &p})
		},
		OnCompleted: func(p transfer.Progress) {
			c.emit(Event{Type: EventTransferred, Package: name, ID: manifest.ID, Progress: &p})
		},
	}
	verification := &transfer.Verification{Sha256: artifact.Sha256, Signature: artifact.Signature}

	path, err := c.engine.TransferFile(ctx, artifact.Location, dir, verification, hooks)
	if err != nil {
		return err
	}

	opts.Architecture = artifact.Architecture.Normalized()
	if err := w.Install(ctx, path, manifest, opts); err != nil {
		return err
	}

	log.Infof("Installation completed for '%s'", name)
	c.emit(Event{Type: EventCompleted, Package: name, ID: manifest.ID})
	return nil
}
