package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ralt/appget/internal/config"
	"github.com/ralt/appget/internal/hostenv"
	"github.com/ralt/appget/internal/install"
	"github.com/ralt/appget/internal/models"
	"github.com/ralt/appget/internal/products"
	"github.com/ralt/appget/internal/selector"
	"github.com/ralt/appget/internal/whisperer"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type installFlags struct {
	interactive   bool
	targetDir     string
	keepDownloads bool
	noProgress    bool
}

// NewInstallCmd creates the install command
func NewInstallCmd() *cobra.Command {
	var flags installFlags

	cmd := &cobra.Command{
		Use:   "install <package|manifest.yaml>...",
		Short: "Install one or more packages",
		Long: `Installs packages by catalog name or from local manifest files.
Packages are installed one after another; the first failure stops the run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runInstall(cmd.Context(), cfg, args, flags, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "Run the installer with its interactive arguments")
	cmd.Flags().StringVarP(&flags.targetDir, "target-dir", "t", "", "Install location override")
	cmd.Flags().BoolVar(&flags.keepDownloads, "keep-downloads", false, "Keep downloaded installers after installing")
	cmd.Flags().BoolVar(&flags.noProgress, "no-progress", false, "Disable the download progress bar")

	return cmd
}

func runInstall(ctx context.Context, cfg *config.Config, args []string, flags installFlags, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	ledger := products.NewLedger(cfg.LedgerPath())
	registry := products.NewRegistry(products.HostSources(ledger)...)
	if err := registry.Refresh(ctx); err != nil {
		return err
	}
	dispatcher := whisperer.NewDefaultDispatcher(whisperer.Options{
		Ledger:      ledger,
		Registry:    registry,
		InstallRoot: filepath.Join(cfg.DataDir, "apps"),
	})

	coordOpts := []install.Option{
		install.WithHostArch(hostenv.Architecture()),
		install.WithTempRoot(cfg.TempDir),
		install.WithKeepDownloads(flags.keepDownloads),
	}
	if len(cfg.KindPriority) > 0 {
		coordOpts = append(coordOpts, install.WithSelector(selector.New(selector.WithKindPriority(cfg.KindPriority))))
	}
	if !flags.noProgress {
		coordOpts = append(coordOpts, install.WithSink(newProgressSink(out).handle))
	}
	coordinator := install.NewCoordinator(dispatcher, engine, coordOpts...)

	opts := models.InstallOptions{
		Interactive: flags.interactive,
		TargetDir:   flags.targetDir,
	}

	for _, arg := range args {
		m, err := resolveManifest(ctx, cfg, engine, arg)
		if err != nil {
			return err
		}
		if err := coordinator.Install(ctx, m, opts); err != nil {
			return err
		}
	}

	logrus.Infof("Installed %d package(s)", len(args))
	return nil
}

// progressSink renders transfer events as a progress bar. Events arrive
// from the transfer goroutine, so the bar is guarded.
type progressSink struct {
	mu  sync.Mutex
	out io.Writer
	bar *progressbar.ProgressBar
}

func newProgressSink(out io.Writer) *progressSink {
	if out == nil {
		out = os.Stderr
	}
	return &progressSink{out: out}
}

func (s *progressSink) handle(e install.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch e.Type {
	case install.EventProgress:
		if e.Progress == nil {
			return
		}
		if s.bar == nil {
			total := int64(-1)
			if e.Progress.Total != nil {
				total = *e.Progress.Total
			}
			s.bar = progressbar.NewOptions64(total,
				progressbar.OptionSetWriter(s.out),
				progressbar.OptionSetDescription(e.Package),
				progressbar.OptionShowBytes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionThrottle(100*time.Millisecond),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = s.bar.Set64(e.Progress.Completed)
	case install.EventTransferred, install.EventFailed:
		if s.bar != nil {
			_ = s.bar.Finish()
			s.bar = nil
		}
	}
}
