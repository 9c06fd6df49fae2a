package cli

import (
	"github.com/ralt/appget/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "appget",
		Short: "Install packages from the AppGet catalog",
		Long: `AppGet looks packages up in a remote catalog, downloads the installer
best suited to this machine and runs it silently.

Supported installer technologies:
  - Windows Installer (.msi)
  - Inno Setup, NSIS, InstallBuilder, WiX bundles and Squirrel (.exe)
  - Portable archives (.zip, .tar.gz, .tar.xz, .tar.zst)
  - RPM payloads (.rpm)`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to config file (default: appget.yaml in the config dir)")

	rootCmd.AddCommand(NewInstallCmd())
	rootCmd.AddCommand(NewSearchCmd())
	rootCmd.AddCommand(NewShowCmd())
	rootCmd.AddCommand(NewListCmd())

	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("Configuration: %+v", *cfg)
	return cfg, nil
}
