package cli

import (
	"github.com/ralt/appget/internal/manifest"
	"github.com/spf13/cobra"
)

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <package|manifest.yaml>",
		Short: "Print the normalized manifest of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}

			m, err := resolveManifest(cmd.Context(), cfg, engine, args[0])
			if err != nil {
				return err
			}

			out, err := manifest.Encode(m)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
