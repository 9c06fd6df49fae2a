package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/ralt/appget/internal/products"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			registry := products.NewRegistry(products.HostSources(products.NewLedger(cfg.LedgerPath()))...)
			if err := registry.Refresh(cmd.Context()); err != nil {
				return err
			}

			records := registry.Products()
			if all {
				records = registry.All()
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tVERSION\tSOURCE")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.DisplayName(), r.String("DisplayVersion"), r.Hive)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include upgrade-only records")
	return cmd
}
