package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewVariantsCmd lists the configured variants.
func NewVariantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List the variants that would be benchmarked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closeLog, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "NAME\tURL\tREVISION\tFLAGS\t")
			for _, v := range cfg.Variants {
				name := v.Name
				if name == cfg.Baseline {
					name += " (baseline)"
				}
				flags := strings.Join(v.Flags, " ")
				if flags == "" {
					flags = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", name, v.URL, v.Revision, flags)
			}
			return w.Flush()
		},
	}
}
