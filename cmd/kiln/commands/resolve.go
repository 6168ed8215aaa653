package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/engine/resolver"
)

func (c *CLI) newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the effective requirements and per-package options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := runOptions(cmd)
			if err != nil {
				return err
			}

			report, err := c.app.Resolve(cmd.Context(), manifestPath(cmd), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "platform: %s\n", report.Resolution.Platform)
			for _, line := range resolver.Summary(report.Graph) {
				_, _ = fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	addPlatformFlags(cmd)
	return cmd
}
