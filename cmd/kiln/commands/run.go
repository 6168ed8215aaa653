package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve, fetch, stage, build and install",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := runOptions(cmd)
			if err != nil {
				return err
			}
			opts.SkipBuild, _ = cmd.Flags().GetBool("skip-build")
			opts.SkipInstall, _ = cmd.Flags().GetBool("skip-install")

			_, err = c.app.Run(cmd.Context(), manifestPath(cmd), opts)
			return err
		},
	}
	addPlatformFlags(cmd)
	cmd.Flags().Bool("skip-build", false, "Stop after staging dependency artifacts")
	cmd.Flags().Bool("skip-install", false, "Build the application without installing it")
	return cmd
}
