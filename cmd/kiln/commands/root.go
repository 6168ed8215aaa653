// Package commands implements the CLI commands for the kiln build orchestrator.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/kiln/internal/core/domain"
)

// DefaultManifest is the manifest read when --manifest is not given.
const DefaultManifest = "kiln.yaml"

// CLI represents the command line interface for kiln.
type CLI struct {
	app     *app.App
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a *app.App) *CLI {
	rootCmd := &cobra.Command{
		Use:           "kiln",
		Short:         "Resolve native dependencies and drive the application build",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("manifest", "m", DefaultManifest, "Path to the dependency manifest")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newResolveCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output. Used for testing.
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
}

// addPlatformFlags registers the flags selecting the target platform.
func addPlatformFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("profile", "p", "", "Manifest profile to build for (default: detect the host)")
	cmd.Flags().StringP("build-type", "t", "", "Override the build type (Debug, Release, RelWithDebInfo, MinSizeRel)")
}

func runOptions(cmd *cobra.Command) (app.RunOptions, error) {
	profile, _ := cmd.Flags().GetString("profile")
	opts := app.RunOptions{Profile: profile}

	if raw, _ := cmd.Flags().GetString("build-type"); raw != "" {
		bt, err := domain.ParseBuildType(raw)
		if err != nil {
			return app.RunOptions{}, err
		}
		opts.BuildType = bt
	}
	return opts, nil
}

func manifestPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("manifest")
	return path
}
