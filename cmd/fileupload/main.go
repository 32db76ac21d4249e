// Command fileupload serves the article reference API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/william251082/fileupload/app"
	"github.com/william251082/fileupload/config"
	"github.com/william251082/fileupload/version"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configFile string
	envFile    string
}

func (g *globalFlags) load() (*app.Config, error) {
	var opts []config.LoaderOption
	if g.configFile != "" {
		if _, err := os.Stat(g.configFile); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		opts = append(opts, config.WithConfigFile(g.configFile))
	}
	if g.envFile != "" {
		opts = append(opts, config.WithEnvFile(g.envFile))
	}
	return app.Load(opts...)
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "fileupload",
		Short: "Article reference file service",
		Long: `fileupload stores files attached to articles, serves them back through
the API or presigned storage URLs, and keeps their order.

Examples:
  fileupload                      # same as 'fileupload serve'
  fileupload migrate up           # apply database migrations
  fileupload token --sub alice --roles author`,
		Version:       version.Get().Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "Path to config.yml")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "Path to a .env file")

	root.AddCommand(newServeCmd(flags), newMigrateCmd(flags), newTokenCmd(flags))
	return root
}
