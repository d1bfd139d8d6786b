package main

import (
	"github.com/spf13/cobra"

	"commentharvest/internal/config"
)

// globalOptions are flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
}

func (g *globalOptions) load(cmd *cobra.Command) (*config.Config, error) {
	required := cmd.Flags().Changed("config")
	cfg, err := config.Load(g.configPath, required)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:   "comment-scraper",
		Short: "Harvest every comment from a list of YouTube videos",
		Long: `comment-scraper opens each video listed in a CSV file in a headless browser,
scrolls the comment section until no more comments load, and appends the
comments with the video's metadata to a cumulative CSV file.

Progress is checkpointed after every video; rerunning skips finished videos.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", config.DefaultPath, "path to the TOML config file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "log level: debug, info, warn or error")

	root.AddCommand(newRunCmd(g), newResetCmd(g), newConfigCmd(g))
	return root
}
