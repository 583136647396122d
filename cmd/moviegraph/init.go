package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/moviegraph/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write an annotated config file",
	Long: `Write the default daemon config. Without a path it goes to
$XDG_CONFIG_HOME/moviegraph/config.toml. Existing files are never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultPath()
		if len(args) > 0 {
			path = args[0]
		}
		if err := config.WriteDefault(path); err != nil {
			if errors.Is(err, os.ErrExist) {
				return fmt.Errorf("%s already exists", path)
			}
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Fprintf(stdout, "Wrote %s\n", path)
		fmt.Fprintln(stdout, "Set TRAKT_API_KEY (and optionally TMDB_API_KEY), then run 'moviegraphd'.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
