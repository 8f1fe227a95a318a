package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnolang/bulkgrep/search"
)

// initCmd: bulkgrep init
func newInitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter hints file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.cfgFile
			if path == "" {
				path = search.DefaultConfigFile
			}
			if err := search.WriteConfig(path, search.DefaultConfig()); err != nil {
				return fmt.Errorf("error initializing config file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created: %s\n", path)
			return nil
		},
	}
}
