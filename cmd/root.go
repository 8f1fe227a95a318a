package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultTimeout = 5 * time.Minute

// ErrMatchesFound is returned by commands that report matches, so that the
// process can exit with a non-zero status like a linter.
var ErrMatchesFound = errors.New("matches found")

// options are the flags shared by every subcommand.
type options struct {
	cfgFile string
	timeout time.Duration
	verbose bool

	logger *zap.Logger
}

// newRootCmd builds the command tree. A nil logger is built from the flags
// before any subcommand runs.
func newRootCmd(logger *zap.Logger) *cobra.Command {
	opts := &options{logger: logger}

	rootCmd := &cobra.Command{
		Use:              "bulkgrep [paths...]",
		Short:            "bulkgrep - structural search for many patterns at once",
		SilenceUsage:     true,
		SilenceErrors:    true,
		TraverseChildren: true, // Prioritize subcommands
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logger != nil {
				return nil
			}
			var err error
			if opts.verbose {
				opts.logger, err = zap.NewDevelopment()
			} else {
				opts.logger, err = zap.NewProduction()
			}
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.logger.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "Hints file (default "+defaultConfigHelp+")")
	flags.DurationVar(&opts.timeout, "timeout", defaultTimeout, "Timeout for the whole run")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	searchCmd := newSearchCmd(opts)
	rootCmd.AddCommand(
		newInitCmd(opts),
		searchCmd,
		newCountCmd(opts),
		newIndexCmd(opts),
		newDupesCmd(opts),
		newExplainCmd(opts),
	)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		// no subcommand
		if len(args) == 0 {
			return cmd.Help()
		}
		// Format: bulkgrep [path1 path2 ...] => behaves like the search subcommand
		return searchCmd.RunE(searchCmd, args)
	}
	return rootCmd
}

func Execute() error {
	return newRootCmd(nil).Execute()
}
