package cli

import (
	"github.com/spf13/cobra"
)

// Execute builds and runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile  string
		logLevel string
	)

	rootCmd := &cobra.Command{
		Use:   "pdd",
		Short: "Copy a byte stream in blocks and fan it out to many destinations",
		Long: `pdd reads an input in fixed-size blocks and replicates every block to
any number of sinks: files, raw TCP sockets, HTTP endpoints and
Elasticsearch indices.

Operations are written dd-style as key=value tokens and separated by "--":

  pdd run if=boot.img of=/dev/sda1 os=backup:9000 bs=4096 \
    -- if=app.log ohttp=POST;http://collector/ingest redir=1

A sink that cannot be opened or fails mid-run is dropped for the rest of
the operation; the other sinks keep receiving blocks.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./pdd.yaml, then /etc/pdd/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error); overrides the config")

	rootCmd.AddCommand(
		NewRunCmd(&cfgFile, &logLevel),
		NewValidateCmd(),
		NewVersionCmd(),
	)

	return rootCmd
}
