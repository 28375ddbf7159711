// Command netwatch models a network of devices as a connection graph, flags
// devices with too many connections and keeps a replayable connection log.
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"netwatch/internal/config"
)

var version = "0.1.0-dev"

// rootOptions holds the persistent flags shared by every command
type rootOptions struct {
	configPath string
	storePath  string
	backend    string
	threshold  int
	maxDevices int
	autoload   bool
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "netwatch",
		Short: "Track device connections and flag suspicious hubs",
		Long: `netwatch models a small network as an undirected graph of devices.
Every accepted connection is appended to a connection log that can be
replayed later; devices whose connection count exceeds the threshold are
flagged as suspicious.

Run without a subcommand to start the interactive menu.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
			if opts.verbose {
				log.SetOutput(cmd.ErrOrStderr())
			} else {
				log.SetOutput(io.Discard)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: search $"+config.EnvConfigPath+", ./"+config.ConfigFileName+", ~/.config/netwatch)")
	flags.StringVar(&opts.storePath, "store", "", "connection log path")
	flags.StringVar(&opts.backend, "backend", "", "connection log backend: csv|sqlite")
	flags.IntVar(&opts.threshold, "threshold", config.DefaultThreshold, "connections above which a device is flagged")
	flags.IntVar(&opts.maxDevices, "max-devices", config.DefaultMaxDevices, "maximum number of devices (0 = unbounded)")
	flags.BoolVar(&opts.autoload, "autoload", false, "replay the connection log before starting the menu")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log diagnostics to stderr")

	rootCmd.AddCommand(
		newMenuCmd(opts),
		newConnectCmd(opts),
		newLoadCmd(opts),
		newListCmd(opts),
		newMapCmd(opts),
		newDetectCmd(opts),
		newSimulateCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newServeCmd(opts),
		newConfigCmd(opts),
	)

	return rootCmd
}
