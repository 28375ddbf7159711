package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/spf13/cobra"

	"netwatch/internal/cli"
	"netwatch/internal/codec"
	"netwatch/internal/config"
	"netwatch/internal/simulate"
)

func newMenuCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Start the interactive menu (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd, opts)
		},
	}
}

func runMenu(cmd *cobra.Command, opts *rootOptions) error {
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Autoload {
		n, err := a.svc.LoadFromStore(cmd.Context())
		if err != nil {
			a.render.Error(err)
		} else {
			a.render.Loaded(n, a.svc.StoreLocation())
		}
	}

	menu := cli.NewMenu(a.svc, cmd.InOrStdin(), cmd.OutOrStdout(), cli.MenuOptions{
		Simulation: simulationConfig(a.cfg),
	})
	return menu.Run(cmd.Context())
}

func newConnectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "connect <address-a> <address-b>",
		Short: "Connect two devices and log the connection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, true, func(a *app) error {
				res, err := a.svc.Connect(cmd.Context(), args[0], args[1])
				cli.ReportConnect(a.render, a.svc, res, err)
				if err != nil {
					return err
				}
				return res.Outcome.Err()
			})
		},
	}
}

func newLoadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Replay the connection log and report what it contains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, false, func(a *app) error {
				n, err := a.svc.LoadFromStore(cmd.Context())
				if err != nil {
					return err
				}
				a.render.Loaded(n, a.svc.StoreLocation())
				a.render.Info(fmt.Sprintf("%d devices, %d connections, %d flagged",
					a.svc.DeviceCount(), a.svc.EdgeCount(), len(a.svc.Anomalies())))
				return nil
			})
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List devices with their degree and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, true, func(a *app) error {
				a.render.Devices(a.svc.ListDevices())
				return nil
			})
		},
	}
}

func newMapCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "map",
		Short: "Display the network map and the raw connection log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, true, func(a *app) error {
				a.render.NetworkMap(a.svc.NetworkMap())
				a.render.StoreDump(a.svc.StoreLocation(), func(w io.Writer) error {
					return a.svc.DumpStore(cmd.Context(), w)
				})
				return nil
			})
		},
	}
}

func newDetectCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Report flagged and suspicious devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, true, func(a *app) error {
				a.render.Anomalies(a.svc.Anomalies())
				return nil
			})
		},
	}
}

func newSimulateCmd(opts *rootOptions) *cobra.Command {
	var (
		steps int
		delay time.Duration
		seed  uint64
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate random connections between 192.168.x.y devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, true, func(a *app) error {
				simCfg := simulationConfig(a.cfg)
				if cmd.Flags().Changed("steps") {
					simCfg.Steps = steps
				}
				if cmd.Flags().Changed("delay") {
					simCfg.Delay = delay
				}

				var rng *rand.Rand
				if cmd.Flags().Changed("seed") {
					rng = rand.New(rand.NewPCG(seed, seed))
				}

				driver := simulate.NewDriver(a.svc, simCfg, rng)
				driver.OnStep(func(s simulate.Step) {
					a.render.Step(s)
					for _, addr := range s.Result.NewlyFlagged {
						degree, _ := a.svc.Degree(addr)
						a.render.Flagged(addr, degree)
					}
				})

				a.render.SimulationStart(simCfg.Steps)
				sum, err := driver.Run(cmd.Context())
				a.render.Summary(sum)
				return err
			})
		},
	}

	cmd.Flags().IntVar(&steps, "steps", config.DefaultSimSteps, "number of simulation steps")
	cmd.Flags().DurationVar(&delay, "delay", config.DefaultSimDelay, "pause after each generated connection")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for a reproducible run")

	return cmd
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the network map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exp, err := codec.ForFormat(format)
			if err != nil {
				return err
			}

			return withApp(cmd, opts, true, func(a *app) error {
				m := a.svc.NetworkMap()
				if output == "" || output == "-" {
					return exp.Export(&m, cmd.OutOrStdout())
				}

				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				if err := exp.Export(&m, f); err != nil {
					f.Close()
					return err
				}
				return f.Close()
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "export format: json|yaml|csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Connect every edge of an exported map and log the new ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				imp codec.Codec
				err error
			)
			if format != "" {
				imp, err = codec.ForFormat(format)
			} else {
				imp, err = codec.ForPath(args[0])
			}
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			m, err := imp.Parse(f)
			if err != nil {
				return err
			}

			return withApp(cmd, opts, true, func(a *app) error {
				result, err := a.svc.Import(cmd.Context(), *m)
				a.render.Info(fmt.Sprintf("Imported %s: %d created, %d existing, %d rejected, %d newly flagged",
					args[0], result.Created, result.Existing, result.Rejected, result.Flagged))
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "input format (default: from file extension)")

	return cmd
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if path == "" {
				path = "(defaults, no config file found)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config: %s\n%s\n", path, cfg.Summary())
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	pathsCmd := &cobra.Command{
		Use:   "paths",
		Short: "List config file locations in search order (* = exists)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, c := range config.Candidates(opts.configPath) {
				mark := " "
				if _, err := os.Stat(c.Path); err == nil {
					mark = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-8s %s\n", mark, c.Source, c.Path)
			}
			return nil
		},
	}

	cmd.AddCommand(initCmd, pathsCmd)

	return cmd
}

func simulationConfig(cfg *config.Config) simulate.Config {
	return simulate.Config{
		Steps:   cfg.Simulation.Steps,
		Delay:   cfg.Simulation.Delay.Duration(),
		Subnets: cfg.Simulation.Subnets,
		Hosts:   cfg.Simulation.Hosts,
	}
}
