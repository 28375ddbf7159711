package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"netwatch/internal/cli"
	"netwatch/internal/config"
	"netwatch/internal/metrics"
	"netwatch/internal/service"
	"netwatch/internal/store"
)

// app is the wiring shared by every command
type app struct {
	cfg     *config.Config
	cfgPath string
	log     store.Log
	bus     *service.EventBus
	metrics *metrics.Collector
	svc     *service.NetworkService
	render  *cli.Renderer
}

// loadConfig reads the config file and applies flag overrides
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, string, error) {
	cfg, path, err := config.Load(opts.configPath)
	if err != nil {
		return nil, path, err
	}

	flags := cmd.Flags()
	if flags.Changed("threshold") {
		cfg.Threshold = opts.threshold
	}
	if flags.Changed("max-devices") {
		cfg.MaxDevices = opts.maxDevices
	}
	if flags.Changed("autoload") {
		cfg.Autoload = opts.autoload
	}
	if flags.Changed("backend") {
		cfg.Store.Backend = opts.backend
		if !flags.Changed("store") && cfg.Store.Backend == config.BackendSQLite && cfg.Store.Path == config.DefaultStorePath {
			cfg.Store.Path = config.DefaultSQLitePath
		}
	}
	if flags.Changed("store") {
		cfg.Store.Path = opts.storePath
	}

	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, path, nil
}

// newApp loads configuration and opens the connection log
func newApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, path, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		log.Printf("config: loaded %s", path)
	}

	connLog, err := store.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open connection log: %w", err)
	}
	log.Printf("store: using %s (%s)", connLog.Location(), cfg.Store.Backend)

	bus := service.NewEventBus()
	m := metrics.New()
	svcOpts := service.DefaultOptions()
	svcOpts.Threshold = cfg.Threshold
	svcOpts.MaxDevices = cfg.MaxDevices
	svcOpts.Metrics = m
	svc := service.NewNetworkService(connLog, bus, svcOpts)

	return &app{
		cfg:     cfg,
		cfgPath: path,
		log:     connLog,
		bus:     bus,
		metrics: m,
		svc:     svc,
		render:  cli.NewRenderer(cmd.OutOrStdout()),
	}, nil
}

// replay loads the connection log, since every invocation starts empty
func (a *app) replay(cmd *cobra.Command) error {
	n, err := a.svc.LoadFromStore(cmd.Context())
	if err != nil {
		return err
	}
	log.Printf("store: replayed %d records", n)
	return nil
}

func (a *app) Close() {
	if err := a.log.Close(); err != nil {
		log.Printf("store: close %s: %v", a.log.Location(), err)
	}
}

// withApp runs fn with a fresh app, replaying the log first when asked
func withApp(cmd *cobra.Command, opts *rootOptions, replay bool, fn func(a *app) error) error {
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if replay {
		if err := a.replay(cmd); err != nil {
			return err
		}
	}
	return fn(a)
}
