package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"netwatch/internal/config"
	"netwatch/internal/handler"
	"netwatch/internal/hub"
	"netwatch/internal/service"
	"netwatch/internal/watcher"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		addr  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the network over HTTP with a live event stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, true, func(a *app) error {
				if cmd.Flags().Changed("addr") {
					a.cfg.Server.Addr = addr
				}
				if cmd.Flags().Changed("watch") {
					a.cfg.Server.Watch = watch
				}
				return serve(cmd.Context(), a)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", config.DefaultServerAddr, "HTTP listen address")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload when the csv connection log changes on disk")

	return cmd
}

func serve(ctx context.Context, a *app) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Initialize SSE hub
	sseHub := hub.New()
	go sseHub.Run(ctx)

	// Connect event bus to SSE hub
	eventChan := make(chan service.Event, 100)
	a.bus.Subscribe(eventChan)
	defer a.bus.Unsubscribe(eventChan)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventChan:
				sseHub.Broadcast(event)
			}
		}
	}()

	if a.cfg.Server.Watch {
		watchStore(ctx, a)
	}

	router := handler.NewRouter(handler.NewNetworkHandler(a.svc), sseHub, a.metrics.Handler())

	// No write timeout: /events responses stay open
	server := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.cfg.Server.Addr, err)
	}

	a.render.Info(fmt.Sprintf("netwatch serving %d devices on http://%s (Ctrl-C to stop)",
		a.svc.DeviceCount(), ln.Addr()))

	errc := make(chan error, 1)
	go func() {
		log.Printf("server: listening on %s", ln.Addr())
		errc <- server.Serve(ln)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("server: shutting down, disconnecting %d event clients", sseHub.ClientCount())
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server: shutdown error: %v", err)
	}

	log.Println("server: stopped")
	return nil
}

// watchStore replays the connection log whenever it changes on disk. Replay
// only adds what is new, so appends made by this process are harmless.
func watchStore(ctx context.Context, a *app) {
	if a.cfg.Store.Backend != config.BackendCSV {
		log.Printf("server: --watch only supports the csv backend, ignoring")
		return
	}

	w := watcher.New(a.log.Location(), func() {
		before := a.svc.EdgeCount()
		if _, err := a.svc.LoadFromStore(ctx); err != nil {
			log.Printf("server: reload %s: %v", a.log.Location(), err)
			return
		}
		if added := a.svc.EdgeCount() - before; added > 0 {
			log.Printf("server: picked up %d new connections from %s", added, a.log.Location())
		}
	})

	go func() {
		if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("server: watcher stopped: %v", err)
		}
	}()
}
