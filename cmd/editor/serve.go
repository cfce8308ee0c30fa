package main

import (
	"context"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"led-effect-editor/internal/adapters/input/http"
	"led-effect-editor/internal/adapters/input/ssdp"
	"led-effect-editor/internal/adapters/output/persistence"
	"led-effect-editor/internal/domain/service"
	"led-effect-editor/internal/logger"
)

var announce bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a simulated LED controller",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.For(logger.ComponentCLI)
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := persistence.NewSQLiteStore(cfg.Server.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctrl, err := service.NewControllerService(ctx, store, logger.For(logger.ComponentService))
		if err != nil {
			return err
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return http.NewServer(ctrl, logger.For(logger.ComponentHTTPServer)).ListenAndServe(ctx, cfg.Server.Listen)
		})
		if announce {
			g.Go(func() error {
				return runAnnouncer(ctx, cfg.Server.Listen)
			})
		}
		log.Infow("Simulated controller started", "listen", cfg.Server.Listen, "db", cfg.Server.DBPath)
		return g.Wait()
	},
}

func runAnnouncer(ctx context.Context, listen string) error {
	log := logger.For(logger.ComponentCLI)
	_, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return err
	}
	ip := ssdp.LocalIP()
	if ip == "" {
		log.Warn("No local IPv4 address, not announcing the controller")
		return nil
	}
	srv := ssdp.NewServer(ip, port, logger.For(logger.ComponentHTTPServer))
	log.Infow("Announcing controller", "location", srv.Location())
	return srv.Start(ctx)
}

func init() {
	serveCmd.Flags().BoolVar(&announce, "announce", true, "answer SSDP searches for the controller")
}
