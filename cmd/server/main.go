// Command emserver runs the event scheduling server. It wires the layers
// together, serves the frame protocol on the given port and shuts down on
// the console exit command or SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/event-manager/internal/admin"
	"github.com/Shivanand-hulikatti/event-manager/internal/config"
	"github.com/Shivanand-hulikatti/event-manager/internal/console"
	"github.com/Shivanand-hulikatti/event-manager/internal/handler"
	appLog "github.com/Shivanand-hulikatti/event-manager/internal/log"
	"github.com/Shivanand-hulikatti/event-manager/internal/metrics"
	"github.com/Shivanand-hulikatti/event-manager/internal/repository"
	"github.com/Shivanand-hulikatti/event-manager/internal/server"
	"github.com/Shivanand-hulikatti/event-manager/internal/service"
)

const usage = "Usage: emServer portNum"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "emserver: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "emserver portNum",
		Short:         "Event scheduling server",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				fmt.Fprintln(cmd.OutOrStdout(), usage)
				return nil
			}
			return run(cmd, configPath, args[0])
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	return rootCmd
}

func run(cmd *cobra.Command, configPath, portArg string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	port, err := config.ParsePort(portArg)
	if err != nil {
		return err
	}

	// ── 1. Log sink ─────────────────────────────────────────────────────
	logger := appLog.New(cfg.LogFile)
	if err := logger.Open(); err != nil {
		return err
	}
	defer logger.Close()
	logger.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	// ── 2. Wire up layers ───────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	store := repository.NewStore()
	eventSvc := service.NewEventService(store, logger)
	connHandler := handler.NewConnHandler(eventSvc, logger, m)
	srv := server.New(connHandler, handler.IsFatal, logger, m)

	// ── 3. Listeners ────────────────────────────────────────────────────
	ln, err := net.Listen("tcp", cfg.ListenAddr(port))
	if err != nil {
		logger.Error("listen failed", err, "port", port)
		return fmt.Errorf("listen: %w", err)
	}

	var adminLn net.Listener
	if cfg.AdminListen != "" {
		adminLn, err = net.Listen("tcp", cfg.AdminListen)
		if err != nil {
			ln.Close()
			logger.Error("admin listen failed", err, "addr", cfg.AdminListen)
			return fmt.Errorf("admin listen: %w", err)
		}
	}

	// ── 4. Run until EXIT, a signal or a fatal error ────────────────────
	sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	runCtx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return srv.Serve(ln)
	})

	exit := console.Watch(cmd.InOrStdin(), cfg.ExitCommand, logger)
	g.Go(func() error {
		defer cancel()
		return server.NewCoordinator(srv, store, logger).Run(gctx, exit)
	})

	if adminLn != nil {
		adminHandler := admin.NewHandler(store, srv, reg, logger)
		g.Go(func() error {
			return admin.Serve(gctx, adminLn, adminHandler.Router(), logger)
		})
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}
