// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bureau-foundation/egress/control"
	"github.com/bureau-foundation/egress/lib/clock"
	"github.com/bureau-foundation/egress/lib/process"
	"github.com/bureau-foundation/egress/lib/version"
	"github.com/bureau-foundation/egress/policy"
	"github.com/bureau-foundation/egress/proxy"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath    string
		listenAddress string
		controlSocket string
		logLevel      string
		showVersion   bool
	)

	flag.StringVar(&configPath, "config", "", "path to YAML configuration file")
	flag.StringVar(&listenAddress, "listen", "", "proxy listen address (overrides config)")
	flag.StringVar(&controlSocket, "control-socket", "", "control socket path (overrides config)")
	flag.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("egress-proxy %s\n", version.Info())
		return nil
	}

	config := proxy.DefaultConfig()
	if configPath != "" {
		loaded, err := proxy.LoadConfig(configPath)
		if err != nil {
			return err
		}
		config = loaded
	}
	if listenAddress != "" {
		config.ListenAddress = listenAddress
	}
	if controlSocket != "" {
		config.ControlSocket = controlSocket
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	approvalTimeout, err := configDuration(config.ApprovalTimeout, 60*time.Second)
	if err != nil {
		return fmt.Errorf("approval_timeout: %w", err)
	}
	dialTimeout, err := configDuration(config.DialTimeout, 10*time.Second)
	if err != nil {
		return fmt.Errorf("dial_timeout: %w", err)
	}

	clk := clock.Real()

	approvals := policy.NewManager(config.AllowedDomains, approvalTimeout, clk)
	approvals.Logger = logger

	proxyServer := &proxy.Server{
		ListenAddress:  config.ListenAddress,
		Approvals:      approvals,
		DialTimeout:    dialTimeout,
		MaxConnections: config.MaxConnections,
		Logger:         logger,
	}
	if err := proxyServer.Start(ctx); err != nil {
		return err
	}

	controlServer := control.NewServer(config.ControlSocket, logger)
	control.NewService(approvals, proxyServer, clk).RegisterActions(controlServer)

	controlDone := make(chan error, 1)
	go func() {
		controlDone <- controlServer.Serve(ctx)
	}()

	// Notify systemd that we're ready (no-op if not running under systemd)
	notifySystemd("READY=1")

	logger.Info("egress proxy running",
		"address", proxyServer.Addr(),
		"control_socket", config.ControlSocket,
		"allowed_domains", len(config.AllowedDomains),
	)

	// Wait for shutdown signal.
	<-ctx.Done()
	logger.Info("shutting down")

	// Stop accepting proxy connections, then drain the control socket
	// before retiring pending approvals: an operator's in-flight
	// resolve should land, not race the shutdown.
	proxyServer.Stop()
	if err := <-controlDone; err != nil {
		logger.Error("control socket error", "error", err)
	}
	approvals.Shutdown()

	return nil
}

// configDuration parses a duration from the config, substituting
// fallback for the empty string. Validate should have caught malformed
// values, but fail loud if not.
func configDuration(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	return parsed, nil
}

// notifySystemd sends a notification to systemd's sd_notify socket.
// This is used to signal readiness when running as a systemd service.
// Does nothing if NOTIFY_SOCKET is not set.
func notifySystemd(state string) {
	socketPath := os.Getenv("NOTIFY_SOCKET")
	if socketPath == "" {
		return
	}

	conn, err := net.Dial("unixgram", socketPath)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.Write([]byte(state))
}
